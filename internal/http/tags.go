package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshare/internal/entities"
)

// ListTags handles GET /api/tags
func ListTags(c *gin.Context) {
	c.JSON(http.StatusOK, entities.AllTags)
}
