package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshare/internal/auth"
	"github.com/mrlokans/bookshare/internal/config"
	"github.com/mrlokans/bookshare/internal/logger"
)

// NotificationServer upgrades a request to a user's notification socket.
type NotificationServer interface {
	Serve(w http.ResponseWriter, r *http.Request, userID uint) error
}

type NotificationsController struct {
	hub  NotificationServer
	mode config.AuthMode
	log  *logger.Logger
}

func NewNotificationsController(hub NotificationServer, mode config.AuthMode, log *logger.Logger) *NotificationsController {
	return &NotificationsController{hub: hub, mode: mode, log: log}
}

// Subscribe handles GET /ws/book-requests/:userId. With JWT auth the caller
// may only subscribe to their own notifications.
func (nc *NotificationsController) Subscribe(c *gin.Context) {
	userID, ok := parseIDParam(c, "userId")
	if !ok {
		return
	}
	caller := auth.GetUserID(c)
	if nc.mode == config.AuthModeJWT && caller == 0 {
		respondError(c, http.StatusUnauthorized, "authentication required")
		return
	}
	if caller != 0 && caller != userID {
		respondError(c, http.StatusForbidden, "cannot subscribe to another user's notifications")
		return
	}

	if err := nc.hub.Serve(c.Writer, c.Request, userID); err != nil {
		nc.log.Debug("WebSocket upgrade failed", "user_id", userID, "error", err)
	}
}
