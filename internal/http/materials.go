package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshare/internal/entities"
	"github.com/mrlokans/bookshare/internal/idempotency"
	"github.com/mrlokans/bookshare/internal/logger"
	"github.com/mrlokans/bookshare/internal/services"
)

// MaterialService is the study-material logic the endpoints need.
type MaterialService interface {
	Create(ctx context.Context, in services.CreateMaterialInput) (*entities.Material, error)
	Get(ctx context.Context, id uint) (*entities.Material, error)
	List(ctx context.Context) ([]entities.Material, error)
	SearchByName(ctx context.Context, name string) ([]entities.Material, error)
	FilterByTag(ctx context.Context, raw string) ([]entities.Material, error)
	Update(ctx context.Context, in services.UpdateMaterialInput) (*entities.Material, error)
	Delete(ctx context.Context, id uint) error
}

// RatingService is the voting logic the rating endpoints need.
type RatingService interface {
	AddRating(ctx context.Context, materialID, userID uint, value int) (*entities.Material, error)
	GetUserRating(ctx context.Context, materialID, userID uint) (int, error)
}

// MaterialView adds the derived average to a material.
type MaterialView struct {
	entities.Material
	Average float64 `json:"average_rating"`
}

func materialView(m *entities.Material) MaterialView {
	return MaterialView{Material: *m, Average: m.AverageRating()}
}

func materialViews(ms []entities.Material) []MaterialView {
	views := make([]MaterialView, len(ms))
	for i := range ms {
		views[i] = materialView(&ms[i])
	}
	return views
}

type MaterialsController struct {
	materials MaterialService
	ratings   RatingService
	keys      idempotency.Store
	log       *logger.Logger
}

// NewMaterialsController wires the material and rating endpoints. keys may
// be nil.
func NewMaterialsController(materials MaterialService, ratings RatingService, keys idempotency.Store, log *logger.Logger) *MaterialsController {
	return &MaterialsController{materials: materials, ratings: ratings, keys: keys, log: log}
}

// CreateMaterial handles POST /api/materials (multipart: file, name,
// description, tags, userId).
func (mc *MaterialsController) CreateMaterial(c *gin.Context) {
	limitBody(c)
	userID, ok := actorID(c, "userId", "user_id")
	if !ok {
		return
	}
	tags, _ := formTags(c)

	file, closer, err := openUpload(c, "file")
	if err != nil {
		respondBadRequest(c, "invalid file upload")
		return
	}
	if closer != nil {
		defer closer.Close()
	}

	m, err := mc.materials.Create(c.Request.Context(), services.CreateMaterialInput{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Tags:        tags,
		UserID:      userID,
		File:        file,
	})
	if err != nil {
		respondServiceError(c, mc.log, err, "create material")
		return
	}
	respondCreated(c, materialView(m))
}

// ListMaterials handles GET /api/materials
func (mc *MaterialsController) ListMaterials(c *gin.Context) {
	ms, err := mc.materials.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, mc.log, err, "list materials")
		return
	}
	respondListOrNoContent(c, materialViews(ms))
}

// SearchMaterials handles GET /api/materials/search?name=
func (mc *MaterialsController) SearchMaterials(c *gin.Context) {
	ms, err := mc.materials.SearchByName(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondServiceError(c, mc.log, err, "search materials")
		return
	}
	c.JSON(http.StatusOK, materialViews(ms))
}

// FilterMaterials handles GET /api/materials/filter?tag=
func (mc *MaterialsController) FilterMaterials(c *gin.Context) {
	ms, err := mc.materials.FilterByTag(c.Request.Context(), c.Query("tag"))
	if err != nil {
		respondServiceError(c, mc.log, err, "filter materials")
		return
	}
	c.JSON(http.StatusOK, materialViews(ms))
}

// GetMaterial handles GET /api/materials/:id
func (mc *MaterialsController) GetMaterial(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	m, err := mc.materials.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, mc.log, err, "get material")
		return
	}
	c.JSON(http.StatusOK, materialView(m))
}

// UpdateMaterial handles PUT /api/materials/update (multipart: id, name,
// description, tags, file). Omitted tags and file keep their stored values.
func (mc *MaterialsController) UpdateMaterial(c *gin.Context) {
	limitBody(c)
	id, ok := formID(c, "id")
	if !ok {
		return
	}
	tags, present := formTags(c)
	if !present {
		tags = nil
	}

	file, closer, err := openUpload(c, "file")
	if err != nil {
		respondBadRequest(c, "invalid file upload")
		return
	}
	if closer != nil {
		defer closer.Close()
	}

	m, err := mc.materials.Update(c.Request.Context(), services.UpdateMaterialInput{
		ID:          id,
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Tags:        tags,
		File:        file,
	})
	if err != nil {
		respondServiceError(c, mc.log, err, "update material")
		return
	}
	c.JSON(http.StatusOK, materialView(m))
}

// DeleteMaterial handles DELETE /api/materials/:id
func (mc *MaterialsController) DeleteMaterial(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := mc.materials.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, mc.log, err, "delete material")
		return
	}
	c.Status(http.StatusNoContent)
}

// AddRating handles PUT /api/materials/rating?materialId=&userId=&rating=
func (mc *MaterialsController) AddRating(c *gin.Context) {
	materialID, ok := parseQueryID(c, "materialId")
	if !ok {
		return
	}
	userID, ok := actorID(c, "userId")
	if !ok {
		return
	}
	value, err := strconv.Atoi(c.Query("rating"))
	if err != nil {
		respondBadRequest(c, "rating must be an integer")
		return
	}

	idempotent(c, mc.keys, mc.log, idempotency.ScopeRating,
		func() (uint, bool) {
			m, err := mc.ratings.AddRating(c.Request.Context(), materialID, userID, value)
			if err != nil {
				respondServiceError(c, mc.log, err, "add rating")
				return 0, false
			}
			c.JSON(http.StatusOK, materialView(m))
			return m.ID, true
		},
		func(id uint) {
			m, err := mc.materials.Get(c.Request.Context(), id)
			if err != nil {
				respondServiceError(c, mc.log, err, "get material")
				return
			}
			c.JSON(http.StatusOK, materialView(m))
		},
	)
}

// GetUserRating handles GET /api/ratings/user-rating?userId=&materialId=
func (mc *MaterialsController) GetUserRating(c *gin.Context) {
	userID, ok := parseQueryID(c, "userId")
	if !ok {
		return
	}
	materialID, ok := parseQueryID(c, "materialId")
	if !ok {
		return
	}
	value, err := mc.ratings.GetUserRating(c.Request.Context(), materialID, userID)
	if err != nil {
		respondServiceError(c, mc.log, err, "get user rating")
		return
	}
	c.JSON(http.StatusOK, gin.H{"rating": value})
}
