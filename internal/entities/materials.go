package entities

import (
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// MaterialType is the upper-cased file extension of an uploaded material,
// e.g. "PDF" or "DOCX".
type MaterialType string

const MaterialTypeUnknown MaterialType = "UNKNOWN"

// MaterialTypeFromFilename derives the material type from a file name.
func MaterialTypeFromFilename(name string) MaterialType {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	if ext == "" {
		return MaterialTypeUnknown
	}
	return MaterialType(strings.ToUpper(ext))
}

type Material struct {
	ID          uint                     `gorm:"primaryKey" json:"id"`
	Name        string                   `gorm:"index;size:512" json:"name"`
	Description string                   `gorm:"type:text" json:"description,omitempty"`
	Type        MaterialType             `gorm:"size:20" json:"type"`
	Tags        datatypes.JSONSlice[Tag] `json:"tags"`
	Path        string                   `gorm:"size:2048" json:"path"` // Public blob URL
	RatingSum   int                      `gorm:"default:0" json:"rating"`
	RatingCount int                      `gorm:"default:0" json:"nr_ratings"`
	UserID      uint                     `gorm:"index" json:"user_id"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

func (Material) TableName() string {
	return "materials"
}

// AverageRating is derived on read; it is never stored.
func (m *Material) AverageRating() float64 {
	if m.RatingCount == 0 {
		return 0
	}
	return float64(m.RatingSum) / float64(m.RatingCount)
}

// Rating is one user's vote on one material.
type Rating struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Value      int       `json:"value"`
	UserID     uint      `gorm:"uniqueIndex:idx_rating_user_material" json:"user_id"`
	MaterialID uint      `gorm:"uniqueIndex:idx_rating_user_material;index" json:"material_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func (Rating) TableName() string {
	return "ratings"
}

const (
	MinRatingValue = 1
	MaxRatingValue = 5
)
