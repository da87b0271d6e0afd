// Package ratings provides database operations for individual rating votes.
// The (user_id, material_id) pair is unique at the schema level.
package ratings

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshare/internal/database"
	"github.com/mrlokans/bookshare/internal/entities"
)

// Repository handles all rating database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new ratings repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a rating. A second vote for the same pair fails with a
// unique-constraint violation.
func (r *Repository) Create(ctx context.Context, rating *entities.Rating) error {
	return database.Conn(ctx, r.db).Create(rating).Error
}

// Find returns the rating a user gave a material.
func (r *Repository) Find(ctx context.Context, userID, materialID uint) (*entities.Rating, error) {
	var rating entities.Rating
	err := database.Conn(ctx, r.db).Where("user_id = ? AND material_id = ?", userID, materialID).First(&rating).Error
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// Exists reports whether the user already rated the material.
func (r *Repository) Exists(ctx context.Context, userID, materialID uint) (bool, error) {
	var count int64
	err := database.Conn(ctx, r.db).Model(&entities.Rating{}).
		Where("user_id = ? AND material_id = ?", userID, materialID).
		Count(&count).Error
	return count > 0, err
}

// CountByMaterial returns the number of stored votes for a material.
func (r *Repository) CountByMaterial(ctx context.Context, materialID uint) (int64, error) {
	var count int64
	err := database.Conn(ctx, r.db).Model(&entities.Rating{}).Where("material_id = ?", materialID).Count(&count).Error
	return count, err
}

// DeleteByMaterial removes every vote for a material.
func (r *Repository) DeleteByMaterial(ctx context.Context, materialID uint) error {
	return database.Conn(ctx, r.db).Where("material_id = ?", materialID).Delete(&entities.Rating{}).Error
}
