// Package materials provides database operations for study materials and
// their rating aggregates.
package materials

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshare/internal/database"
	"github.com/mrlokans/bookshare/internal/entities"
)

// Repository handles all material database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new materials repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, m *entities.Material) error {
	return database.Conn(ctx, r.db).Create(m).Error
}

func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Material, error) {
	var m entities.Material
	if err := database.Conn(ctx, r.db).First(&m, id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *Repository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := database.Conn(ctx, r.db).Model(&entities.Material{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Save persists descriptive fields only. The rating aggregate is owned by
// ApplyRating and is never overwritten here.
func (r *Repository) Save(ctx context.Context, m *entities.Material) error {
	return database.Conn(ctx, r.db).Model(m).
		Select("name", "description", "type", "tags", "path").
		Updates(m).Error
}

func (r *Repository) Delete(ctx context.Context, id uint) error {
	return database.Conn(ctx, r.db).Delete(&entities.Material{}, id).Error
}

// ApplyRating adds one vote of the given value to the material's aggregate.
// The increment happens in SQL so concurrent votes are not lost.
func (r *Repository) ApplyRating(ctx context.Context, id uint, value int) error {
	result := database.Conn(ctx, r.db).Model(&entities.Material{}).Where("id = ?", id).Updates(map[string]any{
		"rating_sum":   gorm.Expr("rating_sum + ?", value),
		"rating_count": gorm.Expr("rating_count + ?", 1),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListAll returns every material, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]entities.Material, error) {
	var ms []entities.Material
	err := database.Conn(ctx, r.db).Order("created_at DESC, id DESC").Find(&ms).Error
	return ms, err
}

// SearchByName returns materials whose name contains query, case-insensitively.
func (r *Repository) SearchByName(ctx context.Context, query string) ([]entities.Material, error) {
	var ms []entities.Material
	pattern := "%" + strings.TrimSpace(query) + "%"
	err := database.Conn(ctx, r.db).Where("LOWER(name) LIKE LOWER(?)", pattern).Order("name ASC").Find(&ms).Error
	return ms, err
}

// ListByTag returns materials carrying the tag.
func (r *Repository) ListByTag(ctx context.Context, tag entities.Tag) ([]entities.Material, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]entities.Material, 0, len(all))
	for _, m := range all {
		if entities.HasTag(m.Tags, tag) {
			matched = append(matched, m)
		}
	}
	return matched, nil
}
