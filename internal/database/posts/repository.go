// Package posts provides database operations for forum posts.
package posts

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshare/internal/database"
	"github.com/mrlokans/bookshare/internal/entities"
)

// Repository handles all post database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new posts repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, post *entities.Post) error {
	return database.Conn(ctx, r.db).Create(post).Error
}

func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Post, error) {
	var post entities.Post
	if err := database.Conn(ctx, r.db).First(&post, id).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *Repository) Delete(ctx context.Context, id uint) error {
	return database.Conn(ctx, r.db).Delete(&entities.Post{}, id).Error
}

// UpdateReplyIDs overwrites the post's top-level reply list.
func (r *Repository) UpdateReplyIDs(ctx context.Context, id uint, replyIDs []uint) error {
	return database.Conn(ctx, r.db).Model(&entities.Post{ID: id}).
		Update("reply_ids", entities.ReplyIDList(replyIDs)).Error
}

// ListAll returns every post, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]entities.Post, error) {
	var posts []entities.Post
	err := database.Conn(ctx, r.db).Order("date DESC, id DESC").Find(&posts).Error
	return posts, err
}

// SearchByTitle returns posts whose title contains query, case-insensitively.
func (r *Repository) SearchByTitle(ctx context.Context, query string) ([]entities.Post, error) {
	var posts []entities.Post
	pattern := "%" + strings.TrimSpace(query) + "%"
	err := database.Conn(ctx, r.db).Where("LOWER(title) LIKE LOWER(?)", pattern).Order("date DESC, id DESC").Find(&posts).Error
	return posts, err
}

// ListByTag returns posts carrying the tag.
func (r *Repository) ListByTag(ctx context.Context, tag entities.Tag) ([]entities.Post, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]entities.Post, 0, len(all))
	for _, p := range all {
		if entities.HasTag(p.Tags, tag) {
			matched = append(matched, p)
		}
	}
	return matched, nil
}
