// Package replies provides database operations for forum reply tree nodes.
package replies

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshare/internal/database"
	"github.com/mrlokans/bookshare/internal/entities"
)

// Repository handles all reply database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new replies repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, reply *entities.Reply) error {
	return database.Conn(ctx, r.db).Create(reply).Error
}

func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Reply, error) {
	var reply entities.Reply
	if err := database.Conn(ctx, r.db).First(&reply, id).Error; err != nil {
		return nil, err
	}
	return &reply, nil
}

// ListByIDs returns the replies with the given IDs, in no particular order.
// Missing IDs are skipped.
func (r *Repository) ListByIDs(ctx context.Context, ids []uint) ([]entities.Reply, error) {
	if len(ids) == 0 {
		return []entities.Reply{}, nil
	}
	var replies []entities.Reply
	err := database.Conn(ctx, r.db).Where("id IN ?", ids).Find(&replies).Error
	return replies, err
}

// ListAll returns every reply, oldest first.
func (r *Repository) ListAll(ctx context.Context) ([]entities.Reply, error) {
	var replies []entities.Reply
	err := database.Conn(ctx, r.db).Order("id ASC").Find(&replies).Error
	return replies, err
}

// UpdateReplyIDs overwrites the reply's child list.
func (r *Repository) UpdateReplyIDs(ctx context.Context, id uint, replyIDs []uint) error {
	return database.Conn(ctx, r.db).Model(&entities.Reply{ID: id}).
		Update("reply_ids", entities.ReplyIDList(replyIDs)).Error
}

// DeleteMany removes every reply in ids and returns the number deleted.
func (r *Repository) DeleteMany(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := database.Conn(ctx, r.db).Where("id IN ?", ids).Delete(&entities.Reply{})
	return result.RowsAffected, result.Error
}
