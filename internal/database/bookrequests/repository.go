// Package bookrequests provides database operations for borrow requests.
package bookrequests

import (
	"context"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshare/internal/database"
	"github.com/mrlokans/bookshare/internal/entities"
)

// Repository handles all book request database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new book requests repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a request and fills in its ID.
func (r *Repository) Create(ctx context.Context, req *entities.BookRequest) error {
	return database.Conn(ctx, r.db).Create(req).Error
}

// GetByID retrieves a request by ID.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.BookRequest, error) {
	var req entities.BookRequest
	if err := database.Conn(ctx, r.db).First(&req, id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// Save persists every field of the request.
func (r *Repository) Save(ctx context.Context, req *entities.BookRequest) error {
	return database.Conn(ctx, r.db).Save(req).Error
}

// ListByBook returns every request for a book, oldest first.
func (r *Repository) ListByBook(ctx context.Context, bookID uint) ([]entities.BookRequest, error) {
	var reqs []entities.BookRequest
	err := database.Conn(ctx, r.db).Where("book_id = ?", bookID).Order("id ASC").Find(&reqs).Error
	return reqs, err
}

// ListByBooks returns requests for any of the given books. An empty status
// matches every status.
func (r *Repository) ListByBooks(ctx context.Context, bookIDs []uint, status entities.RequestStatus) ([]entities.BookRequest, error) {
	if len(bookIDs) == 0 {
		return []entities.BookRequest{}, nil
	}
	query := database.Conn(ctx, r.db).Where("book_id IN ?", bookIDs)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var reqs []entities.BookRequest
	err := query.Order("id ASC").Find(&reqs).Error
	return reqs, err
}

// ListByRequester returns the requests a user has made, newest first.
func (r *Repository) ListByRequester(ctx context.Context, requesterID uint) ([]entities.BookRequest, error) {
	var reqs []entities.BookRequest
	err := database.Conn(ctx, r.db).Where("requester_id = ?", requesterID).Order("id DESC").Find(&reqs).Error
	return reqs, err
}

// ListByStatus returns every request in the given status.
func (r *Repository) ListByStatus(ctx context.Context, status entities.RequestStatus) ([]entities.BookRequest, error) {
	var reqs []entities.BookRequest
	err := database.Conn(ctx, r.db).Where("status = ?", status).Order("id ASC").Find(&reqs).Error
	return reqs, err
}

// ExistsPending reports whether a PENDING request exists for the pair.
func (r *Repository) ExistsPending(ctx context.Context, bookID, requesterID uint) (bool, error) {
	var count int64
	err := database.Conn(ctx, r.db).Model(&entities.BookRequest{}).
		Where("book_id = ? AND requester_id = ? AND status = ?", bookID, requesterID, entities.RequestStatusPending).
		Count(&count).Error
	return count > 0, err
}

// DeleteByBook removes every request for a book.
func (r *Repository) DeleteByBook(ctx context.Context, bookID uint) (int64, error) {
	result := database.Conn(ctx, r.db).Where("book_id = ?", bookID).Delete(&entities.BookRequest{})
	return result.RowsAffected, result.Error
}
