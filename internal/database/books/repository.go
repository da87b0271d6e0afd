// Package books provides database operations for books offered for lending.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	available, err := repo.ListAvailable(ctx)
package books

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/mrlokans/bookshare/internal/database"
	"github.com/mrlokans/bookshare/internal/entities"
)

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a book and fills in its ID.
func (r *Repository) Create(ctx context.Context, book *entities.Book) error {
	return database.Conn(ctx, r.db).Create(book).Error
}

// GetByID retrieves a book by its ID.
func (r *Repository) GetByID(ctx context.Context, id uint) (*entities.Book, error) {
	var book entities.Book
	if err := database.Conn(ctx, r.db).First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// Exists reports whether a book with the given ID exists.
func (r *Repository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := database.Conn(ctx, r.db).Model(&entities.Book{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// Save persists every field of the book.
func (r *Repository) Save(ctx context.Context, book *entities.Book) error {
	return database.Conn(ctx, r.db).Save(book).Error
}

// Delete removes a book by ID.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	return database.Conn(ctx, r.db).Delete(&entities.Book{}, id).Error
}

// ListAll returns every book, newest first.
func (r *Repository) ListAll(ctx context.Context) ([]entities.Book, error) {
	var books []entities.Book
	err := database.Conn(ctx, r.db).Order("created_at DESC, id DESC").Find(&books).Error
	return books, err
}

// ListAvailable returns books that have no APPROVED request.
func (r *Repository) ListAvailable(ctx context.Context) ([]entities.Book, error) {
	conn := database.Conn(ctx, r.db)
	approved := conn.Session(&gorm.Session{NewDB: true}).
		Model(&entities.BookRequest{}).
		Select("book_id").
		Where("status = ?", entities.RequestStatusApproved)

	var books []entities.Book
	err := conn.Where("id NOT IN (?)", approved).Order("created_at DESC, id DESC").Find(&books).Error
	return books, err
}

// ListByOwner returns the books owned by a user.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uint) ([]entities.Book, error) {
	var books []entities.Book
	err := database.Conn(ctx, r.db).Where("owner_id = ?", ownerID).Order("id ASC").Find(&books).Error
	return books, err
}

// IDsByOwner returns the IDs of the books owned by a user.
func (r *Repository) IDsByOwner(ctx context.Context, ownerID uint) ([]uint, error) {
	var ids []uint
	err := database.Conn(ctx, r.db).Model(&entities.Book{}).Where("owner_id = ?", ownerID).Order("id ASC").Pluck("id", &ids).Error
	return ids, err
}

// SearchByTitle returns books whose title contains query, case-insensitively.
func (r *Repository) SearchByTitle(ctx context.Context, query string) ([]entities.Book, error) {
	var books []entities.Book
	pattern := "%" + strings.TrimSpace(query) + "%"
	err := database.Conn(ctx, r.db).Where("LOWER(title) LIKE LOWER(?)", pattern).Order("title ASC").Find(&books).Error
	return books, err
}

// ListByTag returns books carrying the tag. Tags live in a JSON column whose
// query syntax differs between drivers, so filtering happens here.
func (r *Repository) ListByTag(ctx context.Context, tag entities.Tag) ([]entities.Book, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	matched := make([]entities.Book, 0, len(all))
	for _, b := range all {
		if entities.HasTag(b.Tags, tag) {
			matched = append(matched, b)
		}
	}
	return matched, nil
}
