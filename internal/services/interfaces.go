package services

import (
	"context"
	"io"

	"github.com/mrlokans/bookshare/internal/entities"
	"github.com/mrlokans/bookshare/internal/notify"
)

// Transactor runs fn inside a store transaction. Store calls made with the
// context passed to fn join that transaction.
type Transactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserStore provides access to user accounts.
type UserStore interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uint) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	Exists(ctx context.Context, id uint) (bool, error)
}

// BookStore provides access to books.
type BookStore interface {
	Create(ctx context.Context, book *entities.Book) error
	GetByID(ctx context.Context, id uint) (*entities.Book, error)
	Delete(ctx context.Context, id uint) error
	ListAll(ctx context.Context) ([]entities.Book, error)
	ListAvailable(ctx context.Context) ([]entities.Book, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]entities.Book, error)
	IDsByOwner(ctx context.Context, ownerID uint) ([]uint, error)
	SearchByTitle(ctx context.Context, query string) ([]entities.Book, error)
	ListByTag(ctx context.Context, tag entities.Tag) ([]entities.Book, error)
}

// BookRequestStore provides access to borrow requests.
type BookRequestStore interface {
	Create(ctx context.Context, req *entities.BookRequest) error
	GetByID(ctx context.Context, id uint) (*entities.BookRequest, error)
	Save(ctx context.Context, req *entities.BookRequest) error
	ListByBook(ctx context.Context, bookID uint) ([]entities.BookRequest, error)
	ListByBooks(ctx context.Context, bookIDs []uint, status entities.RequestStatus) ([]entities.BookRequest, error)
	ListByRequester(ctx context.Context, requesterID uint) ([]entities.BookRequest, error)
	ListByStatus(ctx context.Context, status entities.RequestStatus) ([]entities.BookRequest, error)
	ExistsPending(ctx context.Context, bookID, requesterID uint) (bool, error)
	DeleteByBook(ctx context.Context, bookID uint) (int64, error)
}

// MaterialStore provides access to study materials.
type MaterialStore interface {
	Create(ctx context.Context, m *entities.Material) error
	GetByID(ctx context.Context, id uint) (*entities.Material, error)
	Exists(ctx context.Context, id uint) (bool, error)
	Save(ctx context.Context, m *entities.Material) error
	Delete(ctx context.Context, id uint) error
	ApplyRating(ctx context.Context, id uint, value int) error
	ListAll(ctx context.Context) ([]entities.Material, error)
	SearchByName(ctx context.Context, query string) ([]entities.Material, error)
	ListByTag(ctx context.Context, tag entities.Tag) ([]entities.Material, error)
}

// RatingStore provides access to individual votes.
type RatingStore interface {
	Create(ctx context.Context, rating *entities.Rating) error
	Find(ctx context.Context, userID, materialID uint) (*entities.Rating, error)
	Exists(ctx context.Context, userID, materialID uint) (bool, error)
	DeleteByMaterial(ctx context.Context, materialID uint) error
}

// PostStore provides access to forum posts.
type PostStore interface {
	Create(ctx context.Context, post *entities.Post) error
	GetByID(ctx context.Context, id uint) (*entities.Post, error)
	Delete(ctx context.Context, id uint) error
	UpdateReplyIDs(ctx context.Context, id uint, replyIDs []uint) error
	ListAll(ctx context.Context) ([]entities.Post, error)
	SearchByTitle(ctx context.Context, query string) ([]entities.Post, error)
	ListByTag(ctx context.Context, tag entities.Tag) ([]entities.Post, error)
}

// ReplyStore provides access to reply tree nodes.
type ReplyStore interface {
	Create(ctx context.Context, reply *entities.Reply) error
	GetByID(ctx context.Context, id uint) (*entities.Reply, error)
	ListByIDs(ctx context.Context, ids []uint) ([]entities.Reply, error)
	ListAll(ctx context.Context) ([]entities.Reply, error)
	UpdateReplyIDs(ctx context.Context, id uint, replyIDs []uint) error
	DeleteMany(ctx context.Context, ids []uint) (int64, error)
}

// BlobUploader stores uploaded files and returns their public URL.
type BlobUploader interface {
	Upload(ctx context.Context, content io.Reader, contentType, folder, filename string) (string, error)
}

// BlobCleaner removes a stored file. Removal is best-effort: failures are
// logged by the implementation and never reported to the caller.
type BlobCleaner interface {
	Cleanup(ctx context.Context, url string)
}

// Notifier delivers real-time events to a connected user.
type Notifier interface {
	Publish(userID uint, n notify.Notification)
}

// Upload is a file handed over by the HTTP layer.
type Upload struct {
	Filename    string
	ContentType string
	Content     io.Reader
}
