package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshare/internal/entities"
	"github.com/mrlokans/bookshare/internal/logger"
	"github.com/mrlokans/bookshare/internal/services"
)

// BookService is the catalogue logic the book endpoints need.
type BookService interface {
	Create(ctx context.Context, in services.CreateBookInput) (*entities.Book, error)
	Get(ctx context.Context, id uint) (*entities.Book, error)
	ListAvailable(ctx context.Context) ([]entities.Book, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]entities.Book, error)
	SearchByTitle(ctx context.Context, title string) ([]entities.Book, error)
	FilterByTag(ctx context.Context, raw string) ([]entities.Book, error)
	Delete(ctx context.Context, id uint) error
}

type BooksController struct {
	books BookService
	log   *logger.Logger
}

func NewBooksController(books BookService, log *logger.Logger) *BooksController {
	return &BooksController{books: books, log: log}
}

// CreateBook handles POST /api/books (multipart: title, author, description,
// tags, ownerId, photo).
func (bc *BooksController) CreateBook(c *gin.Context) {
	limitBody(c)
	ownerID, ok := actorID(c, "ownerId", "owner_id")
	if !ok {
		return
	}
	tags, _ := formTags(c)

	photo, closer, err := openUpload(c, "photo")
	if err != nil {
		respondBadRequest(c, "invalid photo upload")
		return
	}
	if closer != nil {
		defer closer.Close()
	}

	book, err := bc.books.Create(c.Request.Context(), services.CreateBookInput{
		Title:       c.PostForm("title"),
		Author:      c.PostForm("author"),
		Description: c.PostForm("description"),
		Tags:        tags,
		OwnerID:     ownerID,
		Photo:       photo,
	})
	if err != nil {
		respondServiceError(c, bc.log, err, "create book")
		return
	}
	respondCreated(c, book)
}

// ListBooks handles GET /api/books. Only books without an approved request
// are listed; ?ownerId= lists one owner's books instead.
func (bc *BooksController) ListBooks(c *gin.Context) {
	if c.Query("ownerId") != "" {
		ownerID, ok := parseQueryID(c, "ownerId")
		if !ok {
			return
		}
		books, err := bc.books.ListByOwner(c.Request.Context(), ownerID)
		if err != nil {
			respondServiceError(c, bc.log, err, "list owner books")
			return
		}
		c.JSON(http.StatusOK, books)
		return
	}

	books, err := bc.books.ListAvailable(c.Request.Context())
	if err != nil {
		respondServiceError(c, bc.log, err, "list books")
		return
	}
	c.JSON(http.StatusOK, books)
}

// SearchBooks handles GET /api/books/search?title=
func (bc *BooksController) SearchBooks(c *gin.Context) {
	books, err := bc.books.SearchByTitle(c.Request.Context(), c.Query("title"))
	if err != nil {
		respondServiceError(c, bc.log, err, "search books")
		return
	}
	respondListOrNoContent(c, books)
}

// FilterBooks handles GET /api/books/filter?tag=
func (bc *BooksController) FilterBooks(c *gin.Context) {
	books, err := bc.books.FilterByTag(c.Request.Context(), c.Query("tag"))
	if err != nil {
		respondServiceError(c, bc.log, err, "filter books")
		return
	}
	respondListOrNoContent(c, books)
}

// GetBook handles GET /api/books/:id
func (bc *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	book, err := bc.books.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, bc.log, err, "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

// DeleteBook handles DELETE /api/books/:id
func (bc *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := bc.books.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, bc.log, err, "delete book")
		return
	}
	c.Status(http.StatusNoContent)
}
