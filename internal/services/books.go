package services

import (
	"context"
	"strings"

	"github.com/mrlokans/bookshare/internal/apperr"
	"github.com/mrlokans/bookshare/internal/entities"
	"github.com/mrlokans/bookshare/internal/logger"
)

const bookImagesFolder = "book_images"

type BookService struct {
	tx       Transactor
	books    BookStore
	requests BookRequestStore
	blobs    BlobUploader
	cleaner  BlobCleaner
	log      *logger.Logger
}

func NewBookService(tx Transactor, books BookStore, requests BookRequestStore, blobs BlobUploader, cleaner BlobCleaner, log *logger.Logger) *BookService {
	return &BookService{tx: tx, books: books, requests: requests, blobs: blobs, cleaner: cleaner, log: log}
}

type CreateBookInput struct {
	Title       string
	Author      string
	Description string
	Tags        []string
	OwnerID     uint
	Photo       *Upload // optional
}

// Create stores the book and its photo. If the insert fails the uploaded
// photo is removed again.
func (s *BookService) Create(ctx context.Context, in CreateBookInput) (*entities.Book, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validation("title is required")
	}
	tags, bad, ok := entities.ParseTags(in.Tags)
	if !ok {
		return nil, apperr.Validation("unknown tag %q", bad)
	}

	book := &entities.Book{
		Title:       title,
		Author:      strings.TrimSpace(in.Author),
		Description: in.Description,
		Tags:        tags,
		OwnerID:     in.OwnerID,
	}
	if in.Photo != nil {
		url, err := s.blobs.Upload(ctx, in.Photo.Content, in.Photo.ContentType, bookImagesFolder, in.Photo.Filename)
		if err != nil {
			return nil, apperr.Unavailable("upload book photo", err)
		}
		book.PhotoPath = url
	}

	if err := s.books.Create(ctx, book); err != nil {
		if book.PhotoPath != "" {
			s.cleaner.Cleanup(ctx, book.PhotoPath)
		}
		return nil, apperr.Unavailable("create book", err)
	}
	s.log.Info("Book created", "book_id", book.ID, "owner_id", book.OwnerID)
	return book, nil
}

func (s *BookService) Get(ctx context.Context, id uint) (*entities.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "book", id)
	}
	return book, nil
}

// ListAvailable returns books that have no approved request.
func (s *BookService) ListAvailable(ctx context.Context) ([]entities.Book, error) {
	books, err := s.books.ListAvailable(ctx)
	if err != nil {
		return nil, apperr.Unavailable("list books", err)
	}
	return books, nil
}

func (s *BookService) ListAll(ctx context.Context) ([]entities.Book, error) {
	books, err := s.books.ListAll(ctx)
	if err != nil {
		return nil, apperr.Unavailable("list books", err)
	}
	return books, nil
}

func (s *BookService) ListByOwner(ctx context.Context, ownerID uint) ([]entities.Book, error) {
	books, err := s.books.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Unavailable("list books", err)
	}
	return books, nil
}

func (s *BookService) SearchByTitle(ctx context.Context, title string) ([]entities.Book, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apperr.Validation("title is required")
	}
	books, err := s.books.SearchByTitle(ctx, title)
	if err != nil {
		return nil, apperr.Unavailable("search books", err)
	}
	return books, nil
}

func (s *BookService) FilterByTag(ctx context.Context, raw string) ([]entities.Book, error) {
	tag, ok := entities.ParseTag(raw)
	if !ok {
		return nil, apperr.Validation("unknown tag %q", raw)
	}
	books, err := s.books.ListByTag(ctx, tag)
	if err != nil {
		return nil, apperr.Unavailable("filter books", err)
	}
	return books, nil
}

// Delete removes the book with its requests, then schedules removal of the
// photo. A failing photo removal never fails the delete.
func (s *BookService) Delete(ctx context.Context, id uint) error {
	var book *entities.Book
	var removed int64
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		var err error
		book, err = s.books.GetByID(ctx, id)
		if err != nil {
			return lookupErr(err, "book", id)
		}
		removed, err = s.requests.DeleteByBook(ctx, id)
		if err != nil {
			return apperr.Unavailable("delete book requests", err)
		}
		if err := s.books.Delete(ctx, id); err != nil {
			return apperr.Unavailable("delete book", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if book.PhotoPath != "" {
		s.cleaner.Cleanup(ctx, book.PhotoPath)
	}
	s.log.Info("Book deleted", "book_id", id, "requests_removed", removed)
	return nil
}
