package services

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshare/internal/auth"
	"github.com/mrlokans/bookshare/internal/database"
	"github.com/mrlokans/bookshare/internal/database/bookrequests"
	"github.com/mrlokans/bookshare/internal/database/books"
	"github.com/mrlokans/bookshare/internal/database/dbtest"
	"github.com/mrlokans/bookshare/internal/database/materials"
	"github.com/mrlokans/bookshare/internal/database/posts"
	"github.com/mrlokans/bookshare/internal/database/ratings"
	"github.com/mrlokans/bookshare/internal/database/replies"
	"github.com/mrlokans/bookshare/internal/database/users"
	"github.com/mrlokans/bookshare/internal/entities"
	"github.com/mrlokans/bookshare/internal/logger"
	"github.com/mrlokans/bookshare/internal/notify"
)

type sent struct {
	userID uint
	n      notify.Notification
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sent
}

func (r *recordingNotifier) Publish(userID uint, n notify.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sent{userID: userID, n: n})
}

func (r *recordingNotifier) to(userID uint) []notify.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Notification
	for _, s := range r.sent {
		if s.userID == userID {
			out = append(out, s.n)
		}
	}
	return out
}

type fakeBlobs struct {
	mu        sync.Mutex
	uploaded  []string
	cleaned   []string
	uploadErr error
}

func (f *fakeBlobs) Upload(_ context.Context, content io.Reader, _, folder, filename string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	if _, err := io.ReadAll(content); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	url := fmt.Sprintf("https://blobs.test/%s/%d_%s", folder, len(f.uploaded)+1, filename)
	f.uploaded = append(f.uploaded, url)
	return url, nil
}

func (f *fakeBlobs) Cleanup(_ context.Context, url string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleaned = append(f.cleaned, url)
}

type fixture struct {
	db        *database.Database
	users     *users.Repository
	books     *books.Repository
	requests  *bookrequests.Repository
	materials *materials.Repository
	ratings   *ratings.Repository
	posts     *posts.Repository
	replies   *replies.Repository

	notifier *recordingNotifier
	blobs    *fakeBlobs

	bookRequests *BookRequestService
	replyTree    *ReplyService
	ratingAgg    *RatingService
	userSvc      *UserService
	bookSvc      *BookService
	materialSvc  *MaterialService
	postSvc      *PostService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	log := logger.NewNop()
	f := &fixture{
		db:        db,
		users:     users.NewRepository(db.DB),
		books:     books.NewRepository(db.DB),
		requests:  bookrequests.NewRepository(db.DB),
		materials: materials.NewRepository(db.DB),
		ratings:   ratings.NewRepository(db.DB),
		posts:     posts.NewRepository(db.DB),
		replies:   replies.NewRepository(db.DB),
		notifier:  &recordingNotifier{},
		blobs:     &fakeBlobs{},
	}
	f.bookRequests = NewBookRequestService(db, f.books, f.requests, f.users, f.notifier, log)
	f.replyTree = NewReplyService(db, f.posts, f.replies, log)
	f.ratingAgg = NewRatingService(db, f.materials, f.users, f.ratings, log)
	f.userSvc = NewUserService(f.users, auth.NewTokens("test-secret", time.Hour), 4, log)
	f.bookSvc = NewBookService(db, f.books, f.requests, f.blobs, f.blobs, log)
	f.materialSvc = NewMaterialService(db, f.materials, f.ratings, f.blobs, f.blobs, log)
	f.postSvc = NewPostService(db, f.posts, f.replies, f.users, f.replyTree, log)
	return f
}

func (f *fixture) user(t *testing.T, email string) *entities.User {
	t.Helper()
	u := &entities.User{FirstName: "Test", LastName: "User", Email: email}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *fixture) book(t *testing.T, ownerID uint, title string) *entities.Book {
	t.Helper()
	b := &entities.Book{Title: title, Author: "Author", OwnerID: ownerID}
	require.NoError(t, f.books.Create(context.Background(), b))
	return b
}

func (f *fixture) material(t *testing.T, ownerID uint) *entities.Material {
	t.Helper()
	m := &entities.Material{Name: "Notes", Type: "PDF", Path: "https://blobs.test/materials/notes.pdf", UserID: ownerID}
	require.NoError(t, f.materials.Create(context.Background(), m))
	return m
}

func (f *fixture) post(t *testing.T, authorID uint) *entities.Post {
	t.Helper()
	p := &entities.Post{Title: "Question", UserID: authorID, ReplyIDs: entities.ReplyIDList(nil), Date: time.Now()}
	require.NoError(t, f.posts.Create(context.Background(), p))
	return p
}
