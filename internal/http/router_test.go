package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshare/internal/apperr"
	"github.com/mrlokans/bookshare/internal/auth"
	"github.com/mrlokans/bookshare/internal/chat"
	"github.com/mrlokans/bookshare/internal/config"
	"github.com/mrlokans/bookshare/internal/database/bookrequests"
	"github.com/mrlokans/bookshare/internal/database/books"
	"github.com/mrlokans/bookshare/internal/database/dbtest"
	"github.com/mrlokans/bookshare/internal/database/materials"
	"github.com/mrlokans/bookshare/internal/database/posts"
	"github.com/mrlokans/bookshare/internal/database/ratings"
	"github.com/mrlokans/bookshare/internal/database/replies"
	"github.com/mrlokans/bookshare/internal/database/users"
	"github.com/mrlokans/bookshare/internal/entities"
	"github.com/mrlokans/bookshare/internal/idempotency"
	"github.com/mrlokans/bookshare/internal/logger"
	"github.com/mrlokans/bookshare/internal/notify"
	"github.com/mrlokans/bookshare/internal/services"
)

type memoryBlobs struct {
	mu      sync.Mutex
	n       int
	cleaned []string
}

func (m *memoryBlobs) Upload(_ context.Context, content io.Reader, _, folder, filename string) (string, error) {
	if _, err := io.ReadAll(content); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.n++
	return fmt.Sprintf("https://blobs.test/%s/%d_%s", folder, m.n, filename), nil
}

func (m *memoryBlobs) Cleanup(_ context.Context, url string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleaned = append(m.cleaned, url)
}

type stubRelay struct {
	reply string
	err   error
	got   []chat.Message
}

func (s *stubRelay) Reply(_ context.Context, messages []chat.Message) (string, error) {
	s.got = messages
	return s.reply, s.err
}

type stubHub struct {
	served []uint
}

func (s *stubHub) Serve(w http.ResponseWriter, _ *http.Request, userID uint) error {
	s.served = append(s.served, userID)
	w.WriteHeader(http.StatusSwitchingProtocols)
	return nil
}

type testServer struct {
	router *gin.Engine
	users  *users.Repository
	books  *books.Repository
	tokens *auth.Tokens
	blobs  *memoryBlobs
	relay  *stubRelay
	hub    *stubHub
}

func newTestServer(t *testing.T, mode config.AuthMode) *testServer {
	t.Helper()
	db := dbtest.New(t)
	log := logger.NewNop()

	userRepo := users.NewRepository(db.DB)
	bookRepo := books.NewRepository(db.DB)
	requestRepo := bookrequests.NewRepository(db.DB)
	materialRepo := materials.NewRepository(db.DB)
	ratingRepo := ratings.NewRepository(db.DB)
	postRepo := posts.NewRepository(db.DB)
	replyRepo := replies.NewRepository(db.DB)

	blobs := &memoryBlobs{}
	tokens := auth.NewTokens("router-test-secret", time.Hour)
	hubNotifier := notify.NewHub(log, nil)
	t.Cleanup(hubNotifier.Close)

	userSvc := services.NewUserService(userRepo, tokens, 4, log)
	bookSvc := services.NewBookService(db, bookRepo, requestRepo, blobs, blobs, log)
	requestSvc := services.NewBookRequestService(db, bookRepo, requestRepo, userRepo, hubNotifier, log)
	materialSvc := services.NewMaterialService(db, materialRepo, ratingRepo, blobs, blobs, log)
	ratingSvc := services.NewRatingService(db, materialRepo, userRepo, ratingRepo, log)
	replySvc := services.NewReplyService(db, postRepo, replyRepo, log)
	postSvc := services.NewPostService(db, postRepo, replyRepo, userRepo, replySvc, log)
	keys := idempotency.NewGormStore(db.DB, time.Hour)

	relay := &stubRelay{reply: "Try the library."}
	hub := &stubHub{}

	authCfg := config.Auth{Mode: mode}
	router := NewRouter(RouterConfig{
		Log:            log,
		Users:          NewUsersController(userSvc, nil, nil, log),
		Books:          NewBooksController(bookSvc, log),
		BookRequests:   NewBookRequestsController(requestSvc, requestRepo, keys, log),
		Materials:      NewMaterialsController(materialSvc, ratingSvc, keys, log),
		Forum:          NewForumController(postSvc, replySvc, log),
		Chat:           NewChatController(relay, log),
		Notifications:  NewNotificationsController(hub, mode, log),
		AuthMiddleware: auth.NewMiddleware(tokens, nil, userSvc, authCfg),
		Tokens:         tokens,
	})

	return &testServer{
		router: router,
		users:  userRepo,
		books:  bookRepo,
		tokens: tokens,
		blobs:  blobs,
		relay:  relay,
		hub:    hub,
	}
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) request(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return s.do(t, req)
}

func (s *testServer) user(t *testing.T, email string) *entities.User {
	t.Helper()
	u := &entities.User{FirstName: "Test", LastName: "User", Email: email}
	require.NoError(t, s.users.Create(context.Background(), u))
	return u
}

func (s *testServer) book(t *testing.T, ownerID uint, title string) *entities.Book {
	t.Helper()
	b := &entities.Book{Title: title, Author: "Author", OwnerID: ownerID}
	require.NoError(t, s.books.Create(context.Background(), b))
	return b
}

func multipartRequest(t *testing.T, target string, fields map[string]string, fileField, filename, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		fw, err := mw.CreateFormFile(fileField, filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestRouter_SignupAndLogin(t *testing.T) {
	s := newTestServer(t, config.AuthModeNone)

	w := s.request(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"first_name": "Ada",
		"last_name":  "Lovelace",
		"email":      "Ada@Example.com",
		"password":   "correct-horse",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[entities.User](t, w)
	assert.Equal(t, "ada@example.com", created.Email)
	assert.NotContains(t, w.Body.String(), "password")

	w = s.request(t, http.MethodPost, "/api/auth/signup", map[string]string{
		"first_name": "Ada", "last_name": "King", "email": "ada@example.com", "password": "correct-horse",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.request(t, http.MethodPost, "/api/auth/login?email=ada@example.com&password=wrong-password", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.request(t, http.MethodPost, "/api/auth/login?email=ADA@example.com&password=correct-horse", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode[loginResponse](t, w)
	require.NotEmpty(t, login.Token)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	w = s.do(t, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, decode[entities.User](t, w).ID)

	w = s.request(t, http.MethodGet, "/api/users/me", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_BookRequestFlow(t *testing.T) {
	s := newTestServer(t, config.AuthModeNone)
	owner := s.user(t, "owner@example.com")
	alice := s.user(t, "alice@example.com")
	bob := s.user(t, "bob@example.com")
	book := s.book(t, owner.ID, "Calculus")

	w := s.request(t, http.MethodGet, fmt.Sprintf("/api/book-requests/%d", owner.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.request(t, http.MethodPost, fmt.Sprintf("/api/book-requests?bookId=%d&requesterId=%d", book.ID, alice.ID), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	aliceReq := decode[entities.BookRequest](t, w)
	assert.Equal(t, entities.RequestStatusPending, aliceReq.Status)

	w = s.request(t, http.MethodPost, fmt.Sprintf("/api/book-requests?bookId=%d&requesterId=%d", book.ID, alice.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.request(t, http.MethodPost, fmt.Sprintf("/api/book-requests?bookId=%d&requesterId=%d", 9999, alice.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.request(t, http.MethodPost, fmt.Sprintf("/api/book-requests?bookId=%d&requesterId=%d", book.ID, bob.ID), nil)
	require.Equal(t, http.StatusCreated, w.Code)
	bobReq := decode[entities.BookRequest](t, w)

	w = s.request(t, http.MethodPut, fmt.Sprintf("/api/book-requests/%d/accept", aliceReq.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, entities.RequestStatusApproved, decode[entities.BookRequest](t, w).Status)

	w = s.request(t, http.MethodGet, fmt.Sprintf("/api/book-requests/%d?status=declined", owner.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	declined := decode[[]entities.BookRequest](t, w)
	require.Len(t, declined, 1)
	assert.Equal(t, bobReq.ID, declined[0].ID)

	w = s.request(t, http.MethodPut, fmt.Sprintf("/api/book-requests/%d/decline", aliceReq.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.request(t, http.MethodGet, fmt.Sprintf("/api/book-requests/requester/%d", bob.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]entities.BookRequest](t, w), 1)

	w = s.request(t, http.MethodPost, fmt.Sprintf("/api/book-requests?bookId=%d&requesterId=%d", book.ID, bob.ID), nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	retry := decode[entities.BookRequest](t, w)
	w = s.request(t, http.MethodPut, fmt.Sprintf("/api/book-requests/%d/accept", retry.ID), nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// An approved book leaves the catalogue.
	w = s.request(t, http.MethodGet, "/api/books", nil)
	assert.NotContains(t, w.Body.String(), "Calculus")
}

func TestRouter_BookRequestIdempotencyReplay(t *testing.T) {
	s := newTestServer(t, config.AuthModeNone)
	owner := s.user(t, "owner@example.com")
	alice := s.user(t, "alice@example.com")
	book := s.book(t, owner.ID, "Optics")

	target := fmt.Sprintf("/api/book-requests?bookId=%d&requesterId=%d", book.ID, alice.ID)
	send := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, target, nil)
		req.Header.Set(IdempotencyHeader, "retry-1")
		return s.do(t, req)
	}

	first := send()
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second := send()
	require.Equal(t, http.StatusCreated, second.Code, second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, decode[entities.BookRequest](t, first).ID, decode[entities.BookRequest](t, second).ID)

	req := httptest.NewRequest(http.MethodPost, target, nil)
	req.Header.Set(IdempotencyHeader, strings.Repeat("k", idempotency.MaxKeyLength+1))
	assert.Equal(t, http.StatusBadRequest, s.do(t, req).Code)
}

func TestRouter_BookCreateAndDelete(t *testing.T) {
	s := newTestServer(t, config.AuthModeNone)
	owner := s.user(t, "owner@example.com")

	req := multipartRequest(t, "/api/books", map[string]string{
		"title":   "Linear Algebra",
		"author":  "Strang",
		"tags":    "MATHEMATICS",
		"ownerId": fmt.Sprint(owner.ID),
	}, "photo", "cover.jpg", "jpeg-bytes")
	w := s.do(t, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	book := decode[entities.Book](t, w)
	assert.Equal(t, []entities.Tag{entities.TagMathematics}, []entities.Tag(book.Tags))
	assert.Contains(t, book.PhotoPath, "cover.jpg")

	w = s.request(t, http.MethodGet, "/api/books/filter?tag=mathematics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]entities.Book](t, w), 1)

	w = s.request(t, http.MethodGet, "/api/books/search?title=algebra", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]entities.Book](t, w), 1)

	req = multipartRequest(t, "/api/books", map[string]string{
		"title": "Bad", "author": "A", "tags": "ASTROLOGY", "ownerId": fmt.Sprint(owner.ID),
	}, "", "", "")
	assert.Equal(t, http.StatusBadRequest, s.do(t, req).Code)

	w = s.request(t, http.MethodDelete, fmt.Sprintf("/api/books/%d", book.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{book.PhotoPath}, s.blobs.cleaned)

	w = s.request(t, http.MethodGet, fmt.Sprintf("/api/books/%d", book.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_MaterialsAndRatings(t *testing.T) {
	s := newTestServer(t, config.AuthModeNone)
	author := s.user(t, "author@example.com")
	rater := s.user(t, "rater@example.com")

	w := s.request(t, http.MethodGet, "/api/materials", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req := multipartRequest(t, "/api/materials", map[string]string{
		"name":   "Thermodynamics notes",
		"tags":   "PHYSICS,CHEMISTRY",
		"userId": fmt.Sprint(author.ID),
	}, "file", "thermo.pdf", "%PDF-1.4")
	w = s.do(t, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	material := decode[MaterialView](t, w)
	assert.Len(t, material.Tags, 2)

	req = multipartRequest(t, "/api/materials", map[string]string{"name": "No file", "userId": fmt.Sprint(author.ID)}, "", "", "")
	assert.Equal(t, http.StatusBadRequest, s.do(t, req).Code)

	rate := func(value int, key string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut,
			fmt.Sprintf("/api/materials/rating?materialId=%d&userId=%d&rating=%d", material.ID, rater.ID, value), nil)
		if key != "" {
			req.Header.Set(IdempotencyHeader, key)
		}
		return s.do(t, req)
	}

	w = rate(4, "rate-once")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.InDelta(t, 4.0, decode[MaterialView](t, w).Average, 0.001)

	w = rate(4, "rate-once")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "true", w.Header().Get("Idempotent-Replayed"))

	assert.Equal(t, http.StatusConflict, rate(2, "").Code)
	assert.Equal(t, http.StatusBadRequest, rate(9, "").Code)

	w = s.request(t, http.MethodGet, fmt.Sprintf("/api/ratings/user-rating?userId=%d&materialId=%d", rater.ID, material.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]int{"rating": 4}, decode[map[string]int](t, w))

	w = s.request(t, http.MethodGet, fmt.Sprintf("/api/materials/%d", material.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[MaterialView](t, w)
	assert.Equal(t, 1, got.RatingCount)

	w = s.request(t, http.MethodDelete, fmt.Sprintf("/api/materials/%d", material.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Contains(t, s.blobs.cleaned, material.Path)
}

func TestRouter_ForumThread(t *testing.T) {
	s := newTestServer(t, config.AuthModeNone)
	author := s.user(t, "author@example.com")

	w := s.request(t, http.MethodPost, "/api/posts", map[string]any{
		"title": "Study group", "content": "Anyone?", "tags": []string{"HISTORY"}, "user_id": author.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	post := decode[entities.Post](t, w)

	w = s.request(t, http.MethodPost, fmt.Sprintf("/api/replies/to-post/%d", post.ID), map[string]any{"content": "Me", "user_id": author.ID})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	top := decode[entities.Reply](t, w)

	w = s.request(t, http.MethodPost, fmt.Sprintf("/api/replies/to-reply/%d", top.ID), map[string]any{"content": "Me too", "user_id": author.ID})
	require.Equal(t, http.StatusCreated, w.Code)

	w = s.request(t, http.MethodPost, fmt.Sprintf("/api/replies/to-reply/%d", top.ID), map[string]any{"content": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.request(t, http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	detail := decode[services.PostDetail](t, w)
	require.Len(t, detail.Thread, 1)
	assert.Len(t, detail.Thread[0].Children, 1)
	assert.NotEmpty(t, detail.TimeAgo)

	w = s.request(t, http.MethodDelete, fmt.Sprintf("/api/replies/%d", top.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]int{"deleted": 2}, decode[map[string]int](t, w))

	w = s.request(t, http.MethodGet, "/api/replies", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]entities.Reply](t, w))

	w = s.request(t, http.MethodDelete, fmt.Sprintf("/api/posts/%d", post.ID), nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.request(t, http.MethodGet, fmt.Sprintf("/api/posts/%d", post.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_Chat(t *testing.T) {
	s := newTestServer(t, config.AuthModeNone)

	w := s.request(t, http.MethodPost, "/api/chat", map[string]any{
		"messages": []chat.Message{{Role: "user", Content: "Where can I study?"}},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]string{"reply": "Try the library."}, decode[map[string]string](t, w))
	require.Len(t, s.relay.got, 1)

	s.relay.err = apperr.Unavailable("chat completion", errors.New("upstream down"))
	w = s.request(t, http.MethodPost, "/api/chat", map[string]any{
		"messages": []chat.Message{{Role: "user", Content: "Hello"}},
	})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRouter_JWTModeRequiresAuth(t *testing.T) {
	s := newTestServer(t, config.AuthModeJWT)
	owner := s.user(t, "owner@example.com")
	other := s.user(t, "other@example.com")

	assert.Equal(t, http.StatusUnauthorized, s.request(t, http.MethodGet, "/api/books", nil).Code)
	assert.Equal(t, http.StatusOK, s.request(t, http.MethodGet, "/api/tags", nil).Code)

	token, _, err := s.tokens.Issue(owner)
	require.NoError(t, err)

	authed := func(method, target string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		return s.do(t, req)
	}

	assert.Equal(t, http.StatusOK, authed(http.MethodGet, "/api/books").Code)

	assert.Equal(t, http.StatusUnauthorized, s.request(t, http.MethodGet, fmt.Sprintf("/ws/book-requests/%d", owner.ID), nil).Code)
	assert.Equal(t, http.StatusForbidden, authed(http.MethodGet, fmt.Sprintf("/ws/book-requests/%d", other.ID)).Code)
	authed(http.MethodGet, fmt.Sprintf("/ws/book-requests/%d", owner.ID))
	assert.Equal(t, []uint{owner.ID}, s.hub.served)
}
