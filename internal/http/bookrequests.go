package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/bookshare/internal/entities"
	"github.com/mrlokans/bookshare/internal/idempotency"
	"github.com/mrlokans/bookshare/internal/logger"
)

// BookRequestService is the borrowing workflow the request endpoints need.
type BookRequestService interface {
	Create(ctx context.Context, bookID, requesterID uint) (*entities.BookRequest, error)
	Accept(ctx context.Context, requestID uint) (*entities.BookRequest, error)
	Decline(ctx context.Context, requestID uint) (*entities.BookRequest, error)
	ListForOwner(ctx context.Context, ownerID uint, status entities.RequestStatus) ([]entities.BookRequest, error)
	ListForRequester(ctx context.Context, requesterID uint) ([]entities.BookRequest, error)
}

// BookRequestGetter loads a recorded request for idempotent replays.
type BookRequestGetter interface {
	GetByID(ctx context.Context, id uint) (*entities.BookRequest, error)
}

type BookRequestsController struct {
	requests BookRequestService
	getter   BookRequestGetter
	keys     idempotency.Store
	log      *logger.Logger
}

// NewBookRequestsController wires the request endpoints. keys may be nil.
func NewBookRequestsController(requests BookRequestService, getter BookRequestGetter, keys idempotency.Store, log *logger.Logger) *BookRequestsController {
	return &BookRequestsController{requests: requests, getter: getter, keys: keys, log: log}
}

// CreateRequest handles POST /api/book-requests?bookId=&requesterId=
func (rc *BookRequestsController) CreateRequest(c *gin.Context) {
	bookID, ok := parseQueryID(c, "bookId")
	if !ok {
		return
	}
	requesterID, ok := actorID(c, "requesterId")
	if !ok {
		return
	}

	idempotent(c, rc.keys, rc.log, idempotency.ScopeBookRequest,
		func() (uint, bool) {
			req, err := rc.requests.Create(c.Request.Context(), bookID, requesterID)
			if err != nil {
				respondServiceError(c, rc.log, err, "create book request")
				return 0, false
			}
			respondCreated(c, req)
			return req.ID, true
		},
		func(id uint) {
			req, err := rc.getter.GetByID(c.Request.Context(), id)
			if err != nil {
				respondNotFound(c, "book request")
				return
			}
			c.JSON(http.StatusCreated, req)
		},
	)
}

// AcceptRequest handles PUT /api/book-requests/:id/accept
func (rc *BookRequestsController) AcceptRequest(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	req, err := rc.requests.Accept(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, rc.log, err, "accept book request")
		return
	}
	c.JSON(http.StatusOK, req)
}

// DeclineRequest handles PUT /api/book-requests/:id/decline
func (rc *BookRequestsController) DeclineRequest(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	req, err := rc.requests.Decline(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, rc.log, err, "decline book request")
		return
	}
	c.JSON(http.StatusOK, req)
}

// ListForOwner handles GET /api/book-requests/:id where :id is the book
// owner. ?status= narrows the result.
func (rc *BookRequestsController) ListForOwner(c *gin.Context) {
	ownerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	reqs, err := rc.requests.ListForOwner(c.Request.Context(), ownerID, entities.RequestStatus(strings.ToUpper(c.Query("status"))))
	if err != nil {
		respondServiceError(c, rc.log, err, "list owner requests")
		return
	}
	respondListOrNoContent(c, reqs)
}

// ListForRequester handles GET /api/book-requests/requester/:id
func (rc *BookRequestsController) ListForRequester(c *gin.Context) {
	requesterID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	reqs, err := rc.requests.ListForRequester(c.Request.Context(), requesterID)
	if err != nil {
		respondServiceError(c, rc.log, err, "list requester requests")
		return
	}
	c.JSON(http.StatusOK, reqs)
}
