package services

import (
	"context"
	"fmt"
	"time"

	"github.com/mrlokans/bookshare/internal/apperr"
	"github.com/mrlokans/bookshare/internal/entities"
	"github.com/mrlokans/bookshare/internal/logger"
	"github.com/mrlokans/bookshare/internal/notify"
)

// BookRequestService drives the borrow-request lifecycle:
//
//	PENDING -> APPROVED   (every other request for the book -> DECLINED)
//	PENDING -> DECLINED
//
// APPROVED and DECLINED are terminal.
type BookRequestService struct {
	tx       Transactor
	books    BookStore
	requests BookRequestStore
	users    UserStore
	notifier Notifier
	log      *logger.Logger
	now      func() time.Time
}

func NewBookRequestService(tx Transactor, books BookStore, requests BookRequestStore, users UserStore, notifier Notifier, log *logger.Logger) *BookRequestService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	return &BookRequestService{
		tx:       tx,
		books:    books,
		requests: requests,
		users:    users,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Create records a PENDING request by requesterID for bookID.
func (s *BookRequestService) Create(ctx context.Context, bookID, requesterID uint) (*entities.BookRequest, error) {
	var (
		req  *entities.BookRequest
		book *entities.Book
	)
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		var err error
		book, err = s.books.GetByID(ctx, bookID)
		if err != nil {
			return lookupErr(err, "book", bookID)
		}
		ok, err := s.users.Exists(ctx, requesterID)
		if err != nil {
			return apperr.Unavailable("load user", err)
		}
		if !ok {
			return apperr.NotFound("user", requesterID)
		}
		pending, err := s.requests.ExistsPending(ctx, bookID, requesterID)
		if err != nil {
			return apperr.Unavailable("check pending request", err)
		}
		if pending {
			return apperr.Conflict("user %d already has a pending request for book %d", requesterID, bookID)
		}
		req = &entities.BookRequest{
			BookID:      bookID,
			RequesterID: requesterID,
			Status:      entities.RequestStatusPending,
			Date:        startOfDay(s.now()),
		}
		if err := s.requests.Create(ctx, req); err != nil {
			return apperr.Unavailable("create book request", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Book request created", "request_id", req.ID, "book_id", bookID, "requester_id", requesterID)
	s.notifier.Publish(book.OwnerID, notify.Notification{
		Type:          notify.TypeRequestCreated,
		Message:       fmt.Sprintf("New request for %q", book.Title),
		BookRequestID: req.ID,
		BookID:        bookID,
	})
	return req, nil
}

// Accept approves the request and declines every other pending request for the
// same book. Accepting an already approved request re-runs the decline sweep.
// A book holds at most one approved request.
func (s *BookRequestService) Accept(ctx context.Context, requestID uint) (*entities.BookRequest, error) {
	var (
		req      *entities.BookRequest
		declined []entities.BookRequest
	)
	err := s.tx.Transaction(ctx, func(ctx context.Context) error {
		var err error
		req, err = s.requests.GetByID(ctx, requestID)
		if err != nil {
			return lookupErr(err, "book request", requestID)
		}
		if req.IsDeclined() {
			return apperr.Conflict("book request %d was already declined", requestID)
		}
		if err := s.ensureNoOtherApproved(ctx, req); err != nil {
			return err
		}
		if !req.IsApproved() {
			req.Status = entities.RequestStatusApproved
			if err := s.requests.Save(ctx, req); err != nil {
				return apperr.Unavailable("approve book request", err)
			}
		}
		declined, err = s.declineSiblings(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Book request accepted", "request_id", req.ID, "book_id", req.BookID, "declined", len(declined))
	s.notifier.Publish(req.RequesterID, notify.Notification{
		Type:          notify.TypeRequestApproved,
		Message:       "Your book request was approved",
		BookRequestID: req.ID,
		BookID:        req.BookID,
	})
	for _, d := range declined {
		s.notifyDeclined(&d)
	}
	return req, nil
}

func (s *BookRequestService) ensureNoOtherApproved(ctx context.Context, req *entities.BookRequest) error {
	siblings, err := s.requests.ListByBook(ctx, req.BookID)
	if err != nil {
		return apperr.Unavailable("list book requests", err)
	}
	for _, sib := range siblings {
		if sib.ID != req.ID && sib.IsApproved() {
			return apperr.Conflict("book %d already has an approved request", req.BookID)
		}
	}
	return nil
}

// declineSiblings sets every other pending request for the book to DECLINED,
// one at a time. It returns the requests it changed.
func (s *BookRequestService) declineSiblings(ctx context.Context, approved *entities.BookRequest) ([]entities.BookRequest, error) {
	siblings, err := s.requests.ListByBook(ctx, approved.BookID)
	if err != nil {
		return nil, apperr.Unavailable("list book requests", err)
	}
	var changed []entities.BookRequest
	for i := range siblings {
		sib := &siblings[i]
		if sib.ID == approved.ID || !sib.IsPending() {
			continue
		}
		sib.Status = entities.RequestStatusDeclined
		if err := s.requests.Save(ctx, sib); err != nil {
			return nil, apperr.Unavailable("decline book request", err)
		}
		changed = append(changed, *sib)
	}
	return changed, nil
}

// Decline rejects a request. Declining a declined request is a no-op.
func (s *BookRequestService) Decline(ctx context.Context, requestID uint) (*entities.BookRequest, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, lookupErr(err, "book request", requestID)
	}
	switch {
	case req.IsDeclined():
		return req, nil
	case req.IsApproved():
		return nil, apperr.Conflict("book request %d was already approved", requestID)
	}

	req.Status = entities.RequestStatusDeclined
	if err := s.requests.Save(ctx, req); err != nil {
		return nil, apperr.Unavailable("decline book request", err)
	}
	s.log.Info("Book request declined", "request_id", req.ID, "book_id", req.BookID)
	s.notifyDeclined(req)
	return req, nil
}

func (s *BookRequestService) notifyDeclined(req *entities.BookRequest) {
	s.notifier.Publish(req.RequesterID, notify.Notification{
		Type:          notify.TypeRequestDeclined,
		Message:       "Your book request was declined",
		BookRequestID: req.ID,
		BookID:        req.BookID,
	})
}

// ListForOwner returns requests for every book owned by ownerID. An empty
// status returns requests in any state.
func (s *BookRequestService) ListForOwner(ctx context.Context, ownerID uint, status entities.RequestStatus) ([]entities.BookRequest, error) {
	if status != "" && !validStatus(status) {
		return nil, apperr.Validation("unknown request status %q", status)
	}
	bookIDs, err := s.books.IDsByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperr.Unavailable("list owner books", err)
	}
	if len(bookIDs) == 0 {
		return []entities.BookRequest{}, nil
	}
	reqs, err := s.requests.ListByBooks(ctx, bookIDs, status)
	if err != nil {
		return nil, apperr.Unavailable("list book requests", err)
	}
	return reqs, nil
}

func (s *BookRequestService) ListForRequester(ctx context.Context, requesterID uint) ([]entities.BookRequest, error) {
	reqs, err := s.requests.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, apperr.Unavailable("list book requests", err)
	}
	return reqs, nil
}

func (s *BookRequestService) ExistsPending(ctx context.Context, bookID, requesterID uint) (bool, error) {
	ok, err := s.requests.ExistsPending(ctx, bookID, requesterID)
	if err != nil {
		return false, apperr.Unavailable("check pending request", err)
	}
	return ok, nil
}

// ReconcileApproved declines PENDING requests left behind on books that
// already have an approved request. It returns the number declined.
func (s *BookRequestService) ReconcileApproved(ctx context.Context) (int, error) {
	approved, err := s.requests.ListByStatus(ctx, entities.RequestStatusApproved)
	if err != nil {
		return 0, apperr.Unavailable("list approved requests", err)
	}

	total := 0
	seen := make(map[uint]struct{}, len(approved))
	for i := range approved {
		a := &approved[i]
		if _, dup := seen[a.BookID]; dup {
			continue
		}
		seen[a.BookID] = struct{}{}

		var declined []entities.BookRequest
		err := s.tx.Transaction(ctx, func(ctx context.Context) error {
			var err error
			declined, err = s.declineSiblings(ctx, a)
			return err
		})
		if err != nil {
			return total, err
		}
		for _, d := range declined {
			s.notifyDeclined(&d)
		}
		total += len(declined)
	}
	if total > 0 {
		s.log.Info("Reconciled approved book requests", "declined", total)
	}
	return total, nil
}

func validStatus(st entities.RequestStatus) bool {
	switch st {
	case entities.RequestStatusPending, entities.RequestStatusApproved, entities.RequestStatusDeclined:
		return true
	}
	return false
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
