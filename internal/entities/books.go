package entities

import (
	"time"

	"gorm.io/datatypes"
)

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "PENDING"
	RequestStatusApproved RequestStatus = "APPROVED"
	RequestStatusDeclined RequestStatus = "DECLINED"
)

type Book struct {
	ID          uint                     `gorm:"primaryKey" json:"id"`
	Title       string                   `gorm:"index;size:512" json:"title"`
	Author      string                   `gorm:"index;size:256" json:"author"`
	Description string                   `gorm:"type:text" json:"description,omitempty"`
	Tags        datatypes.JSONSlice[Tag] `json:"tags"`
	PhotoPath   string                   `gorm:"size:2048" json:"photo_path,omitempty"` // Public blob URL
	OwnerID     uint                     `gorm:"index" json:"owner_id"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}

// BookRequest is a user's request to borrow a book.
//
// Lifecycle: PENDING -> APPROVED or PENDING -> DECLINED. Approving one
// request declines every other request for the same book.
type BookRequest struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	BookID      uint          `gorm:"index;index:idx_request_book_requester" json:"book_id"`
	RequesterID uint          `gorm:"index;index:idx_request_book_requester" json:"requester_id"`
	Status      RequestStatus `gorm:"size:20;index;default:'PENDING'" json:"status"`
	Date        time.Time     `json:"date"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (BookRequest) TableName() string {
	return "book_requests"
}

func (r *BookRequest) IsPending() bool  { return r.Status == RequestStatusPending }
func (r *BookRequest) IsApproved() bool { return r.Status == RequestStatusApproved }
func (r *BookRequest) IsDeclined() bool { return r.Status == RequestStatusDeclined }
