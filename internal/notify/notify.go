// Package notify pushes book-request events to connected users over
// WebSocket.
package notify

import "time"

type NotificationType string

const (
	TypeRequestCreated  NotificationType = "REQUEST_CREATED"
	TypeRequestApproved NotificationType = "REQUEST_APPROVED"
	TypeRequestDeclined NotificationType = "REQUEST_DECLINED"
)

// Notification is the JSON frame written to a user's sockets.
type Notification struct {
	Type          NotificationType `json:"type"`
	Message       string           `json:"message"`
	BookRequestID uint             `json:"book_request_id"`
	BookID        uint             `json:"book_id"`
	Timestamp     time.Time        `json:"timestamp"`
}

// Nop drops every notification. Used by the CLI and tests.
type Nop struct{}

func (Nop) Publish(uint, Notification) {}
