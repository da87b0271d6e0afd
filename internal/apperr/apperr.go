// Package apperr defines the error kinds shared by the service layer and the
// HTTP mapping.
//
// Services return *Error values built with the constructors below. Callers
// test the kind with errors.Is against the sentinels:
//
//	if errors.Is(err, apperr.ErrConflict) { ... }
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrValidation  = errors.New("validation failed")
	ErrUnavailable = errors.New("unavailable")
)

// Error carries a kind sentinel, a client-safe message and an optional cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// NotFound reports a missing entity, e.g. NotFound("book", 12).
func NotFound(resource string, id any) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf("%s %v not found", resource, id)}
}

func Conflict(format string, args ...any) *Error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) *Error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// Unavailable wraps a store or upstream failure.
func Unavailable(op string, err error) *Error {
	return &Error{Kind: ErrUnavailable, Message: op + " failed", Err: err}
}

// Message returns the client-safe message of err, or "" when err is not an *Error.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}
