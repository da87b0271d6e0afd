// Package idempotency remembers the outcome of non-idempotent requests keyed
// by a client-supplied Idempotency-Key, so a retried request is answered
// without running the operation twice.
package idempotency

import (
	"context"
	"errors"
	"strings"
)

// Scopes used by the HTTP layer.
const (
	ScopeBookRequest = "book_request"
	ScopeRating      = "rating"
)

// MaxKeyLength bounds accepted keys.
const MaxKeyLength = 255

var (
	// ErrInProgress is returned when a request with the same key is still
	// being processed.
	ErrInProgress = errors.New("request with this idempotency key is in progress")
	ErrInvalidKey = errors.New("invalid idempotency key")
)

// Store reserves keys and records what they produced.
//
// Reserve returns fresh=true when the caller owns the key and must call
// Complete on success or Release on failure. fresh=false means the key was
// already completed and resourceID holds the recorded result.
type Store interface {
	Reserve(ctx context.Context, scope, key string) (resourceID uint, fresh bool, err error)
	Complete(ctx context.Context, scope, key string, resourceID uint) error
	Release(ctx context.Context, scope, key string) error
}

// NormalizeKey trims the header value and validates its length. An empty
// result means no key was supplied.
func NormalizeKey(raw string) (string, error) {
	key := strings.TrimSpace(raw)
	if len(key) > MaxKeyLength {
		return "", ErrInvalidKey
	}
	return key, nil
}
