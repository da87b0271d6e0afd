package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
		msg  string
	}{
		{"not found", NotFound("book", 3), ErrNotFound, "book 3 not found"},
		{"conflict", Conflict("user %d already rated", 5), ErrConflict, "user 5 already rated"},
		{"validation", Validation("rating must be between 1 and 5"), ErrValidation, "rating must be between 1 and 5"},
		{"unavailable", Unavailable("save book", errors.New("disk full")), ErrUnavailable, "save book failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.err, tt.kind)
			assert.Equal(t, tt.msg, Message(tt.err))
		})
	}
}

func TestUnavailable_KeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("accept: %w", Unavailable("load request", cause))

	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestMessage_PlainError(t *testing.T) {
	assert.Empty(t, Message(errors.New("boom")))
}
