package chat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshare/internal/apperr"
	"github.com/mrlokans/bookshare/internal/config"
	"github.com/mrlokans/bookshare/internal/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.Chat{
		APIKey:  "sk-test",
		BaseURL: srv.URL,
		Model:   "test/model",
		Referer: "http://localhost:3000",
	}, logger.NewNop())
}

func TestClient_Reply(t *testing.T) {
	var got completionRequest
	var auth, referer string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		referer = r.Header.Get("HTTP-Referer")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Photosynthesis converts light."}}]}`))
	})

	reply, err := c.Reply(context.Background(), []Message{{Role: "user", Content: "What is photosynthesis?"}})
	require.NoError(t, err)
	assert.Equal(t, "Photosynthesis converts light.", reply)
	assert.Equal(t, "Bearer sk-test", auth)
	assert.Equal(t, "http://localhost:3000", referer)
	assert.Equal(t, "test/model", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "What is photosynthesis?", got.Messages[0].Content)
}

func TestClient_ReplyUpstreamFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Reply(context.Background(), []Message{{Role: "user", Content: "hi"}})
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
}

func TestClient_ReplyNoChoices(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	})

	_, err := c.Reply(context.Background(), []Message{{Role: "user", Content: "hi"}})
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
}

func TestClient_ReplyValidation(t *testing.T) {
	c := NewClient(config.Chat{APIKey: "k"}, logger.NewNop())

	_, err := c.Reply(context.Background(), nil)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = c.Reply(context.Background(), []Message{{Role: "robot", Content: "x"}})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	_, err = c.Reply(context.Background(), []Message{{Role: "user", Content: "  "}})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestClient_ReplyWithoutKey(t *testing.T) {
	c := NewClient(config.Chat{}, logger.NewNop())
	_, err := c.Reply(context.Background(), []Message{{Role: "user", Content: "hi"}})
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
}
