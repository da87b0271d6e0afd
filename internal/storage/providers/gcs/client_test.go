package gcs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	blobstore "github.com/mrlokans/bookshare/internal/storage"
)

func TestNewClient_RequiresBucket(t *testing.T) {
	_, err := NewClient(context.Background(), "", "", "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, blobstore.ErrNotConfigured))
}

func TestClient_PublicURL(t *testing.T) {
	c, err := NewClient(context.Background(), "bookshare", "https://cdn.example.com/", "http://127.0.0.1:4443/storage/v1/")
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "https://cdn.example.com/bookshare/materials/a_b.pdf", c.PublicURL("materials/a_b.pdf"))
}

func TestClient_PublicURLDefaultsToGoogleHost(t *testing.T) {
	c, err := NewClient(context.Background(), "bookshare", "", "http://127.0.0.1:4443/storage/v1/")
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "https://storage.googleapis.com/bookshare/x", c.PublicURL("x"))
}
