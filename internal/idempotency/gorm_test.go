package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshare/internal/database/dbtest"
)

func TestGormStore_ReserveCompleteReplay(t *testing.T) {
	store := NewGormStore(dbtest.New(t).DB, time.Hour)
	ctx := context.Background()

	_, fresh, err := store.Reserve(ctx, ScopeBookRequest, "abc")
	require.NoError(t, err)
	assert.True(t, fresh)

	_, _, err = store.Reserve(ctx, ScopeBookRequest, "abc")
	assert.ErrorIs(t, err, ErrInProgress)

	require.NoError(t, store.Complete(ctx, ScopeBookRequest, "abc", 42))

	id, fresh, err := store.Reserve(ctx, ScopeBookRequest, "abc")
	require.NoError(t, err)
	assert.False(t, fresh)
	assert.Equal(t, uint(42), id)

	_, fresh, err = store.Reserve(ctx, ScopeRating, "abc")
	require.NoError(t, err)
	assert.True(t, fresh, "scopes are independent")
}

func TestGormStore_Release(t *testing.T) {
	store := NewGormStore(dbtest.New(t).DB, time.Hour)
	ctx := context.Background()

	_, _, err := store.Reserve(ctx, ScopeRating, "k")
	require.NoError(t, err)
	require.NoError(t, store.Release(ctx, ScopeRating, "k"))

	_, fresh, err := store.Reserve(ctx, ScopeRating, "k")
	require.NoError(t, err)
	assert.True(t, fresh)
}

func TestGormStore_Expiry(t *testing.T) {
	store := NewGormStore(dbtest.New(t).DB, time.Hour)
	ctx := context.Background()
	now := time.Now()
	store.now = func() time.Time { return now }

	_, _, err := store.Reserve(ctx, ScopeBookRequest, "old")
	require.NoError(t, err)
	require.NoError(t, store.Complete(ctx, ScopeBookRequest, "old", 7))

	now = now.Add(2 * time.Hour)
	_, fresh, err := store.Reserve(ctx, ScopeBookRequest, "old")
	require.NoError(t, err)
	assert.True(t, fresh)

	now = now.Add(2 * time.Hour)
	n, err := store.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestNormalizeKey(t *testing.T) {
	key, err := NormalizeKey("  abc ")
	require.NoError(t, err)
	assert.Equal(t, "abc", key)

	_, err = NormalizeKey(string(make([]byte, MaxKeyLength+1)))
	assert.ErrorIs(t, err, ErrInvalidKey)
}
