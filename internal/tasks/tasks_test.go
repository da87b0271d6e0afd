package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshare/internal/logger"
)

type fakeDeleter struct {
	mu      sync.Mutex
	deleted []string
	err     error
	done    chan string
}

func (f *fakeDeleter) Delete(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, url)
	if f.done != nil {
		f.done <- url
	}
	return nil
}

type fakeReconciler struct {
	declined int
	err      error
	calls    int
}

func (f *fakeReconciler) ReconcileApproved(ctx context.Context) (int, error) {
	f.calls++
	return f.declined, f.err
}

type fakePurger struct{ n int64 }

func (f *fakePurger) Purge(ctx context.Context) (int64, error) { return f.n, nil }

func TestQueueConfigs(t *testing.T) {
	del := DeleteBlobTask{URL: "x"}.Config()
	assert.Equal(t, "delete_blob", del.Name)
	assert.Equal(t, 3, del.MaxAttempts)
	assert.NotNil(t, del.Retention)

	rec := ReconcileBookRequestsTask{}.Config()
	assert.Equal(t, "reconcile_book_requests", rec.Name)
	assert.Equal(t, 1, rec.MaxAttempts)

	assert.Equal(t, "purge_idempotency_keys", PurgeIdempotencyKeysTask{}.Config().Name)
}

func TestDeleteBlobProcessor(t *testing.T) {
	log := logger.NewNop()
	deleter := &fakeDeleter{}

	require.NoError(t, DeleteBlobProcessor(deleter, log)(context.Background(), DeleteBlobTask{URL: "u1"}))
	assert.Equal(t, []string{"u1"}, deleter.deleted)

	deleter.err = errors.New("boom")
	assert.Error(t, DeleteBlobProcessor(deleter, log)(context.Background(), DeleteBlobTask{URL: "u2"}))

	assert.Error(t, DeleteBlobProcessor(nil, log)(context.Background(), DeleteBlobTask{URL: "u3"}))
}

func TestReconcileProcessor(t *testing.T) {
	r := &fakeReconciler{declined: 2}
	require.NoError(t, ReconcileProcessor(r, logger.NewNop())(context.Background(), ReconcileBookRequestsTask{Trigger: "test"}))
	assert.Equal(t, 1, r.calls)

	r.err = errors.New("db down")
	assert.Error(t, ReconcileProcessor(r, logger.NewNop())(context.Background(), ReconcileBookRequestsTask{}))
}

func TestPurgeIdempotencyProcessor(t *testing.T) {
	require.NoError(t, PurgeIdempotencyProcessor(&fakePurger{n: 3}, logger.NewNop())(context.Background(), PurgeIdempotencyKeysTask{}))
	assert.Error(t, PurgeIdempotencyProcessor(nil, logger.NewNop())(context.Background(), PurgeIdempotencyKeysTask{}))
}

func TestBlobCleaner_Inline(t *testing.T) {
	deleter := &fakeDeleter{}
	cleaner := NewBlobCleaner(nil, deleter, logger.NewNop())

	cleaner.Cleanup(context.Background(), "")
	cleaner.Cleanup(context.Background(), "https://blobs/x.png")
	assert.Equal(t, []string{"https://blobs/x.png"}, deleter.deleted)

	deleter.err = errors.New("gone")
	cleaner.Cleanup(context.Background(), "https://blobs/y.png")
}

func TestBlobCleaner_Queued(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 1
	client, err := NewClient(filepath.Join(t.TempDir(), "main.db"), cfg, logger.NewNop())
	require.NoError(t, err)
	defer client.Close()

	deleter := &fakeDeleter{done: make(chan string, 1)}
	client.Register(NewDeleteBlobQueue(deleter, logger.NewNop()))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go client.Start(ctx)

	NewBlobCleaner(client, deleter, logger.NewNop()).Cleanup(context.Background(), "https://blobs/z.pdf")

	select {
	case url := <-deleter.done:
		assert.Equal(t, "https://blobs/z.pdf", url)
	case <-time.After(5 * time.Second):
		t.Fatal("blob deletion was not processed")
	}
}
