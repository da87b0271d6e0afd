package tasks

import (
	"context"

	"github.com/mrlokans/bookshare/internal/logger"
)

// BlobCleaner removes stored files after their owning record is gone.
// With a queue the removal is retried in the background; without one it runs
// inline. Failures are only logged.
type BlobCleaner struct {
	queue   *Client
	deleter BlobDeleter
	log     *logger.Logger
}

// NewBlobCleaner builds a cleaner. queue may be nil.
func NewBlobCleaner(queue *Client, deleter BlobDeleter, log *logger.Logger) *BlobCleaner {
	return &BlobCleaner{queue: queue, deleter: deleter, log: log}
}

func (b *BlobCleaner) Cleanup(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if b.queue != nil {
		_, err := b.queue.Add(DeleteBlobTask{URL: url}).Ctx(ctx).Save()
		if err == nil {
			return
		}
		b.log.Warn("Failed to enqueue blob deletion, deleting inline", "url", url, "error", err)
	}
	if b.deleter == nil {
		return
	}
	if err := b.deleter.Delete(ctx, url); err != nil {
		b.log.Warn("Failed to delete blob", "url", url, "error", err)
	}
}
