package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookshare/internal/logger"
)

const DeleteBlobQueue = "delete_blob"

// BlobDeleter removes a stored object by path or public URL.
type BlobDeleter interface {
	Delete(ctx context.Context, pathOrURL string) error
}

// DeleteBlobTask removes a file left behind by a deleted or replaced book
// photo or study material.
type DeleteBlobTask struct {
	URL string `json:"url"`
}

func (t DeleteBlobTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        DeleteBlobQueue,
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: true,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

func DeleteBlobProcessor(deleter BlobDeleter, log *logger.Logger) backlite.QueueProcessor[DeleteBlobTask] {
	return func(ctx context.Context, task DeleteBlobTask) error {
		if deleter == nil {
			return fmt.Errorf("blob storage not configured")
		}
		if err := deleter.Delete(ctx, task.URL); err != nil {
			return fmt.Errorf("delete blob %s: %w", task.URL, err)
		}
		log.Info("Deleted blob", "url", task.URL)
		return nil
	}
}

func NewDeleteBlobQueue(deleter BlobDeleter, log *logger.Logger) backlite.Queue {
	return backlite.NewQueue(DeleteBlobProcessor(deleter, log))
}
