package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookshare/internal/logger"
)

const PurgeIdempotencyQueue = "purge_idempotency_keys"

// KeyPurger deletes expired idempotency keys.
type KeyPurger interface {
	Purge(ctx context.Context) (int64, error)
}

type PurgeIdempotencyKeysTask struct{}

func (t PurgeIdempotencyKeysTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        PurgeIdempotencyQueue,
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

func PurgeIdempotencyProcessor(purger KeyPurger, log *logger.Logger) backlite.QueueProcessor[PurgeIdempotencyKeysTask] {
	return func(ctx context.Context, task PurgeIdempotencyKeysTask) error {
		if purger == nil {
			return fmt.Errorf("idempotency store not configured")
		}
		deleted, err := purger.Purge(ctx)
		if err != nil {
			return fmt.Errorf("purge idempotency keys: %w", err)
		}
		log.Info("Purged idempotency keys", "deleted", deleted)
		return nil
	}
}

func NewPurgeIdempotencyQueue(purger KeyPurger, log *logger.Logger) backlite.Queue {
	return backlite.NewQueue(PurgeIdempotencyProcessor(purger, log))
}
