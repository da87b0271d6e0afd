package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookshare/internal/logger"
)

const ReconcileQueue = "reconcile_book_requests"

// Reconciler declines the pending siblings of approved book requests.
type Reconciler interface {
	ReconcileApproved(ctx context.Context) (int, error)
}

// ReconcileBookRequestsTask runs the compensating sweep over approved book
// requests.
type ReconcileBookRequestsTask struct {
	Trigger string `json:"trigger"`
}

func (t ReconcileBookRequestsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        ReconcileQueue,
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     5 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

func ReconcileProcessor(r Reconciler, log *logger.Logger) backlite.QueueProcessor[ReconcileBookRequestsTask] {
	return func(ctx context.Context, task ReconcileBookRequestsTask) error {
		if r == nil {
			return fmt.Errorf("reconciler not configured")
		}
		declined, err := r.ReconcileApproved(ctx)
		if err != nil {
			return fmt.Errorf("reconcile book requests: %w", err)
		}
		log.Info("Reconciled book requests", "declined", declined, "trigger", task.Trigger)
		return nil
	}
}

func NewReconcileQueue(r Reconciler, log *logger.Logger) backlite.Queue {
	return backlite.NewQueue(ReconcileProcessor(r, log))
}
