package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/bookshare/internal/logger"
)

// Client runs bookshare's background work (blob deletes, request
// reconciliation, idempotency key purges) on backlite. Tasks live in a
// sidecar SQLite file next to the application database.
type Client struct {
	client *backlite.Client
	db     *sql.DB
	config Config
	log    *logger.Logger

	mu      sync.RWMutex
	started bool
	queues  []string
}

// Handlers are the services the bookshare queues hand work to. A nil handler
// leaves its queue unregistered.
type Handlers struct {
	Blobs      BlobDeleter
	Reconciler Reconciler
	Purger     KeyPurger
}

func NewClient(mainDBPath string, cfg Config, log *logger.Logger) (*Client, error) {
	db, err := openTasksDB(TasksDBPath(mainDBPath), cfg.Workers)
	if err != nil {
		return nil, err
	}

	bl, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          log.With("component", "tasks"),
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create task queue: %w", err)
	}
	if err := bl.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to install task queue schema: %w", err)
	}

	return &Client{client: bl, db: db, config: cfg, log: log}, nil
}

// openTasksDB opens the sidecar database in WAL mode with room for every
// worker plus the enqueueing request handlers.
func openTasksDB(path string, workers int) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}
	db.SetMaxOpenConns(workers + 5)
	db.SetMaxIdleConns(workers + 2)
	db.SetConnMaxLifetime(time.Hour)
	return db, nil
}

// RegisterHandlers registers the bookshare queues for every non-nil handler.
// Must be called before Start.
func (c *Client) RegisterHandlers(h Handlers) {
	if h.Blobs != nil {
		c.Register(NewDeleteBlobQueue(h.Blobs, c.log))
	}
	if h.Reconciler != nil {
		c.Register(NewReconcileQueue(h.Reconciler, c.log))
	}
	if h.Purger != nil {
		c.Register(NewPurgeIdempotencyQueue(h.Purger, c.log))
	}
}

// Register adds queues to the client. Must be called before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, q := range queues {
		name := q.Config().Name
		if c.started {
			c.log.Warn("Queue registered after start is ignored", "queue", name)
			continue
		}
		c.client.Register(q)
		c.queues = append(c.queues, name)
	}
}

// Queues returns the registered queue names in registration order.
func (c *Client) Queues() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.queues)
}

func (c *Client) Registered(queue string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Contains(c.queues, queue)
}

// Pending counts the tasks of a queue that have not completed yet, including
// ones waiting for a retry.
func (c *Client) Pending(ctx context.Context, queue string) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM backlite_tasks WHERE queue = ?", queue).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count pending %s tasks: %w", queue, err)
	}
	return n, nil
}

// Start processes tasks until ctx is cancelled or Stop is called. It blocks
// only until the workers are launched; call it in a goroutine.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	queues := slices.Clone(c.queues)
	c.mu.Unlock()

	c.log.Info("Task queue started", "workers", c.config.Workers, "queues", queues)
	c.client.Start(ctx)
}

// Stop waits for running tasks to finish and reports whether every worker
// stopped before the ctx deadline.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.RLock()
	started := c.started
	c.mu.RUnlock()
	if !started {
		return true
	}

	c.log.Info("Stopping task queue")
	ok := c.client.Stop(ctx)
	if ok {
		c.log.Info("Task queue stopped gracefully")
	} else {
		c.log.Warn("Task queue stopped with timeout, some tasks may not have completed")
	}
	c.reportPendingBlobDeletes(context.WithoutCancel(ctx))
	return ok
}

// reportPendingBlobDeletes logs blob deletes that will only run on the next
// start. Until then the files stay in storage.
func (c *Client) reportPendingBlobDeletes(ctx context.Context) {
	if !c.Registered(DeleteBlobQueue) {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	n, err := c.Pending(ctx, DeleteBlobQueue)
	switch {
	case err != nil:
		c.log.Warn("Could not count pending blob deletes", "error", err)
	case n > 0:
		c.log.Warn("Blob deletes left in the queue; they resume on next start", "pending", n)
	}
}

// Close releases the tasks database. Call it after Stop.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.client.Add(tasks...)
}

func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.client.Status(ctx, taskID)
}

// TasksDBPath returns the sidecar database path for mainDBPath:
// data/bookshare.db becomes data/bookshare-tasks.db.
func TasksDBPath(mainDBPath string) string {
	ext := filepath.Ext(mainDBPath)
	return mainDBPath[:len(mainDBPath)-len(ext)] + "-tasks" + ext
}
