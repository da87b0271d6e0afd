// Package scheduler runs periodic maintenance jobs on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/bookshare/internal/logger"
)

// Job is a named unit of periodic work.
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
}

// Scheduler runs registered jobs on their schedules. A job never overlaps
// with itself; a tick that arrives while the previous run is still going is
// skipped.
type Scheduler struct {
	log  *logger.Logger
	cron *cron.Cron

	mu        sync.RWMutex
	jobs      map[string]cron.EntryID
	running   map[string]bool
	isRunning bool
	ctx       context.Context
	cancel    context.CancelFunc
}

func New(log *logger.Logger) *Scheduler {
	return &Scheduler{
		log:     log.With("component", "scheduler"),
		cron:    cron.New(cron.WithParser(parser)),
		jobs:    make(map[string]cron.EntryID),
		running: make(map[string]bool),
		ctx:     context.Background(),
	}
}

// Add registers job. Must be called before Start.
func (s *Scheduler) Add(job Job) error {
	if err := ValidateCronSchedule(job.Schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s' for %s: %w", job.Schedule, job.Name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("job %s already registered", job.Name)
	}

	id, err := s.cron.AddFunc(job.Schedule, func() { s.run(job) })
	if err != nil {
		return fmt.Errorf("failed to schedule %s: %w", job.Name, err)
	}
	s.jobs[job.Name] = id
	s.log.Info("Scheduled job", "job", job.Name, "schedule", CronDescription(job.Schedule))
	return nil
}

// Start begins firing jobs. Cancelling ctx stops the scheduler.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
	s.isRunning = true
	runCtx := s.ctx
	s.mu.Unlock()

	go func() {
		<-runCtx.Done()
		s.Stop()
	}()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancel
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	if cancel != nil {
		cancel()
	}
	s.log.Info("Scheduler stopped")
}

// RunNow triggers a registered job immediately and waits for it.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	id, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("unknown job %s", name)
	}
	s.cron.Entry(id).Job.Run()
	return nil
}

func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// NextRun returns when the named job fires next, or nil when the scheduler
// is not running.
func (s *Scheduler) NextRun(name string) *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.isRunning {
		return nil
	}
	id, ok := s.jobs[name]
	if !ok {
		return nil
	}
	next := s.cron.Entry(id).Next
	return &next
}

func (s *Scheduler) run(job Job) {
	s.mu.Lock()
	if s.running[job.Name] {
		s.mu.Unlock()
		s.log.Info("Job skipped, previous run still in progress", "job", job.Name)
		return
	}
	s.running[job.Name] = true
	ctx := s.ctx
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running[job.Name] = false
		s.mu.Unlock()
	}()

	start := time.Now()
	if err := job.Run(ctx); err != nil {
		s.log.Error("Job failed", "job", job.Name, "error", err, "duration", time.Since(start))
		return
	}
	s.log.Debug("Job finished", "job", job.Name, "duration", time.Since(start))
}
