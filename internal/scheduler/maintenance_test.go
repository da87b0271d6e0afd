package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/bookshare/internal/logger"
)

func TestScheduler_AddValidatesSchedule(t *testing.T) {
	s := New(logger.NewNop())

	err := s.Add(Job{Name: "bad", Schedule: "every now and then", Run: func(context.Context) error { return nil }})
	assert.Error(t, err)

	require.NoError(t, s.Add(Job{Name: "ok", Schedule: "*/30 * * * *", Run: func(context.Context) error { return nil }}))
	assert.Error(t, s.Add(Job{Name: "ok", Schedule: "0 * * * *", Run: func(context.Context) error { return nil }}))
}

func TestScheduler_RunNow(t *testing.T) {
	s := New(logger.NewNop())
	var calls atomic.Int32
	require.NoError(t, s.Add(Job{Name: "reconcile", Schedule: "0 0 * * *", Run: func(context.Context) error {
		calls.Add(1)
		return nil
	}}))

	require.NoError(t, s.RunNow("reconcile"))
	assert.Equal(t, int32(1), calls.Load())

	assert.Error(t, s.RunNow("missing"))
}

func TestScheduler_FailingJobIsLogged(t *testing.T) {
	s := New(logger.NewNop())
	require.NoError(t, s.Add(Job{Name: "fail", Schedule: "0 0 * * *", Run: func(context.Context) error {
		return errors.New("boom")
	}}))
	assert.NoError(t, s.RunNow("fail"))
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(logger.NewNop())
	require.NoError(t, s.Add(Job{Name: "j", Schedule: "*/15 * * * *", Run: func(context.Context) error { return nil }}))

	assert.Nil(t, s.NextRun("j"))

	ctx, cancel := context.WithCancel(context.Background())
	s.Start(ctx)
	assert.True(t, s.IsRunning())

	next := s.NextRun("j")
	require.NotNil(t, next)
	assert.True(t, next.After(time.Now()))

	cancel()
	assert.Eventually(t, func() bool { return !s.IsRunning() }, 2*time.Second, 10*time.Millisecond)
}

func TestNextRunTime(t *testing.T) {
	from := time.Date(2026, 1, 1, 10, 5, 0, 0, time.UTC)
	next, err := NextRunTime("*/30 * * * *", from)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 1, 1, 10, 30, 0, 0, time.UTC), next)

	_, err = NextRunTime("nope", from)
	assert.Error(t, err)
}

func TestCronDescription(t *testing.T) {
	assert.Equal(t, "Every 30 minutes", CronDescription("*/30 * * * *"))
	assert.Equal(t, "Custom schedule: 5 4 * * *", CronDescription("5 4 * * *"))
}
