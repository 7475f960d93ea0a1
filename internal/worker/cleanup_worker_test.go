package worker_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/user-account-service/internal/auth"
	"github.com/spec-kit/user-account-service/internal/clock"
	"github.com/spec-kit/user-account-service/internal/domain"
	"github.com/spec-kit/user-account-service/internal/repository/repofakes"
	"github.com/spec-kit/user-account-service/internal/worker"
)

type countingSweeper struct {
	calls atomic.Int64
	err   error
}

func (s *countingSweeper) SweepExpired(context.Context, time.Time) (int64, error) {
	s.calls.Add(1)
	if s.err != nil {
		return 0, s.err
	}
	return 0, nil
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestSchedulerSweepsOnInterval(t *testing.T) {
	sweeper := &countingSweeper{}
	scheduler := worker.NewCleanupScheduler(sweeper, clock.System(), zap.NewNop(), nil)

	scheduler.Start(5 * time.Millisecond)
	defer scheduler.Stop()

	waitFor(t, time.Second, func() bool { return sweeper.calls.Load() >= 3 })
}

func TestSchedulerStopHaltsSweeps(t *testing.T) {
	sweeper := &countingSweeper{}
	scheduler := worker.NewCleanupScheduler(sweeper, clock.System(), zap.NewNop(), nil)

	scheduler.Start(5 * time.Millisecond)
	waitFor(t, time.Second, func() bool { return sweeper.calls.Load() >= 1 })
	scheduler.Stop()

	frozen := sweeper.calls.Load()
	time.Sleep(30 * time.Millisecond)
	require.Equal(t, frozen, sweeper.calls.Load())
}

func TestSchedulerSurvivesSweepFailures(t *testing.T) {
	sweeper := &countingSweeper{err: errors.New("storage unavailable")}
	scheduler := worker.NewCleanupScheduler(sweeper, clock.System(), zap.NewNop(), nil)

	scheduler.Start(5 * time.Millisecond)
	defer scheduler.Stop()

	// One failed sweep never cancels the schedule.
	waitFor(t, time.Second, func() bool { return sweeper.calls.Load() >= 3 })
}

func TestSchedulerLifecycleIsIdempotent(t *testing.T) {
	sweeper := &countingSweeper{}
	scheduler := worker.NewCleanupScheduler(sweeper, clock.System(), zap.NewNop(), nil)

	scheduler.Stop() // never started

	scheduler.Start(5 * time.Millisecond)
	scheduler.Start(5 * time.Millisecond) // no-op while running
	scheduler.Stop()
	scheduler.Stop()
}

func TestSchedulerEvictsExpiredTokens(t *testing.T) {
	tokens := repofakes.NewFakeTokenRepo()
	clk := clock.NewFake(time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC))
	authority := auth.NewSessionAuthority(tokens, clk, 7*24*time.Hour)

	ctx := context.Background()
	require.NoError(t, tokens.Put(ctx, &domain.SessionToken{
		Token:      "stale",
		UserID:     "user-42",
		LastUsedAt: clk.Now().Add(-8 * 24 * time.Hour),
	}))
	require.NoError(t, tokens.Put(ctx, &domain.SessionToken{
		Token:      "fresh",
		UserID:     "user-42",
		LastUsedAt: clk.Now(),
	}))

	scheduler := worker.NewCleanupScheduler(authority, clk, zap.NewNop(), nil)
	scheduler.Start(5 * time.Millisecond)
	defer scheduler.Stop()

	waitFor(t, time.Second, func() bool { return tokens.Count() == 1 })

	_, err := tokens.Get(ctx, "fresh")
	require.NoError(t, err)
}
