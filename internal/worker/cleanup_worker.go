package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/user-account-service/internal/clock"
	"github.com/spec-kit/user-account-service/internal/observability"
)

// Sweeper deletes stale session tokens as of a given instant.
type Sweeper interface {
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

// CleanupScheduler periodically evicts expired session tokens. It has an
// explicit Start/Stop lifecycle owned by the process entry point; sweeps run
// sequentially in a single goroutine, so at most one is ever in flight and a
// slow sweep simply absorbs ticks.
type CleanupScheduler struct {
	sweeper Sweeper
	clock   clock.Clock
	logger  *zap.Logger
	metrics *observability.Metrics

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCleanupScheduler constructs the scheduler.
func NewCleanupScheduler(sweeper Sweeper, clk clock.Clock, logger *zap.Logger, metrics *observability.Metrics) *CleanupScheduler {
	return &CleanupScheduler{sweeper: sweeper, clock: clk, logger: logger, metrics: metrics}
}

// Start begins sweeping on the given interval until Stop is called. Calling
// Start on a running scheduler is a no-op.
func (s *CleanupScheduler) Start(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go s.run(ctx, interval, done)
}

// Stop halts the schedule and waits for any in-flight sweep to finish.
// Idempotent; safe to call on a never-started scheduler.
func (s *CleanupScheduler) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *CleanupScheduler) run(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *CleanupScheduler) sweep(ctx context.Context) {
	removed, err := s.sweeper.SweepExpired(ctx, s.clock.Now())
	if err != nil {
		// A failed sweep never cancels future sweeps.
		s.logger.Warn("session sweep failed", zap.Error(err))
		return
	}
	if s.metrics != nil {
		s.metrics.RecordSweep(removed)
	}
	if removed > 0 {
		s.logger.Info("swept expired sessions", zap.Int64("removed", removed))
	}
}
