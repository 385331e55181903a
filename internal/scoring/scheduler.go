package scoring

import (
	"context"
	"log/slog"
	"time"
)

// DefaultInterval is how often serve mode re-runs the scorer.
const DefaultInterval = 6 * time.Hour

// Scheduler periodically re-runs the relevance scorer. The job is
// non-urgent and idempotent, so a missed or interrupted tick needs no
// recovery beyond the next tick.
type Scheduler struct {
	scorer    *Scorer
	interval  time.Duration
	batchSize int
	logger    *slog.Logger
}

// NewScheduler creates a scoring scheduler. A non-positive interval
// falls back to DefaultInterval.
func NewScheduler(scorer *Scorer, interval time.Duration, batchSize int, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		scorer:    scorer,
		interval:  interval,
		batchSize: batchSize,
		logger:    logger,
	}
}

// Run recomputes once immediately, then again on each tick until ctx
// is canceled. Callers must track the goroutine with a WaitGroup.
func (s *Scheduler) Run(ctx context.Context) {
	s.recompute(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.recompute(ctx)
		}
	}
}

func (s *Scheduler) recompute(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.scorer.RecomputeAll(ctx, s.batchSize, false); err != nil {
		s.logger.Warn("scheduled relevance recompute failed", "error", err)
	}
}
