package scoring

import (
	"context"
	"testing"
	"time"
)

func TestNewScheduler_IntervalFallback(t *testing.T) {
	t.Parallel()

	s := NewScheduler(NewScorer(&pagedStore{}, nil), 0, 100, nil)
	if s.interval != DefaultInterval {
		t.Errorf("interval = %v, want %v", s.interval, DefaultInterval)
	}

	s = NewScheduler(NewScorer(&pagedStore{}, nil), time.Minute, 100, nil)
	if s.interval != time.Minute {
		t.Errorf("interval = %v, want %v", s.interval, time.Minute)
	}
}

func TestScheduler_RecomputesBeforeFirstTick(t *testing.T) {
	t.Parallel()

	store := &pagedStore{inputs: makeInputs(1)}
	// A one-hour interval means any write seen here came from the
	// immediate first pass, not a tick.
	s := NewScheduler(NewScorer(store, nil), time.Hour, 100, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for store.writeCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("no recompute ran before the first interval elapsed")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestScheduler_RunsUntilCanceled(t *testing.T) {
	t.Parallel()

	store := &pagedStore{inputs: makeInputs(1)}
	s := NewScheduler(NewScorer(store, nil), 10*time.Millisecond, 100, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for store.writeCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("no tick ran before the deadline")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
