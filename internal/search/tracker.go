package search

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/koopa0/lessonbank/internal/lesson"
)

// feedbackContext marks usage rows created by explicit feedback that
// arrived without a preceding search.
const feedbackContext = "Explicit feedback"

// TrackerStore is the store surface the tracker consumes.
type TrackerStore interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	InsertUsage(ctx context.Context, u *lesson.Usage) error
	LatestUsage(ctx context.Context, lessonID uuid.UUID) (*lesson.Usage, error)
	SetUsageFeedback(ctx context.Context, usageID uuid.UUID, wasHelpful bool, sessionID string) error
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithAppendHistory makes explicit feedback insert a new usage row
// instead of overwriting the most recent one, preserving the full
// feedback history per lesson. The default overwrite policy keeps at
// most one verdict per retrieval, which is what the relevance scorer's
// helpful-rate term expects.
func WithAppendHistory() TrackerOption {
	return func(t *Tracker) { t.appendHistory = true }
}

// Tracker records lesson retrievals and feedback. Usage rows are the
// raw signal behind the usage and helpfulness terms of the relevance
// score.
type Tracker struct {
	store         TrackerStore
	logger        *slog.Logger
	appendHistory bool
	now           func() time.Time
}

// NewTracker creates a usage tracker.
func NewTracker(store TrackerStore, logger *slog.Logger, opts ...TrackerOption) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{store: store, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// RecordAccess inserts an implicit usage row for a lesson surfaced by a
// query. The row carries no helpfulness verdict until feedback arrives.
func (t *Tracker) RecordAccess(ctx context.Context, lessonID uuid.UUID, queryContext string) error {
	return t.store.InsertUsage(ctx, &lesson.Usage{
		ID:           uuid.New(),
		LessonID:     lessonID,
		QueryContext: queryContext,
		CreatedAt:    t.now(),
	})
}

// RecordFeedback attaches a helpfulness verdict to a lesson's most
// recent usage row. When the lesson has no usage rows yet the verdict
// is stored on a fresh row, so feedback submitted out of band still
// counts. Returns lesson.ErrNotFound for an unknown lesson.
func (t *Tracker) RecordFeedback(ctx context.Context, lessonID uuid.UUID, wasHelpful bool, sessionID string) error {
	ok, err := t.store.Exists(ctx, lessonID)
	if err != nil {
		return err
	}
	if !ok {
		return lesson.ErrNotFound
	}

	if !t.appendHistory {
		latest, err := t.store.LatestUsage(ctx, lessonID)
		if err != nil {
			return err
		}
		if latest != nil {
			return t.store.SetUsageFeedback(ctx, latest.ID, wasHelpful, sessionID)
		}
	}

	return t.store.InsertUsage(ctx, &lesson.Usage{
		ID:           uuid.New(),
		LessonID:     lessonID,
		SessionID:    sessionID,
		QueryContext: feedbackContext,
		WasHelpful:   &wasHelpful,
		CreatedAt:    t.now(),
	})
}
