// Package scoring implements the relevance scoring batch job: a
// weighted blend of usage volume, helpfulness feedback and recency,
// recomputed out-of-band over all lessons in fixed-size pages.
package scoring

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/koopa0/lessonbank/internal/lesson"
)

// Weighting of the score terms. Usage and feedback dominate; recency
// keeps a fresh lesson visible before it accumulates signal.
const (
	weightUsage   = 0.4
	weightHelpful = 0.4
	weightRecency = 0.2

	// usageCap is the usage count at which the log-scaled usage term
	// saturates to 1.
	usageCap = 1000

	// recencyHorizonDays is the age at which the recency term reaches 0.
	recencyHorizonDays = 365

	// reportEpsilon is the minimum score delta a dry run reports.
	reportEpsilon = 0.001

	// defaultBatchSize pages the recompute to bound memory.
	defaultBatchSize = 500

	// pagesPerSecond bounds the background load on the shared database.
	pagesPerSecond = 4
)

// Compute evaluates the relevance formula for one lesson, clamped to
// [0,1]. All terms come fresh from current data, never incrementally.
func Compute(in lesson.ScoreInput, now time.Time) float64 {
	var helpfulRate float64
	if in.UsageCount > 0 {
		helpfulRate = float64(in.HelpfulCount) / float64(in.UsageCount)
	}

	days := math.Floor(now.Sub(in.CreatedAt).Hours() / 24)
	recency := math.Max(0, 1-days/recencyHorizonDays)

	normalizedUsage := math.Min(1, math.Log(float64(in.UsageCount)+1)/math.Log(usageCap+1))

	score := weightUsage*normalizedUsage + weightHelpful*helpfulRate + weightRecency*recency
	return math.Min(1, math.Max(0, score))
}

// Store is the store surface the scorer consumes.
type Store interface {
	ScorePage(ctx context.Context, after uuid.UUID, limit int) ([]lesson.ScoreInput, error)
	SetRelevanceScore(ctx context.Context, id uuid.UUID, score float64) error
}

// Report summarizes one recompute run. In dry-run mode Updated counts
// lessons whose score would move by more than reportEpsilon; in live
// mode every visited lesson is written and counted.
type Report struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
}

// Scorer recomputes stored relevance scores. It is idempotent and safe
// to re-run or interrupt mid-batch: partial progress simply overwrites
// what it visited.
type Scorer struct {
	store   Store
	logger  *slog.Logger
	limiter *rate.Limiter
	now     func() time.Time
}

// NewScorer creates a relevance Scorer.
func NewScorer(store Store, logger *slog.Logger) *Scorer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{
		store:   store,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(pagesPerSecond), 1),
		now:     time.Now,
	}
}

// RecomputeAll walks every lesson in id-ordered pages of batchSize and
// recomputes its relevance score. In live mode each visited lesson is
// overwritten even when the value is unchanged; in dry-run mode nothing
// is written and only meaningful deltas are reported.
func (s *Scorer) RecomputeAll(ctx context.Context, batchSize int, dryRun bool) (Report, error) {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	var report Report
	after := uuid.Nil
	now := s.now()

	for {
		if err := s.limiter.Wait(ctx); err != nil {
			return report, fmt.Errorf("waiting for page budget: %w", err)
		}

		page, err := s.store.ScorePage(ctx, after, batchSize)
		if err != nil {
			return report, fmt.Errorf("loading score page after %s: %w", after, err)
		}
		if len(page) == 0 {
			break
		}

		for _, in := range page {
			report.Processed++
			score := Compute(in, now)

			if dryRun {
				if math.Abs(score-in.RelevanceScore) > reportEpsilon {
					report.Updated++
					s.logger.Debug("score would change",
						"lesson", in.ID, "old", in.RelevanceScore, "new", score)
				}
				continue
			}

			if err := s.store.SetRelevanceScore(ctx, in.ID, score); err != nil {
				return report, fmt.Errorf("writing score for %s: %w", in.ID, err)
			}
			report.Updated++
		}

		after = page[len(page)-1].ID
	}

	s.logger.Info("relevance recompute finished",
		"processed", report.Processed, "updated", report.Updated, "dry_run", dryRun)
	return report, nil
}
