package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/koopa0/lessonbank/internal/lesson"
)

const (
	// maxLinkCandidates bounds the comparisons per new lesson, keeping
	// the linker cheap enough to run synchronously in the create path.
	maxLinkCandidates = 10

	// linkThreshold is the minimum Jaccard tag similarity for an edge.
	linkThreshold = 0.3
)

// CandidateStore is the store surface the linker consumes.
type CandidateStore interface {
	ListLinkCandidates(ctx context.Context, category string, tags []string, exclude uuid.UUID, limit int) ([]*lesson.Lesson, error)
	HasRelationship(ctx context.Context, lessonID, relatedID uuid.UUID, relType lesson.RelationshipType) (bool, error)
	CreateRelationship(ctx context.Context, r *lesson.Relationship) error
}

// Linker creates "related" edges between a newly created generic lesson
// and tag-overlapping lessons in the same category. It runs once per
// creation and never re-scans when tags change later.
type Linker struct {
	store  CandidateStore
	logger *slog.Logger
}

// NewLinker creates a similarity Linker.
func NewLinker(store CandidateStore, logger *slog.Logger) *Linker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Linker{store: store, logger: logger}
}

// LinkSimilar inspects up to maxLinkCandidates same-category lessons
// sharing at least one tag and inserts a "related" edge for every pair
// whose Jaccard tag similarity reaches the threshold. Lessons without a
// category or tags are never linked.
func (ln *Linker) LinkSimilar(ctx context.Context, l *lesson.Lesson) error {
	if l.Category == "" || len(l.Tags) == 0 {
		return nil
	}

	candidates, err := ln.store.ListLinkCandidates(ctx, l.Category, l.Tags, l.ID, maxLinkCandidates)
	if err != nil {
		return fmt.Errorf("finding link candidates: %w", err)
	}

	for _, candidate := range candidates {
		score := jaccard(l.Tags, candidate.Tags)
		if score < linkThreshold {
			continue
		}

		exists, err := ln.store.HasRelationship(ctx, l.ID, candidate.ID, lesson.RelRelated)
		if err != nil {
			return fmt.Errorf("checking existing edge: %w", err)
		}
		if exists {
			continue
		}

		if err := ln.store.CreateRelationship(ctx, &lesson.Relationship{
			ID:              uuid.New(),
			LessonID:        l.ID,
			RelatedLessonID: candidate.ID,
			Type:            lesson.RelRelated,
			Score:           score,
		}); err != nil {
			return fmt.Errorf("linking %s to %s: %w", l.ID, candidate.ID, err)
		}
		ln.logger.Debug("linked similar lessons",
			"lesson", l.ID, "related", candidate.ID, "score", score)
	}
	return nil
}

// jaccard computes |intersection| / |union| of two tag sets.
// Tags compare case-sensitively on exact string match.
func jaccard(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	set := make(map[string]bool, len(a))
	for _, t := range a {
		set[t] = true
	}
	union := len(set)
	intersection := 0
	seen := make(map[string]bool, len(b))
	for _, t := range b {
		if seen[t] {
			continue
		}
		seen[t] = true
		if set[t] {
			intersection++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}
