package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/koopa0/lessonbank/internal/lesson"
)

// RawLesson is one loosely-shaped entry of an ingestion batch. Only
// Type and Content are required; everything else is extracted or
// derived when absent.
type RawLesson struct {
	Type        string         `json:"type"`
	Content     string         `json:"content"`
	Category    string         `json:"category,omitempty"`
	Subcategory string         `json:"subcategory,omitempty"`
	Title       string         `json:"title,omitempty"`
	Summary     string         `json:"summary,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Result summarizes one batch. Entry failures are collected, never
// thrown: the batch is best-effort, one bad entry cannot sink the rest.
type Result struct {
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

// Store is the store surface the pipeline consumes. MergeOrCreate must
// run the lookup-then-write sequence race-safely (see lesson.Store).
type Store interface {
	MergeOrCreate(ctx context.Context, hash string, generic bool, sourceProject string, decide lesson.DecideFunc) (lesson.Outcome, error)
}

// Pipeline orchestrates per-entry validation, hashing, deduplication,
// field extraction and similarity linking. All lesson mutation flows
// through here.
type Pipeline struct {
	store  Store
	linker *Linker
	logger *slog.Logger
}

// NewPipeline creates an ingestion Pipeline. linker may be nil to
// disable similarity linking (project-detail-only deployments).
func NewPipeline(store Store, linker *Linker, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{store: store, linker: linker, logger: logger}
}

// ProcessLessons ingests a batch for one source project. Each entry is
// processed independently; a failure is recorded against the entry's
// index and processing continues. There is no batch-wide transaction
// and no partial rollback.
func (p *Pipeline) ProcessLessons(ctx context.Context, raws []RawLesson, sourceProject string, generic bool) Result {
	var res Result
	for i, raw := range raws {
		outcome, created, err := p.processEntry(ctx, raw, sourceProject, generic)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("entry %d: %v", i, err))
			continue
		}
		switch outcome {
		case lesson.OutcomeCreated:
			res.Created++
		case lesson.OutcomeUpdated:
			res.Updated++
		case lesson.OutcomeSkipped:
			res.Skipped++
		}

		// Linking is advisory: a linker failure never fails the entry
		// that already created its lesson.
		if created != nil && generic && p.linker != nil {
			if linkErr := p.linker.LinkSimilar(ctx, created); linkErr != nil {
				p.logger.Warn("similarity linking failed", "lesson", created.ID, "error", linkErr)
			}
		}
	}
	p.logger.Info("batch processed",
		"project", sourceProject, "generic", generic,
		"created", res.Created, "updated", res.Updated,
		"skipped", res.Skipped, "errors", len(res.Errors))
	return res
}

// processEntry runs the merge-or-create algorithm for one entry.
// Returns the persisted lesson only on the create path, for linking.
func (p *Pipeline) processEntry(ctx context.Context, raw RawLesson, sourceProject string, generic bool) (outcome lesson.Outcome, created *lesson.Lesson, err error) {
	// Unexpected panics are converted to entry errors so the rest of
	// the batch still runs.
	defer func() {
		if r := recover(); r != nil {
			outcome, created = lesson.OutcomeSkipped, nil
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()

	if raw.Content == "" {
		return lesson.OutcomeSkipped, nil, fmt.Errorf("content is required")
	}
	if raw.Type == "" {
		return lesson.OutcomeSkipped, nil, fmt.Errorf("type is required")
	}

	if generic {
		if v := ValidateGenericity(raw.Content); !v.Valid {
			return lesson.OutcomeSkipped, nil, fmt.Errorf("content is not generic: %s", strings.Join(v.Errors, "; "))
		}
	}

	hash, err := Hash(raw.Content)
	if err != nil {
		return lesson.OutcomeSkipped, nil, fmt.Errorf("hashing content: %w", err)
	}

	outcome, err = p.store.MergeOrCreate(ctx, hash, generic, sourceProject, func(existing *lesson.Lesson) (*lesson.Lesson, lesson.Outcome, error) {
		if existing != nil {
			merged, changed := mergeEntry(existing, raw, sourceProject)
			if !changed {
				return nil, lesson.OutcomeSkipped, nil
			}
			return merged, lesson.OutcomeUpdated, nil
		}
		created = newLesson(raw, sourceProject, generic, hash)
		return created, lesson.OutcomeCreated, nil
	})
	if err != nil {
		return lesson.OutcomeSkipped, nil, err
	}
	if outcome != lesson.OutcomeCreated {
		created = nil
	}
	return outcome, created, nil
}

// newLesson builds a lesson for the create path: explicit fields win,
// then extraction chains, then the classifier.
func newLesson(raw RawLesson, sourceProject string, generic bool, hash string) *lesson.Lesson {
	l := &lesson.Lesson{
		ID:             uuid.New(),
		SourceProject:  sourceProject,
		SourceProjects: []string{sourceProject},
		IsGeneric:      generic,
		Type:           lesson.Type(raw.Type),
		Category:       raw.Category,
		Title:          extractTitle(raw),
		Summary:        extractSummary(raw),
		Tags:           dedupeTags(raw.Tags),
		Metadata:       raw.Metadata,
		Content:        raw.Content,
		ContentHash:    hash,
	}
	// Subcategory is always derived from category: without a category
	// there is nothing to classify against.
	if l.Category != "" {
		if raw.Subcategory != "" {
			l.Subcategory = raw.Subcategory
		} else {
			l.Subcategory = ClassifySubcategory(l.Category, classifierText(l.Summary, l.Content))
		}
	}
	return l
}

// mergeEntry folds an incoming entry into the canonical lesson.
// Reports whether any of the merge-relevant fields changed (tags,
// metadata, source-project membership, category, title, summary).
func mergeEntry(existing *lesson.Lesson, raw RawLesson, sourceProject string) (*lesson.Lesson, bool) {
	merged := *existing
	changed := false

	// Tag union, case-sensitive exact match, order not meaningful.
	merged.Tags = slices.Clone(existing.Tags)
	for _, t := range dedupeTags(raw.Tags) {
		if !slices.Contains(merged.Tags, t) {
			merged.Tags = append(merged.Tags, t)
			changed = true
		}
	}

	// Shallow metadata union; incoming wins on key collision. Values
	// compare order-independently (JSON-normalized).
	if len(raw.Metadata) > 0 {
		meta := make(map[string]any, len(existing.Metadata)+len(raw.Metadata))
		for k, v := range existing.Metadata {
			meta[k] = v
		}
		for k, v := range raw.Metadata {
			old, ok := meta[k]
			if !ok || !jsonEqual(old, v) {
				meta[k] = v
				changed = true
			}
		}
		merged.Metadata = meta
	}

	if !slices.Contains(merged.SourceProjects, sourceProject) {
		merged.SourceProjects = append(slices.Clone(merged.SourceProjects), sourceProject)
		changed = true
	}

	// First-write-wins fields: fill blanks from the extraction chains;
	// an explicit non-empty incoming value that differs still wins.
	if firstWriteWins(&merged.Category, raw.Category, raw.Category) {
		changed = true
	}
	if firstWriteWins(&merged.Title, extractTitle(raw), raw.Title) {
		changed = true
	}
	if firstWriteWins(&merged.Summary, extractSummary(raw), raw.Summary) {
		changed = true
	}

	// Subcategory recomputes only when unset; it does not by itself
	// mark the lesson as updated.
	if merged.Subcategory == "" && merged.Category != "" {
		if raw.Subcategory != "" {
			merged.Subcategory = raw.Subcategory
		} else {
			merged.Subcategory = ClassifySubcategory(merged.Category, classifierText(merged.Summary, raw.Content))
		}
	}

	return &merged, changed
}

// firstWriteWins fills *field when empty using derived, or overwrites
// it when the caller explicitly supplied a differing non-empty value.
func firstWriteWins(field *string, derived, explicit string) bool {
	switch {
	case *field == "" && derived != "":
		*field = derived
		return true
	case explicit != "" && explicit != *field:
		*field = explicit
		return true
	}
	return false
}

// classifierText prefers summary over content for classification.
func classifierText(summary, content string) string {
	if summary != "" {
		return summary
	}
	return content
}

// dedupeTags removes exact duplicates, preserving first occurrence.
func dedupeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}

// jsonEqual compares two metadata values by their canonical JSON
// encoding, making map comparisons independent of key order and of the
// int/float distinction JSON round-trips erase.
func jsonEqual(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ja) == string(jb)
}
