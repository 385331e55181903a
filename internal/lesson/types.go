// Package lesson defines the Lesson domain model and its PostgreSQL store.
//
// A Lesson is a unit of reusable knowledge pushed from a source project:
// a best practice, a gotcha, or a project-specific implementation note.
// Lessons live in one of two disjoint namespaces:
//
//   - generic: the globally shared pool, deduplicated by content hash
//     across all source projects
//   - project-detail: per-project notes, deduplicated by content hash
//     scoped to a single source project
//
// The Store is the single writer path for all Lesson mutation. No other
// component creates lessons or changes their content hash directly.
package lesson

import (
	"time"

	"github.com/google/uuid"
)

// Type classifies where a lesson originally came from.
type Type string

// Known lesson types. The transport layer validates enum membership
// before the core is invoked; the store treats Type as opaque text.
const (
	TypeCursorRule Type = "cursor-rule"
	TypeAIOutput   Type = "ai-generated-output"
	TypeManual     Type = "manual"
	TypeMarkdown   Type = "markdown"
	TypeDetail     Type = "project-detail"
)

// Valid reports whether t is one of the known lesson types.
func (t Type) Valid() bool {
	switch t {
	case TypeCursorRule, TypeAIOutput, TypeManual, TypeMarkdown, TypeDetail:
		return true
	}
	return false
}

// RelationshipType describes how two lessons relate.
type RelationshipType string

const (
	RelPrerequisite RelationshipType = "prerequisite"
	RelRelated      RelationshipType = "related"
	RelAlternative  RelationshipType = "alternative"
	RelSupersedes   RelationshipType = "supersedes"
)

// Valid reports whether r is one of the known relationship types.
func (r RelationshipType) Valid() bool {
	switch r {
	case RelPrerequisite, RelRelated, RelAlternative, RelSupersedes:
		return true
	}
	return false
}

// Lesson is the central entity. Empty strings on Category, Subcategory,
// Title and Summary mean "not set"; the store persists them as NULL.
type Lesson struct {
	ID uuid.UUID

	// SourceProject is the originating project. Legacy single-value
	// field retained for compatibility; SourceProjects is the full set
	// of contributors and always contains SourceProject.
	SourceProject  string
	SourceProjects []string

	// IsGeneric partitions the lesson universe: generic lessons are
	// deduplicated globally, project-detail lessons per project.
	IsGeneric bool

	Type        Type
	Category    string
	Subcategory string
	Title       string
	Summary     string

	// Tags deduplicate case-sensitively on exact string match.
	// Order carries no meaning.
	Tags []string

	// Metadata is an open string-keyed map of provenance values
	// (file path, original index, ...).
	Metadata map[string]any

	// Content is the full text body, the unit of hashing and of
	// full-text search. ContentHash is always SHA256(Content).
	Content     string
	ContentHash string

	// RelevanceScore in [0,1], recomputed by the scoring batch job.
	RelevanceScore float64

	// DeprecatedAt excludes the lesson from active search when set.
	// SupersededBy is a weak pointer to the replacement lesson.
	DeprecatedAt *time.Time
	SupersededBy *uuid.UUID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Relationship is a directed typed edge between two lessons.
// The (LessonID, RelatedLessonID, Type) triple is unique. Edges are
// created once at lesson-creation time and never updated.
type Relationship struct {
	ID              uuid.UUID
	LessonID        uuid.UUID
	RelatedLessonID uuid.UUID
	Type            RelationshipType

	// Score is the similarity strength that produced the edge.
	Score     float64
	CreatedAt time.Time
}

// Usage is an append-only access/feedback event for a lesson.
// WasHelpful is nil for "viewed but no explicit feedback yet".
type Usage struct {
	ID           uuid.UUID
	LessonID     uuid.UUID
	QueryContext string
	WasHelpful   *bool
	SessionID    string
	CreatedAt    time.Time
}

// Outcome is the per-entry result of a merge-or-create decision.
type Outcome int

const (
	// OutcomeSkipped means a canonical lesson existed and the incoming
	// entry added nothing new.
	OutcomeSkipped Outcome = iota
	// OutcomeCreated means a new canonical lesson was inserted.
	OutcomeCreated
	// OutcomeUpdated means the canonical lesson absorbed new fields.
	OutcomeUpdated
)

// String returns the outcome name used in logs and batch reports.
func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	default:
		return "skipped"
	}
}

// ScoreInput carries the signals the relevance scorer needs for one
// lesson: current stored score plus fresh usage aggregates.
type ScoreInput struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	RelevanceScore float64
	UsageCount     int64
	HelpfulCount   int64
}

// SearchHit is one ranked search result. Rank is the value the result
// set was ordered by; its meaning depends on the ranking mode.
type SearchHit struct {
	Lesson Lesson
	Rank   float64
}

// Related pairs a neighbouring lesson with the edge that links it.
type Related struct {
	Lesson Lesson
	Type   RelationshipType
	Score  float64
}

// CategoryStat aggregates lesson counts per category.
type CategoryStat struct {
	Category      string
	Count         int64
	AvgScore      float64
	Subcategories []string
}

// Capabilities reports which optional schema features the connected
// database actually has. Operations degrade gracefully when a
// capability is missing instead of failing (schema-not-migrated is a
// flag, not an error).
type Capabilities struct {
	// FullText is true when lessons.search_text exists.
	FullText bool
	// RelevanceScore is true when lessons.relevance_score exists.
	RelevanceScore bool
	// UsageTracking is true when the lesson_usages table exists.
	UsageTracking bool
}
