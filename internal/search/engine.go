// Package search implements query-time ranking over stored lessons and
// the retrieval tracking that feeds the relevance scorer.
//
// Ranking composes two signals when the schema supports both: full-text
// relevance from the database index and the stored relevance score from
// the scoring batch job. Small or cold datasets without enough indexed
// words degrade to a case-insensitive substring scan, and a schema
// without the scoring column degrades to text relevance alone. The
// OrderedBy field on every result set names the mode actually used, so
// callers can detect degradation without errors.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/koopa0/lessonbank/internal/lesson"
)

// ErrCategoryRequired signals a missing category argument on endpoints
// that mandate one.
var ErrCategoryRequired = errors.New("category is required")

// maxRelated bounds the related lessons attached per result.
const maxRelated = 5

// defaultLimit applies when a query does not set one.
const defaultLimit = 10

// Namespace selects exactly one lesson pool: the shared generic pool or
// a single project's detail pool. The two are never mixed in one query.
type Namespace struct {
	Generic bool
	Project string
}

// GenericNamespace addresses the shared cross-project pool.
func GenericNamespace() Namespace { return Namespace{Generic: true} }

// ProjectNamespace addresses one project's detail pool. The project
// string is validated and bound by the transport layer; the core
// receives it as trusted.
func ProjectNamespace(project string) Namespace {
	return Namespace{Generic: false, Project: project}
}

// Query is one search/browse request. Category is dual-purpose: it is
// resolved to either the category or the subcategory column by a
// runtime existence probe (see resolveFilterTarget).
type Query struct {
	Text           string
	Category       string
	Tags           []string
	IncludeRelated bool
	ActiveOnly     bool
	Limit          int
}

// Result is one ranked lesson with optional related attachments.
type Result struct {
	Lesson  lesson.Lesson    `json:"lesson"`
	Rank    float64          `json:"rank"`
	Related []lesson.Related `json:"related,omitempty"`
}

// Ordering modes reported in ResultSet.OrderedBy.
const (
	OrderedByHybrid    = "hybrid"    // 0.7*fulltext + 0.3*stored score
	OrderedByFullText  = "fulltext"  // text relevance only (no score column)
	OrderedBySubstring = "substring" // fallback scan, created_at desc
	OrderedByScore     = "score"     // browse, stored score desc
	OrderedByRecency   = "recency"   // browse without score column
)

// ResultSet carries ranked results plus the ordering mode used, which
// doubles as the capability-degradation flag.
type ResultSet struct {
	Results   []Result `json:"results"`
	OrderedBy string   `json:"orderedBy"`
}

// Store is the store surface the engine consumes.
type Store interface {
	SubcategoryInUse(ctx context.Context, generic bool, sourceProject, value string) (bool, error)
	SearchFullText(ctx context.Context, f lesson.Filter, query string) ([]lesson.SearchHit, error)
	SearchSubstring(ctx context.Context, f lesson.Filter, query string) ([]lesson.SearchHit, error)
	Browse(ctx context.Context, f lesson.Filter) ([]lesson.SearchHit, error)
	RelatedTo(ctx context.Context, id uuid.UUID, limit int) ([]lesson.Related, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
	CategoryStatistics(ctx context.Context, generic bool, sourceProject string) ([]lesson.CategoryStat, error)
	Capabilities() lesson.Capabilities
}

// Engine answers ranked search and browse queries. It emits an implicit
// usage event for every lesson a keyword query surfaces; that signal
// feeds the relevance scorer.
type Engine struct {
	store   Store
	tracker *Tracker
	logger  *slog.Logger
}

// NewEngine creates a search Engine. tracker may be nil to disable
// implicit usage recording.
func NewEngine(store Store, tracker *Tracker, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, tracker: tracker, logger: logger}
}

// Search runs the composed filter set and ranks results. With a text
// query it tries the full-text index first and falls back to substring
// matching when the index yields nothing; without one it browses by
// stored relevance score.
func (e *Engine) Search(ctx context.Context, ns Namespace, q Query) (ResultSet, error) {
	filter, err := e.buildFilter(ctx, ns, q)
	if err != nil {
		return ResultSet{}, err
	}

	var set ResultSet
	switch {
	case q.Text != "":
		set, err = e.searchText(ctx, filter, q.Text)
	default:
		set, err = e.browse(ctx, filter)
	}
	if err != nil {
		return ResultSet{}, err
	}

	if q.IncludeRelated {
		for i := range set.Results {
			related, relErr := e.store.RelatedTo(ctx, set.Results[i].Lesson.ID, maxRelated)
			if relErr != nil {
				return ResultSet{}, relErr
			}
			set.Results[i].Related = related
		}
	}

	// Implicit usage tracking is best-effort; a tracking failure never
	// fails the search that produced the results.
	if q.Text != "" && e.tracker != nil {
		for _, r := range set.Results {
			if trackErr := e.tracker.RecordAccess(ctx, r.Lesson.ID, q.Text); trackErr != nil {
				e.logger.Warn("recording lesson access", "lesson", r.Lesson.ID, "error", trackErr)
			}
		}
	}
	return set, nil
}

// ByCategory browses one category (or subcategory, resolved by probe).
// Unlike Search, the category argument is mandatory here.
func (e *Engine) ByCategory(ctx context.Context, ns Namespace, category string, activeOnly bool, limit int) (ResultSet, error) {
	if category == "" {
		return ResultSet{}, ErrCategoryRequired
	}
	return e.Search(ctx, ns, Query{Category: category, ActiveOnly: activeOnly, Limit: limit})
}

// ByTags browses lessons carrying any of the supplied tags.
func (e *Engine) ByTags(ctx context.Context, ns Namespace, tags []string, activeOnly bool, limit int) (ResultSet, error) {
	return e.Search(ctx, ns, Query{Tags: tags, ActiveOnly: activeOnly, Limit: limit})
}

// TopByScore returns the highest-scored active lessons in a namespace.
func (e *Engine) TopByScore(ctx context.Context, ns Namespace, limit int) (ResultSet, error) {
	return e.Search(ctx, ns, Query{ActiveOnly: true, Limit: limit})
}

// RelatedTo returns the lessons linked to id by any edge type.
// Returns lesson.ErrNotFound for an unknown id.
func (e *Engine) RelatedTo(ctx context.Context, id uuid.UUID, limit int) ([]lesson.Related, error) {
	ok, err := e.store.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, lesson.ErrNotFound
	}
	if limit <= 0 {
		limit = maxRelated
	}
	return e.store.RelatedTo(ctx, id, limit)
}

// CategoryStatistics aggregates per-category counts for a namespace.
func (e *Engine) CategoryStatistics(ctx context.Context, ns Namespace) ([]lesson.CategoryStat, error) {
	return e.store.CategoryStatistics(ctx, ns.Generic, ns.Project)
}

// buildFilter translates a Query into the store's filter, resolving the
// dual-purpose category argument.
func (e *Engine) buildFilter(ctx context.Context, ns Namespace, q Query) (lesson.Filter, error) {
	f := lesson.Filter{
		Generic:       ns.Generic,
		SourceProject: ns.Project,
		ActiveOnly:    q.ActiveOnly,
		Tags:          q.Tags,
		Limit:         q.Limit,
	}
	if f.Limit <= 0 {
		f.Limit = defaultLimit
	}

	if q.Category != "" {
		target, err := e.resolveFilterTarget(ctx, ns, q.Category)
		if err != nil {
			return lesson.Filter{}, err
		}
		switch target.Kind {
		case filterSubcategory:
			f.Subcategory = target.Value
		default:
			f.Category = target.Value
		}
	}
	return f, nil
}

func (e *Engine) searchText(ctx context.Context, f lesson.Filter, text string) (ResultSet, error) {
	caps := e.store.Capabilities()

	if caps.FullText {
		hits, err := e.store.SearchFullText(ctx, f, text)
		if err != nil {
			return ResultSet{}, fmt.Errorf("full-text search: %w", err)
		}
		if len(hits) > 0 {
			mode := OrderedByHybrid
			if !caps.RelevanceScore {
				mode = OrderedByFullText
			}
			return ResultSet{Results: toResults(hits), OrderedBy: mode}, nil
		}
	}

	hits, err := e.store.SearchSubstring(ctx, f, text)
	if err != nil {
		return ResultSet{}, fmt.Errorf("substring search: %w", err)
	}
	return ResultSet{Results: toResults(hits), OrderedBy: OrderedBySubstring}, nil
}

func (e *Engine) browse(ctx context.Context, f lesson.Filter) (ResultSet, error) {
	hits, err := e.store.Browse(ctx, f)
	if err != nil {
		return ResultSet{}, fmt.Errorf("browsing lessons: %w", err)
	}
	mode := OrderedByScore
	if !e.store.Capabilities().RelevanceScore {
		mode = OrderedByRecency
	}
	return ResultSet{Results: toResults(hits), OrderedBy: mode}, nil
}

func toResults(hits []lesson.SearchHit) []Result {
	results := make([]Result, len(hits))
	for i, h := range hits {
		results[i] = Result{Lesson: h.Lesson, Rank: h.Rank}
	}
	return results
}
