package lesson

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier is the common interface satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// DecideFunc turns the canonical-lookup result into a persistence
// decision. existing is nil when no canonical lesson holds the content
// hash. The returned lesson is inserted (OutcomeCreated), updated
// (OutcomeUpdated), or ignored (OutcomeSkipped).
type DecideFunc func(existing *Lesson) (*Lesson, Outcome, error)

// Store manages lessons, relationship edges and usage events backed by
// PostgreSQL. It is the single writer path for lesson rows.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	caps   Capabilities
}

// NewStore creates a lesson Store and probes the schema for optional
// capabilities (full-text column, relevance score, usage tracking).
func NewStore(ctx context.Context, pool *pgxpool.Pool, logger *slog.Logger) (*Store, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{pool: pool, logger: logger}

	caps, err := detectCapabilities(ctx, pool)
	if err != nil {
		return nil, fmt.Errorf("probing schema capabilities: %w", err)
	}
	s.caps = caps
	if !caps.FullText || !caps.RelevanceScore || !caps.UsageTracking {
		logger.Warn("running with reduced schema capabilities",
			"full_text", caps.FullText,
			"relevance_score", caps.RelevanceScore,
			"usage_tracking", caps.UsageTracking)
	}
	return s, nil
}

// Capabilities returns the schema capabilities detected at startup.
func (s *Store) Capabilities() Capabilities { return s.caps }

// detectCapabilities checks information_schema for the optional parts
// of the lessons schema. An un-migrated column or table is a degraded
// mode, not an error.
func detectCapabilities(ctx context.Context, q querier) (Capabilities, error) {
	var caps Capabilities
	err := q.QueryRow(ctx, `
		SELECT
		  EXISTS (SELECT 1 FROM information_schema.columns
		          WHERE table_name = 'lessons' AND column_name = 'search_text'),
		  EXISTS (SELECT 1 FROM information_schema.columns
		          WHERE table_name = 'lessons' AND column_name = 'relevance_score'),
		  EXISTS (SELECT 1 FROM information_schema.tables
		          WHERE table_name = 'lesson_usages')`,
	).Scan(&caps.FullText, &caps.RelevanceScore, &caps.UsageTracking)
	if err != nil {
		return Capabilities{}, err
	}
	return caps, nil
}

// lessonCols is the standard SELECT column list for scanLesson, minus
// relevance_score which depends on schema capability (see cols).
const lessonCols = `id, source_project, source_projects, is_generic, lesson_type,
	COALESCE(category, ''), COALESCE(subcategory, ''),
	COALESCE(title, ''), COALESCE(summary, ''),
	tags, metadata, content, content_hash, %s,
	deprecated_at, superseded_by, created_at, updated_at`

// cols returns the SELECT list, substituting a constant zero when the
// relevance_score column has not been migrated yet.
func (s *Store) cols() string {
	if s.caps.RelevanceScore {
		return fmt.Sprintf(lessonCols, "relevance_score")
	}
	return fmt.Sprintf(lessonCols, "0::float8")
}

// MergeOrCreate resolves the merge-or-create decision for one content
// hash inside a transaction. An advisory lock on the dedup key
// serializes concurrent submissions of identical content, so a race
// between two identical batches cannot produce two canonical rows.
//
// The dedup key is the content hash alone in the generic namespace and
// (hash, sourceProject) in the project-detail namespace.
func (s *Store) MergeOrCreate(ctx context.Context, hash string, generic bool, sourceProject string, decide DecideFunc) (Outcome, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return OutcomeSkipped, fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			s.logger.Debug("transaction rollback", "error", rbErr)
		}
	}()

	lockKey := hash
	if !generic {
		lockKey = hash + "/" + sourceProject
	}
	// pg_advisory_xact_lock releases automatically at commit/rollback.
	if _, lockErr := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); lockErr != nil {
		return OutcomeSkipped, fmt.Errorf("acquiring advisory lock: %w", lockErr)
	}

	existing, err := s.findCanonical(ctx, tx, hash, generic, sourceProject)
	if err != nil {
		return OutcomeSkipped, err
	}

	decided, outcome, err := decide(existing)
	if err != nil {
		return OutcomeSkipped, err
	}

	switch outcome {
	case OutcomeCreated:
		if err := s.insertLesson(ctx, tx, decided); err != nil {
			return OutcomeSkipped, err
		}
	case OutcomeUpdated:
		if err := s.updateLesson(ctx, tx, decided); err != nil {
			return OutcomeSkipped, err
		}
	case OutcomeSkipped:
		// Nothing to persist.
	}

	if err := tx.Commit(ctx); err != nil {
		return OutcomeSkipped, fmt.Errorf("committing lesson transaction: %w", err)
	}
	return outcome, nil
}

// findCanonical looks up the canonical lesson for a dedup key.
// Returns nil when no canonical lesson exists.
func (s *Store) findCanonical(ctx context.Context, q querier, hash string, generic bool, sourceProject string) (*Lesson, error) {
	var row pgx.Row
	if generic {
		row = q.QueryRow(ctx,
			`SELECT `+s.cols()+` FROM lessons
			 WHERE content_hash = $1 AND is_generic = true`,
			hash)
	} else {
		row = q.QueryRow(ctx,
			`SELECT `+s.cols()+` FROM lessons
			 WHERE content_hash = $1 AND is_generic = false AND source_project = $2`,
			hash, sourceProject)
	}

	l, err := scanLesson(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("looking up canonical lesson: %w", err)
	}
	return l, nil
}

// Get returns a lesson by id. Returns ErrNotFound when absent.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*Lesson, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+s.cols()+` FROM lessons WHERE id = $1`, id)
	l, err := scanLesson(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting lesson %s: %w", id, err)
	}
	return l, nil
}

// Exists reports whether a lesson row exists for id.
func (s *Store) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM lessons WHERE id = $1)`, id).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("checking lesson %s: %w", id, err)
	}
	return ok, nil
}

func (s *Store) insertLesson(ctx context.Context, q querier, l *Lesson) error {
	meta, err := json.Marshal(l.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	_, err = q.Exec(ctx,
		`INSERT INTO lessons (id, source_project, source_projects, is_generic, lesson_type,
		    category, subcategory, title, summary, tags, metadata,
		    content, content_hash, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5,
		    NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''), $10, $11,
		    $12, $13, now(), now())`,
		l.ID, l.SourceProject, l.SourceProjects, l.IsGeneric, string(l.Type),
		l.Category, l.Subcategory, l.Title, l.Summary, l.Tags, meta,
		l.Content, l.ContentHash,
	)
	if err != nil {
		return fmt.Errorf("inserting lesson: %w", err)
	}
	s.logger.Debug("created lesson",
		"id", l.ID, "generic", l.IsGeneric, "project", l.SourceProject)
	return nil
}

func (s *Store) updateLesson(ctx context.Context, q querier, l *Lesson) error {
	meta, err := json.Marshal(l.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	tag, err := q.Exec(ctx,
		`UPDATE lessons
		 SET source_projects = $2, category = NULLIF($3, ''), subcategory = NULLIF($4, ''),
		     title = NULLIF($5, ''), summary = NULLIF($6, ''),
		     tags = $7, metadata = $8, updated_at = now()
		 WHERE id = $1`,
		l.ID, l.SourceProjects, l.Category, l.Subcategory,
		l.Title, l.Summary, l.Tags, meta,
	)
	if err != nil {
		return fmt.Errorf("updating lesson %s: %w", l.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.logger.Debug("merged lesson", "id", l.ID, "projects", len(l.SourceProjects))
	return nil
}

// Deprecate sets deprecated_at and an optional superseded-by pointer.
// A lesson cannot supersede itself and a pointer, once set, is final
// (there is no version chain beyond it).
func (s *Store) Deprecate(ctx context.Context, id uuid.UUID, supersededBy *uuid.UUID) error {
	if supersededBy != nil && *supersededBy == id {
		return ErrSelfReference
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE lessons
		 SET deprecated_at = now(), superseded_by = COALESCE($2, superseded_by), updated_at = now()
		 WHERE id = $1 AND ($2::uuid IS NULL OR superseded_by IS NULL)`,
		id, supersededBy,
	)
	if err != nil {
		return fmt.Errorf("deprecating lesson %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		ok, exErr := s.Exists(ctx, id)
		if exErr != nil {
			return exErr
		}
		if !ok {
			return ErrNotFound
		}
		return ErrAlreadySuperseded
	}
	return nil
}

// ListLinkCandidates returns up to limit generic lessons sharing the
// category and at least one tag, excluding the lesson itself. Used by
// the similarity linker at creation time.
func (s *Store) ListLinkCandidates(ctx context.Context, category string, tags []string, exclude uuid.UUID, limit int) ([]*Lesson, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+s.cols()+` FROM lessons
		 WHERE is_generic = true AND id <> $1
		   AND category = $2 AND tags && $3::text[]
		 ORDER BY created_at DESC
		 LIMIT $4`,
		exclude, category, tags, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing link candidates: %w", err)
	}
	defer rows.Close()
	return scanLessons(rows)
}

// HasRelationship reports whether an edge of the given type already
// links the pair in this direction.
func (s *Store) HasRelationship(ctx context.Context, lessonID, relatedID uuid.UUID, relType RelationshipType) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM lesson_relationships
		 WHERE lesson_id = $1 AND related_lesson_id = $2 AND relationship_type = $3)`,
		lessonID, relatedID, string(relType)).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("checking relationship: %w", err)
	}
	return ok, nil
}

// CreateRelationship inserts a typed edge. The unique constraint on the
// (lesson, related, type) triple makes concurrent inserts idempotent.
func (s *Store) CreateRelationship(ctx context.Context, r *Relationship) error {
	if r.LessonID == r.RelatedLessonID {
		return ErrSelfReference
	}
	if !r.Type.Valid() {
		return fmt.Errorf("invalid relationship type: %q", r.Type)
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO lesson_relationships (id, lesson_id, related_lesson_id, relationship_type, relevance_score)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (lesson_id, related_lesson_id, relationship_type) DO NOTHING`,
		r.ID, r.LessonID, r.RelatedLessonID, string(r.Type), r.Score,
	)
	if err != nil {
		return fmt.Errorf("creating relationship: %w", err)
	}
	return nil
}

// RelatedTo returns up to limit lessons linked to id by any edge type,
// strongest edges first.
func (s *Store) RelatedTo(ctx context.Context, id uuid.UUID, limit int) ([]Related, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+s.cols()+`, r.relationship_type, r.relevance_score
		 FROM lesson_relationships r
		 JOIN lessons ON lessons.id = r.related_lesson_id
		 WHERE r.lesson_id = $1
		 ORDER BY r.relevance_score DESC, r.created_at ASC
		 LIMIT $2`,
		id, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing related lessons: %w", err)
	}
	defer rows.Close()

	var related []Related
	for rows.Next() {
		var rel Related
		var relType string
		l, err := scanLessonFrom(rows, &relType, &rel.Score)
		if err != nil {
			return nil, fmt.Errorf("scanning related lesson: %w", err)
		}
		rel.Lesson = *l
		rel.Type = RelationshipType(relType)
		related = append(related, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating related lessons: %w", err)
	}
	return related, nil
}

// InsertUsage appends a usage event. No-op in degraded mode when the
// usage table has not been migrated.
func (s *Store) InsertUsage(ctx context.Context, u *Usage) error {
	if !s.caps.UsageTracking {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO lesson_usages (id, lesson_id, query_context, was_helpful, session_id)
		 VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.LessonID, u.QueryContext, u.WasHelpful, u.SessionID,
	)
	if err != nil {
		return fmt.Errorf("inserting usage: %w", err)
	}
	return nil
}

// LatestUsage returns the most recently created usage row for a lesson,
// or nil when none exists.
func (s *Store) LatestUsage(ctx context.Context, lessonID uuid.UUID) (*Usage, error) {
	if !s.caps.UsageTracking {
		return nil, nil
	}
	var u Usage
	err := s.pool.QueryRow(ctx,
		`SELECT id, lesson_id, query_context, was_helpful, session_id, created_at
		 FROM lesson_usages
		 WHERE lesson_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		lessonID,
	).Scan(&u.ID, &u.LessonID, &u.QueryContext, &u.WasHelpful, &u.SessionID, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting latest usage: %w", err)
	}
	return &u, nil
}

// SetUsageFeedback overwrites the feedback fields of an existing usage
// row in place.
func (s *Store) SetUsageFeedback(ctx context.Context, usageID uuid.UUID, wasHelpful bool, sessionID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE lesson_usages
		 SET was_helpful = $2, session_id = COALESCE(NULLIF($3, ''), session_id)
		 WHERE id = $1`,
		usageID, wasHelpful, sessionID,
	)
	if err != nil {
		return fmt.Errorf("updating usage feedback: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ScorePage returns a key-set page of scoring inputs ordered by id.
// Pass uuid.Nil to start from the beginning. Usage aggregates are
// computed fresh; they are zero in degraded mode without usage tracking.
func (s *Store) ScorePage(ctx context.Context, after uuid.UUID, limit int) ([]ScoreInput, error) {
	usageCount := "0::bigint"
	helpfulCount := "0::bigint"
	if s.caps.UsageTracking {
		usageCount = `(SELECT COUNT(*) FROM lesson_usages u WHERE u.lesson_id = lessons.id)`
		helpfulCount = `(SELECT COUNT(*) FROM lesson_usages u WHERE u.lesson_id = lessons.id AND u.was_helpful = true)`
	}
	score := "relevance_score"
	if !s.caps.RelevanceScore {
		score = "0::float8"
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, created_at, `+score+`, `+usageCount+`, `+helpfulCount+`
		 FROM lessons
		 WHERE id > $1
		 ORDER BY id
		 LIMIT $2`,
		after, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("loading score page: %w", err)
	}
	defer rows.Close()

	var inputs []ScoreInput
	for rows.Next() {
		var in ScoreInput
		if err := rows.Scan(&in.ID, &in.CreatedAt, &in.RelevanceScore, &in.UsageCount, &in.HelpfulCount); err != nil {
			return nil, fmt.Errorf("scanning score input: %w", err)
		}
		inputs = append(inputs, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating score page: %w", err)
	}
	return inputs, nil
}

// SetRelevanceScore overwrites the stored relevance score.
func (s *Store) SetRelevanceScore(ctx context.Context, id uuid.UUID, score float64) error {
	if !s.caps.RelevanceScore {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE lessons SET relevance_score = $2 WHERE id = $1`,
		id, score,
	)
	if err != nil {
		return fmt.Errorf("setting relevance score for %s: %w", id, err)
	}
	return nil
}

// Filter is the AND-combined condition set shared by the search and
// browse queries. Empty string and nil fields are inactive.
type Filter struct {
	Generic       bool
	SourceProject string // project-detail scope; ignored when Generic
	ActiveOnly    bool
	Category      string
	Subcategory   string
	Tags          []string // OR across tags (array overlap)
	Limit         int
}

// where builds the WHERE clause for f. Argument numbering starts at 1;
// the returned args feed additional placeholders appended by callers.
func (f Filter) where() (string, []any) {
	conds := []string{"is_generic = $1"}
	args := []any{f.Generic}
	if !f.Generic {
		args = append(args, f.SourceProject)
		conds = append(conds, fmt.Sprintf("source_project = $%d", len(args)))
	}
	if f.ActiveOnly {
		conds = append(conds, "deprecated_at IS NULL")
	}
	if f.Category != "" {
		args = append(args, f.Category)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if f.Subcategory != "" {
		args = append(args, f.Subcategory)
		conds = append(conds, fmt.Sprintf("subcategory = $%d", len(args)))
	}
	if len(f.Tags) > 0 {
		args = append(args, f.Tags)
		conds = append(conds, fmt.Sprintf("tags && $%d::text[]", len(args)))
	}
	return strings.Join(conds, " AND "), args
}

func (f Filter) limit() int {
	if f.Limit <= 0 {
		return 10
	}
	return f.Limit
}

// SearchFullText ranks full-text matches by a weighted blend of text
// relevance and stored relevance score. Without the relevance_score
// column, text relevance alone orders the results.
func (s *Store) SearchFullText(ctx context.Context, f Filter, query string) ([]SearchHit, error) {
	if !s.caps.FullText {
		return nil, nil
	}
	where, args := f.where()
	args = append(args, query)
	q := len(args)
	rank := fmt.Sprintf(
		`(0.7 * LEAST(1.0, ts_rank_cd(search_text, plainto_tsquery('english', $%d), 1)) + 0.3 * relevance_score)`, q)
	if !s.caps.RelevanceScore {
		rank = fmt.Sprintf(`LEAST(1.0, ts_rank_cd(search_text, plainto_tsquery('english', $%d), 1))`, q)
	}
	args = append(args, f.limit())

	rows, err := s.pool.Query(ctx,
		`SELECT `+s.cols()+`, `+rank+` AS rank
		 FROM lessons
		 WHERE `+where+fmt.Sprintf(` AND search_text @@ plainto_tsquery('english', $%d)`, q)+`
		 ORDER BY rank DESC, created_at DESC
		 LIMIT $`+fmt.Sprint(len(args)),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("full-text search: %w", err)
	}
	defer rows.Close()
	return scanHits(rows)
}

// SearchSubstring is the case-insensitive fallback for queries the
// full-text index cannot match (small or cold datasets). Ordered by
// created_at descending only.
func (s *Store) SearchSubstring(ctx context.Context, f Filter, query string) ([]SearchHit, error) {
	where, args := f.where()
	args = append(args, query)
	q := len(args)
	args = append(args, f.limit())

	rows, err := s.pool.Query(ctx,
		`SELECT `+s.cols()+`, 0::float8 AS rank
		 FROM lessons
		 WHERE `+where+fmt.Sprintf(` AND content ILIKE '%%' || $%d || '%%'`, q)+`
		 ORDER BY created_at DESC
		 LIMIT $`+fmt.Sprint(len(args)),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("substring search: %w", err)
	}
	defer rows.Close()
	return scanHits(rows)
}

// Browse lists lessons without a text query, ranked by stored relevance
// score (when available) then recency.
func (s *Store) Browse(ctx context.Context, f Filter) ([]SearchHit, error) {
	where, args := f.where()
	order := "ORDER BY relevance_score DESC, created_at DESC"
	rank := "relevance_score"
	if !s.caps.RelevanceScore {
		order = "ORDER BY created_at DESC"
		rank = "0::float8"
	}
	args = append(args, f.limit())

	rows, err := s.pool.Query(ctx,
		`SELECT `+s.cols()+`, `+rank+` AS rank
		 FROM lessons
		 WHERE `+where+`
		 `+order+`
		 LIMIT $`+fmt.Sprint(len(args)),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("browsing lessons: %w", err)
	}
	defer rows.Close()
	return scanHits(rows)
}

// SubcategoryInUse reports whether any lesson in the namespace carries
// the value as its subcategory. Backs the category-or-subcategory
// filter resolution probe.
func (s *Store) SubcategoryInUse(ctx context.Context, generic bool, sourceProject, value string) (bool, error) {
	var ok bool
	var err error
	if generic {
		err = s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM lessons WHERE is_generic = true AND subcategory = $1)`,
			value).Scan(&ok)
	} else {
		err = s.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM lessons
			 WHERE is_generic = false AND source_project = $1 AND subcategory = $2)`,
			sourceProject, value).Scan(&ok)
	}
	if err != nil {
		return false, fmt.Errorf("probing subcategory %q: %w", value, err)
	}
	return ok, nil
}

// CategoryStatistics aggregates active lesson counts, average stored
// score and subcategory sets per category for a namespace.
func (s *Store) CategoryStatistics(ctx context.Context, generic bool, sourceProject string) ([]CategoryStat, error) {
	f := Filter{Generic: generic, SourceProject: sourceProject, ActiveOnly: true}
	where, args := f.where()
	avg := "AVG(relevance_score)"
	if !s.caps.RelevanceScore {
		avg = "0::float8"
	}

	rows, err := s.pool.Query(ctx,
		`SELECT category, COUNT(*), `+avg+`,
		    ARRAY_REMOVE(ARRAY_AGG(DISTINCT subcategory), NULL)
		 FROM lessons
		 WHERE `+where+` AND category IS NOT NULL
		 GROUP BY category
		 ORDER BY COUNT(*) DESC, category ASC`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregating category statistics: %w", err)
	}
	defer rows.Close()

	var stats []CategoryStat
	for rows.Next() {
		var st CategoryStat
		if err := rows.Scan(&st.Category, &st.Count, &st.AvgScore, &st.Subcategories); err != nil {
			return nil, fmt.Errorf("scanning category stat: %w", err)
		}
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category statistics: %w", err)
	}
	return stats, nil
}

// DeleteLesson removes a lesson row. Relationship and usage rows follow
// by FK cascade. Returns ErrNotFound when the id does not exist.
func (s *Store) DeleteLesson(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting lesson %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// scanLesson reads one Lesson from a row with the standard column set.
func scanLesson(row pgx.Row) (*Lesson, error) {
	return scanInto(row.Scan)
}

// scanLessonFrom reads one Lesson plus trailing extra columns.
func scanLessonFrom(rows pgx.Rows, extras ...any) (*Lesson, error) {
	return scanInto(func(dest ...any) error {
		return rows.Scan(append(dest, extras...)...)
	})
}

func scanInto(scan func(dest ...any) error) (*Lesson, error) {
	l := &Lesson{}
	var lessonType string
	var meta []byte
	var deprecatedAt *time.Time
	var supersededBy *uuid.UUID

	if err := scan(
		&l.ID, &l.SourceProject, &l.SourceProjects, &l.IsGeneric, &lessonType,
		&l.Category, &l.Subcategory, &l.Title, &l.Summary,
		&l.Tags, &meta, &l.Content, &l.ContentHash, &l.RelevanceScore,
		&deprecatedAt, &supersededBy, &l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return nil, err
	}
	l.Type = Type(lessonType)
	l.DeprecatedAt = deprecatedAt
	l.SupersededBy = supersededBy
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &l.Metadata); err != nil {
			return nil, fmt.Errorf("parsing metadata for %s: %w", l.ID, err)
		}
	}
	return l, nil
}

func scanLessons(rows pgx.Rows) ([]*Lesson, error) {
	var lessons []*Lesson
	for rows.Next() {
		l, err := scanLessonFrom(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning lesson: %w", err)
		}
		lessons = append(lessons, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating lessons: %w", err)
	}
	return lessons, nil
}

func scanHits(rows pgx.Rows) ([]SearchHit, error) {
	var hits []SearchHit
	for rows.Next() {
		var hit SearchHit
		l, err := scanLessonFrom(rows, &hit.Rank)
		if err != nil {
			return nil, fmt.Errorf("scanning search hit: %w", err)
		}
		hit.Lesson = *l
		hits = append(hits, hit)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search hits: %w", err)
	}
	return hits, nil
}
