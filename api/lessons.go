package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/koopa0/lessonbank/internal/ingest"
	"github.com/koopa0/lessonbank/internal/lesson"
	"github.com/koopa0/lessonbank/internal/log"
	"github.com/koopa0/lessonbank/internal/search"
)

// Request validation constants.
const (
	MaxBatchSize      = 100
	MaxContentLength  = 100000
	MaxTitleLength    = 500
	MaxSummaryLength  = 2000
	MaxTagCount       = 50
	MaxTagLength      = 100
	DefaultListLimit  = 10
	MaxListLimit      = 100
	MaxQueryLength    = 1000
	MaxSessionIDLen   = 255
	NamespaceGeneric  = "generic"
	NamespaceProject  = "project"
)

// projectPattern bounds caller-supplied project identifiers. The domain
// layer receives the identifier as trusted, so it is enforced here.
var projectPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{1,255}$`)

// Deprecator is the store surface the deprecation endpoint consumes.
type Deprecator interface {
	Deprecate(ctx context.Context, id uuid.UUID, supersededBy *uuid.UUID) error
}

// LessonHandlerDeps carries the domain components the lesson endpoints
// delegate to.
type LessonHandlerDeps struct {
	Pipeline   *ingest.Pipeline
	Engine     *search.Engine
	Tracker    *search.Tracker
	Deprecator Deprecator
}

// LessonHandler handles lesson ingestion, search and feedback endpoints.
type LessonHandler struct {
	deps   LessonHandlerDeps
	logger log.Logger
}

// NewLessonHandler creates a new lesson handler.
func NewLessonHandler(deps LessonHandlerDeps, logger log.Logger) *LessonHandler {
	return &LessonHandler{deps: deps, logger: logger}
}

// RegisterRoutes registers lesson routes on the given mux.
func (h *LessonHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/lessons/batch", h.batch)
	mux.HandleFunc("GET /api/lessons/search", h.search)
	mux.HandleFunc("GET /api/lessons/{id}/related", h.related)
	mux.HandleFunc("POST /api/lessons/{id}/feedback", h.feedback)
	mux.HandleFunc("POST /api/lessons/{id}/deprecate", h.deprecate)
	mux.HandleFunc("GET /api/categories/stats", h.categoryStats)
}

// BatchRequest is the request body for batch ingestion.
type BatchRequest struct {
	SourceProject string             `json:"source_project"`
	Namespace     string             `json:"namespace"` // "generic" or "project"
	Lessons       []ingest.RawLesson `json:"lessons"`
}

// batch ingests a batch of raw lessons.
//
// Status mapping:
//   - 200 OK: every entry created, updated or skipped
//   - 207 Multi-Status: some entries failed, some succeeded
//   - 422 Unprocessable Entity: every entry failed
func (h *LessonHandler) batch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}

	if !projectPattern.MatchString(req.SourceProject) {
		writeError(w, http.StatusBadRequest, "invalid_source_project",
			"source_project must match [a-zA-Z0-9_-]{1,255}")
		return
	}

	var generic bool
	switch req.Namespace {
	case NamespaceGeneric:
		generic = true
	case NamespaceProject:
		generic = false
	default:
		writeError(w, http.StatusBadRequest, "invalid_namespace",
			`namespace must be "generic" or "project"`)
		return
	}

	if len(req.Lessons) == 0 {
		writeError(w, http.StatusBadRequest, "empty_batch", "lessons must not be empty")
		return
	}
	if len(req.Lessons) > MaxBatchSize {
		writeError(w, http.StatusBadRequest, "batch_too_large",
			fmt.Sprintf("at most %d lessons per batch", MaxBatchSize))
		return
	}

	// Payload-shape validation is owned by the transport layer;
	// genericity and merge semantics belong to the pipeline.
	for i, raw := range req.Lessons {
		if err := validateRawLesson(raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_lesson",
				fmt.Sprintf("entry %d: %v", i, err))
			return
		}
	}

	res := h.deps.Pipeline.ProcessLessons(r.Context(), req.Lessons, req.SourceProject, generic)

	status := http.StatusOK
	switch {
	case len(res.Errors) == len(req.Lessons):
		status = http.StatusUnprocessableEntity
	case len(res.Errors) > 0:
		status = http.StatusMultiStatus
	}
	writeJSON(w, status, res)
}

// validateRawLesson enforces payload shape limits on one entry.
// Required-field and genericity rules stay in the pipeline so that
// transport and tool callers share them.
func validateRawLesson(raw ingest.RawLesson) error {
	if raw.Type != "" && !lesson.Type(raw.Type).Valid() {
		return fmt.Errorf("unknown type %q", raw.Type)
	}
	if len(raw.Content) > MaxContentLength {
		return fmt.Errorf("content too long (max %d bytes)", MaxContentLength)
	}
	if len(raw.Title) > MaxTitleLength {
		return fmt.Errorf("title too long (max %d characters)", MaxTitleLength)
	}
	if len(raw.Summary) > MaxSummaryLength {
		return fmt.Errorf("summary too long (max %d characters)", MaxSummaryLength)
	}
	if len(raw.Tags) > MaxTagCount {
		return fmt.Errorf("too many tags (max %d)", MaxTagCount)
	}
	for _, tag := range raw.Tags {
		if len(tag) > MaxTagLength {
			return fmt.Errorf("tag too long (max %d characters)", MaxTagLength)
		}
	}
	return nil
}

// search runs a ranked search or browse query.
//
// Query parameters:
//   - q: full-text query (optional; omitted means browse by score)
//   - category: category or subcategory filter (resolved server-side)
//   - tags: comma-separated tag filter
//   - namespace: "generic" (default) or "project"
//   - project: source project (required when namespace=project)
//   - limit: maximum results (default 10, max 100)
//   - include_related: attach related lessons to each result
//   - active_only: exclude deprecated lessons; absent means true for
//     the generic namespace and false for a project namespace
func (h *LessonHandler) search(w http.ResponseWriter, r *http.Request) {
	ns, ok := h.parseNamespace(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	text := query.Get("q")
	if len(text) > MaxQueryLength {
		writeError(w, http.StatusBadRequest, "query_too_long",
			fmt.Sprintf("q must be at most %d characters", MaxQueryLength))
		return
	}

	var tags []string
	if raw := query.Get("tags"); raw != "" {
		for _, tag := range strings.Split(raw, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}

	// The shared pool hides deprecated lessons unless the caller asks
	// for them; project-detail browsing leaves the choice to the caller.
	activeOnly := ns.Generic
	if raw := query.Get("active_only"); raw != "" {
		activeOnly = raw == "true"
	}

	q := search.Query{
		Text:           text,
		Category:       query.Get("category"),
		Tags:           tags,
		IncludeRelated: query.Get("include_related") == "true",
		ActiveOnly:     activeOnly,
		Limit:          parseIntParam(r, "limit", DefaultListLimit, 1, MaxListLimit),
	}

	set, err := h.deps.Engine.Search(r.Context(), ns, q)
	if err != nil {
		h.logger.Error("search failed", "error", err)
		writeError(w, http.StatusInternalServerError, "search_failed", "")
		return
	}
	writeJSON(w, http.StatusOK, set)
}

// related returns the lessons linked to the given lesson.
func (h *LessonHandler) related(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	limit := parseIntParam(r, "limit", 5, 1, MaxListLimit)
	related, err := h.deps.Engine.RelatedTo(r.Context(), id, limit)
	if err != nil {
		if errors.Is(err, lesson.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "lesson does not exist")
			return
		}
		h.logger.Error("related lookup failed", "lesson", id, "error", err)
		writeError(w, http.StatusInternalServerError, "related_failed", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"related": related})
}

// FeedbackRequest is the request body for helpfulness feedback.
type FeedbackRequest struct {
	WasHelpful *bool  `json:"was_helpful"`
	SessionID  string `json:"session_id"`
}

// feedback records a helpfulness verdict for a lesson.
func (h *LessonHandler) feedback(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	if req.WasHelpful == nil {
		writeError(w, http.StatusBadRequest, "missing_field", "was_helpful is required")
		return
	}
	if len(req.SessionID) > MaxSessionIDLen {
		writeError(w, http.StatusBadRequest, "invalid_session_id",
			fmt.Sprintf("session_id must be at most %d characters", MaxSessionIDLen))
		return
	}

	err := h.deps.Tracker.RecordFeedback(r.Context(), id, *req.WasHelpful, req.SessionID)
	if err != nil {
		if errors.Is(err, lesson.ErrNotFound) {
			writeError(w, http.StatusNotFound, "not_found", "lesson does not exist")
			return
		}
		h.logger.Error("recording feedback failed", "lesson", id, "error", err)
		writeError(w, http.StatusInternalServerError, "feedback_failed", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
}

// DeprecateRequest is the request body for deprecating a lesson.
type DeprecateRequest struct {
	SupersededBy *uuid.UUID `json:"superseded_by,omitempty"`
}

// deprecate marks a lesson deprecated, optionally pointing at its
// replacement.
func (h *LessonHandler) deprecate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}

	var req DeprecateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}

	err := h.deps.Deprecator.Deprecate(r.Context(), id, req.SupersededBy)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"status": "deprecated"})
	case errors.Is(err, lesson.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "lesson does not exist")
	case errors.Is(err, lesson.ErrSelfReference):
		writeError(w, http.StatusBadRequest, "self_reference", "a lesson cannot supersede itself")
	case errors.Is(err, lesson.ErrAlreadySuperseded):
		writeError(w, http.StatusConflict, "already_superseded", "superseded-by pointer is already set")
	default:
		h.logger.Error("deprecating lesson failed", "lesson", id, "error", err)
		writeError(w, http.StatusInternalServerError, "deprecate_failed", "")
	}
}

// categoryStats returns per-category lesson statistics for a namespace.
func (h *LessonHandler) categoryStats(w http.ResponseWriter, r *http.Request) {
	ns, ok := h.parseNamespace(w, r)
	if !ok {
		return
	}

	stats, err := h.deps.Engine.CategoryStatistics(r.Context(), ns)
	if err != nil {
		h.logger.Error("category statistics failed", "error", err)
		writeError(w, http.StatusInternalServerError, "stats_failed", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": stats})
}

// parseNamespace reads the namespace/project query parameters.
// Writes an error response and returns ok=false on invalid input.
func (h *LessonHandler) parseNamespace(w http.ResponseWriter, r *http.Request) (search.Namespace, bool) {
	query := r.URL.Query()
	switch query.Get("namespace") {
	case "", NamespaceGeneric:
		return search.GenericNamespace(), true
	case NamespaceProject:
		project := query.Get("project")
		if !projectPattern.MatchString(project) {
			writeError(w, http.StatusBadRequest, "invalid_project",
				"project must match [a-zA-Z0-9_-]{1,255}")
			return search.Namespace{}, false
		}
		return search.ProjectNamespace(project), true
	default:
		writeError(w, http.StatusBadRequest, "invalid_namespace",
			`namespace must be "generic" or "project"`)
		return search.Namespace{}, false
	}
}

// parseID reads the {id} path value as a UUID.
func (h *LessonHandler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// parseIntParam parses an integer query parameter with bounds checking.
func parseIntParam(r *http.Request, name string, defaultVal, min, max int) int {
	str := r.URL.Query().Get(name)
	if str == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultVal
	}
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
