package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/koopa0/lessonbank/internal/ingest"
	"github.com/koopa0/lessonbank/internal/lesson"
	"github.com/koopa0/lessonbank/internal/search"
)

// Tool names exposed over MCP.
const (
	ToolLessonSearch   = "lesson_search"
	ToolLessonSubmit   = "lesson_submit"
	ToolLessonFeedback = "lesson_feedback"
	ToolLessonRelated  = "lesson_related"
	ToolLessonTop      = "lesson_top"
)

// SearchInput is the input schema for lesson_search and lesson_top.
type SearchInput struct {
	Query             string   `json:"query,omitempty" jsonschema:"Full-text query; omit to browse by relevance score"`
	Category          string   `json:"category,omitempty" jsonschema:"Category or subcategory filter"`
	Tags              []string `json:"tags,omitempty" jsonschema:"Tag filter; matches lessons carrying any of these tags"`
	Project           string   `json:"project,omitempty" jsonschema:"Source project; omit to search the shared generic pool"`
	Limit             int      `json:"limit,omitempty" jsonschema:"Maximum results (default 10)"`
	IncludeRelated    bool     `json:"includeRelated,omitempty" jsonschema:"Attach related lessons to each result"`
	IncludeDeprecated bool     `json:"includeDeprecated,omitempty" jsonschema:"Include deprecated lessons; only active lessons are returned by default"`
}

// SubmitInput is the input schema for lesson_submit.
type SubmitInput struct {
	SourceProject string             `json:"sourceProject" jsonschema:"Project the lessons come from"`
	Generic       bool               `json:"generic,omitempty" jsonschema:"Submit into the shared generic pool instead of the project pool"`
	Lessons       []ingest.RawLesson `json:"lessons" jsonschema:"Raw lesson entries to ingest"`
}

// FeedbackInput is the input schema for lesson_feedback.
type FeedbackInput struct {
	LessonID   string `json:"lessonId" jsonschema:"UUID of the lesson the feedback is about"`
	WasHelpful bool   `json:"wasHelpful" jsonschema:"Whether the lesson was helpful"`
	SessionID  string `json:"sessionId,omitempty" jsonschema:"Opaque session identifier for the feedback"`
}

// RelatedInput is the input schema for lesson_related.
type RelatedInput struct {
	LessonID string `json:"lessonId" jsonschema:"UUID of the lesson to find neighbours of"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Maximum related lessons (default 5)"`
}

// registerLessonTools registers all lesson tools to the MCP server.
func (s *Server) registerLessonTools() error {
	searchSchema, err := jsonschema.For[SearchInput](nil)
	if err != nil {
		return fmt.Errorf("schema for lesson search tools: %w", err)
	}

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: ToolLessonSearch,
		Description: "Search the lesson knowledge base with full-text ranking. " +
			"Falls back to substring matching for small datasets and reports " +
			"the ordering mode used in the orderedBy field.",
		InputSchema: searchSchema,
	}, s.Search)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: ToolLessonTop,
		Description: "List the highest-scored active lessons. " +
			"Relevance scores combine usage frequency, helpfulness feedback and recency.",
		InputSchema: searchSchema,
	}, s.Top)

	submitSchema, err := jsonschema.For[SubmitInput](nil)
	if err != nil {
		return fmt.Errorf("schema for lesson submit tool: %w", err)
	}

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: ToolLessonSubmit,
		Description: "Submit a batch of lessons for ingestion. " +
			"Duplicate content is merged into the existing lesson instead of creating a new one; " +
			"generic submissions are rejected when they contain project-specific paths.",
		InputSchema: submitSchema,
	}, s.Submit)

	feedbackSchema, err := jsonschema.For[FeedbackInput](nil)
	if err != nil {
		return fmt.Errorf("schema for lesson feedback tool: %w", err)
	}

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: ToolLessonFeedback,
		Description: "Record whether a retrieved lesson was helpful. " +
			"Feedback feeds the relevance score that ranks future searches.",
		InputSchema: feedbackSchema,
	}, s.Feedback)

	relatedSchema, err := jsonschema.For[RelatedInput](nil)
	if err != nil {
		return fmt.Errorf("schema for lesson related tool: %w", err)
	}

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name: ToolLessonRelated,
		Description: "List lessons linked to a given lesson by tag similarity " +
			"or explicit relationships.",
		InputSchema: relatedSchema,
	}, s.Related)

	return nil
}

// Search handles the lesson_search MCP tool call.
func (s *Server) Search(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, any, error) {
	set, err := s.deps.Engine.Search(ctx, namespaceFor(in.Project), search.Query{
		Text:           in.Query,
		Category:       in.Category,
		Tags:           in.Tags,
		IncludeRelated: in.IncludeRelated,
		ActiveOnly:     !in.IncludeDeprecated,
		Limit:          in.Limit,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("lesson search failed: %w", err)
	}
	return jsonResult(set)
}

// Top handles the lesson_top MCP tool call.
func (s *Server) Top(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, any, error) {
	set, err := s.deps.Engine.TopByScore(ctx, namespaceFor(in.Project), in.Limit)
	if err != nil {
		return nil, nil, fmt.Errorf("listing top lessons failed: %w", err)
	}
	return jsonResult(set)
}

// Submit handles the lesson_submit MCP tool call.
func (s *Server) Submit(ctx context.Context, _ *mcp.CallToolRequest, in SubmitInput) (*mcp.CallToolResult, any, error) {
	if in.SourceProject == "" {
		return errorResult("sourceProject is required")
	}
	if len(in.Lessons) == 0 {
		return errorResult("lessons must not be empty")
	}

	res := s.deps.Pipeline.ProcessLessons(ctx, in.Lessons, in.SourceProject, in.Generic)
	return jsonResult(res)
}

// Feedback handles the lesson_feedback MCP tool call.
func (s *Server) Feedback(ctx context.Context, _ *mcp.CallToolRequest, in FeedbackInput) (*mcp.CallToolResult, any, error) {
	id, err := uuid.Parse(in.LessonID)
	if err != nil {
		return errorResult("lessonId must be a UUID")
	}

	err = s.deps.Tracker.RecordFeedback(ctx, id, in.WasHelpful, in.SessionID)
	if errors.Is(err, lesson.ErrNotFound) {
		return errorResult("lesson does not exist")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("recording feedback failed: %w", err)
	}
	return jsonResult(map[string]string{"status": "recorded"})
}

// Related handles the lesson_related MCP tool call.
func (s *Server) Related(ctx context.Context, _ *mcp.CallToolRequest, in RelatedInput) (*mcp.CallToolResult, any, error) {
	id, err := uuid.Parse(in.LessonID)
	if err != nil {
		return errorResult("lessonId must be a UUID")
	}

	related, err := s.deps.Engine.RelatedTo(ctx, id, in.Limit)
	if errors.Is(err, lesson.ErrNotFound) {
		return errorResult("lesson does not exist")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("related lookup failed: %w", err)
	}
	return jsonResult(map[string]any{"related": related})
}

// namespaceFor maps an optional project string to a namespace.
func namespaceFor(project string) search.Namespace {
	if project == "" {
		return search.GenericNamespace()
	}
	return search.ProjectNamespace(project)
}

// jsonResult encodes v as an MCP text result.
func jsonResult(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, nil, fmt.Errorf("encoding tool result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

// errorResult builds a tool-level error (bad input, unknown lesson).
// Protocol-level failures are returned as Go errors instead.
func errorResult(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: "Error: " + msg}},
		IsError: true,
	}, nil, nil
}
