// Package mcp exposes the lesson knowledge base as MCP tools.
//
// The server wraps the official MCP SDK and registers one tool per
// knowledge-base operation:
//
//	lesson_search    →  ranked search / browse
//	lesson_submit    →  batch ingestion
//	lesson_feedback  →  helpfulness feedback
//	lesson_related   →  related lessons
//	lesson_top       →  highest-scored lessons
//
// Tool handlers build MCP responses inline, like net/http.Handler; there
// is no conversion layer between domain results and tool results.
package mcp

import (
	"context"
	"fmt"

	"github.com/koopa0/lessonbank/internal/ingest"
	"github.com/koopa0/lessonbank/internal/log"
	"github.com/koopa0/lessonbank/internal/search"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Config holds MCP server configuration
type Config struct {
	Name    string
	Version string
}

// Deps carries the domain components the tools delegate to.
type Deps struct {
	Pipeline *ingest.Pipeline
	Engine   *search.Engine
	Tracker  *search.Tracker
}

// Server wraps the MCP SDK server and the lessonbank domain components.
type Server struct {
	mcpServer *mcp.Server
	deps      Deps
	logger    log.Logger
	name      string
	version   string
}

// NewServer creates a new MCP server with all lesson tools registered.
func NewServer(cfg Config, deps Deps, logger log.Logger) (*Server, error) {
	// Validate config
	if cfg.Name == "" {
		return nil, fmt.Errorf("server name is required")
	}
	if cfg.Version == "" {
		return nil, fmt.Errorf("server version is required")
	}
	if deps.Pipeline == nil || deps.Engine == nil || deps.Tracker == nil {
		return nil, fmt.Errorf("pipeline, engine and tracker are required")
	}

	// Create MCP server (using official SDK)
	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, nil)

	s := &Server{
		mcpServer: mcpServer,
		deps:      deps,
		logger:    logger,
		name:      cfg.Name,
		version:   cfg.Version,
	}

	// Register tools
	if err := s.registerLessonTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Run starts the MCP server on the given transport.
// This is a blocking call that handles all MCP protocol communication.
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.mcpServer.Run(ctx, transport)
}
