// Package cmd provides CLI commands for lessonbank.
//
// Commands:
//   - serve: HTTP API server plus the periodic relevance scoring job
//   - mcp: Model Context Protocol server on stdio
//   - migrate: apply pending database migrations
//   - rescore: one-shot relevance score recompute
//   - version: version information
//
// Signal handling and graceful shutdown are implemented for the
// long-running commands via context cancellation.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koopa0/lessonbank/internal/config"
	"github.com/koopa0/lessonbank/internal/log"
)

var rootCmd = &cobra.Command{
	Use:   "lessonbank",
	Short: "lessonbank - knowledge base for lessons learned",
	Long: `lessonbank stores lessons learned from development sessions,
deduplicates them by content, links related lessons together and
serves ranked search over HTTP and MCP.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadConfig loads and validates configuration, then builds the logger
// it describes. Every subcommand starts here.
func loadConfig() (*config.Config, log.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("validating config: %w", err)
	}

	logger := log.New(log.Config{
		Level: cfg.SlogLevel(),
		JSON:  cfg.LogJSON,
	})
	return cfg, logger, nil
}
