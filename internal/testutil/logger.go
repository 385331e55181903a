package testutil

import "log/slog"

// DiscardLogger returns a logger that drops all output. Tests that
// construct stores or pipelines directly pass it where a *slog.Logger
// is required; packages wired through internal/log use log.NewNop().
func DiscardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
