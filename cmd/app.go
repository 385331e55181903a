package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/koopa0/lessonbank/db"
	"github.com/koopa0/lessonbank/internal/config"
	"github.com/koopa0/lessonbank/internal/ingest"
	"github.com/koopa0/lessonbank/internal/lesson"
	"github.com/koopa0/lessonbank/internal/log"
	"github.com/koopa0/lessonbank/internal/search"
)

// components bundles the wired domain layer shared by the serve and
// mcp commands.
type components struct {
	store    *lesson.Store
	pipeline *ingest.Pipeline
	engine   *search.Engine
	tracker  *search.Tracker
}

// openPool runs migrations and creates a PostgreSQL connection pool.
// Pool is configured with sensible defaults for connection management.
func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection config: %w", err)
	}

	poolCfg.MaxConns = 10
	poolCfg.MinConns = 2
	poolCfg.MaxConnLifetime = 30 * time.Minute
	poolCfg.MaxConnIdleTime = 5 * time.Minute
	poolCfg.HealthCheckPeriod = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return pool, nil
}

// buildComponents wires the domain layer on top of an open pool.
func buildComponents(ctx context.Context, pool *pgxpool.Pool, logger log.Logger) (*components, error) {
	store, err := lesson.NewStore(ctx, pool, logger)
	if err != nil {
		return nil, fmt.Errorf("creating lesson store: %w", err)
	}

	linker := ingest.NewLinker(store, logger)
	tracker := search.NewTracker(store, logger)

	return &components{
		store:    store,
		pipeline: ingest.NewPipeline(store, linker, logger),
		engine:   search.NewEngine(store, tracker, logger),
		tracker:  tracker,
	}, nil
}
