package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/koopa0/lessonbank/api"
	"github.com/koopa0/lessonbank/internal/observability"
	"github.com/koopa0/lessonbank/internal/scoring"
)

const shutdownGrace = 10 * time.Second

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the HTTP API server together with the periodic relevance
scoring job. Migrations run automatically on startup.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (host:port), overrides config")
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracing, err := observability.Setup(ctx, observability.Config{
		Endpoint:    cfg.Tracing.Endpoint,
		Environment: cfg.Tracing.Environment,
		ServiceName: cfg.Tracing.ServiceName,
	}, logger)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer flushCancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Warn("tracing shutdown failed", "error", err)
		}
	}()

	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	comps, err := buildComponents(ctx, pool, logger)
	if err != nil {
		return err
	}

	scorer := scoring.NewScorer(comps.store, logger)
	scheduler := scoring.NewScheduler(scorer, cfg.ScoreInterval, cfg.ScoreBatchSize, logger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		scheduler.Run(ctx)
	}()

	addr := cfg.ServerAddr
	if serveAddr != "" {
		addr = serveAddr
	}

	server := api.NewServer(pool, api.LessonHandlerDeps{
		Pipeline:   comps.pipeline,
		Engine:     comps.engine,
		Tracker:    comps.tracker,
		Deprecator: comps.store,
	}, logger)

	logger.Info("starting HTTP API server", "addr", addr, "version", AppVersion)
	err = server.Run(ctx, addr)

	cancel()
	wg.Wait()
	return err
}
