package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/koopa0/lessonbank/internal/scoring"
)

var (
	rescoreBatchSize int
	rescoreDryRun    bool
)

var rescoreCmd = &cobra.Command{
	Use:   "rescore",
	Short: "Recompute relevance scores for all lessons",
	Long: `Walks every lesson and recomputes its relevance score from current
usage, feedback and recency data. The job is idempotent; interrupting
it mid-run leaves partial progress that the next run overwrites.

With --dry-run nothing is written and the report counts lessons whose
score would change.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRescore()
	},
}

func init() {
	rescoreCmd.Flags().IntVar(&rescoreBatchSize, "batch-size", 0, "lessons per page, overrides config")
	rescoreCmd.Flags().BoolVar(&rescoreDryRun, "dry-run", false, "report changes without writing")
	rootCmd.AddCommand(rescoreCmd)
}

func runRescore() error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := openPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	comps, err := buildComponents(ctx, pool, logger)
	if err != nil {
		return err
	}

	batchSize := cfg.ScoreBatchSize
	if rescoreBatchSize > 0 {
		batchSize = rescoreBatchSize
	}

	scorer := scoring.NewScorer(comps.store, logger)
	report, err := scorer.RecomputeAll(ctx, batchSize, rescoreDryRun)
	if err != nil {
		return fmt.Errorf("recomputing scores: %w", err)
	}

	if rescoreDryRun {
		fmt.Printf("Dry run: %d of %d lessons would change\n", report.Updated, report.Processed)
	} else {
		fmt.Printf("Updated %d of %d lessons\n", report.Updated, report.Processed)
	}
	return nil
}
