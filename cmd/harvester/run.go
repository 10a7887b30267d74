package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"microharvest/internal/checkpoint"
	"microharvest/internal/formatter"
	"microharvest/internal/harvest"
	"microharvest/internal/publisher"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type runFlags struct {
	dryRunDir    string
	reset        bool
	noCheckpoint bool
}

func newRunCmd(a *app) *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "List the catalog, normalize every entry and publish it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return a.run(ctx, flags)
		},
	}

	cmd.Flags().StringVar(&flags.dryRunDir, "dry-run-dir", "", "Write packages as JSON into this directory instead of publishing")
	cmd.Flags().BoolVar(&flags.reset, "reset", false, "Discard saved progress and start from the first entry")
	cmd.Flags().BoolVar(&flags.noCheckpoint, "no-checkpoint", false, "Neither resume from nor save progress")

	return cmd
}

func (a *app) run(ctx context.Context, flags *runFlags) error {
	runID := uuid.NewString()
	log := a.logger.With("run", runID)

	pubCfg := a.cfg.Publisher
	if flags.dryRunDir != "" {
		pubCfg.DryRunDir = flags.dryRunDir
	}

	var pub publisher.Publisher
	if pubCfg.DryRunDir != "" {
		fmt.Printf("📝 Dry run: writing packages to %s\n", pubCfg.DryRunDir)

		pub = publisher.NewFilePublisher(pubCfg.DryRunDir, pubCfg, runID, log)
	} else {
		client := publisher.NewActionClient(
			pubCfg.Endpoint,
			pubCfg.APIKey(),
			a.cfg.Upstream.UserAgent,
			a.cfg.Retry.GetTimeout(),
			log,
		)
		pub = publisher.NewCatalogPublisher(client, pubCfg, runID, log)
	}

	var store *checkpoint.Store
	if a.cfg.Checkpoint.Enabled && !flags.noCheckpoint {
		store = checkpoint.NewStore(a.cfg.Checkpoint.Path)

		if flags.reset {
			if err := store.Clear(); err != nil {
				return err
			}
		}
	}

	runner := harvest.NewRunner(a.client(), a.processor(), pub, harvest.Options{Store: store, RunID: runID}, a.logger)

	fmt.Printf("🚀 Harvesting %s (run %s)\n", a.cfg.Upstream.BaseURL, runID)

	summary, err := runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("harvest aborted: %w", err)
	}

	fmt.Printf("\n✅ Published %d of %d listed datasets (%d skipped from checkpoint)\n",
		summary.Published, summary.Listed, summary.Skipped)

	if len(summary.Failures) > 0 {
		fmt.Printf("⚠️  %d entries failed:\n\n", len(summary.Failures))
		fmt.Print(formatter.RenderFailures(summary.Failures))
	}

	return nil
}
