package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reelkit/reelcut/internal/pipeline"
)

func newBatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch",
		Short: "Process every video in the input folder",
		Args:  cobra.NoArgs,
		RunE:  runBatch,
	}
}

func runBatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := pipeline.Build(ctx, cfg, newLogger())
	if err != nil {
		return err
	}
	defer app.Close()

	videos, err := pipeline.ListVideos(cfg.Folders.Input)
	if err != nil {
		return fmt.Errorf("scan input folder: %w", err)
	}
	if len(videos) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "no videos in %s\n", cfg.Folders.Input)
		return nil
	}

	res, err := app.Usecase.ProcessBatch(ctx, videos)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "succeeded %d, failed %d, skipped %d\n",
		res.Succeeded, res.Failed, res.Skipped)
	if res.Failed > 0 {
		return fmt.Errorf("%d of %d videos failed", res.Failed, len(videos))
	}
	return nil
}
