package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/reelkit/reelcut/internal/pipeline"
	"github.com/reelkit/reelcut/internal/usecase"
	"github.com/reelkit/reelcut/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch the input folder and process videos as they arrive",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
}

func runWatch(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := newLogger()
	app, err := pipeline.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	w, err := watcher.New(watcher.Config{
		Dir:          cfg.Folders.Input,
		Stability:    time.Duration(cfg.Processing.WatchStabilitySec) * time.Second,
		PollInterval: time.Duration(cfg.Processing.WatchPollIntervalMs) * time.Millisecond,
		Logger:       log.Named("watcher"),
	})
	if err != nil {
		return err
	}
	defer w.Close()

	return w.Run(ctx, func(ctx context.Context, path string) {
		if done, err := app.Store.IsDone(ctx, path); err == nil && done {
			log.Info("already processed, skipping", "file", path)
			return
		}
		// Failures are already logged and recorded by the orchestrator;
		// the watcher keeps going either way.
		_, _ = app.Usecase.ProcessVideo(ctx, usecase.Input{VideoPath: path})
	})
}
