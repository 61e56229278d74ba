package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/reelkit/reelcut/internal/pipeline"
	"github.com/reelkit/reelcut/internal/store"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show job history and output counts",
		Args:  cobra.NoArgs,
		RunE:  runStatus,
	}
	cmd.Flags().Int("recent", 10, "How many recent jobs to list")
	return cmd
}

func runStatus(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	st, err := store.Open(pipeline.LedgerPath(cfg))
	if err != nil {
		return fmt.Errorf("open job ledger: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	counts, err := st.CountByStatus(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "jobs: %d done, %d failed, %d running\n",
		counts[store.StatusDone], counts[store.StatusFailed], counts[store.StatusRunning])

	if outputs, err := filepath.Glob(filepath.Join(cfg.Folders.Output, "*_processed_*.mp4")); err == nil {
		fmt.Fprintf(out, "outputs: %d files in %s\n", len(outputs), cfg.Folders.Output)
	}

	n, _ := cmd.Flags().GetInt("recent")
	jobs, err := st.RecentJobs(ctx, n)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return nil
	}

	fmt.Fprintln(out, "\nrecent jobs:")
	for _, j := range jobs {
		line := fmt.Sprintf("  %s  %-7s  %s",
			j.CreatedAt.Local().Format("2006-01-02 15:04:05"), j.Status, filepath.Base(j.InputPath))
		switch {
		case j.Status == store.StatusDone && j.OutputPath != "":
			line += " -> " + filepath.Base(j.OutputPath)
		case j.Error != "":
			line += "  (" + j.Error + ")"
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
