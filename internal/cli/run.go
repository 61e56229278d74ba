package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/reelkit/reelcut/internal/domain/overlay"
	"github.com/reelkit/reelcut/internal/pipeline"
	"github.com/reelkit/reelcut/internal/usecase"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <video>",
		Short: "Process one video into a vertical short",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOne(cmd, args[0])
		},
	}

	cmd.Flags().String("overlays", "", "JSON file with caption instructions (bypasses transcription)")
	cmd.Flags().Bool("no-outro", false, "Skip the outro even when configured")
	cmd.Flags().Bool("no-logo", false, "Skip the watermark even when configured")

	// Hidden tuning flag (internal)
	cmd.Flags().Int("timeout", 0, "Overall timeout in seconds")
	_ = cmd.Flags().MarkHidden("timeout")

	return cmd
}

func runOne(cmd *cobra.Command, input string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if noOutro, _ := cmd.Flags().GetBool("no-outro"); noOutro {
		cfg.Outro.Enabled = false
	}
	if noLogo, _ := cmd.Flags().GetBool("no-logo"); noLogo {
		cfg.Logo.Enabled = false
	}

	absIn, err := filepath.Abs(input)
	if err != nil {
		return err
	}
	if _, err := os.Stat(absIn); err != nil {
		return fmt.Errorf("stat input: %w", err)
	}

	overlaysPath, _ := cmd.Flags().GetString("overlays")
	raws, haveFile, err := loadInstructions(overlaysPath, absIn)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if sec, _ := cmd.Flags().GetInt("timeout"); sec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(sec)*time.Second)
		defer cancel()
	}

	log := newLogger()
	app, err := pipeline.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.Close()

	in := usecase.Input{VideoPath: absIn}
	if haveFile {
		log.Info("caption instructions supplied from file", "count", len(raws))
		in.Instructions = raws
	}

	res, err := app.Usecase.ProcessVideo(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.OutputPath)
	return nil
}

// loadInstructions resolves the caption instruction source: the explicit
// --overlays file when given, otherwise a `<stem>.overlays.json` sidecar
// next to the input. The bool reports whether a file was used at all.
func loadInstructions(explicit, videoPath string) ([]overlay.RawInstruction, bool, error) {
	path := explicit
	if path == "" {
		stem := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
		sidecar := filepath.Join(filepath.Dir(videoPath), stem+".overlays.json")
		if _, err := os.Stat(sidecar); err != nil {
			return nil, false, nil
		}
		path = sidecar
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("read overlay instructions: %w", err)
	}
	raws, err := parseInstructionFile(data)
	if err != nil {
		return nil, false, fmt.Errorf("parse %s: %w", path, err)
	}
	return raws, true, nil
}

// parseInstructionFile accepts either a bare JSON array of instructions or
// an object wrapping them under "overlays", the shape of the sidecar the
// pipeline itself writes, so previous runs can be replayed directly.
func parseInstructionFile(data []byte) ([]overlay.RawInstruction, error) {
	var raws []overlay.RawInstruction
	if err := json.Unmarshal(data, &raws); err == nil && raws != nil {
		return raws, nil
	}

	var wrapped struct {
		Overlays []overlay.RawInstruction `json:"overlays"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	if wrapped.Overlays == nil {
		return nil, errors.New(`expected an array or an "overlays" field`)
	}
	return wrapped.Overlays, nil
}
