package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/reelkit/reelcut/internal/ports/adapters/ffmpeg"
	"github.com/reelkit/reelcut/internal/ports/adapters/ollama"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check tools, folders and assets before processing",
		Args:  cobra.NoArgs,
		RunE:  runValidate,
	}
}

// runValidate is a doctor-style preflight. Only broken tooling and folders
// make it exit non-zero; missing optional assets are warnings so a partial
// setup can still process videos.
func runValidate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	out := cmd.OutOrStdout()
	failed := false
	pass := func(format string, args ...any) { fmt.Fprintf(out, "  ok    "+format+"\n", args...) }
	warn := func(format string, args ...any) { fmt.Fprintf(out, "  warn  "+format+"\n", args...) }
	fail := func(format string, args ...any) {
		failed = true
		fmt.Fprintf(out, "  FAIL  "+format+"\n", args...)
	}

	if err := cfg.Validate(); err != nil {
		fail("config: %v", err)
	} else {
		pass("config valid")
	}

	engine := ffmpeg.New(cfg.Tools.FFmpeg, cfg.Tools.FFprobe)
	if v, err := engine.Version(ctx); err != nil {
		fail("media tools: %v", err)
	} else {
		pass("%s", v)
	}

	if err := cfg.EnsureFolders(); err != nil {
		fail("folders: %v", err)
	} else if err := probeWritable(cfg.Folders.Temp); err != nil {
		fail("temp folder not writable: %v", err)
	} else {
		pass("folders ready")
	}

	if cfg.Logo.Enabled {
		if _, err := os.Stat(cfg.Logo.Path); err != nil {
			warn("logo enabled but asset missing: %s", cfg.Logo.Path)
		} else {
			pass("logo asset present")
		}
	}
	if cfg.Outro.Enabled {
		if _, err := os.Stat(cfg.Outro.Path); err != nil {
			warn("outro enabled but asset missing: %s", cfg.Outro.Path)
		} else {
			pass("outro asset present")
		}
	}

	if cfg.Analyzer.Enabled {
		if _, err := os.Stat(cfg.Whisper.Bin); err != nil {
			warn("whisper binary missing: %s", cfg.Whisper.Bin)
		} else if _, err := os.Stat(cfg.Whisper.Model); err != nil {
			warn("whisper model missing: %s", cfg.Whisper.Model)
		} else {
			pass("whisper.cpp present")
		}

		llm := ollama.New(cfg.Analyzer.BaseURL, cfg.Analyzer.Model,
			time.Duration(cfg.Analyzer.TimeoutSec)*time.Second)
		if err := llm.Ping(ctx); err != nil {
			warn("ollama not reachable at %s: %v", cfg.Analyzer.BaseURL, err)
		} else {
			pass("ollama reachable (%s)", cfg.Analyzer.Model)
		}
	}

	if failed {
		return errors.New("validation failed")
	}
	return nil
}

func probeWritable(dir string) error {
	f, err := os.CreateTemp(dir, ".reelcut-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
