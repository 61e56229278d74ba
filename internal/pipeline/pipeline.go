package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/reelkit/reelcut/internal/config"
	"github.com/reelkit/reelcut/internal/ports"
	"github.com/reelkit/reelcut/internal/ports/adapters/ffmpeg"
	"github.com/reelkit/reelcut/internal/ports/adapters/ollama"
	"github.com/reelkit/reelcut/internal/ports/adapters/whispercpp"
	"github.com/reelkit/reelcut/internal/store"
	"github.com/reelkit/reelcut/internal/usecase"
	"github.com/reelkit/reelcut/internal/watcher"
)

// App bundles the wired pipeline for the CLI commands: the orchestrator,
// the job ledger and the media engine (the latter exposed for doctor-style
// checks).
type App struct {
	Usecase *usecase.Usecase
	Store   *store.Store
	Engine  ports.MediaEngine
	Log     hclog.Logger
}

// Build validates the configuration, prepares the working folders and wires
// adapters into a ready-to-run App. The transcriber and analyzer are only
// constructed when the analyzer is enabled; the usecase treats their absence
// as "no captions from speech".
func Build(ctx context.Context, cfg config.Config, log hclog.Logger) (*App, error) {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.EnsureFolders(); err != nil {
		return nil, fmt.Errorf("prepare folders: %w", err)
	}

	engine := ffmpeg.New(cfg.Tools.FFmpeg, cfg.Tools.FFprobe)

	st, err := store.Open(LedgerPath(cfg))
	if err != nil {
		return nil, fmt.Errorf("open job ledger: %w", err)
	}
	if swept, err := st.MarkInterrupted(ctx); err != nil {
		log.Warn("could not sweep interrupted jobs", "error", err)
	} else if swept > 0 {
		log.Warn("previous run left jobs unfinished, marked failed", "count", swept)
	}

	deps := usecase.Deps{
		Engine: engine,
		Ledger: st,
		Config: cfg,
		Logger: log.Named("pipeline"),
	}
	if cfg.Analyzer.Enabled {
		deps.Transcriber = whispercpp.New(cfg.Whisper.Bin, cfg.Whisper.Model)
		deps.Analyzer = ollama.New(cfg.Analyzer.BaseURL, cfg.Analyzer.Model,
			time.Duration(cfg.Analyzer.TimeoutSec)*time.Second)
	}

	return &App{
		Usecase: usecase.New(deps),
		Store:   st,
		Engine:  engine,
		Log:     log,
	}, nil
}

func (a *App) Close() error {
	return a.Store.Close()
}

// LedgerPath is where the job ledger database lives for a configuration.
func LedgerPath(cfg config.Config) string {
	return filepath.Join(cfg.Folders.Temp, "reelcut.db")
}

// ListVideos returns the video files directly inside dir, sorted by name.
// The watcher's file rules apply, so batch and watch mode always agree on
// what counts as a video.
func ListVideos(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, e := range entries {
		if e.IsDir() || !watcher.IsVideoFile(e.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, e.Name()))
	}
	sort.Strings(out)
	return out, nil
}

// ensure adapters implement ports
var _ ports.MediaEngine = (*ffmpeg.Adapter)(nil)
var _ ports.Transcriber = (*whispercpp.Adapter)(nil)
var _ ports.Analyzer = (*ollama.Adapter)(nil)
var _ ports.Ledger = (*store.Store)(nil)
