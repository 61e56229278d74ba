// Package watcher turns filesystem activity in the input folder into
// processing triggers for settled video files.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/hashicorp/go-hclog"
)

const (
	defaultStability    = 2 * time.Second
	defaultPollInterval = 500 * time.Millisecond
)

// IsVideoFile reports whether name carries a processable video extension.
// Hidden and editor temp files (dot or tilde prefixed) never qualify.
func IsVideoFile(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "~") {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".mp4", ".avi", ".mov", ".mkv":
		return true
	}
	return false
}

type Config struct {
	Dir string
	// Stability is how long a file's size must hold still before it is
	// considered fully written.
	Stability    time.Duration
	PollInterval time.Duration
	Logger       hclog.Logger
}

type Watcher struct {
	cfg Config
	fs  *fsnotify.Watcher
	log hclog.Logger
}

func New(cfg Config) (*Watcher, error) {
	if cfg.Stability <= 0 {
		cfg.Stability = defaultStability
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.Logger == nil {
		cfg.Logger = hclog.NewNullLogger()
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fs.Add(cfg.Dir); err != nil {
		fs.Close()
		return nil, fmt.Errorf("watch %s: %w", cfg.Dir, err)
	}
	return &Watcher{cfg: cfg, fs: fs, log: cfg.Logger}, nil
}

func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Run hands each settled video file to handle, one at a time, until ctx is
// canceled. Videos already sitting in the folder are handled first; the
// filesystem watch was registered in New, so files landing during that scan
// raise events and are deduplicated rather than lost. A path is delivered
// at most once per Run.
func (w *Watcher) Run(ctx context.Context, handle func(context.Context, string)) error {
	w.log.Info("watching for videos", "dir", w.cfg.Dir)

	seen := make(map[string]bool)

	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !IsVideoFile(e.Name()) {
			continue
		}
		w.dispatch(ctx, filepath.Join(w.cfg.Dir, e.Name()), seen, handle)
		if ctx.Err() != nil {
			return nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			w.log.Info("watcher stopped")
			return nil
		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			// A move into the folder surfaces as Create; slow copies
			// keep appending via Write.
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !IsVideoFile(ev.Name) {
				continue
			}
			w.dispatch(ctx, ev.Name, seen, handle)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		}
	}
}

func (w *Watcher) dispatch(ctx context.Context, path string, seen map[string]bool, handle func(context.Context, string)) {
	if seen[path] {
		return
	}
	w.log.Info("video detected", "file", filepath.Base(path))
	if !w.waitSettled(ctx, path) {
		return
	}
	seen[path] = true
	handle(ctx, path)
}

// waitSettled polls the file size until it is non-zero and holds still for
// the stability window, so half-copied files never reach ffmpeg. Gives up
// after fifteen windows.
func (w *Watcher) waitSettled(ctx context.Context, path string) bool {
	deadline := time.Now().Add(15 * w.cfg.Stability)
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	var (
		lastSize  int64 = -1
		stableFor time.Duration
	)
	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if time.Now().After(deadline) {
				w.log.Warn("file never settled, skipping", "file", filepath.Base(path))
				return false
			}
			fi, err := os.Stat(path)
			if err != nil {
				// Copy tools may create, remove and rename underneath us.
				lastSize = -1
				stableFor = 0
				continue
			}
			if fi.Size() == lastSize && fi.Size() > 0 {
				stableFor += w.cfg.PollInterval
				if stableFor >= w.cfg.Stability {
					return true
				}
			} else {
				lastSize = fi.Size()
				stableFor = 0
			}
		}
	}
}
