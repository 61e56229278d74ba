package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ConfigFileName is the default configuration file looked up next to the
// working directory when --config is not given.
const ConfigFileName = "config.json"

// Config holds the full application configuration. It is persisted as
// config.json; a default file is written on first run so users have
// something concrete to edit.
type Config struct {
	Overlays   OverlaysConfig   `json:"overlays"`
	Logo       LogoConfig       `json:"logo"`
	Outro      OutroConfig      `json:"outro"`
	Video      VideoConfig      `json:"video"`
	Folders    FoldersConfig    `json:"folders"`
	Analyzer   AnalyzerConfig   `json:"analyzer"`
	Whisper    WhisperConfig    `json:"whisper"`
	Processing ProcessingConfig `json:"processing"`
	Tools      ToolsConfig      `json:"tools"`
}

type OverlaysConfig struct {
	TargetAspect    string  `json:"target_aspect"`
	FontSize        int     `json:"font_size"`
	FontColor       string  `json:"font_color"`
	OutlineColor    string  `json:"outline_color"`
	OutlineWidth    int     `json:"outline_width"`
	FadeDuration    float64 `json:"fade_duration"`
	MaxCharsPerLine int     `json:"max_chars_per_line"`
	MaxWidthPercent int     `json:"max_width_percent"`
}

type LogoConfig struct {
	Enabled     bool    `json:"enabled"`
	Path        string  `json:"path"`
	Position    string  `json:"position"`
	SizePercent float64 `json:"size_percent"`
	Margin      int     `json:"margin"`
}

type OutroConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type VideoConfig struct {
	OutputResolution string `json:"output_resolution"`
	VideoCodec       string `json:"video_codec"`
	AudioCodec       string `json:"audio_codec"`
	Bitrate          string `json:"bitrate"`
	CRF              int    `json:"crf"`
	OutputFPS        int    `json:"output_fps"`
}

type FoldersConfig struct {
	Input    string `json:"input"`
	Temp     string `json:"temp"`
	Output   string `json:"output"`
	Captions string `json:"captions"`
}

type AnalyzerConfig struct {
	Enabled    bool   `json:"enabled"`
	BaseURL    string `json:"base_url"`
	Model      string `json:"model"`
	TimeoutSec int    `json:"timeout_sec"`
}

type WhisperConfig struct {
	Bin   string `json:"bin"`
	Model string `json:"model"`
}

type ProcessingConfig struct {
	DeleteTempFiles      bool `json:"delete_temp_files"`
	ProbeTimeoutSec      int  `json:"probe_timeout_sec"`
	RenderTimeoutSec     int  `json:"render_timeout_sec"`
	OutroTimeoutSec      int  `json:"outro_timeout_sec"`
	WatchStabilitySec    int  `json:"watch_stability_sec"`
	WatchPollIntervalMs  int  `json:"watch_poll_interval_ms"`
}

type ToolsConfig struct {
	FFmpeg  string `json:"ffmpeg"`
	FFprobe string `json:"ffprobe"`
}

var validLogoPositions = map[string]struct{}{
	"top-left":     {},
	"top-right":    {},
	"bottom-left":  {},
	"bottom-right": {},
	"center":       {},
}

// Default returns the configuration the product ships with.
func Default() Config {
	return Config{
		Overlays: OverlaysConfig{
			TargetAspect:    "9:16",
			FontSize:        48,
			FontColor:       "white",
			OutlineColor:    "black",
			OutlineWidth:    2,
			FadeDuration:    0.5,
			MaxCharsPerLine: 20,
			MaxWidthPercent: 90,
		},
		Logo: LogoConfig{
			Enabled:     false,
			Path:        "assets/logo.png",
			Position:    "top-right",
			SizePercent: 15,
			Margin:      20,
		},
		Outro: OutroConfig{
			Enabled: false,
			Path:    "assets/outro.mp4",
		},
		Video: VideoConfig{
			OutputResolution: "1080x1920",
			VideoCodec:       "libx264",
			AudioCodec:       "aac",
			Bitrate:          "2M",
			CRF:              23,
			OutputFPS:        30,
		},
		Folders: FoldersConfig{
			Input:    "input",
			Temp:     "temp",
			Output:   "output",
			Captions: "captions",
		},
		Analyzer: AnalyzerConfig{
			Enabled:    false,
			BaseURL:    "http://localhost:11434",
			Model:      "llama3.1",
			TimeoutSec: 120,
		},
		Whisper: WhisperConfig{
			Bin:   ".cache/bin/whisper.cpp",
			Model: ".cache/models/ggml-base.bin",
		},
		Processing: ProcessingConfig{
			DeleteTempFiles:     true,
			ProbeTimeoutSec:     30,
			RenderTimeoutSec:    7200,
			OutroTimeoutSec:     1800,
			WatchStabilitySec:   2,
			WatchPollIntervalMs: 500,
		},
		Tools: ToolsConfig{
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
		},
	}
}

// Load reads the configuration at path. A missing file yields the default
// configuration and writes it to path so the user can edit it.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Default()
			if err := Save(path, cfg); err != nil {
				return Config{}, fmt.Errorf("write default config: %w", err)
			}
			return cfg, nil
		}
		return Config{}, err
	}

	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path as indented JSON.
func Save(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// EnsureFolders creates the configured working folders.
func (c Config) EnsureFolders() error {
	for _, dir := range []string{c.Folders.Input, c.Folders.Temp, c.Folders.Output, c.Folders.Captions} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func (c Config) Validate() error {
	if _, err := c.TargetRatio(); err != nil {
		return err
	}
	if c.Overlays.FontSize <= 0 {
		return errors.New("overlays: font size must be > 0")
	}
	if c.Overlays.FadeDuration < 0 {
		return errors.New("overlays: fade duration must be >= 0")
	}
	if c.Overlays.MaxCharsPerLine <= 0 {
		return errors.New("overlays: max chars per line must be > 0")
	}
	if _, _, err := c.OutputResolution(); err != nil {
		return err
	}
	if c.Video.VideoCodec == "" || c.Video.AudioCodec == "" {
		return errors.New("video: codecs must not be empty")
	}
	if c.Video.Bitrate == "" {
		return errors.New("video: bitrate must not be empty")
	}
	if c.Video.OutputFPS <= 0 {
		return errors.New("video: output fps must be > 0")
	}
	if _, ok := validLogoPositions[c.Logo.Position]; !ok {
		return fmt.Errorf("logo: unknown position %q", c.Logo.Position)
	}
	if c.Logo.SizePercent <= 0 || c.Logo.SizePercent > 100 {
		return errors.New("logo: size percent must be in (0, 100]")
	}
	if c.Folders.Temp == "" || c.Folders.Output == "" {
		return errors.New("folders: temp and output must not be empty")
	}
	return nil
}

// TargetRatio parses the configured aspect, e.g. "9:16" -> 0.5625.
func (c Config) TargetRatio() (float64, error) {
	w, h, err := splitPair(c.Overlays.TargetAspect, ":")
	if err != nil {
		return 0, fmt.Errorf("overlays: bad target aspect %q: %w", c.Overlays.TargetAspect, err)
	}
	return float64(w) / float64(h), nil
}

// OutputResolution parses the configured resolution, e.g. "1080x1920".
func (c Config) OutputResolution() (int, int, error) {
	w, h, err := splitPair(c.Video.OutputResolution, "x")
	if err != nil {
		return 0, 0, fmt.Errorf("video: bad output resolution %q: %w", c.Video.OutputResolution, err)
	}
	return w, h, nil
}

func splitPair(s, sep string) (int, int, error) {
	a, b, ok := strings.Cut(strings.TrimSpace(s), sep)
	if !ok {
		return 0, 0, fmt.Errorf("expected <w>%s<h>", sep)
	}
	w, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return 0, 0, err
	}
	h, err := strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return 0, 0, err
	}
	if w <= 0 || h <= 0 {
		return 0, 0, errors.New("dimensions must be > 0")
	}
	return w, h, nil
}
