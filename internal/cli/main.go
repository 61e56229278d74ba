package cli

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/reelkit/reelcut/internal/config"
)

// version is stamped at release build time via -ldflags.
var version = "dev"

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := &cobra.Command{
		Use:          "reelcut",
		Short:        "Turn videos into vertical shorts with timed captions",
		Version:      version,
		SilenceUsage: true,
	}

	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)
	root.SilenceErrors = true

	root.PersistentFlags().String("config", config.ConfigFileName, "Path to config file")

	root.AddCommand(
		newRunCmd(),
		newBatchCmd(),
		newWatchCmd(),
		newStatusCmd(),
		newValidateCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the configured file and applies environment overrides.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv lets environment variables override tool locations and analyzer
// endpoints without editing config.json, which keeps containerized setups
// simple.
func applyEnv(cfg *config.Config) {
	cfg.Tools.FFmpeg = getenvDefault("REELCUT_FFMPEG", cfg.Tools.FFmpeg)
	cfg.Tools.FFprobe = getenvDefault("REELCUT_FFPROBE", cfg.Tools.FFprobe)
	cfg.Whisper.Bin = getenvDefault("REELCUT_WHISPER_BIN", cfg.Whisper.Bin)
	cfg.Whisper.Model = getenvDefault("REELCUT_WHISPER_MODEL", cfg.Whisper.Model)
	cfg.Analyzer.BaseURL = getenvDefault("REELCUT_OLLAMA_URL", cfg.Analyzer.BaseURL)
	cfg.Analyzer.Model = getenvDefault("REELCUT_OLLAMA_MODEL", cfg.Analyzer.Model)
}

func newLogger() hclog.Logger {
	opts := &hclog.LoggerOptions{
		Name:  "reelcut",
		Level: hclog.LevelFromString(getenvDefault("REELCUT_LOG_LEVEL", "info")),
	}
	if os.Getenv("REELCUT_LOG_FORMAT") == "json" {
		opts.JSONFormat = true
	}
	return hclog.New(opts)
}

func getenvDefault(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
