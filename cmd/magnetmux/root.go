package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vmunix/magnetmux/internal/app"
	"github.com/vmunix/magnetmux/internal/config"
)

var version = "dev"

var (
	configPath string
	logLevel   string
	jsonOutput bool
)

var rootCmd = &cobra.Command{
	Use:   "magnetmux",
	Short: "Fetch torrents and normalize the video to MP4",
	Long: `magnetmux - fetch a torrent, find the video inside and normalize it to MP4

Each acquisition runs in its own session directory under the configured
workspace root. aria2c, ffprobe and ffmpeg must be installed.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to config file (default: discovered)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("magnetmux {{.Version}}\n")
}

// loadConfig resolves the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, _, err := config.Resolve(configPath)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Log.Level = strings.ToLower(logLevel)
		if errs := cfg.Validate(); len(errs) > 0 {
			return nil, &config.ConfigError{Path: configPath, Errors: errs}
		}
	}
	return cfg, nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogger logs to w, which keeps stdout free for command output.
func newLogger(level string, w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: parseLogLevel(level),
	}))
}

// openRunner opens the database and builds the pipeline. The returned func
// releases both.
func openRunner(cfg *config.Config, logger *slog.Logger) (*app.Runner, func(), error) {
	db, err := app.OpenDB(cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	runner, err := app.NewRunner(db, cfg, logger)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return runner, func() {
		_ = runner.Close()
		_ = db.Close()
	}, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

// shortID trims a session id for table output.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
