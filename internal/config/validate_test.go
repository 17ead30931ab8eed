// internal/config/validate_test.go
package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no root", func(c *Config) { c.Workspace.Root = "" }, "workspace.root"},
		{"no aria2c", func(c *Config) { c.Tools.Aria2c = "" }, "tools.aria2c"},
		{"no ffprobe", func(c *Config) { c.Tools.FFprobe = "" }, "tools.ffprobe"},
		{"negative seed time", func(c *Config) { c.Download.SeedTime = -1 }, "download.seed_time"},
		{"no video codec", func(c *Config) { c.Transcode.VideoCodec = "" }, "transcode.video_codec"},
		{"output in subdir", func(c *Config) { c.Transcode.OutputName = "out/converted.mp4" }, "must be a file name"},
		{"output not mp4", func(c *Config) { c.Transcode.OutputName = "converted.mkv" }, ".mp4 extension"},
		{"zero step", func(c *Config) { c.Transcode.ProgressStep = 0 }, "transcode.progress_step"},
		{"step above 100", func(c *Config) { c.Transcode.ProgressStep = 101 }, "transcode.progress_step"},
		{"no concurrency", func(c *Config) { c.Pipeline.MaxConcurrent = 0 }, "pipeline.max_concurrent"},
		{"negative timeout", func(c *Config) { c.Pipeline.Timeout = -time.Second }, "pipeline.timeout"},
		{"no database", func(c *Config) { c.Database.Path = "" }, "database.path"},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.Validate()
			assert.True(t, containsError(errs, tt.want), "expected error containing %q, got %v", tt.want, errs)
		})
	}
}

func TestValidate_UppercaseExtension(t *testing.T) {
	cfg := Default()
	cfg.Transcode.OutputName = "OUT.MP4"
	assert.Empty(t, cfg.Validate())
}

func TestValidate_CollectsAll(t *testing.T) {
	cfg := &Config{}
	errs := cfg.Validate()
	assert.GreaterOrEqual(t, len(errs), 8)
}

func containsError(errs []string, substr string) bool {
	for _, e := range errs {
		if strings.Contains(e, substr) {
			return true
		}
	}
	return false
}
