// internal/config/validate.go
package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	if c.Workspace.Root == "" {
		errs = append(errs, "workspace.root: required")
	}

	// Tools
	for _, tool := range []struct{ key, value string }{
		{"tools.aria2c", c.Tools.Aria2c},
		{"tools.ffmpeg", c.Tools.FFmpeg},
		{"tools.ffprobe", c.Tools.FFprobe},
	} {
		if tool.value == "" {
			errs = append(errs, fmt.Sprintf("%s: required", tool.key))
		}
	}

	if c.Download.SeedTime < 0 {
		errs = append(errs, fmt.Sprintf("download.seed_time: must not be negative, got %d", c.Download.SeedTime))
	}

	// Transcode
	t := c.Transcode
	if t.VideoCodec == "" {
		errs = append(errs, "transcode.video_codec: required")
	}
	if t.AudioCodec == "" {
		errs = append(errs, "transcode.audio_codec: required")
	}
	if t.OutputName == "" {
		errs = append(errs, "transcode.output_name: required")
	} else {
		if filepath.Base(t.OutputName) != t.OutputName {
			errs = append(errs, fmt.Sprintf("transcode.output_name: must be a file name, got %q", t.OutputName))
		}
		if !strings.EqualFold(filepath.Ext(t.OutputName), ".mp4") {
			errs = append(errs, fmt.Sprintf("transcode.output_name: must have a .mp4 extension, got %q", t.OutputName))
		}
	}
	if t.ProgressStep <= 0 || t.ProgressStep > 100 {
		errs = append(errs, fmt.Sprintf("transcode.progress_step: must be in (0, 100], got %g", t.ProgressStep))
	}

	// Pipeline
	if c.Pipeline.MaxConcurrent < 1 {
		errs = append(errs, fmt.Sprintf("pipeline.max_concurrent: must be at least 1, got %d", c.Pipeline.MaxConcurrent))
	}
	if c.Pipeline.Timeout < 0 {
		errs = append(errs, fmt.Sprintf("pipeline.timeout: must not be negative, got %s", c.Pipeline.Timeout))
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path: required")
	}

	if !validLogLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("log.level: must be one of debug, info, warn, error; got %q", c.Log.Level))
	}

	return errs
}
