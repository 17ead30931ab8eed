// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Workspace WorkspaceConfig `toml:"workspace"`
	Tools     ToolsConfig     `toml:"tools"`
	Download  DownloadConfig  `toml:"download"`
	Transcode TranscodeConfig `toml:"transcode"`
	Pipeline  PipelineConfig  `toml:"pipeline"`
	Database  DatabaseConfig  `toml:"database"`
	Log       LogConfig       `toml:"log"`
}

// WorkspaceConfig locates the per-session working directories.
type WorkspaceConfig struct {
	Root string `toml:"root"`
}

// ToolsConfig names the external executables. Bare names are resolved via PATH.
type ToolsConfig struct {
	Aria2c  string `toml:"aria2c"`
	FFmpeg  string `toml:"ffmpeg"`
	FFprobe string `toml:"ffprobe"`
}

type DownloadConfig struct {
	SeedTime     int  `toml:"seed_time"`
	SaveMetadata bool `toml:"save_metadata"`
}

type TranscodeConfig struct {
	VideoCodec   string  `toml:"video_codec"`
	Preset       string  `toml:"preset"`
	AudioCodec   string  `toml:"audio_codec"`
	AudioBitrate string  `toml:"audio_bitrate"`
	OutputName   string  `toml:"output_name"`
	ProgressStep float64 `toml:"progress_step"`
}

type PipelineConfig struct {
	MaxConcurrent int           `toml:"max_concurrent"`
	Timeout       time.Duration `toml:"timeout"` // 0 disables the limit
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns a configuration with every value at its default.
func Default() *Config {
	return &Config{
		Workspace: WorkspaceConfig{Root: filepath.Join(os.TempDir(), "magnetmux")},
		Tools: ToolsConfig{
			Aria2c:  "aria2c",
			FFmpeg:  "ffmpeg",
			FFprobe: "ffprobe",
		},
		Download: DownloadConfig{
			SeedTime:     0,
			SaveMetadata: true,
		},
		Transcode: TranscodeConfig{
			VideoCodec:   "libx264",
			Preset:       "fast",
			AudioCodec:   "aac",
			AudioBitrate: "128k",
			OutputName:   "converted.mp4",
			ProgressStep: 5,
		},
		Pipeline: PipelineConfig{MaxConcurrent: 2},
		Database: DatabaseConfig{Path: "./data/magnetmux.db"},
		Log:      LogConfig{Level: "info"},
	}
}

// Load reads, substitutes, parses and validates the configuration file.
// Keys absent from the file keep their Default values.
func Load(path string) (*Config, error) {
	cfg, err := LoadWithoutValidation(path)
	if err != nil {
		return nil, err
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, &ConfigError{Path: path, Errors: errs}
	}
	return cfg, nil
}

// LoadWithoutValidation reads and parses the configuration file but skips Validate.
func LoadWithoutValidation(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	content, missing := substituteEnvVars(string(data))
	if len(missing) > 0 {
		return nil, &ConfigError{Path: path, Missing: missing}
	}

	cfg := Default()
	md, err := toml.Decode(content, cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, fmt.Sprintf("%s: unknown key", k))
		}
		return nil, &ConfigError{Path: path, Errors: keys}
	}

	return cfg, nil
}

// envVarPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?:(:-|:\?)([^}]*))?\}`)

// substituteEnvVars replaces variable references with their environment
// values. An empty value counts as unset for the :- and :? forms. References
// that cannot be resolved are left in place and reported. Comments are copied
// untouched.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		code, comment := splitComment(line)
		lines[i] = envVarPattern.ReplaceAllStringFunc(code, func(match string) string {
			m := envVarPattern.FindStringSubmatch(match)
			name, op, arg := m[1], m[2], m[3]
			value, ok := os.LookupEnv(name)

			switch op {
			case ":-":
				if value == "" {
					return arg
				}
				return value
			case ":?":
				if value == "" {
					missing = append(missing, fmt.Sprintf("%s: %s", name, strings.TrimSpace(arg)))
					return match
				}
				return value
			}

			if !ok {
				missing = append(missing, name)
				return match
			}
			return value
		}) + comment
	}
	return strings.Join(lines, "\n"), missing
}

// splitComment splits line at the first # outside a quoted string.
func splitComment(line string) (code, comment string) {
	var quote byte
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote == 0 && c == '#':
			return line[:i], line[i:]
		case quote == 0 && (c == '"' || c == '\''):
			quote = c
		case quote == '"' && c == '\\':
			i++
		case c == quote:
			quote = 0
		}
	}
	return line, ""
}
