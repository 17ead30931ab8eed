// internal/config/discover.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// EnvConfig names the environment variable that overrides discovery.
const EnvConfig = "MAGNETMUX_CONFIG"

// DefaultPath returns the XDG-compliant default config path.
func DefaultPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "./config.toml"
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "magnetmux", "config.toml")
}

// Discover finds the config file using the standard search order.
// Search order:
//  1. MAGNETMUX_CONFIG environment variable
//  2. ./config.toml (current directory)
//  3. $XDG_CONFIG_HOME/magnetmux/config.toml
//  4. /etc/magnetmux/config.toml
//
// The returned error wraps os.ErrNotExist when no candidate exists.
func Discover() (string, error) {
	if envPath := os.Getenv(EnvConfig); envPath != "" {
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("%s=%s: %w", EnvConfig, envPath, err)
		}
		return envPath, nil
	}

	paths := []string{
		"./config.toml",
		DefaultPath(),
		"/etc/magnetmux/config.toml",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("config not found, checked: %s: %w", strings.Join(paths, ", "), fs.ErrNotExist)
}

// Resolve loads the config at path, or the discovered one when path is empty.
// With no explicit path and nothing to discover, Default is returned.
func Resolve(path string) (*Config, string, error) {
	if path == "" {
		found, err := Discover()
		if err != nil {
			if os.Getenv(EnvConfig) == "" && errors.Is(err, fs.ErrNotExist) {
				return Default(), "", nil
			}
			return nil, "", err
		}
		path = found
	}

	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}
