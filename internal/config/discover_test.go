package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir switches into dir for the duration of the test.
func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	require.NoError(t, err, "failed to get working directory")
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		assert.NoError(t, os.Chdir(orig), "failed to restore working directory")
	})
}

func TestDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	assert.Contains(t, DefaultPath(), filepath.Join(".config", "magnetmux", "config.toml"))
}

func TestDefaultPath_XDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	assert.Equal(t, filepath.Join("/custom/config", "magnetmux", "config.toml"), DefaultPath())
}

func TestDiscover_EnvOverride(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "custom.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("[log]"), 0644))
	t.Setenv(EnvConfig, cfgPath)

	path, err := Discover()
	require.NoError(t, err)
	assert.Equal(t, cfgPath, path)
}

func TestDiscover_EnvOverrideNotFound(t *testing.T) {
	t.Setenv(EnvConfig, "/nonexistent/config.toml")

	_, err := Discover()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvConfig)
}

func TestDiscover_CurrentDir(t *testing.T) {
	t.Setenv(EnvConfig, "")
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "config.toml"), []byte("[log]"), 0644))
	chdir(t, tmp)

	path, err := Discover()
	require.NoError(t, err)
	assert.Equal(t, "config.toml", filepath.Base(path))
}

func TestDiscover_XDG(t *testing.T) {
	t.Setenv(EnvConfig, "")
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	want := filepath.Join(xdg, "magnetmux", "config.toml")
	require.NoError(t, os.MkdirAll(filepath.Dir(want), 0755))
	require.NoError(t, os.WriteFile(want, []byte("[log]"), 0644))
	chdir(t, t.TempDir())

	path, err := Discover()
	require.NoError(t, err)
	assert.Equal(t, want, path)
}

func TestDiscover_NotFound(t *testing.T) {
	t.Setenv(EnvConfig, "")
	t.Setenv("XDG_CONFIG_HOME", "/nonexistent/xdg")
	chdir(t, t.TempDir())

	_, err := Discover()
	if _, statErr := os.Stat("/etc/magnetmux/config.toml"); statErr == nil {
		t.Skip("system config present")
	}
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config not found")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolve_FallsBackToDefault(t *testing.T) {
	if _, err := os.Stat("/etc/magnetmux/config.toml"); err == nil {
		t.Skip("system config present")
	}
	t.Setenv(EnvConfig, "")
	t.Setenv("XDG_CONFIG_HOME", "/nonexistent/xdg")
	chdir(t, t.TempDir())

	cfg, path, err := Resolve("")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, Default(), cfg)
}

func TestResolve_ExplicitPath(t *testing.T) {
	path := writeConfig(t, "[log]\nlevel = \"error\"\n")

	cfg, got, err := Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestResolve_EnvOverrideMissing(t *testing.T) {
	t.Setenv(EnvConfig, "/nonexistent/config.toml")

	_, _, err := Resolve("")
	require.Error(t, err)
}
