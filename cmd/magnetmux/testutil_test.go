package main

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command with args and returns what it wrote to
// stdout. Flag variables survive between Execute calls, so they are reset first.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	stdout, _, err := runCLIOutput(t, args...)
	return stdout, err
}

// runCLIOutput is runCLI that also returns what the command wrote to stderr.
func runCLIOutput(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	configPath, logLevel, jsonOutput = "", "", false
	for _, name := range []string{"status", "active", "limit", "match", "confidence"} {
		f := sessionsCmd.Flags().Lookup(name)
		require.NoError(t, f.Value.Set(f.DefValue))
	}
	for _, f := range []struct {
		cmd  *cobra.Command
		name string
	}{{pruneCmd, "older-than"}, {listCmd, "all"}, {acquireCmd, "verbose"}} {
		flag := f.cmd.Flags().Lookup(f.name)
		require.NoError(t, flag.Value.Set(flag.DefValue))
	}

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return stdout.String(), stderr.String(), err
}

type testEnv struct {
	configPath string
	root       string
	dbPath     string
}

// newTestEnv writes a config whose tools are fake scripts. The download agent
// writes The Matrix as mp4 for locators containing "mp4", Rocky II as mkv for
// "mkv", and nothing otherwise.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	dir := t.TempDir()
	bin := filepath.Join(dir, "bin")
	require.NoError(t, os.MkdirAll(bin, 0755))

	script := func(name, body string) string {
		path := filepath.Join(bin, name)
		require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
		return path
	}
	aria2c := script("aria2c", `for a; do last="$a"; done
case "$last" in
  *mp4*) printf 'mp4data' > "$2/The.Matrix.1999.1080p.mp4" ;;
  *mkv*) mkdir -p "$2/Rocky.II.1979"; printf 'mkvdata' > "$2/Rocky.II.1979/rocky.ii.mkv" ;;
esac
`)
	ffprobe := script("ffprobe", "echo 20.0\n")
	ffmpeg := script("ffmpeg", `out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "-y" ]; then out="$a"; fi
  prev="$a"
done
echo "out_time_ms=10000000"
echo "out_time_ms=20000000"
echo "progress=end"
printf 'converted' > "$out"
`)

	root := filepath.Join(dir, "sessions")
	dbPath := filepath.Join(dir, "db", "magnetmux.db")
	cfg := strings.Join([]string{
		"[workspace]",
		`root = "` + root + `"`,
		"[tools]",
		`aria2c = "` + aria2c + `"`,
		`ffmpeg = "` + ffmpeg + `"`,
		`ffprobe = "` + ffprobe + `"`,
		"[database]",
		`path = "` + dbPath + `"`,
		"[log]",
		`level = "error"`,
	}, "\n")
	configPath := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0644))

	return &testEnv{configPath: configPath, root: root, dbPath: dbPath}
}
