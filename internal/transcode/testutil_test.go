// internal/transcode/testutil_test.go
package transcode

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vmunix/magnetmux/internal/probe"
)

// testLogger returns a discard logger for tests.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fixedProber returns the same duration for every path and counts calls.
type fixedProber struct {
	d     probe.Duration
	calls int
}

func (f *fixedProber) Duration(_ context.Context, _ string) probe.Duration {
	f.calls++
	return f.d
}

// writeFFmpeg creates a fake ffmpeg that prints body's output and then writes
// "data" to the path following -y.
func writeFFmpeg(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	script := `#!/bin/sh
out=""
prev=""
for a in "$@"; do
  if [ "$prev" = "-y" ]; then out="$a"; fi
  prev="$a"
done
` + body
	path := filepath.Join(t.TempDir(), "ffmpeg")
	require.NoError(t, os.WriteFile(path, []byte(script), 0755))
	return path
}
