package probe

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	path := filepath.Join(t.TempDir(), "ffprobe")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

func TestParse(t *testing.T) {
	tests := []struct {
		input     string
		wantKnown bool
		want      float64
	}{
		{"120.000000\n", true, 120},
		{"  5417.333  ", true, 5417.333},
		{"N/A", false, 0},
		{"", false, 0},
		{"0.0", false, 0},
		{"-3", false, 0},
		{"NaN", false, 0},
		{"Inf", false, 0},
		{"input.mkv: No such file or directory", false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			d := Parse(tt.input)
			us, ok := d.Microseconds()
			assert.Equal(t, tt.wantKnown, ok)
			assert.InDelta(t, tt.want*1_000_000, us, 1e-3)
		})
	}
}

func TestDuration_ZeroValueIsUnknown(t *testing.T) {
	var d Duration
	assert.False(t, d.IsKnown())
	assert.Equal(t, "unknown", d.String())
}

func TestDuration_Microseconds(t *testing.T) {
	us, ok := Known(1.5).Microseconds()
	assert.True(t, ok)
	assert.InDelta(t, 1_500_000, us, 1e-6)
}

func TestArgs(t *testing.T) {
	assert.Equal(t, []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		"/media/movie.mkv",
	}, Args("/media/movie.mkv"))
}

func TestProber_Duration(t *testing.T) {
	bin := writeScript(t, `echo "120.000000"`)
	p := New(bin, testLogger())

	d := p.Duration(context.Background(), "/any/file.avi")
	us, ok := d.Microseconds()
	require.True(t, ok)
	assert.InDelta(t, 120_000_000, us, 1e-3)
}

func TestProber_Duration_PassesPath(t *testing.T) {
	// Echo back the last argument as a number of seconds.
	bin := writeScript(t, `for a in "$@"; do last="$a"; done; echo "$last"`)
	p := New(bin, testLogger())

	d := p.Duration(context.Background(), "42.5")
	us, ok := d.Microseconds()
	require.True(t, ok)
	assert.InDelta(t, 42_500_000, us, 1e-3)
}

func TestProber_Duration_NonZeroExit(t *testing.T) {
	bin := writeScript(t, "echo 120.0\nexit 1\n")
	p := New(bin, testLogger())

	assert.False(t, p.Duration(context.Background(), "x.avi").IsKnown())
}

func TestProber_Duration_GarbageOutput(t *testing.T) {
	bin := writeScript(t, `echo "not a number"`)
	p := New(bin, testLogger())

	assert.False(t, p.Duration(context.Background(), "x.avi").IsKnown())
}

func TestProber_Duration_MissingBinary(t *testing.T) {
	p := New(filepath.Join(t.TempDir(), "missing-ffprobe"), testLogger())

	assert.False(t, p.Duration(context.Background(), "x.avi").IsKnown())
}

func TestNew_DefaultBinary(t *testing.T) {
	p := New("", nil)
	assert.Equal(t, DefaultBinary, p.bin)
	assert.NotNil(t, p.log)
}
