// Package probe reads media durations with ffprobe.
package probe

import (
	"context"
	"log/slog"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// DefaultBinary is the ffprobe executable looked up on PATH.
const DefaultBinary = "ffprobe"

// Duration is the outcome of a probe: either a known length in seconds or unknown.
// The zero value is unknown.
type Duration struct {
	seconds float64
	known   bool
}

// Known returns a duration of the given number of seconds.
func Known(seconds float64) Duration {
	return Duration{seconds: seconds, known: true}
}

// Unknown returns the unavailable-duration outcome.
func Unknown() Duration {
	return Duration{}
}

// IsKnown reports whether the duration is available.
func (d Duration) IsKnown() bool {
	return d.known
}

// Microseconds returns the duration in the unit ffmpeg reports progress in.
func (d Duration) Microseconds() (float64, bool) {
	return d.seconds * 1_000_000, d.known
}

func (d Duration) String() string {
	if !d.known {
		return "unknown"
	}
	return strconv.FormatFloat(d.seconds, 'f', -1, 64) + "s"
}

// Prober runs ffprobe against local files.
type Prober struct {
	bin string
	log *slog.Logger
}

// New creates a prober using the given ffprobe binary (DefaultBinary if empty).
func New(bin string, log *slog.Logger) *Prober {
	if bin == "" {
		bin = DefaultBinary
	}
	if log == nil {
		log = slog.Default()
	}
	return &Prober{bin: bin, log: log}
}

// Args returns the ffprobe arguments used to read only the container duration.
func Args(path string) []string {
	return []string{
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	}
}

// Duration probes path. Any failure (spawn, exit status, unparseable output)
// yields Unknown rather than an error.
func (p *Prober) Duration(ctx context.Context, path string) Duration {
	out, err := exec.CommandContext(ctx, p.bin, Args(path)...).CombinedOutput()
	if err != nil {
		p.log.Warn("duration probe failed", "path", path, "error", err)
		return Unknown()
	}

	d := Parse(string(out))
	if !d.IsKnown() {
		p.log.Warn("duration unavailable", "path", path, "output", strings.TrimSpace(string(out)))
		return d
	}

	p.log.Debug("duration probed", "path", path, "duration", d)
	return d
}

// Parse interprets ffprobe's plain-text duration output.
func Parse(out string) Duration {
	s, err := strconv.ParseFloat(strings.TrimSpace(out), 64)
	if err != nil || math.IsNaN(s) || math.IsInf(s, 0) || s <= 0 {
		return Unknown()
	}
	return Known(s)
}
