package transcode

import (
	"strconv"
	"strings"

	"github.com/vmunix/magnetmux/internal/probe"
)

// Keys of ffmpeg's machine-readable -progress output.
const (
	outTimeKey  = "out_time_ms="
	progressEnd = "progress=end"
)

// LineKind identifies the progress lines the supervisor acts on.
type LineKind int

const (
	LineIgnored LineKind = iota
	LineOutTime
	LineEnd
)

// ProgressLine is one parsed line of progress output.
type ProgressLine struct {
	Kind         LineKind
	Microseconds int64 // elapsed output time, set for LineOutTime
}

// ParseLine interprets one line of ffmpeg progress output. Despite its name,
// ffmpeg reports out_time_ms in microseconds.
func ParseLine(line string) ProgressLine {
	line = strings.TrimSpace(line)

	if v, ok := strings.CutPrefix(line, outTimeKey); ok {
		us, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			// ffmpeg prints N/A before the first frame is encoded.
			return ProgressLine{Kind: LineIgnored}
		}
		return ProgressLine{Kind: LineOutTime, Microseconds: us}
	}
	if strings.Contains(line, progressEnd) {
		return ProgressLine{Kind: LineEnd}
	}
	return ProgressLine{Kind: LineIgnored}
}

// Percent converts elapsed microseconds into a completion percentage of the
// total duration, clamped to [0, 100]. It returns false when the duration is
// unknown; no division happens in that case.
func Percent(elapsedUs int64, total probe.Duration) (float64, bool) {
	totalUs, ok := total.Microseconds()
	if !ok || totalUs <= 0 {
		return 0, false
	}
	p := float64(elapsedUs) / totalUs * 100
	return min(max(p, 0), 100), true
}

// Throttle limits how often progress is reported: a value is emitted only when
// it is at least step points past the last emitted value, or when it first
// reaches 100. Emitted values never decrease.
type Throttle struct {
	step float64
	last float64
	done bool
}

// NewThrottle creates a throttle that starts from 0%.
func NewThrottle(step float64) *Throttle {
	return &Throttle{step: step}
}

// Observe records a computed percentage and reports whether it should be emitted.
func (t *Throttle) Observe(p float64) bool {
	if t.done {
		return false
	}
	if p == 100 {
		t.last = p
		t.done = true
		return true
	}
	if p-t.last >= t.step {
		t.last = p
		return true
	}
	return false
}
