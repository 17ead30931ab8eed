// Package transcode normalizes located assets into the canonical MP4
// container with ffmpeg, reporting throttled progress.
package transcode

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vmunix/magnetmux/internal/asset"
	"github.com/vmunix/magnetmux/internal/probe"
	"github.com/vmunix/magnetmux/internal/proc"
)

const (
	DefaultBinary       = "ffmpeg"
	DefaultVideoCodec   = "libx264"
	DefaultPreset       = "fast"
	DefaultAudioCodec   = "aac"
	DefaultAudioBitrate = "128k"
	DefaultOutputName   = "converted.mp4"
	DefaultProgressStep = 5.0
)

// Options controls the ffmpeg invocation.
type Options struct {
	Binary       string
	VideoCodec   string
	Preset       string
	AudioCodec   string
	AudioBitrate string
	OutputName   string  // file name inside the session directory
	ProgressStep float64 // minimum percentage-point delta between reports
}

// DefaultOptions returns H.264 "fast" video with 128k AAC audio.
func DefaultOptions() Options {
	return Options{
		Binary:       DefaultBinary,
		VideoCodec:   DefaultVideoCodec,
		Preset:       DefaultPreset,
		AudioCodec:   DefaultAudioCodec,
		AudioBitrate: DefaultAudioBitrate,
		OutputName:   DefaultOutputName,
		ProgressStep: DefaultProgressStep,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Binary == "" {
		o.Binary = d.Binary
	}
	if o.VideoCodec == "" {
		o.VideoCodec = d.VideoCodec
	}
	if o.Preset == "" {
		o.Preset = d.Preset
	}
	if o.AudioCodec == "" {
		o.AudioCodec = d.AudioCodec
	}
	if o.AudioBitrate == "" {
		o.AudioBitrate = d.AudioBitrate
	}
	if o.OutputName == "" {
		o.OutputName = d.OutputName
	}
	if o.ProgressStep <= 0 {
		o.ProgressStep = d.ProgressStep
	}
	return o
}

// DurationProber reads the total duration of a media file.
type DurationProber interface {
	Duration(ctx context.Context, path string) probe.Duration
}

// ProgressFunc receives throttled completion percentages.
type ProgressFunc func(percent float64)

// Supervisor runs one ffmpeg process per call.
type Supervisor struct {
	opts   Options
	prober DurationProber
	log    *slog.Logger
}

// NewSupervisor creates a transcode supervisor. Unset options take their defaults.
func NewSupervisor(opts Options, prober DurationProber, log *slog.Logger) *Supervisor {
	if log == nil {
		log = slog.Default()
	}
	return &Supervisor{opts: opts.withDefaults(), prober: prober, log: log}
}

// OutputPath returns where the transcoded file for a session directory is written.
func (s *Supervisor) OutputPath(dir string) string {
	return filepath.Join(dir, s.opts.OutputName)
}

// Args returns the ffmpeg arguments for transcoding src into dst.
func (s *Supervisor) Args(src, dst string) []string {
	return []string{
		"-i", src,
		"-c:v", s.opts.VideoCodec, "-preset", s.opts.Preset,
		"-c:a", s.opts.AudioCodec, "-b:a", s.opts.AudioBitrate,
		"-y", dst,
		"-progress", "pipe:1", "-nostats",
	}
}

// Normalize returns a path to the asset in the canonical container. An asset
// that already has the canonical extension is returned as is without running
// ffmpeg; anything else is transcoded into OutputPath(dir).
func (s *Supervisor) Normalize(ctx context.Context, a asset.Asset, dir string, onProgress ProgressFunc) (string, error) {
	if a.IsCanonical() {
		s.log.Info("no conversion needed", "path", a.Path)
		return a.Path, nil
	}

	dst := s.OutputPath(dir)
	log := s.log.With("source", a.Path, "output", dst)

	duration := probe.Unknown()
	if s.prober != nil {
		duration = s.prober.Duration(ctx, a.Path)
	}
	log.Info("conversion starting", "container", a.Container, "duration", duration)

	p, err := proc.Start(ctx, s.opts.Binary, s.Args(a.Path, dst)...)
	if err != nil {
		log.Error("transcoder spawn failed", "binary", s.opts.Binary, "error", err)
		return "", fmt.Errorf("%w: %w", ErrSpawn, err)
	}

	throttle := NewThrottle(s.opts.ProgressStep)
read:
	for p.Scan() {
		pl := ParseLine(p.Text())
		switch pl.Kind {
		case LineOutTime:
			pct, ok := Percent(pl.Microseconds, duration)
			if !ok || !throttle.Observe(pct) {
				continue
			}
			log.Info("converting", "percent", fmt.Sprintf("%.1f", pct))
			if onProgress != nil {
				onProgress(pct)
			}
		case LineEnd:
			break read
		}
	}
	if err := p.Err(); err != nil {
		p.Kill()
		_ = p.Wait()
		return "", fmt.Errorf("%w: %w", ErrStream, err)
	}

	// Whatever follows progress=end is not interpreted.
	p.Drain()

	if err := p.Wait(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("conversion interrupted: %w", ctx.Err())
		}
		if code, ok := proc.ExitCode(err); ok {
			log.Error("transcoder exited with error", "exit_code", code)
			return "", fmt.Errorf("%w: exit code %d", ErrExit, code)
		}
		return "", fmt.Errorf("%w: %w", ErrStream, err)
	}

	info, err := os.Stat(dst)
	if err != nil || info.Size() == 0 {
		log.Error("transcoder output missing or empty")
		return "", fmt.Errorf("%w: %s", ErrEmptyOutput, dst)
	}

	log.Info("conversion complete", "size_bytes", info.Size())
	return dst, nil
}
