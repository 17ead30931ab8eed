// Package download drives the external torrent download agent (aria2c).
package download

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/vmunix/magnetmux/internal/proc"
	"github.com/vmunix/magnetmux/internal/session"
)

// DefaultBinary is the aria2c executable looked up on PATH.
const DefaultBinary = "aria2c"

// Config controls how the agent is invoked.
type Config struct {
	Binary       string
	SeedTime     int  // minutes to seed after completion; 0 disables seeding
	SaveMetadata bool // keep the .torrent metadata next to the download
}

// LineHandler receives every classified output line. Lines of kind
// LineOther are never delivered.
type LineHandler func(kind LineKind, line string)

// Supervisor runs one download agent process per call.
type Supervisor struct {
	cfg Config
	log *slog.Logger
}

// NewSupervisor creates a download supervisor.
func NewSupervisor(cfg Config, log *slog.Logger) *Supervisor {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if log == nil {
		log = slog.Default()
	}
	return &Supervisor{cfg: cfg, log: log}
}

// Args returns the agent arguments for downloading locator into dir.
func (s *Supervisor) Args(dir, locator string) []string {
	return []string{
		"--dir", dir,
		"--seed-time=" + strconv.Itoa(s.cfg.SeedTime),
		"--bt-save-metadata=" + strconv.FormatBool(s.cfg.SaveMetadata),
		locator,
	}
}

// Download fetches the session's locator into its directory and blocks until
// the agent exits. The agent's exit status is logged but not treated as a
// failure; an incomplete download surfaces later when no video is found.
func (s *Supervisor) Download(ctx context.Context, sess *session.Session, onLine LineHandler) error {
	if err := session.Ensure(sess); err != nil {
		return err
	}

	log := s.log.With("session", sess.ID)
	log.Info("download starting", "locator", sess.Locator, "dir", sess.Dir)

	p, err := proc.Start(ctx, s.cfg.Binary, s.Args(sess.Dir, sess.Locator)...)
	if err != nil {
		log.Error("download spawn failed", "binary", s.cfg.Binary, "error", err)
		return fmt.Errorf("%w: %w", ErrSpawn, err)
	}
	log.Debug("download agent started", "pid", p.Pid())

	for p.Scan() {
		line := p.Text()
		kind := Classify(line)
		if kind == LineOther {
			continue
		}
		log.Info("download output", "kind", kind, "line", line)
		if onLine != nil {
			onLine(kind, line)
		}
	}
	if err := p.Err(); err != nil {
		// Keep the agent from blocking on a pipe nobody reads.
		log.Warn("download output read failed", "error", err)
		p.Drain()
	}

	if err := p.Wait(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("download interrupted: %w", ctx.Err())
		}
		if code, ok := proc.ExitCode(err); ok {
			log.Warn("download agent exited with error", "exit_code", code)
		} else {
			log.Warn("download agent wait failed", "error", err)
		}
	}

	log.Info("download finished")
	return nil
}
