// Package app wires configuration, storage and the acquisition pipeline together.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/vmunix/magnetmux/internal/asset"
	"github.com/vmunix/magnetmux/internal/config"
	"github.com/vmunix/magnetmux/internal/download"
	"github.com/vmunix/magnetmux/internal/events"
	"github.com/vmunix/magnetmux/internal/migrations"
	"github.com/vmunix/magnetmux/internal/pipeline"
	"github.com/vmunix/magnetmux/internal/probe"
	"github.com/vmunix/magnetmux/internal/session"
	"github.com/vmunix/magnetmux/internal/transcode"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"
)

// OpenDB opens (creating if needed) the SQLite database at path and applies
// the schema.
func OpenDB(path string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	// Concurrent acquisitions write from several connections.
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate applies the schema. It is safe to run on every start.
func Migrate(db *sql.DB) error {
	if _, err := db.Exec(migrations.InitialSQL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Outcome is the result of one acquisition run by Runner.Run.
type Outcome struct {
	Locator string
	Result  *pipeline.Result
	Err     error
}

// Runner owns the components needed to acquire locators.
type Runner struct {
	cfg      *config.Config
	logger   *slog.Logger
	ws       *session.Workspace
	store    *session.Store
	eventLog *events.EventLog
	bus      *events.Bus
	pipeline *pipeline.Pipeline
}

// NewRunner builds the pipeline and its collaborators from cfg.
func NewRunner(db *sql.DB, cfg *config.Config, logger *slog.Logger) (*Runner, error) {
	if logger == nil {
		logger = slog.Default()
	}

	ws, err := session.NewWorkspace(cfg.Workspace.Root)
	if err != nil {
		return nil, err
	}

	eventLog := events.NewEventLog(db)
	bus := events.NewBus(eventLog, logger.With("component", "bus"))
	store := session.NewStore(db)

	prober := probe.New(cfg.Tools.FFprobe, logger.With("component", "probe"))
	dl := download.NewSupervisor(download.Config{
		Binary:       cfg.Tools.Aria2c,
		SeedTime:     cfg.Download.SeedTime,
		SaveMetadata: cfg.Download.SaveMetadata,
	}, logger.With("component", "download"))
	tc := transcode.NewSupervisor(transcode.Options{
		Binary:       cfg.Tools.FFmpeg,
		VideoCodec:   cfg.Transcode.VideoCodec,
		Preset:       cfg.Transcode.Preset,
		AudioCodec:   cfg.Transcode.AudioCodec,
		AudioBitrate: cfg.Transcode.AudioBitrate,
		OutputName:   cfg.Transcode.OutputName,
		ProgressStep: cfg.Transcode.ProgressStep,
	}, prober, logger.With("component", "transcode"))
	loc := asset.NewLocator(logger.With("component", "asset"))

	p := pipeline.New(ws, dl, loc, tc, logger.With("component", "pipeline"),
		pipeline.WithStore(store),
		pipeline.WithBus(bus),
		pipeline.WithTimeout(cfg.Pipeline.Timeout),
	)

	return &Runner{
		cfg:      cfg,
		logger:   logger,
		ws:       ws,
		store:    store,
		eventLog: eventLog,
		bus:      bus,
		pipeline: p,
	}, nil
}

func (r *Runner) Workspace() *session.Workspace { return r.ws }
func (r *Runner) Store() *session.Store         { return r.store }
func (r *Runner) EventLog() *events.EventLog    { return r.eventLog }
func (r *Runner) Bus() *events.Bus              { return r.bus }
func (r *Runner) Pipeline() *pipeline.Pipeline  { return r.pipeline }

// Run acquires every locator, at most pipeline.max_concurrent at a time.
// A failed acquisition does not stop the others; outcomes are returned in
// locator order.
func (r *Runner) Run(ctx context.Context, locators []string) []Outcome {
	limit := r.cfg.Pipeline.MaxConcurrent
	if limit < 1 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)

	outcomes := make([]Outcome, len(locators))
	start := time.Now()
	for i, locator := range locators {
		g.Go(func() error {
			res, err := r.pipeline.Acquire(ctx, locator)
			outcomes[i] = Outcome{Locator: locator, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	r.logger.Info("acquisitions finished",
		"total", len(locators),
		"failed", failed,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return outcomes
}

// Close stops event delivery.
func (r *Runner) Close() error {
	return r.bus.Close()
}
