// Package pipeline acquires a media asset from a torrent locator and
// normalizes it into the canonical container.
package pipeline

//go:generate mockgen -destination=mocks/mocks.go -package=mocks . Downloader,Locator,Transcoder

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/vmunix/magnetmux/internal/asset"
	"github.com/vmunix/magnetmux/internal/download"
	"github.com/vmunix/magnetmux/internal/events"
	"github.com/vmunix/magnetmux/internal/session"
	"github.com/vmunix/magnetmux/internal/transcode"
	"github.com/vmunix/magnetmux/pkg/release"
)

// Downloader fetches a session's locator into its directory.
type Downloader interface {
	Download(ctx context.Context, s *session.Session, onLine download.LineHandler) error
}

// Locator finds the video asset inside a directory.
type Locator interface {
	Locate(dir string) (asset.Asset, error)
}

// Transcoder converts an asset into the canonical container when needed.
type Transcoder interface {
	Normalize(ctx context.Context, a asset.Asset, dir string, onProgress transcode.ProgressFunc) (string, error)
}

// Result is the outcome of a successful acquisition.
type Result struct {
	SessionID  string
	Dir        string
	AssetPath  string // video file found in the download
	Path       string // final canonical file
	Transcoded bool
}

// Pipeline sequences download, locate and transcode for one locator at a time
// per call. Calls for different locators may run concurrently.
type Pipeline struct {
	ws         *session.Workspace
	downloader Downloader
	locator    Locator
	transcoder Transcoder
	store      *session.Store
	bus        *events.Bus
	timeout    time.Duration
	log        *slog.Logger
}

// Option configures optional collaborators.
type Option func(*Pipeline)

// WithStore records session state in store.
func WithStore(store *session.Store) Option {
	return func(p *Pipeline) { p.store = store }
}

// WithBus publishes pipeline events on bus.
func WithBus(bus *events.Bus) Option {
	return func(p *Pipeline) { p.bus = bus }
}

// WithTimeout bounds each acquisition. Zero means no limit.
func WithTimeout(d time.Duration) Option {
	return func(p *Pipeline) { p.timeout = d }
}

// New creates a pipeline.
func New(ws *session.Workspace, d Downloader, l Locator, t Transcoder, log *slog.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = slog.Default()
	}
	p := &Pipeline{
		ws:         ws,
		downloader: d,
		locator:    l,
		transcoder: t,
		log:        log,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Acquire downloads locator into a fresh session directory, locates the video
// and converts it to the canonical container if needed. It returns exactly one
// path: the located asset itself or the transcoder's output. Failures are
// returned as *StageError.
func (p *Pipeline) Acquire(ctx context.Context, locator string) (*Result, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	sess := p.ws.NewSession(locator)
	run := &run{p: p, sess: sess, log: p.log.With("session", sess.ID)}

	if err := run.start(ctx); err != nil {
		return nil, err
	}

	// Download
	run.transition(session.StatusDownloading)
	if err := p.downloader.Download(ctx, sess, run.onDownloadLine); err != nil {
		return nil, run.fail(ctx, StageDownload, err)
	}
	run.publish(ctx, &events.DownloadFinished{
		BaseEvent: events.NewSessionEvent(events.EventDownloadFinished, sess.ID),
		Dir:       sess.Dir,
	})

	// Locate
	run.transition(session.StatusLocating)
	a, err := p.locator.Locate(sess.Dir)
	if err != nil {
		return nil, run.fail(ctx, StageLocate, err)
	}
	run.setAsset(a.Path)
	info := release.Parse(filepath.Base(a.Path))
	run.log.Info("asset located", "path", a.Path, "title", info.Title, "year", info.Year, "resolution", info.Resolution)
	run.publish(ctx, &events.AssetLocated{
		BaseEvent: events.NewSessionEvent(events.EventAssetLocated, sess.ID),
		Path:      a.Path,
		Container: string(a.Container),
		Release:   info,
	})

	result := &Result{SessionID: sess.ID, Dir: sess.Dir, AssetPath: a.Path, Path: a.Path}

	// Transcode
	if a.IsCanonical() {
		run.publish(ctx, &events.TranscodeSkipped{
			BaseEvent: events.NewSessionEvent(events.EventTranscodeSkipped, sess.ID),
			Path:      a.Path,
		})
	} else {
		run.transition(session.StatusTranscoding)
		run.publish(ctx, &events.TranscodeStarted{
			BaseEvent:  events.NewSessionEvent(events.EventTranscodeStarted, sess.ID),
			SourcePath: a.Path,
		})
		out, err := p.transcoder.Normalize(ctx, a, sess.Dir, run.onProgress(ctx))
		if err != nil {
			return nil, run.fail(ctx, StageTranscode, err)
		}
		result.Path = out
		result.Transcoded = true
	}

	run.complete(ctx, result)
	return result, nil
}

// run carries the per-call state of one acquisition.
type run struct {
	p      *Pipeline
	sess   *session.Session
	record *session.Record
	log    *slog.Logger
}

func (r *run) start(ctx context.Context) error {
	r.log.Info("acquisition starting", "locator", r.sess.Locator, "dir", r.sess.Dir)

	if r.p.store != nil {
		rec, err := r.p.store.Add(r.sess)
		if err != nil {
			return &StageError{Stage: StageStart, SessionID: r.sess.ID, Err: err}
		}
		r.record = rec
	}

	r.publish(ctx, &events.SessionCreated{
		BaseEvent: events.NewSessionEvent(events.EventSessionCreated, r.sess.ID),
		Locator:   r.sess.Locator,
		Dir:       r.sess.Dir,
	})
	return nil
}

func (r *run) onDownloadLine(kind download.LineKind, line string) {
	// The download callback has no context of its own.
	r.publish(context.Background(), &events.DownloadOutput{
		BaseEvent: events.NewSessionEvent(events.EventDownloadOutput, r.sess.ID),
		Kind:      kind.String(),
		Line:      line,
	})
}

func (r *run) onProgress(ctx context.Context) transcode.ProgressFunc {
	return func(percent float64) {
		r.publish(ctx, &events.TranscodeProgressed{
			BaseEvent: events.NewSessionEvent(events.EventTranscodeProgressed, r.sess.ID),
			Percent:   percent,
		})
	}
}

// Bookkeeping failures below are logged, never returned: the store and bus
// are records of the acquisition, not part of it.

func (r *run) transition(to session.Status) {
	if r.record == nil {
		return
	}
	if err := r.p.store.Transition(r.record, to); err != nil {
		r.log.Error("session transition failed", "to", to, "error", err)
	}
}

func (r *run) setAsset(path string) {
	if r.record == nil {
		return
	}
	if err := r.p.store.SetAsset(r.record, path); err != nil {
		r.log.Error("session asset update failed", "error", err)
	}
}

func (r *run) complete(ctx context.Context, res *Result) {
	r.log.Info("acquisition complete", "path", res.Path, "transcoded", res.Transcoded)

	if r.record != nil {
		if err := r.p.store.Complete(r.record, res.Path); err != nil {
			r.log.Error("session completion update failed", "error", err)
		}
	}
	r.publish(ctx, &events.SessionCompleted{
		BaseEvent:  events.NewSessionEvent(events.EventSessionCompleted, r.sess.ID),
		Path:       res.Path,
		Transcoded: res.Transcoded,
	})
}

func (r *run) fail(ctx context.Context, stage Stage, err error) error {
	serr := &StageError{Stage: stage, SessionID: r.sess.ID, Err: err}
	r.log.Error("acquisition failed", "stage", stage, "error", err)

	if r.record != nil {
		if ferr := r.p.store.Fail(r.record, serr); ferr != nil {
			r.log.Error("session failure update failed", "error", ferr)
		}
	}
	r.publish(ctx, &events.SessionFailed{
		BaseEvent: events.NewSessionEvent(events.EventSessionFailed, r.sess.ID),
		Stage:     string(stage),
		Reason:    err.Error(),
	})
	return serr
}

func (r *run) publish(ctx context.Context, e events.Event) {
	if r.p.bus == nil {
		return
	}
	if err := r.p.bus.Publish(ctx, e); err != nil {
		r.log.Warn("publish event failed", "type", e.EventType(), "error", err)
	}
}
