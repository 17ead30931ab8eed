package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/vmunix/magnetmux/internal/app"
	"github.com/vmunix/magnetmux/internal/events"
	"github.com/vmunix/magnetmux/internal/pipeline"
	"github.com/vmunix/magnetmux/internal/session"
)

var acquireCmd = &cobra.Command{
	Use:   "acquire <locator>...",
	Short: "Download torrents and convert their video to MP4",
	Long: `Download each torrent locator (magnet link or .torrent URL), locate the
video file inside and convert it to MP4 when needed. Several locators run
concurrently, bounded by pipeline.max_concurrent.

Status changes and conversion progress are written to stderr; --verbose adds
every pipeline event.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAcquireCmd,
}

func init() {
	rootCmd.AddCommand(acquireCmd)
	acquireCmd.Flags().BoolP("verbose", "v", false, "Print every pipeline event")
}

type acquireResult struct {
	Locator    string `json:"locator"`
	SessionID  string `json:"session_id,omitempty"`
	Path       string `json:"path,omitempty"`
	Transcoded bool   `json:"transcoded"`
	Stage      string `json:"stage,omitempty"`
	Error      string `json:"error,omitempty"`
}

func runAcquireCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log.Level, cmd.ErrOrStderr())

	runner, closeRunner, err := openRunner(cfg, logger)
	if err != nil {
		return err
	}
	defer closeRunner()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if !jsonOutput {
		verbose, _ := cmd.Flags().GetBool("verbose")
		w := &lockedWriter{w: cmd.ErrOrStderr()}

		runner.Store().OnTransition(func(e session.TransitionEvent) {
			_, _ = fmt.Fprintf(w, "[%s] %s\n", shortID(e.SessionID), e.To)
		})

		var ch <-chan events.Event
		if verbose {
			ch = runner.Bus().SubscribeAll(256)
		} else {
			ch = runner.Bus().Subscribe(events.EventTranscodeProgressed, 64)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			printEvents(w, ch)
		}()
		defer func() {
			runner.Bus().Unsubscribe(ch)
			wg.Wait()
		}()
	}

	outcomes := runner.Run(ctx, args)
	results := toResults(outcomes)

	if jsonOutput {
		if err := printJSON(cmd.OutOrStdout(), results); err != nil {
			return err
		}
	} else {
		printResults(cmd.OutOrStdout(), results)
	}

	failed := 0
	for _, r := range results {
		if r.Error != "" {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d acquisitions failed", failed, len(results))
	}
	return nil
}

func printEvents(w io.Writer, ch <-chan events.Event) {
	for e := range ch {
		if p, ok := e.(*events.TranscodeProgressed); ok {
			_, _ = fmt.Fprintf(w, "[%s] conversion progress: %.1f%%\n", shortID(p.EntityID()), p.Percent)
			continue
		}
		_, _ = fmt.Fprintf(w, "[%s] %s %s\n", shortID(e.EntityID()), e.EventType(), describeEvent(e))
	}
}

// lockedWriter serializes writes from the event printer and pipeline goroutines.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

func toResults(outcomes []app.Outcome) []acquireResult {
	results := make([]acquireResult, 0, len(outcomes))
	for _, o := range outcomes {
		r := acquireResult{Locator: o.Locator}
		if o.Err != nil {
			r.Error = o.Err.Error()
			var serr *pipeline.StageError
			if errors.As(o.Err, &serr) {
				r.Stage = string(serr.Stage)
				r.SessionID = serr.SessionID
			}
		} else {
			r.SessionID = o.Result.SessionID
			r.Path = o.Result.Path
			r.Transcoded = o.Result.Transcoded
		}
		results = append(results, r)
	}
	return results
}

func printResults(w io.Writer, results []acquireResult) {
	for _, r := range results {
		if r.Error != "" {
			_, _ = fmt.Fprintf(w, "FAILED  %s\n        %s\n", r.Locator, r.Error)
			continue
		}
		action := "ready"
		if r.Transcoded {
			action = "converted"
		}
		_, _ = fmt.Fprintf(w, "OK      %s\n        %s (%s)\n", r.Locator, r.Path, action)
	}
}
