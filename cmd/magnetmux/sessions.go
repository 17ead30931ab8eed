package main

import (
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/vmunix/magnetmux/internal/app"
	"github.com/vmunix/magnetmux/internal/events"
	"github.com/vmunix/magnetmux/internal/session"
	"github.com/vmunix/magnetmux/pkg/release"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Show recorded acquisition sessions",
	Args:  cobra.NoArgs,
	RunE:  runSessionsCmd,
}

var eventsCmd = &cobra.Command{
	Use:   "events <session-id>",
	Short: "Show the event history of a session",
	Long:  "Show the event history of a session. A unique prefix of the id is enough.",
	Args:  cobra.ExactArgs(1),
	RunE:  runEventsCmd,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(eventsCmd)
	sessionsCmd.Flags().String("status", "", "Only sessions in this status")
	sessionsCmd.Flags().Bool("active", false, "Only sessions that have not finished")
	sessionsCmd.Flags().IntP("limit", "n", 20, "Number of sessions to show (0 for all)")
	sessionsCmd.Flags().String("match", "", "Only sessions whose video title resembles this")
	sessionsCmd.Flags().String("confidence", "low", "Minimum title match confidence for --match (low, medium, high)")
}

func openDB() (*sql.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.OpenDB(cfg.Database.Path)
}

type sessionView struct {
	ID         string `json:"id"`
	Locator    string `json:"locator"`
	Status     string `json:"status"`
	Dir        string `json:"dir"`
	AssetPath  string `json:"asset_path,omitempty"`
	OutputPath string `json:"output_path,omitempty"`
	Error      string `json:"error,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

func runSessionsCmd(cmd *cobra.Command, _ []string) error {
	statusFlag, _ := cmd.Flags().GetString("status")
	active, _ := cmd.Flags().GetBool("active")
	limit, _ := cmd.Flags().GetInt("limit")
	match, _ := cmd.Flags().GetString("match")
	confFlag, _ := cmd.Flags().GetString("confidence")

	minConf, ok := release.ParseConfidence(confFlag)
	if !ok || minConf == release.ConfidenceNone {
		return fmt.Errorf("unknown confidence %q", confFlag)
	}

	filter := session.Filter{Active: active, Limit: limit}
	if match != "" {
		// Limit after filtering by title.
		filter.Limit = 0
	}
	if statusFlag != "" {
		st, ok := session.ParseStatus(statusFlag)
		if !ok {
			return fmt.Errorf("unknown status %q", statusFlag)
		}
		filter.Status = &st
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	records, err := session.NewStore(db).List(filter)
	if err != nil {
		return err
	}
	if match != "" {
		records = filterByTitle(records, match, minConf)
		if limit > 0 && len(records) > limit {
			records = records[:limit]
		}
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		views := make([]sessionView, 0, len(records))
		for _, r := range records {
			views = append(views, sessionView{
				ID:         r.ID,
				Locator:    r.Locator,
				Status:     string(r.Status),
				Dir:        r.Dir,
				AssetPath:  r.AssetPath,
				OutputPath: r.OutputPath,
				Error:      r.Error,
				CreatedAt:  r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
				UpdatedAt:  r.LastTransitionAt.UTC().Format("2006-01-02T15:04:05Z"),
			})
		}
		return printJSON(out, views)
	}

	printSessions(out, records)
	return nil
}

func printSessions(w io.Writer, records []*session.Record) {
	if len(records) == 0 {
		_, _ = fmt.Fprintln(w, "No sessions")
		return
	}

	_, _ = fmt.Fprintf(w, "  %-8s  %-11s  %-14s  %s\n", "ID", "STATUS", "CREATED", "RESULT")
	_, _ = fmt.Fprintln(w, "  "+strings.Repeat("-", 70))
	for _, r := range records {
		result := r.OutputPath
		switch {
		case r.Status == session.StatusFailed:
			result = r.Error
		case result == "":
			result = truncate(r.Locator, 40)
		}
		_, _ = fmt.Fprintf(w, "  %-8s  %-11s  %-14s  %s\n", shortID(r.ID), r.Status, humanize.Time(r.CreatedAt), result)
	}
}

func runEventsCmd(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	id, err := resolveSessionID(session.NewStore(db), args[0])
	if err != nil {
		return err
	}

	raws, err := events.NewEventLog(db).ForEntity(events.EntitySession, id)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, raws)
	}

	if len(raws) == 0 {
		_, _ = fmt.Fprintln(out, "No events")
		return nil
	}

	registry := events.DefaultRegistry()
	_, _ = fmt.Fprintf(out, "Session %s (%d events):\n\n", id, len(raws))
	for _, raw := range raws {
		detail := ""
		if e, err := registry.Unmarshal(raw); err == nil {
			detail = describeEvent(e)
		}
		_, _ = fmt.Fprintf(out, "  %s  %-22s %s\n", raw.OccurredAt.Format("15:04:05.000"), raw.EventType, detail)
	}
	return nil
}

// filterByTitle keeps the sessions whose located video resembles query at
// minConf or better.
func filterByTitle(records []*session.Record, query string, minConf release.Confidence) []*session.Record {
	var out []*session.Record
	for _, r := range records {
		if release.Best(query, assetTitles(r)).Confidence >= minConf {
			out = append(out, r)
		}
	}
	return out
}

// assetTitles parses a title from every path element between the session
// directory and the located video; torrents often name only the folder.
func assetTitles(r *session.Record) []string {
	if r.AssetPath == "" {
		return nil
	}
	rel, err := filepath.Rel(r.Dir, r.AssetPath)
	if err != nil {
		rel = filepath.Base(r.AssetPath)
	}
	var titles []string
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if t := release.Parse(part).Title; t != "" {
			titles = append(titles, t)
		}
	}
	return titles
}

// resolveSessionID accepts a full id or a unique prefix of one.
func resolveSessionID(store *session.Store, arg string) (string, error) {
	if _, err := store.Get(arg); err == nil {
		return arg, nil
	} else if !errors.Is(err, session.ErrNotFound) {
		return "", err
	}

	records, err := store.List(session.Filter{})
	if err != nil {
		return "", err
	}
	var matches []string
	for _, r := range records {
		if strings.HasPrefix(r.ID, arg) {
			matches = append(matches, r.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("session %s: %w", arg, session.ErrNotFound)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("session prefix %q is ambiguous (%d matches)", arg, len(matches))
	}
}

func describeEvent(e events.Event) string {
	switch ev := e.(type) {
	case *events.SessionCreated:
		return ev.Locator
	case *events.DownloadOutput:
		return fmt.Sprintf("%s: %s", ev.Kind, ev.Line)
	case *events.DownloadFinished:
		return ev.Dir
	case *events.AssetLocated:
		if ev.Release.Year > 0 {
			return fmt.Sprintf("%s (%s, %s %d)", ev.Path, ev.Container, ev.Release.Title, ev.Release.Year)
		}
		return fmt.Sprintf("%s (%s)", ev.Path, ev.Container)
	case *events.TranscodeStarted:
		return ev.SourcePath
	case *events.TranscodeProgressed:
		return fmt.Sprintf("%.1f%%", ev.Percent)
	case *events.TranscodeSkipped:
		return ev.Path
	case *events.SessionCompleted:
		if ev.Transcoded {
			return ev.Path + " (converted)"
		}
		return ev.Path
	case *events.SessionFailed:
		return fmt.Sprintf("%s: %s", ev.Stage, ev.Reason)
	default:
		return ""
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
