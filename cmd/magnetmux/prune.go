package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/vmunix/magnetmux/internal/events"
	"github.com/vmunix/magnetmux/internal/session"
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Forget old finished sessions and events",
	Long: `Remove finished sessions whose last status change is older than
--older-than from the database, together with their events. Unfinished
sessions keep their full history. Session directories on disk are left
untouched.`,
	Args: cobra.NoArgs,
	RunE: runPruneCmd,
}

func init() {
	rootCmd.AddCommand(pruneCmd)
	pruneCmd.Flags().Duration("older-than", 30*24*time.Hour, "Age of the records to remove")
}

type pruneReport struct {
	Sessions int   `json:"sessions"`
	Events   int64 `json:"events"`
}

func runPruneCmd(cmd *cobra.Command, _ []string) error {
	age, _ := cmd.Flags().GetDuration("older-than")
	if age < 0 {
		return fmt.Errorf("--older-than must not be negative, got %s", age)
	}

	db, err := openDB()
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	store := session.NewStore(db)
	eventLog := events.NewEventLog(db)
	records, err := store.List(session.Filter{})
	if err != nil {
		return err
	}

	cutoff := time.Now().Add(-age)
	var report pruneReport
	for _, r := range records {
		if !r.Status.IsTerminal() || !r.LastTransitionAt.Before(cutoff) {
			continue
		}
		n, err := eventLog.DeleteEntity(events.EntitySession, r.ID)
		if err != nil {
			return err
		}
		if err := store.Delete(r.ID); err != nil {
			return err
		}
		report.Sessions++
		report.Events += n
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		return printJSON(out, report)
	}
	_, _ = fmt.Fprintf(out, "Removed %d sessions and %d events\n", report.Sessions, report.Events)
	return nil
}
