package main

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/vmunix/magnetmux/internal/asset"
	"github.com/vmunix/magnetmux/internal/session"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List MP4 files in the workspace",
	Args:  cobra.NoArgs,
	RunE:  runListCmd,
}

var sizeCmd = &cobra.Command{
	Use:   "size",
	Short: "Show the total size of the workspace",
	Args:  cobra.NoArgs,
	RunE:  runSizeCmd,
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(sizeCmd)
	listCmd.Flags().Bool("all", false, "Include video files in every container, not only MP4")
}

func openWorkspace() (*session.Workspace, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return session.NewWorkspace(cfg.Workspace.Root)
}

func runListCmd(cmd *cobra.Command, _ []string) error {
	all, _ := cmd.Flags().GetBool("all")

	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	var files []string
	if all {
		files, err = videoFiles(ws.Root())
	} else {
		files, err = ws.Files(".mp4")
	}
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if files == nil {
			files = []string{}
		}
		return printJSON(out, map[string]any{"root": ws.Root(), "files": files})
	}

	if len(files) == 0 {
		_, _ = fmt.Fprintln(out, "No MP4 files")
		return nil
	}
	for _, f := range files {
		_, _ = fmt.Fprintln(out, f)
	}
	return nil
}

// videoFiles lists every video file under root relative to it.
func videoFiles(root string) ([]string, error) {
	if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	paths, err := asset.FindAll(root)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return nil, err
		}
		files = append(files, filepath.ToSlash(rel))
	}
	return files, nil
}

type sizeReport struct {
	Root      string  `json:"root"`
	SizeBytes int64   `json:"size_bytes"`
	SizeMB    float64 `json:"size_mb"`
	Human     string  `json:"human"`
}

func newSizeReport(root string, bytes int64) sizeReport {
	return sizeReport{
		Root:      root,
		SizeBytes: bytes,
		SizeMB:    math.Round(float64(bytes)/(1024*1024)*100) / 100,
		Human:     humanize.IBytes(uint64(bytes)),
	}
}

func runSizeCmd(cmd *cobra.Command, _ []string) error {
	ws, err := openWorkspace()
	if err != nil {
		return err
	}
	total, err := ws.Size()
	if err != nil {
		return err
	}

	report := newSizeReport(ws.Root(), total)
	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), report)
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s (%d bytes, %.2f MB)\n", report.Root, report.Human, report.SizeBytes, report.SizeMB)
	return nil
}
