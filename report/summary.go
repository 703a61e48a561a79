// Package report builds the batch summary and delivers it by email.
package report

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"copygen/core"
	"copygen/queue"
)

// FolderStats describes the output directory after a run.
type FolderStats struct {
	Files      int
	TotalBytes int64
}

// GatherFolderStats walks dir and counts regular files and their combined
// size. A missing directory yields zero stats, not an error; a batch with no
// successes may never have created it.
func GatherFolderStats(dir string) (FolderStats, error) {
	var stats FolderStats

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		stats.Files++
		stats.TotalBytes += info.Size()
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return FolderStats{}, nil
		}
		return FolderStats{}, fmt.Errorf("gather folder stats: %w", err)
	}

	return stats, nil
}

// BuildSummary renders the batch summary text sent in the report email and
// written to the log.
//
// totalProcessed is the all-time count from the journal; it is omitted when
// negative (journal disabled).
func BuildSummary(runID string, summary queue.Summary, stats FolderStats, totalProcessed int64) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Batch run %s finished at %s\n\n", runID, time.Now().Format(time.RFC1123))
	fmt.Fprintf(&b, "Processed: %d\n", summary.Total)
	fmt.Fprintf(&b, "Succeeded: %d\n", summary.Succeeded)
	fmt.Fprintf(&b, "Failed:    %d\n", summary.Failed)

	if len(summary.Successes) > 0 {
		b.WriteString("\nGenerated files:\n")
		for _, o := range summary.Successes {
			fmt.Fprintf(&b, "  OK   %s\n", o.Name)
		}
	}

	if len(summary.Failures) > 0 {
		b.WriteString("\nFailures:\n")
		for _, o := range summary.Failures {
			fmt.Fprintf(&b, "  FAIL %s: %s\n", o.Name, o.Err)
		}
	}

	fmt.Fprintf(&b, "\nOutput folder: %d files, %s\n", stats.Files, core.FormatBytes(stats.TotalBytes))

	if totalProcessed >= 0 {
		fmt.Fprintf(&b, "Total processed to date: %d\n", totalProcessed)
	}

	return b.String()
}

// BuildFailureNotice renders the body of a best-effort fatal failure email.
func BuildFailureNotice(runID string, err error) string {
	return fmt.Sprintf("Batch run %s aborted at %s\n\nError: %v\n",
		runID, time.Now().Format(time.RFC1123), err)
}
