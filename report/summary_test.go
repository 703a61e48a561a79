package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"copygen/queue"
)

func TestGatherFolderStats(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "b.txt"), []byte("world!!"), 0o644); err != nil {
		t.Fatal(err)
	}

	stats, err := GatherFolderStats(dir)
	if err != nil {
		t.Fatalf("GatherFolderStats() error = %v", err)
	}
	if stats.Files != 2 {
		t.Errorf("Files = %d, want 2", stats.Files)
	}
	if stats.TotalBytes != 12 {
		t.Errorf("TotalBytes = %d, want 12", stats.TotalBytes)
	}
}

func TestGatherFolderStats_MissingDir(t *testing.T) {
	stats, err := GatherFolderStats(filepath.Join(t.TempDir(), "never-created"))
	if err != nil {
		t.Fatalf("GatherFolderStats() error = %v, want nil for missing dir", err)
	}
	if stats.Files != 0 || stats.TotalBytes != 0 {
		t.Errorf("stats = %+v, want zero", stats)
	}
}

func TestBuildSummary(t *testing.T) {
	summary := queue.Summarize([]queue.Outcome{
		queue.Succeeded("river-poem.txt"),
		queue.Succeeded("sea-poem.txt"),
		queue.Failed("broken prompt.doc", errors.New("generation failed")),
	})

	body := BuildSummary("ab12cd34", summary, FolderStats{Files: 2, TotalBytes: 2048}, 120)

	for _, want := range []string{
		"ab12cd34",
		"Processed: 3",
		"Succeeded: 2",
		"Failed:    1",
		"OK   river-poem.txt",
		"OK   sea-poem.txt",
		"FAIL broken prompt.doc: generation failed",
		"2 files, 2.00 KB",
		"Total processed to date: 120",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("summary missing %q:\n%s", want, body)
		}
	}
}

func TestBuildSummary_JournalDisabled(t *testing.T) {
	body := BuildSummary("ab12cd34", queue.Summary{}, FolderStats{}, -1)
	if strings.Contains(body, "Total processed to date") {
		t.Errorf("summary should omit all-time count when journal disabled:\n%s", body)
	}
}

func TestBuildSummary_EmptyBatch(t *testing.T) {
	body := BuildSummary("ab12cd34", queue.Summary{}, FolderStats{}, -1)
	if !strings.Contains(body, "Processed: 0") {
		t.Errorf("summary should report zero processed:\n%s", body)
	}
	if strings.Contains(body, "Generated files:") || strings.Contains(body, "Failures:") {
		t.Errorf("empty batch should omit file sections:\n%s", body)
	}
}
