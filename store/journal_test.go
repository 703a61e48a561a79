package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"copygen/queue"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	journal, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { journal.Close() })
	return journal
}

func TestJournal_RunLifecycle(t *testing.T) {
	journal := openTestJournal(t)
	ctx := context.Background()

	if err := journal.StartRun(ctx, "run-1"); err != nil {
		t.Fatalf("StartRun() error = %v", err)
	}

	outcomes := []queue.Outcome{
		queue.Succeeded("a.txt"),
		queue.Succeeded("b.txt"),
		queue.Failed("c.doc", errors.New("generation failed")),
	}
	for i, o := range outcomes {
		fileID := string(rune('x' + i))
		if err := journal.RecordOutcome(ctx, "run-1", fileID, o); err != nil {
			t.Fatalf("RecordOutcome(%d) error = %v", i, err)
		}
	}

	if err := journal.FinishRun(ctx, "run-1", 2, 1); err != nil {
		t.Fatalf("FinishRun() error = %v", err)
	}

	total, err := journal.TotalProcessed(ctx)
	if err != nil {
		t.Fatalf("TotalProcessed() error = %v", err)
	}
	if total != 2 {
		t.Errorf("TotalProcessed() = %d, want 2", total)
	}
}

func TestJournal_TotalProcessedAcrossRuns(t *testing.T) {
	journal := openTestJournal(t)
	ctx := context.Background()

	for _, runID := range []string{"run-1", "run-2"} {
		if err := journal.StartRun(ctx, runID); err != nil {
			t.Fatal(err)
		}
		if err := journal.RecordOutcome(ctx, runID, "f-1", queue.Succeeded("out.txt")); err != nil {
			t.Fatal(err)
		}
	}

	total, err := journal.TotalProcessed(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 {
		t.Errorf("TotalProcessed() = %d, want 2 across runs", total)
	}
}

func TestJournal_EmptyDatabase(t *testing.T) {
	journal := openTestJournal(t)

	total, err := journal.TotalProcessed(context.Background())
	if err != nil {
		t.Fatalf("TotalProcessed() error = %v", err)
	}
	if total != 0 {
		t.Errorf("TotalProcessed() = %d, want 0", total)
	}
}

func TestJournal_CloseNil(t *testing.T) {
	var journal *Journal
	if err := journal.Close(); err != nil {
		t.Errorf("Close() on nil journal = %v, want nil", err)
	}
}

func TestJournal_ReopenKeepsHistory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "journal.db")
	ctx := context.Background()

	journal, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := journal.StartRun(ctx, "run-1"); err != nil {
		t.Fatal(err)
	}
	if err := journal.RecordOutcome(ctx, "run-1", "f-1", queue.Succeeded("a.txt")); err != nil {
		t.Fatal(err)
	}
	if err := journal.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	total, err := reopened.TotalProcessed(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Errorf("TotalProcessed() after reopen = %d, want 1", total)
	}
}
