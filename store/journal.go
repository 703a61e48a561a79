package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"copygen/queue"
)

// Journal records batch runs and their per-item outcomes.
type Journal struct {
	db *sql.DB
}

// Open opens (creating if needed) the journal at path and applies pending
// schema migrations.
func Open(path string) (*Journal, error) {
	db, err := openDB(path)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Journal{db: db}, nil
}

// Close releases the underlying database handle.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// StartRun records the beginning of a batch run.
func (j *Journal) StartRun(ctx context.Context, runID string) error {
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO runs (id, started_at) VALUES (?, ?)`,
		runID, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record run start: %w", err)
	}
	return nil
}

// FinishRun records a run's end time and final counts.
func (j *Journal) FinishRun(ctx context.Context, runID string, succeeded, failed int) error {
	_, err := j.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, succeeded = ?, failed = ? WHERE id = ?`,
		time.Now().UnixMilli(), succeeded, failed, runID,
	)
	if err != nil {
		return fmt.Errorf("record run finish: %w", err)
	}
	return nil
}

// RecordOutcome appends one item's outcome to the run's history.
func (j *Journal) RecordOutcome(ctx context.Context, runID, fileID string, outcome queue.Outcome) error {
	success := 0
	if outcome.Success {
		success = 1
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO outcomes (run_id, file_id, name, success, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, fileID, outcome.Name, success, outcome.Err, time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	return nil
}

// TotalProcessed returns the all-time count of successfully processed items.
func (j *Journal) TotalProcessed(ctx context.Context) (int64, error) {
	var total int64
	err := j.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM outcomes WHERE success = 1`,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count processed outcomes: %w", err)
	}
	return total, nil
}
