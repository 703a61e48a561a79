// Package store persists run history: which runs happened and the outcome of
// every item, in a local sqlite database. History feeds the all-time counter
// in the batch report; the queue itself never reads from here.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// openDB opens the sqlite database at path with the pragmas the journal
// relies on.
func openDB(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal database: %w", err)
	}

	// modernc sqlite is a single-writer engine; one connection avoids
	// SQLITE_BUSY under concurrent writes
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping journal database: %w", err)
	}

	return db, nil
}
