// Package store provides the persistence collaborators the orchestrator
// consumes: graduates, job postings and match records, backed by SQLite.
// The stores are deliberately thin; matching correctness rests on the match
// table's atomic conditional upsert, not on in-process locking.
package store

import (
	"database/sql"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"
)

// Open opens (creating if needed) the SQLite database at path and applies the
// schema. Use ":memory:" in tests.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	// SQLite allows one writer, and a pooled ":memory:" database is a separate
	// database per connection.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS graduates (
		id TEXT PRIMARY KEY,
		skills TEXT NOT NULL DEFAULT '[]',
		education TEXT NOT NULL DEFAULT '',
		experience TEXT NOT NULL DEFAULT '',
		work_history TEXT NOT NULL DEFAULT '[]',
		embedding TEXT,
		attempts INTEGER NOT NULL DEFAULT 0,
		needs_retake INTEGER NOT NULL DEFAULT 0,
		last_score REAL NOT NULL DEFAULT 0,
		question_set_version INTEGER NOT NULL DEFAULT 1,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL DEFAULT '',
		skills TEXT NOT NULL DEFAULT '[]',
		education TEXT NOT NULL DEFAULT '',
		requirements TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 0,
		embedding TEXT,
		updated_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS matches (
		graduate_id TEXT NOT NULL,
		job_id TEXT NOT NULL,
		score REAL NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		PRIMARY KEY (graduate_id, job_id)
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_active ON jobs(active);
	CREATE INDEX IF NOT EXISTS idx_matches_job ON matches(job_id);
	`

	if _, err := db.Exec(schema); err != nil {
		return errors.Wrap(err, "apply schema")
	}

	return nil
}
