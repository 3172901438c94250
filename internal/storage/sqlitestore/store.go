// Package sqlitestore implements the student, goal, task and session stores
// on SQLite.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS students (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS learning_goals (
	id          TEXT PRIMARY KEY,
	student_id  TEXT NOT NULL REFERENCES students(id),
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	category    TEXT NOT NULL DEFAULT '',
	priority    TEXT NOT NULL DEFAULT 'medium',
	status      TEXT NOT NULL DEFAULT 'not_started',
	progress    INTEGER NOT NULL DEFAULT 0,
	target_date TEXT,
	key_results TEXT NOT NULL DEFAULT '[]',
	created_at  DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS daily_tasks (
	id                      TEXT PRIMARY KEY,
	student_id              TEXT NOT NULL REFERENCES students(id),
	task_content            TEXT NOT NULL,
	task_category           TEXT NOT NULL,
	estimated_minutes       INTEGER NOT NULL CHECK (estimated_minutes >= 0),
	status                  TEXT NOT NULL DEFAULT 'pending',
	source_goal_id          TEXT,
	source_key_result_index INTEGER NOT NULL DEFAULT 0,
	goal_title              TEXT NOT NULL DEFAULT '',
	generation_session_id   TEXT NOT NULL,
	task_order              INTEGER NOT NULL,
	task_date               TEXT NOT NULL,
	created_at              DATETIME NOT NULL,
	completed_at            DATETIME,
	actual_minutes          INTEGER,
	difficulty_rating       INTEGER,
	completion_notes        TEXT,
	UNIQUE (student_id, task_date, generation_session_id, task_order)
);

CREATE INDEX IF NOT EXISTS idx_daily_tasks_student_date ON daily_tasks (student_id, task_date);

CREATE TABLE IF NOT EXISTS daily_task_sessions (
	id              TEXT PRIMARY KEY,
	student_id      TEXT NOT NULL REFERENCES students(id),
	generation_date TEXT NOT NULL,
	total_tasks     INTEGER NOT NULL,
	based_on_goals  TEXT NOT NULL DEFAULT '[]',
	descriptor      TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL
);
`

// Store persists every dayplan record in one SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema
// exists. The caller is responsible for calling Close.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // prevent SQLITE_BUSY
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func marshalList(v []string) string {
	if v == nil {
		v = []string{}
	}
	data, _ := json.Marshal(v)
	return string(data)
}
