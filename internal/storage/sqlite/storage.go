// Package sqlite persists the notification feed and channel settings in a
// local SQLite journal.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS feed_items (
	id              TEXT PRIMARY KEY,
	title           TEXT NOT NULL DEFAULT '',
	message         TEXT NOT NULL DEFAULT '',
	created_at      TEXT NOT NULL,
	source          TEXT NOT NULL DEFAULT '',
	category        TEXT NOT NULL DEFAULT '',
	tags            TEXT NOT NULL DEFAULT '[]',
	channels        TEXT NOT NULL DEFAULT '[]',
	deal_id         TEXT NOT NULL DEFAULT '',
	client_id       TEXT NOT NULL DEFAULT '',
	link_href       TEXT NOT NULL DEFAULT '',
	link_label      TEXT NOT NULL DEFAULT '',
	delivery_status TEXT NOT NULL DEFAULT 'delivered',
	read            INTEGER NOT NULL DEFAULT 0,
	important       INTEGER NOT NULL DEFAULT 0,
	updated_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_feed_items_created_at ON feed_items (created_at DESC, id);
CREATE INDEX IF NOT EXISTS idx_feed_items_read ON feed_items (read);

CREATE TABLE IF NOT EXISTS channels (
	channel         TEXT PRIMARY KEY,
	position        INTEGER NOT NULL,
	label           TEXT NOT NULL DEFAULT '',
	description     TEXT NOT NULL DEFAULT '',
	enabled         INTEGER NOT NULL DEFAULT 0,
	editable        INTEGER NOT NULL DEFAULT 0,
	last_changed_at TEXT NOT NULL DEFAULT '',
	updated_at      TEXT NOT NULL
);
`

// Journal is the SQLite-backed feed journal.
type Journal struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (or creates) the journal at dbPath.
func Open(dbPath string) (*Journal, error) {
	if strings.TrimSpace(dbPath) == "" {
		return nil, fmt.Errorf("sqlite journal: db path cannot be empty")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite journal: create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite journal: open db: %w", err)
	}
	// one writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)

	j := &Journal{db: db, now: time.Now}
	if err := j.init(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return j, nil
}

// Close closes the underlying SQLite connection.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

func (j *Journal) init() error {
	if _, err := j.db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		return fmt.Errorf("sqlite journal: set busy timeout: %w", err)
	}

	if _, err := j.db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("sqlite journal: create schema: %w", err)
	}

	return nil
}

func (j *Journal) utcNow() string {
	return formatTime(j.now())
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(timeLayout, s)
}

// inClause returns "?, ?, ?" for n placeholders.
func inClause(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func stringArgs(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func withTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite journal: begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite journal: commit: %w", err)
	}
	return nil
}
