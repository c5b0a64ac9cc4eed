// Package sqlite provides durable implementations of the core store
// interfaces over a single SQLite database (modernc.org/sqlite, pure Go).
// Every store owns its own mutex around read-modify-write sequences; no
// cross-store transactions are taken, matching the consistency contract of
// the in-memory implementations.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// timeLayout is the storage format for all timestamps.
const timeLayout = time.RFC3339Nano

// DB wraps the shared database handle used by every sqlite-backed store.
type DB struct {
	db *sql.DB
}

// Open creates (if needed) and opens the assistant database at path,
// enabling WAL and ensuring the schema exists.
func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single writer connection sidesteps SQLITE_BUSY under concurrent
	// store access; every store serializes its own writes anyway.
	db.SetMaxOpenConns(1)

	d := &DB{db: db}
	if err := d.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return d, nil
}

// Close releases the underlying database handle.
func (d *DB) Close() error { return d.db.Close() }

func (d *DB) ensureSchema() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`CREATE TABLE IF NOT EXISTS conversation_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			payload TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS summary_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			summary_text TEXT NOT NULL DEFAULT '',
			last_index INTEGER NOT NULL DEFAULT -1,
			updated_at TEXT
		);`,
		`INSERT OR IGNORE INTO summary_state (id, summary_text, last_index, updated_at)
			VALUES (1, '', -1, NULL);`,
		`CREATE TABLE IF NOT EXISTS journal_entries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			agent_name TEXT NOT NULL,
			kind TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			payload TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_journal_entries_agent
			ON journal_entries (agent_name, id);`,
		`CREATE TABLE IF NOT EXISTS agent_roster (
			agent_name TEXT PRIMARY KEY,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS seen_items (
			item_id TEXT PRIMARY KEY,
			seen_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_seen_items_seen_at
			ON seen_items (seen_at);`,
		`CREATE TABLE IF NOT EXISTS drafts (
			account_id TEXT PRIMARY KEY,
			draft_id TEXT NOT NULL,
			recipient TEXT NOT NULL DEFAULT '',
			subject TEXT NOT NULL DEFAULT '',
			body TEXT NOT NULL DEFAULT '',
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS user_profiles (
			account_id TEXT PRIMARY KEY,
			display_name TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS active_account (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			account_id TEXT
		);`,
		`INSERT OR IGNORE INTO active_account (id, account_id) VALUES (1, NULL);`,
	}
	for _, stmt := range stmts {
		if _, err := d.db.Exec(stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// parseTime decodes a stored timestamp, tolerating legacy layouts.
func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(timeLayout, raw); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	return time.Time{}
}
