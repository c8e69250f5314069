/*
Package sqlite provides the SQLite-backed implementation of the presence
storage interfaces.

PURPOSE:
  One Store implements presence.EntryStore, presence.UserDirectory,
  presence.HolidayStore and presence.FavoriteStore. The same patterns apply
  to PostgreSQL - only minor SQL dialect differences.

KEY TABLES:
  users:      Directory + credentials (bcrypt hash, never returned by default)
  entries:    One row per (user_id, date); create-or-replace, never append
  holidays:   One row per date
  favorites:  (user_id, favorite_id) pairs

UNIQUENESS:
  idx_entries_user_date is the one-entry-per-(user,date) invariant and the
  only concurrency-correctness mechanism in the system: concurrent writers
  to the same (user, date) resolve via last-write-wins upsert.

WAL MODE:
  SQLite is opened with WAL for better concurrency: readers don't block,
  single writer at a time, better crash recovery.

USAGE:
  store, err := sqlite.New("./data/presence.db")   // ":memory:" for tests
  defer store.Close()

SEE ALSO:
  - presence/types.go: Interface definitions
  - store/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Store implements all presence storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex

	// now supplies row timestamps; overridable for tests.
	now func() time.Time
}

// New creates a SQLite store at the given path and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// SetNow overrides the store's clock. Test hook.
func (s *Store) SetNow(now func() time.Time) {
	s.now = now
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'member',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users(email);
	CREATE INDEX IF NOT EXISTS idx_users_active ON users(is_active);

	-- Attendance entries: at most one per (user, date). This index IS the
	-- uniqueness invariant; writes go through INSERT .. ON CONFLICT so
	-- concurrent writers resolve last-write-wins.
	CREATE TABLE IF NOT EXISTS entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		date TEXT NOT NULL,
		status TEXT NOT NULL,
		note TEXT,
		start_time TEXT,
		end_time TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_entries_user_date ON entries(user_id, date);
	CREATE INDEX IF NOT EXISTS idx_entries_date ON entries(date);

	-- Holidays: date is unique
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_holidays_date ON holidays(date);

	-- Favorites: directed pairs, no self-loops (enforced in code)
	CREATE TABLE IF NOT EXISTS favorites (
		user_id TEXT NOT NULL,
		favorite_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (user_id, favorite_id)
	);

	CREATE INDEX IF NOT EXISTS idx_favorites_user ON favorites(user_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func fromNull(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// parseTime reads the RFC3339 timestamps this store writes.
func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// placeholders builds a "?, ?, ?" list for IN clauses.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
