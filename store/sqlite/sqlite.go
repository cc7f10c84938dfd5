/*
Package sqlite is the SQLite-backed store of the reference collaborator.

PURPOSE:
  Persists everything the planning API serves: machines, processes,
  orders with their workload detail, shift definitions, shift calendars
  with weekday flags and alterations, and the saved allocations.

KEY TABLES:
  machines, processes:    Master records
  orders, order_items:    Orders and their item/colour/size rows
  order_item_processes:   Per-unit minutes of each process for an item
  shifts:                 Named shift definitions
  calendars:              Shift calendars over date ranges, one default
  calendar_shifts:        Shifts assigned to a calendar, duration frozen
  alterations:            Signed capacity deltas on single dates
  allocations:            Saved machine/date/order quantities

CALENDAR RESOLUTION:
  BestCalendarForDate implements the precedence the planner expects:
  machine single-day > general single-day > machine range > general
  range > default.

WAL MODE:
  Opened with WAL for concurrent readers. A sync.RWMutex serializes
  writers on top of that.

SEE ALSO:
  - api: HTTP layer over this store
  - masters.go, calendar.go, allocations.go: Query implementations
*/
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a save references a persisted
	// allocation id the store no longer holds.
	ErrConflict = errors.New("allocation no longer exists")

	// ErrNoCalendar is returned when an alteration targets a date no
	// calendar covers and no default calendar exists to clone.
	ErrNoCalendar = errors.New("no calendar covers the date and no default exists")
)

// Store is the SQLite-backed collaborator store.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for tests.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
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

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS machines (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		machine_group TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS processes (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		customer TEXT NOT NULL DEFAULT '',
		order_date TEXT NOT NULL,
		delivery_date TEXT NOT NULL,
		machine_group TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS order_items (
		order_id TEXT NOT NULL REFERENCES orders(id),
		item TEXT NOT NULL,
		colour TEXT NOT NULL DEFAULT '',
		size TEXT NOT NULL DEFAULT '',
		quantity INTEGER NOT NULL,
		PRIMARY KEY (order_id, item, colour, size)
	);

	CREATE TABLE IF NOT EXISTS order_item_processes (
		order_id TEXT NOT NULL REFERENCES orders(id),
		item TEXT NOT NULL,
		process TEXT NOT NULL,
		minutes TEXT NOT NULL,
		PRIMARY KEY (order_id, item, process)
	);

	CREATE TABLE IF NOT EXISTS shifts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS calendars (
		id TEXT PRIMARY KEY,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		machine TEXT NOT NULL DEFAULT '',
		is_default INTEGER NOT NULL DEFAULT 0,
		sunday INTEGER NOT NULL DEFAULT 0,
		monday INTEGER NOT NULL DEFAULT 1,
		tuesday INTEGER NOT NULL DEFAULT 1,
		wednesday INTEGER NOT NULL DEFAULT 1,
		thursday INTEGER NOT NULL DEFAULT 1,
		friday INTEGER NOT NULL DEFAULT 1,
		saturday INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_calendars_range
		ON calendars(start_date, end_date);

	CREATE TABLE IF NOT EXISTS calendar_shifts (
		calendar_id TEXT NOT NULL REFERENCES calendars(id) ON DELETE CASCADE,
		shift_id TEXT NOT NULL,
		shift_name TEXT NOT NULL,
		minutes TEXT NOT NULL,
		position INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS alterations (
		id TEXT PRIMARY KEY,
		calendar_id TEXT NOT NULL REFERENCES calendars(id) ON DELETE CASCADE,
		date TEXT NOT NULL,
		kind TEXT NOT NULL,
		minutes TEXT NOT NULL,
		machine TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS allocations (
		id TEXT PRIMARY KEY,
		machine TEXT NOT NULL,
		operation_date TEXT NOT NULL,
		order_id TEXT NOT NULL,
		process TEXT NOT NULL,
		colour TEXT NOT NULL DEFAULT '',
		size TEXT NOT NULL DEFAULT '',
		item TEXT NOT NULL DEFAULT '',
		quantity INTEGER NOT NULL,
		minutes TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_allocations_date
		ON allocations(operation_date);

	-- Content key used for duplicate suppression on save
	CREATE INDEX IF NOT EXISTS idx_allocations_content
		ON allocations(machine, order_id, process, colour, size, operation_date);
	`
	_, err := s.db.Exec(schema)
	return err
}
