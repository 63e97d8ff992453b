package store

import (
	"database/sql"
	"fmt"
	"strings"

	"hubdesk/internal/events"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the durable reservation store. Its Insert transaction is the
// single serialization point for the per-facility overlap invariant.
type Store struct {
	db  *sql.DB
	bus *events.EventBus
}

// New opens the database at path, runs migrations and wires the event bus
// for change notifications. The bus may be nil for callers that do not
// need subscriptions.
func New(path string, bus *events.EventBus) (*Store, error) {
	// txlock=immediate makes every transaction take the write lock at
	// BEGIN, serializing the overlap check in Insert; busy_timeout lets
	// concurrent writers queue instead of failing with SQLITE_BUSY.
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if err := createTables(db); err != nil {
		return nil, err
	}
	return &Store{db: db, bus: bus}, nil
}

// DB exposes the underlying handle for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS bookings (
            id TEXT PRIMARY KEY,
            facility_id TEXT NOT NULL,
            owner TEXT NOT NULL,
            start_time DATETIME NOT NULL,
            end_time DATETIME NOT NULL,
            project_name TEXT,
            notes TEXT,
            equipment TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,

		// Grid bookings start on the hour, so this unique index alone
		// already rejects most duplicates. The interval check inside the
		// insert transaction covers variable-length bookings.
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_facility_start
            ON bookings(facility_id, start_time)`,

		`CREATE INDEX IF NOT EXISTS idx_bookings_facility_times
            ON bookings(facility_id, start_time, end_time)`,
		`CREATE INDEX IF NOT EXISTS idx_bookings_owner
            ON bookings(owner, start_time)`,

		// Confirmed phone -> owner links from the WhatsApp handshake.
		`CREATE TABLE IF NOT EXISTS identity_links (
            msisdn TEXT PRIMARY KEY,
            owner TEXT NOT NULL,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
	}

	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("exec migration %s: %w", trimSQL(q), err)
		}
	}
	return nil
}

func trimSQL(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 {
		return s[:60] + "..."
	}
	return s
}
