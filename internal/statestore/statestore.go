// Package statestore provides the persistent key-value state used by
// the router and auto-chat context to survive process restarts.
//
// Values are opaque strings (callers store JSON). Two implementations
// exist: SQLiteStore for production and MemoryStore for tests and
// ephemeral runs. Both satisfy Store.
package statestore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// Store is the key-value persistence contract. A missing key is not
// an error: Get reports it through the found flag.
type Store interface {
	Get(key string) (value string, found bool, err error)
	Set(key, value string) error
	Delete(key string) error
	Close() error
}

// ─── SQLite implementation ───────────────────────────────────────────────────

// SQLiteStore persists state in a single-table SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// Open creates the data directory if needed, opens the database with
// WAL mode, and runs the schema migration.
func Open(dataDir string) (*SQLiteStore, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("statestore: create data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "state.db")
	db, err := openDB("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("statestore: open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("statestore: pragma %q: %w", p, err)
		}
	}

	schema := `
		CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("statestore: migration: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Get returns the value for key, or found=false if the key is absent.
func (s *SQLiteStore) Get(key string) (string, bool, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("statestore: get %q: %w", key, err)
	}
	return value, true, nil
}

// Set writes or overwrites the value for key.
func (s *SQLiteStore) Set(key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.Exec(
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now,
	)
	if err != nil {
		return fmt.Errorf("statestore: set %q: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *SQLiteStore) Delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("statestore: delete %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ─── In-memory implementation ────────────────────────────────────────────────

// MemoryStore is a map-backed Store for tests and ephemeral runs.
type MemoryStore struct {
	mu sync.Mutex
	m  map[string]string

	// FailWrites makes Set and Delete return errors; tests use it to
	// verify that persistence failures are swallowed by callers.
	FailWrites bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{m: make(map[string]string)}
}

func (s *MemoryStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	return v, ok, nil
}

func (s *MemoryStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return fmt.Errorf("statestore: set %q: writes disabled", key)
	}
	s.m[key] = value
	return nil
}

func (s *MemoryStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailWrites {
		return fmt.Errorf("statestore: delete %q: writes disabled", key)
	}
	delete(s.m, key)
	return nil
}

func (s *MemoryStore) Close() error { return nil }
