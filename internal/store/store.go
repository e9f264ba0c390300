// Package store provides the durable offline state for moniesync: a
// sqlite-backed keyed JSON store holding the request queue and the
// display cache as independently versioned arrays.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/moniehq/moniesync/internal/logging"
)

// SchemaVersion tags every persisted array. A stored array whose version
// does not match is discarded with a warning rather than read through a
// stale shape.
const SchemaVersion = 1

// Store wraps the sqlite connection holding all persisted offline state.
type Store struct {
	db *sql.DB
}

// Open opens the offline store under dataDir, creating it if needed.
// The database is opened with WAL mode and a single writer, matching
// sqlite's concurrency model.
func Open(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "moniesync.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS kv_store (
		key TEXT PRIMARY KEY,
		version INTEGER NOT NULL,
		value BLOB NOT NULL
	);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create kv_store table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// getList reads the JSON array stored under key into out. A missing key
// leaves out untouched. A version mismatch or undecodable value discards
// the stored array (migration strategy: discard) and leaves out untouched.
func (s *Store) getList(key string, out any) error {
	var version int
	var value []byte
	err := s.db.QueryRow("SELECT version, value FROM kv_store WHERE key = ?", key).Scan(&version, &value)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", key, err)
	}

	if version != SchemaVersion {
		logging.Warn("discarding persisted state with stale schema version", map[string]interface{}{
			"key":     key,
			"stored":  version,
			"current": SchemaVersion,
		})
		return s.delete(key)
	}

	if err := json.Unmarshal(value, out); err != nil {
		logging.Warn("discarding undecodable persisted state", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return s.delete(key)
	}
	return nil
}

// putList writes v as the JSON array stored under key, tagged with the
// current schema version.
func (s *Store) putList(key string, v any) error {
	value, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}
	_, err = s.db.Exec(
		"INSERT INTO kv_store (key, version, value) VALUES (?, ?, ?) ON CONFLICT(key) DO UPDATE SET version = excluded.version, value = excluded.value",
		key, SchemaVersion, value,
	)
	if err != nil {
		return fmt.Errorf("failed to write %q: %w", key, err)
	}
	return nil
}

func (s *Store) delete(key string) error {
	if _, err := s.db.Exec("DELETE FROM kv_store WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}
