// Package store provides the local key/value persistence layer backing all
// collection repositories.
//
// The store is a single SQLite table of string keys to string values, opened
// in embedded mode with WAL so readers are never blocked by the writer. Each
// Get/Set is one statement: atomic with respect to its own key only. There
// are no multi-key transactions — a failure between two related writes (a
// collection and the generation marker, say) can leave them inconsistent,
// and callers are expected to tolerate that.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Well-known keys used by the persistence subsystem.
const (
	KeyArticles   = "articles"
	KeyVideos     = "videos"
	KeyAds        = "ads"
	KeyUsers      = "users"
	KeyMessages   = "messages"
	KeyTicker     = "ticker"
	KeyFiles      = "files"
	KeyGeneration = "generation"
	KeyLastEvent  = "last_event"
)

// Store wraps the SQLite connection holding the key/value table.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates or opens the store at path. Use ":memory:" for an ephemeral
// store in tests.
//
// The caller MUST call Close() when done.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping store: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{conn: conn, path: path}

	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := s.initSchema(); err != nil {
		_ = s.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS kv (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := s.conn.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Path returns the filesystem path the store was opened at.
func (s *Store) Path() string {
	return s.path
}

// Close checkpoints the WAL and closes the connection.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}
	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}
	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	s.conn = nil
	return nil
}

// Get returns the value for key. The second return is false when the key
// has never been set.
func (s *Store) Get(key string) (string, bool, error) {
	return s.GetContext(context.Background(), key)
}

// GetContext is Get with context support.
func (s *Store) GetContext(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.conn.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read key %s: %w", key, err)
	}
	return value, true, nil
}

// Set writes value under key, replacing any previous value. The write is
// atomic with respect to this key only.
func (s *Store) Set(key, value string) error {
	return s.SetContext(context.Background(), key, value)
}

// SetContext is Set with context support.
func (s *Store) SetContext(ctx context.Context, key, value string) error {
	query := `
	INSERT INTO kv (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`
	if _, err := s.conn.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to write key %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	if _, err := s.conn.Exec(`DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete key %s: %w", key, err)
	}
	return nil
}

// Generation reads the locally persisted generation marker, defaulting to 0
// when absent or unparseable.
func (s *Store) Generation() int64 {
	raw, ok, err := s.Get(KeyGeneration)
	if err != nil || !ok {
		return 0
	}
	var gen int64
	if _, err := fmt.Sscanf(raw, "%d", &gen); err != nil {
		return 0
	}
	return gen
}

// SetGeneration persists the generation marker.
func (s *Store) SetGeneration(gen int64) error {
	return s.Set(KeyGeneration, fmt.Sprintf("%d", gen))
}
