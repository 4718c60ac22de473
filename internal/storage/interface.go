/*
Package storage implements the persistent layer behind the caches and the
selection history.

KV is the small keyed store the Personal-Usage and Session caches sit on, with
memory, SQLite, and Redis backends. EventStore holds the write-once selection
and search facts. SQLiteStorage implements both and degrades gracefully: if
the database cannot be opened every operation becomes a no-op.

The default database lives at ~/.food-search/history.db and uses
modernc.org/sqlite (a pure Go, CGo-free implementation).
*/
package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	_ "modernc.org/sqlite"

	"github.com/khanglvm/food-search/internal/food"
	"github.com/khanglvm/food-search/internal/logger"
)

// ErrNotFound is returned by KV.Get for absent or expired keys.
var ErrNotFound = errors.New("storage: key not found")

// KV is a keyed byte store. A ttl of zero means no backend expiry; callers
// that need exact expiry semantics still check their own timestamps.
type KV interface {
	// Get returns the value for key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put inserts or overwrites key.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Scan calls fn for every live key with prefix. Returning an error from
	// fn stops the scan and is returned by Scan.
	Scan(ctx context.Context, prefix string, fn func(key string, value []byte) error) error

	// Close releases the backend.
	Close() error
}

// EventStore persists selection events and search analytics.
type EventStore interface {
	// Init initializes the database and runs migrations.
	Init() error

	// RecordSelection appends a selection event.
	RecordSelection(event food.SelectionEvent) error

	// GetSelections returns events at or after since, newest first.
	GetSelections(since time.Time) ([]food.SelectionEvent, error)

	// RecordSearch records a completed search for analytics.
	RecordSearch(search SearchRecord) error

	// Cleanup removes event rows older than retention.
	Cleanup(retention time.Duration) error

	// Clear removes every event row and every KV entry.
	Clear() error

	// Close closes the database connection.
	Close() error
}

// SQLiteStorage implements KV and EventStore using SQLite.
type SQLiteStorage struct {
	db       *sql.DB
	dbPath   string
	enabled  bool
	mu       sync.Mutex
	initOnce sync.Once
	log      *log.Logger
	now      func() time.Time
}

// DefaultPath returns ~/.food-search/history.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".food-search", "history.db"), nil
}

// NewStorage creates a SQLite storage at path, or DefaultPath when path is
// empty. The database is not opened until Init. If no path can be resolved
// the storage is disabled but operations will not fail.
func NewStorage(path string) *SQLiteStorage {
	s := &SQLiteStorage{
		dbPath:  path,
		enabled: true,
		log:     logger.Default("storage"),
		now:     time.Now,
	}
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			s.log.Warn("sqlite storage disabled", "err", err)
			s.enabled = false
			return s
		}
		s.dbPath = p
	}
	return s
}

// SetLogger replaces the storage logger.
func (s *SQLiteStorage) SetLogger(l *log.Logger) {
	if l != nil {
		s.log = l
	}
}

// Path returns the database file path.
func (s *SQLiteStorage) Path() string {
	return s.dbPath
}

// Enabled reports whether the database is usable.
func (s *SQLiteStorage) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled && s.db != nil
}

// Init initializes the database and runs migrations.
//
// If initialization fails, storage is disabled and subsequent operations
// become no-ops (graceful degradation).
func (s *SQLiteStorage) Init() error {
	if !s.enabled {
		return nil
	}

	var initErr error
	s.initOnce.Do(func() {
		if s.log == nil {
			s.log = logger.Default("storage")
		}
		if s.now == nil {
			s.now = time.Now
		}

		dbDir := filepath.Dir(s.dbPath)
		if err := os.MkdirAll(dbDir, 0755); err != nil {
			initErr = fmt.Errorf("failed to create db directory: %w", err)
			s.enabled = false
			return
		}

		db, err := sql.Open("sqlite", s.dbPath)
		if err != nil {
			initErr = fmt.Errorf("failed to open database: %w", err)
			s.enabled = false
			s.log.Warn("sqlite open failed", "path", s.dbPath, "err", err)
			return
		}
		// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		s.db = db

		if err := db.Ping(); err != nil {
			initErr = fmt.Errorf("failed to ping database: %w", err)
			s.enabled = false
			s.log.Warn("sqlite ping failed", "path", s.dbPath, "err", err)
			return
		}

		if err := s.runMigrations(); err != nil {
			initErr = fmt.Errorf("failed to run migrations: %w", err)
			s.enabled = false
			s.log.Warn("sqlite migrations failed", "path", s.dbPath, "err", err)
			return
		}
	})

	return initErr
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.db = nil
	return nil
}

// HashQuery creates a SHA256 hash of a query string for privacy.
func HashQuery(query string) string {
	hash := sha256.Sum256([]byte(food.NormalizeQuery(query)))
	return hex.EncodeToString(hash[:])
}

var (
	_ KV         = (*SQLiteStorage)(nil)
	_ EventStore = (*SQLiteStorage)(nil)
)
