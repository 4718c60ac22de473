package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Get returns the value for key, or ErrNotFound when absent or expired.
func (s *SQLiteStorage) Get(ctx context.Context, key string) ([]byte, error) {
	if !s.enabled || s.db == nil {
		return nil, ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var value []byte
	var expiresAt sql.NullInt64
	err := s.db.QueryRowContext(ctx, "SELECT value, expires_at FROM kv WHERE key = ?", key).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %q: %w", key, err)
	}
	if expiresAt.Valid && s.now().UnixNano() >= expiresAt.Int64 {
		return nil, ErrNotFound
	}
	return value, nil
}

// Put inserts or overwrites key.
func (s *SQLiteStorage) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var expiresAt sql.NullInt64
	if ttl > 0 {
		expiresAt = sql.NullInt64{Int64: s.now().Add(ttl).UnixNano(), Valid: true}
	}

	query := `
		INSERT INTO kv (key, value, expires_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, value, expiresAt); err != nil {
		return fmt.Errorf("failed to put %q: %w", key, err)
	}
	return nil
}

// Delete removes key.
func (s *SQLiteStorage) Delete(ctx context.Context, key string) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM kv WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete %q: %w", key, err)
	}
	return nil
}

// Scan visits live keys with prefix in key order. Rows are read fully before
// fn runs so fn may call back into the storage.
func (s *SQLiteStorage) Scan(ctx context.Context, prefix string, fn func(key string, value []byte) error) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	type row struct {
		key   string
		value []byte
	}

	s.mu.Lock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value FROM kv
		WHERE key >= ? AND (expires_at IS NULL OR expires_at > ?)
		ORDER BY key
	`, prefix, s.now().UnixNano())
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to scan %q: %w", prefix, err)
	}

	var batch []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.key, &r.value); err != nil {
			rows.Close()
			s.mu.Unlock()
			return fmt.Errorf("failed to read kv row: %w", err)
		}
		if !strings.HasPrefix(r.key, prefix) {
			break
		}
		batch = append(batch, r)
	}
	err = rows.Err()
	rows.Close()
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to scan %q: %w", prefix, err)
	}

	for _, r := range batch {
		if err := fn(r.key, r.value); err != nil {
			return err
		}
	}
	return nil
}
