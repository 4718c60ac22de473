package storage

import (
	"fmt"
	"time"
)

// RecordSearch records a completed search for analytics.
func (s *SQLiteStorage) RecordSearch(search SearchRecord) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO search_history
			(search_id, query_hash, timestamp, results_count, local_count, remote_count, tier, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		search.SearchID,
		search.QueryHash,
		formatTime(search.Timestamp),
		search.ResultsCount,
		search.LocalCount,
		search.RemoteCount,
		search.Tier,
		search.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}

	return nil
}

// Stats summarizes what the database holds.
type Stats struct {
	Selections int `json:"selections"`
	Searches   int `json:"searches"`
	Entries    int `json:"entries"`
}

// Stats counts rows per table. A disabled storage reports zeros.
func (s *SQLiteStorage) Stats() (Stats, error) {
	var st Stats
	if !s.enabled || s.db == nil {
		return st, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	counts := []struct {
		table string
		dst   *int
	}{
		{"selection_events", &st.Selections},
		{"search_history", &st.Searches},
		{"kv", &st.Entries},
	}
	for _, c := range counts {
		if err := s.db.QueryRow("SELECT COUNT(*) FROM " + c.table).Scan(c.dst); err != nil {
			return Stats{}, fmt.Errorf("failed to count %s: %w", c.table, err)
		}
	}
	return st, nil
}

// Cleanup removes event rows older than retention and expired KV entries.
func (s *SQLiteStorage) Cleanup(retention time.Duration) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := formatTime(now.Add(-retention))

	if _, err := s.db.Exec("DELETE FROM selection_events WHERE timestamp < ?", cutoff); err != nil {
		s.log.Warn("failed to cleanup selection_events", "err", err)
	}

	if _, err := s.db.Exec("DELETE FROM search_history WHERE timestamp < ?", cutoff); err != nil {
		s.log.Warn("failed to cleanup search_history", "err", err)
	}

	if _, err := s.db.Exec("DELETE FROM kv WHERE expires_at IS NOT NULL AND expires_at <= ?", now.UnixNano()); err != nil {
		s.log.Warn("failed to cleanup kv", "err", err)
	}

	// Vacuum to reclaim space
	if _, err := s.db.Exec("VACUUM"); err != nil {
		s.log.Warn("failed to vacuum database", "err", err)
	}

	return nil
}

// Clear wipes every table except the migration log.
func (s *SQLiteStorage) Clear() error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"selection_events", "search_history", "kv"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return nil
}
