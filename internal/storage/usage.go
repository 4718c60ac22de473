package storage

import (
	"fmt"
	"time"

	"github.com/khanglvm/food-search/internal/food"
)

// RecordSelection records a selection event. Events with an id that was
// already stored are ignored.
func (s *SQLiteStorage) RecordSelection(event food.SelectionEvent) error {
	if !s.enabled || s.db == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT OR IGNORE INTO selection_events
			(id, query, candidate_id, candidate_name, rank_position, user_id, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		event.ID,
		food.NormalizeQuery(event.Query),
		event.CandidateID,
		event.CandidateName,
		event.RankPosition,
		event.UserID,
		formatTime(event.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("failed to record selection: %w", err)
	}

	return nil
}

// GetSelections retrieves selection events since a given time, newest first.
func (s *SQLiteStorage) GetSelections(since time.Time) ([]food.SelectionEvent, error) {
	if !s.enabled || s.db == nil {
		return []food.SelectionEvent{}, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		SELECT id, query, candidate_id, candidate_name, rank_position, user_id, timestamp
		FROM selection_events
		WHERE timestamp >= ?
		ORDER BY timestamp DESC
	`

	rows, err := s.db.Query(query, formatTime(since))
	if err != nil {
		s.log.Warn("failed to query selections", "err", err)
		return []food.SelectionEvent{}, nil
	}
	defer rows.Close()

	events := []food.SelectionEvent{}
	for rows.Next() {
		var event food.SelectionEvent
		var timestampStr string

		if err := rows.Scan(
			&event.ID,
			&event.Query,
			&event.CandidateID,
			&event.CandidateName,
			&event.RankPosition,
			&event.UserID,
			&timestampStr,
		); err != nil {
			s.log.Warn("failed to scan selection row", "err", err)
			continue
		}

		event.Timestamp, err = time.Parse(timeLayout, timestampStr)
		if err != nil {
			s.log.Warn("failed to parse timestamp", "value", timestampStr, "err", err)
			continue
		}

		events = append(events, event)
	}

	return events, rows.Err()
}
