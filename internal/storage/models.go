package storage

import "time"

// SearchRecord represents a completed search for analytics.
type SearchRecord struct {
	// SearchID is a unique identifier for this search (UUID).
	SearchID string `json:"search_id"`

	// QueryHash is the SHA256 hash of the normalized query for privacy.
	QueryHash string `json:"query_hash"`

	// Timestamp is when the search completed.
	Timestamp time.Time `json:"timestamp"`

	// ResultsCount is the number of merged results returned.
	ResultsCount int `json:"results_count"`

	// LocalCount and RemoteCount split ResultsCount by provenance.
	LocalCount  int `json:"local_count"`
	RemoteCount int `json:"remote_count"`

	// Tier names where the non-local results came from: "session",
	// "remote", or "none" when the remote path failed or was skipped.
	Tier string `json:"tier"`

	// Duration is the wall time of the search.
	Duration time.Duration `json:"duration"`
}

// timeLayout is fixed-width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}
