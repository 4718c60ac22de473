/*
Package food defines the records shared by every stage of the search engine.

A raw catalog record enters through a provider, becomes a Candidate once its
description has been normalized, and is wrapped in a UsageRecord when the user
selects it. SelectionEvents are the write-once facts handed to the feedback
recorder.
*/
package food

import (
	"strings"
	"time"
)

// Source is the provenance tag of a candidate. It is set by whichever tier
// returned the candidate and is never part of the candidate's identity.
type Source string

const (
	SourceLocal   Source = "local"
	SourceSession Source = "session"
	SourceRemote  Source = "remote"
)

// Nutrients holds per-100g values.
type Nutrients struct {
	Calories float64  `json:"calories_per_100g" yaml:"calories"`
	Protein  float64  `json:"protein_per_100g" yaml:"protein"`
	Carbs    float64  `json:"carbs_per_100g" yaml:"carbs"`
	Fat      float64  `json:"fat_per_100g" yaml:"fat"`
	Fiber    *float64 `json:"fiber_per_100g,omitempty" yaml:"fiber,omitempty"`
}

// RawRecord is a catalog record exactly as a provider returned it.
type RawRecord struct {
	ID        string    `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	Brand     string    `json:"brand,omitempty" yaml:"brand,omitempty"`
	Nutrients Nutrients `json:"nutrients" yaml:"nutrients"`
}

// Candidate is a normalized food record eligible for display.
type Candidate struct {
	// ID is stable across normalizer re-runs.
	ID          string    `json:"id"`
	RawName     string    `json:"name"`
	DisplayName string    `json:"display_name"`
	Category    string    `json:"category,omitempty"`
	Brand       string    `json:"brand,omitempty"`
	Nutrients   Nutrients `json:"nutrients"`
	Source      Source    `json:"source"`
}

// WithSource returns a copy of c tagged with s.
func (c Candidate) WithSource(s Source) Candidate {
	c.Source = s
	return c
}

// Tag returns a copy of cs with every candidate tagged as s.
func Tag(cs []Candidate, s Source) []Candidate {
	out := make([]Candidate, len(cs))
	for i, c := range cs {
		out[i] = c.WithSource(s)
	}
	return out
}

// UsageRecord is a Personal-Usage Cache entry.
type UsageRecord struct {
	Candidate      Candidate `json:"candidate"`
	LastUsedAt     time.Time `json:"last_used_at"`
	UsageCount     int       `json:"usage_count"`
	MatchedQueries []string  `json:"matched_queries,omitempty"`
}

// Touch applies one more selection of the record's candidate at now. query is
// lowercased and unioned into MatchedQueries, which is capped at maxQueries
// keeping the oldest entries first.
func (r *UsageRecord) Touch(c Candidate, query string, now time.Time, maxQueries int) {
	r.Candidate = c
	r.LastUsedAt = now
	r.UsageCount++

	q := NormalizeQuery(query)
	if q == "" {
		return
	}
	for _, existing := range r.MatchedQueries {
		if existing == q {
			return
		}
	}
	if maxQueries > 0 && len(r.MatchedQueries) >= maxQueries {
		return
	}
	r.MatchedQueries = append(r.MatchedQueries, q)
}

// SelectionEvent records which ranked position the user actually picked.
// RankPosition is 1-based. CandidateName is the display name at selection
// time, kept so suggestions can be shown without a catalog lookup.
type SelectionEvent struct {
	ID            string    `json:"id"`
	Query         string    `json:"query"`
	CandidateID   string    `json:"candidate_id"`
	CandidateName string    `json:"candidate_name,omitempty"`
	RankPosition  int       `json:"rank_position"`
	UserID        string    `json:"user_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NormalizeQuery lowercases q and trims surrounding whitespace. It is the key
// form used by every cache.
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.TrimSpace(q))
}
