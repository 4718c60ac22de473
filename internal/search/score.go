package search

import (
	"strings"
	"time"
)

// DefaultPrepWords are the neutral preparation words that earn the
// preparation-affinity bonus.
var DefaultPrepWords = []string{"raw", "cooked", "roasted", "broiled", "grilled", "baked"}

// Scorer holds the additive scoring weights.
type Scorer struct {
	Exact        float64
	Prefix       float64
	Word         float64
	CommaPenalty float64
	Prep         float64
	PrepWords    []string
}

// DefaultScorer returns the standard weights.
func DefaultScorer() Scorer {
	return Scorer{
		Exact:        1000,
		Prefix:       500,
		Word:         100,
		CommaPenalty: 20,
		Prep:         50,
		PrepWords:    DefaultPrepWords,
	}
}

// Text scores literal relevance of name to query: exact match, prefix
// match, and one bonus per query word found in name. Matching ignores case
// and surrounding whitespace. A zero result means name is irrelevant.
func (s Scorer) Text(name, query string) float64 {
	n := strings.ToLower(strings.TrimSpace(name))
	q := strings.ToLower(strings.TrimSpace(query))
	if n == "" || q == "" {
		return 0
	}

	var score float64
	if n == q {
		score += s.Exact
	}
	if strings.HasPrefix(n, q) {
		score += s.Prefix
	}
	for _, w := range strings.Fields(q) {
		if strings.Contains(n, w) {
			score += s.Word
		}
	}
	return score
}

// Structure returns the adjustments that depend only on the name: a penalty
// per remaining comma and a bonus when a preparation word is present.
func (s Scorer) Structure(name string) float64 {
	n := strings.ToLower(name)
	score := -s.CommaPenalty * float64(strings.Count(n, ","))
	if containsAny(n, s.PrepWords) {
		score += s.Prep
	}
	return score
}

// Score is Text plus Structure. Irrelevant names score 0 regardless of
// their structure.
func (s Scorer) Score(name, query string) float64 {
	text := s.Text(name, query)
	if text == 0 {
		return 0
	}
	return text + s.Structure(name)
}

// Score uses DefaultScorer.
func Score(name, query string) float64 {
	return DefaultScorer().Score(name, query)
}

// UsageWeights turns personal history into a score bonus.
type UsageWeights struct {
	PerUse       float64
	RecentBonus  float64
	RecentWindow time.Duration
}

// DefaultUsageWeights returns 10 per use plus 50 within the last hour.
func DefaultUsageWeights() UsageWeights {
	return UsageWeights{PerUse: 10, RecentBonus: 50, RecentWindow: time.Hour}
}

// Bonus returns count*PerUse, plus RecentBonus when lastUsed falls inside
// the recent window ending at now.
func (w UsageWeights) Bonus(count int, lastUsed, now time.Time) float64 {
	bonus := float64(count) * w.PerUse
	if !lastUsed.IsZero() && now.Sub(lastUsed) < w.RecentWindow {
		bonus += w.RecentBonus
	}
	return bonus
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
