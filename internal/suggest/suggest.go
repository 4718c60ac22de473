// Package suggest aggregates recorded selections into smart suggestions.
package suggest

import (
	"math"
	"sort"
	"time"

	"github.com/khanglvm/food-search/internal/food"
)

const (
	// frequencyWeight is the weight of frequency in the score (60%).
	frequencyWeight = 0.6

	// recencyWeight is the weight of recency in the score (30%).
	recencyWeight = 0.3

	// positionWeight is the weight of position quality in the score (10%).
	positionWeight = 0.1

	// FrequencyWindow is the window selections are counted in.
	FrequencyWindow = 7 * 24 * time.Hour

	// recencyHalfLife is the half-life of the exponential decay.
	recencyHalfLife = 24 * time.Hour

	// frequencyCap is the selection count treated as maximal frequency.
	frequencyCap = 100.0
)

// Suggestion is one ranked candidate.
type Suggestion struct {
	CandidateID string  `json:"candidate_id"`
	Name        string  `json:"name"`
	Query       string  `json:"query"`
	Count       int     `json:"count"`
	Score       float64 `json:"score"`
}

// Rank scores every candidate seen in events and returns the top limit,
// best first. Ties keep first-seen order. A non-positive limit returns all.
//
// Formula: 0.6*frequency + 0.3*recency + 0.1*mean(1/rankPosition)
func Rank(events []food.SelectionEvent, now time.Time, limit int) []Suggestion {
	type agg struct {
		s         Suggestion
		inWindow  int
		decaySum  float64
		posSum    float64
		posCount  int
		nameStamp time.Time
	}

	var order []string
	byID := make(map[string]*agg)
	windowStart := now.Add(-FrequencyWindow)

	for _, e := range events {
		if e.CandidateID == "" {
			continue
		}
		a, ok := byID[e.CandidateID]
		if !ok {
			a = &agg{s: Suggestion{CandidateID: e.CandidateID}}
			byID[e.CandidateID] = a
			order = append(order, e.CandidateID)
		}

		a.s.Count++
		if e.Timestamp.After(windowStart) {
			a.inWindow++
		}
		a.decaySum += decay(now.Sub(e.Timestamp))
		if e.RankPosition > 0 {
			a.posSum += 1 / float64(e.RankPosition)
			a.posCount++
		}
		// Name and query follow the most recent selection.
		if a.s.Name == "" || e.Timestamp.After(a.nameStamp) {
			if e.CandidateName != "" {
				a.s.Name = e.CandidateName
			}
			a.s.Query = e.Query
			a.nameStamp = e.Timestamp
		}
	}

	out := make([]Suggestion, 0, len(order))
	for _, id := range order {
		a := byID[id]
		freq := math.Min(float64(a.inWindow)/frequencyCap, 1)
		recency := a.decaySum / float64(a.s.Count)
		position := 0.0
		if a.posCount > 0 {
			position = a.posSum / float64(a.posCount)
		}
		a.s.Score = frequencyWeight*freq + recencyWeight*recency + positionWeight*position
		out = append(out, a.s)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// decay is 1 at age zero and halves every recencyHalfLife. Future
// timestamps count as now.
func decay(age time.Duration) float64 {
	if age < 0 {
		age = 0
	}
	return math.Exp(-math.Ln2 * age.Hours() / recencyHalfLife.Hours())
}

// fallbackQueries are shown when nothing has been selected yet.
var fallbackQueries = []string{"chicken breast", "rice", "egg", "salmon", "banana", "oats"}

// Fallback returns the common-food queries used on a cold start.
func Fallback() []string {
	return append([]string(nil), fallbackQueries...)
}
