/*
Package search ranks food candidates against a query.

Scoring is additive and explainable: a text-relevance part (exact, prefix, and
per-word matches) gated by relevance, then structural adjustments for names
that still carry catalog noise. RankCatalog orders raw provider records before
normalization, and Merge fuses personal and remote result lists into the final
ordering.
*/
package search

import (
	"sort"

	"github.com/khanglvm/food-search/internal/food"
)

// Result is a candidate together with the score that placed it.
type Result struct {
	Candidate food.Candidate `json:"candidate"`
	Score     float64        `json:"score"`
}

// sortResults orders by descending score. Equal scores keep input order.
func sortResults(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}

// Candidates strips scores.
func Candidates(results []Result) []food.Candidate {
	out := make([]food.Candidate, len(results))
	for i, r := range results {
		out[i] = r.Candidate
	}
	return out
}
