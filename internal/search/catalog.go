package search

import (
	"sort"
	"strings"

	"github.com/khanglvm/food-search/internal/food"
)

// DefaultCatalogLimit is how many raw records RankCatalog keeps when the
// caller passes a non-positive limit.
const DefaultCatalogLimit = 10

// Processed-food indicators. Records whose description contains one are
// dropped before ranking.
var junkWords = []string{
	"snack", "cracker", "chip", "cookie", "cake", "candy", "cereal",
	"bar", "mix", "prepared", "frozen meal", "instant", "canned",
	"with sauce", "flavored", "seasoned", "enriched", "fortified",
	"breaded", "nugget", "patty", "battered", "fried with coating",
	"processed", "formed", "restructured",
}

var anatomyWords = []string{
	"breast", "thigh", "leg", "drumstick", "wing",
	"chuck", "sirloin", "tenderloin", "brisket", "round",
	"chop", "loin", "shoulder", "shank",
	"fillet", "steak",
}

// Heavier-than-usual processing that slipped past the junk filter.
var processedWords = []string{"breaded", "nugget", "patty", "battered", "processed", "formed"}

// CatalogScorer extends Scorer with bonuses that only make sense on raw
// catalog descriptions, where cut and grade words are still present.
type CatalogScorer struct {
	Scorer
	Anatomy     float64
	Ground      float64
	Broilers    float64
	MeatOnly    float64
	Processed   float64
	MinCalories float64
	MaxResults  int
	FilterJunk  bool
}

// DefaultCatalogScorer returns the standard catalog weights.
func DefaultCatalogScorer() CatalogScorer {
	return CatalogScorer{
		Scorer:      DefaultScorer(),
		Anatomy:     150,
		Ground:      150,
		Broilers:    100,
		MeatOnly:    75,
		Processed:   500,
		MinCalories: 10,
		MaxResults:  DefaultCatalogLimit,
		FilterJunk:  true,
	}
}

// Score rates a raw description against query. Unlike Scorer.Score it does
// not gate on relevance: every record the provider returned for the query
// is a candidate and only their relative order matters.
func (c CatalogScorer) Score(name, query string) float64 {
	n := strings.ToLower(name)
	score := c.Text(name, query) + c.Structure(name)

	if containsAny(n, anatomyWords) {
		score += c.Anatomy
	}
	if strings.Contains(n, "ground") {
		score += c.Ground
	}
	if strings.Contains(n, "broilers or fryers") {
		score += c.Broilers
	}
	if strings.Contains(n, "meat only") {
		score += c.MeatOnly
	}
	if containsAny(n, processedWords) {
		score -= c.Processed
	}
	return score
}

// Junk reports whether a record should be filtered before ranking.
func (c CatalogScorer) Junk(r food.RawRecord) bool {
	if containsAny(strings.ToLower(r.Name), junkWords) {
		return true
	}
	return r.Nutrients.Calories < c.MinCalories
}

// Rank filters and orders records, keeping at most limit. When filtering
// would leave nothing, the unfiltered records are ranked instead so a
// query for a processed food still returns something.
func (c CatalogScorer) Rank(records []food.RawRecord, query string, limit int) []food.RawRecord {
	if limit <= 0 {
		limit = c.MaxResults
	}
	if limit <= 0 {
		limit = DefaultCatalogLimit
	}

	pool := records
	if c.FilterJunk {
		kept := make([]food.RawRecord, 0, len(records))
		for _, r := range records {
			if !c.Junk(r) {
				kept = append(kept, r)
			}
		}
		if len(kept) > 0 {
			pool = kept
		}
	}

	type scored struct {
		rec   food.RawRecord
		score float64
	}
	ranked := make([]scored, len(pool))
	for i, r := range pool {
		ranked[i] = scored{rec: r, score: c.Score(r.Name, query)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]food.RawRecord, len(ranked))
	for i, s := range ranked {
		out[i] = s.rec
	}
	return out
}

// RankCatalog ranks with DefaultCatalogScorer.
func RankCatalog(records []food.RawRecord, query string, limit int) []food.RawRecord {
	return DefaultCatalogScorer().Rank(records, query, limit)
}
