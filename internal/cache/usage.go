package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/khanglvm/food-search/internal/food"
	"github.com/khanglvm/food-search/internal/search"
	"github.com/khanglvm/food-search/internal/storage"
)

// UsageConfig bounds and weights the personal cache.
type UsageConfig struct {
	// Capacity is the most records kept; the least recently used go first.
	Capacity int
	// Retention is how long a record survives without being selected.
	Retention time.Duration
	// MaxQueries caps MatchedQueries per record.
	MaxQueries int
	// Limit is the most results SearchLocal returns.
	Limit int
	// MinQueryLength is the shortest query SearchLocal will answer.
	MinQueryLength int
	// HistoryBonus scores a record reached only through a past query.
	HistoryBonus float64
	Weights      search.UsageWeights
}

// DefaultUsageConfig keeps 50 records for 7 days and answers with the top 5.
func DefaultUsageConfig() UsageConfig {
	return UsageConfig{
		Capacity:       50,
		Retention:      7 * 24 * time.Hour,
		MaxQueries:     10,
		Limit:          5,
		MinQueryLength: 2,
		HistoryBonus:   100,
		Weights:        search.DefaultUsageWeights(),
	}
}

// PersonalCache is one user's store of previously selected foods.
type PersonalCache struct {
	kv     storage.KV
	cfg    UsageConfig
	scorer search.Scorer
	prefix string
	log    *log.Logger
	now    func() time.Time

	// mu makes each read-modify-write of a record atomic within the process.
	mu sync.Mutex
}

// NewPersonalCache creates the cache for userID on kv. An empty userID is
// the single local user.
func NewPersonalCache(kv storage.KV, userID string, cfg UsageConfig, opts ...Option) *PersonalCache {
	o := buildOptions("usage", opts)
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultUsageConfig().Limit
	}
	return &PersonalCache{
		kv:     kv,
		cfg:    cfg,
		scorer: search.DefaultScorer(),
		prefix: keyPrefix("usage", userID),
		log:    o.log,
		now:    o.now,
	}
}

func (p *PersonalCache) expired(r food.UsageRecord, now time.Time) bool {
	return p.cfg.Retention > 0 && now.Sub(r.LastUsedAt) >= p.cfg.Retention
}

// RecordSelection upserts the record for c after the user confirmed it for
// query. Storage failures are logged; the caller never sees them.
func (p *PersonalCache) RecordSelection(ctx context.Context, c food.Candidate, query string) {
	if c.ID == "" {
		p.log.Warn("ignoring selection without candidate id", "query", query)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	key := p.prefix + c.ID

	var rec food.UsageRecord
	raw, err := p.kv.Get(ctx, key)
	switch {
	case err == nil:
		if jerr := json.Unmarshal(raw, &rec); jerr != nil {
			p.log.Warn("discarding corrupt usage record", "id", c.ID, "err", jerr)
			rec = food.UsageRecord{}
		} else if p.expired(rec, now) {
			rec = food.UsageRecord{}
		}
	case errors.Is(err, storage.ErrNotFound):
	default:
		p.log.Warn("usage lookup failed", "id", c.ID, "err", err)
	}

	rec.Touch(c.WithSource(food.SourceLocal), query, now, p.cfg.MaxQueries)

	data, err := json.Marshal(rec)
	if err != nil {
		p.log.Warn("failed to encode usage record", "id", c.ID, "err", err)
		return
	}
	if err := p.kv.Put(ctx, key, data, p.cfg.Retention); err != nil {
		p.log.Warn("failed to store usage record", "id", c.ID, "err", err)
		return
	}

	p.evict(ctx)
}

// evict trims the store to capacity, oldest LastUsedAt first.
func (p *PersonalCache) evict(ctx context.Context) {
	if p.cfg.Capacity <= 0 {
		return
	}
	keys, recs := p.load(ctx)
	if len(recs) <= p.cfg.Capacity {
		return
	}

	idx := make([]int, len(recs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return recs[idx[a]].LastUsedAt.Before(recs[idx[b]].LastUsedAt)
	})
	for _, i := range idx[:len(recs)-p.cfg.Capacity] {
		if err := p.kv.Delete(ctx, keys[i]); err != nil {
			p.log.Warn("failed to evict usage record", "key", keys[i], "err", err)
		}
	}
}

// load returns the live records with their keys, deleting expired and
// undecodable ones on the way.
func (p *PersonalCache) load(ctx context.Context) ([]string, []food.UsageRecord) {
	now := p.now()
	var keys, stale []string
	var recs []food.UsageRecord

	err := p.kv.Scan(ctx, p.prefix, func(key string, value []byte) error {
		var rec food.UsageRecord
		if err := json.Unmarshal(value, &rec); err != nil {
			p.log.Warn("discarding corrupt usage record", "key", key, "err", err)
			stale = append(stale, key)
			return nil
		}
		if p.expired(rec, now) {
			stale = append(stale, key)
			return nil
		}
		keys = append(keys, key)
		recs = append(recs, rec)
		return nil
	})
	if err != nil {
		p.log.Warn("usage scan failed", "err", err)
		return nil, nil
	}

	for _, k := range stale {
		if err := p.kv.Delete(ctx, k); err != nil {
			p.log.Warn("failed to drop stale usage record", "key", k, "err", err)
		}
	}
	return keys, recs
}

// Records returns the live records, most recently used first.
func (p *PersonalCache) Records(ctx context.Context) []food.UsageRecord {
	_, recs := p.load(ctx)
	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].LastUsedAt.After(recs[j].LastUsedAt)
	})
	return recs
}

// SearchLocal returns at most Limit previously used foods relevant to
// query, best first, tagged local. Queries shorter than MinQueryLength
// return nothing.
func (p *PersonalCache) SearchLocal(ctx context.Context, query string) []food.Candidate {
	return search.Candidates(p.SearchLocalScored(ctx, query))
}

// SearchLocalScored is SearchLocal with scores.
func (p *PersonalCache) SearchLocalScored(ctx context.Context, query string) []search.Result {
	q := food.NormalizeQuery(query)
	if len([]rune(q)) < p.cfg.MinQueryLength || q == "" {
		return []search.Result{}
	}

	now := p.now()
	results := []search.Result{}
	for _, rec := range p.Records(ctx) {
		relevance := p.relevance(rec, q)
		if relevance <= 0 {
			continue
		}
		results = append(results, search.Result{
			Candidate: rec.Candidate.WithSource(food.SourceLocal),
			Score:     relevance + p.cfg.Weights.Bonus(rec.UsageCount, rec.LastUsedAt, now),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > p.cfg.Limit {
		results = results[:p.cfg.Limit]
	}
	return results
}

// relevance scores the better of the display and raw names, falling back
// to the record's past queries for abbreviations and other non-literal
// repeats.
func (p *PersonalCache) relevance(rec food.UsageRecord, q string) float64 {
	score := p.scorer.Text(rec.Candidate.DisplayName, q)
	if raw := p.scorer.Text(rec.Candidate.RawName, q); raw > score {
		score = raw
	}
	if score > 0 {
		return score
	}
	for _, past := range rec.MatchedQueries {
		if strings.Contains(past, q) {
			return p.cfg.HistoryBonus
		}
	}
	return 0
}

// Clear removes every record of this user.
func (p *PersonalCache) Clear(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	keys, _ := p.load(ctx)
	for _, k := range keys {
		if err := p.kv.Delete(ctx, k); err != nil {
			p.log.Warn("failed to clear usage record", "key", k, "err", err)
		}
	}
}
