package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/khanglvm/food-search/internal/food"
	"github.com/khanglvm/food-search/internal/storage"
)

// SessionConfig bounds a session cache.
type SessionConfig struct {
	TTL      time.Duration
	Capacity int
}

// DefaultSessionConfig keeps 100 queries for 5 minutes.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{TTL: 5 * time.Minute, Capacity: 100}
}

type sessionEntry struct {
	Query     string           `json:"query"`
	Results   []food.Candidate `json:"results"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// SessionCache holds remote result lists for one search session, keyed by
// normalized query text. Each session gets its own key space.
type SessionCache struct {
	kv     storage.KV
	cfg    SessionConfig
	prefix string
	log    *log.Logger
	now    func() time.Time

	mu sync.Mutex
}

// NewSessionCache creates the cache for sessionID on kv.
func NewSessionCache(kv storage.KV, sessionID string, cfg SessionConfig, opts ...Option) *SessionCache {
	o := buildOptions("session", opts)
	return &SessionCache{
		kv:     kv,
		cfg:    cfg,
		prefix: keyPrefix("session", sessionID),
		log:    o.log,
		now:    o.now,
	}
}

func (s *SessionCache) expired(e sessionEntry, now time.Time) bool {
	return s.cfg.TTL > 0 && now.Sub(e.FetchedAt) >= s.cfg.TTL
}

// Get returns the cached results for query tagged as session hits. The
// second value is false when the query was never stored or its entry has
// expired.
func (s *SessionCache) Get(ctx context.Context, query string) ([]food.Candidate, bool) {
	key := s.prefix + food.NormalizeQuery(query)

	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.log.Warn("session lookup failed", "query", query, "err", err)
		}
		return nil, false
	}

	var e sessionEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		s.log.Warn("discarding corrupt session entry", "query", query, "err", err)
		s.drop(ctx, key)
		return nil, false
	}
	if s.expired(e, s.now()) {
		s.drop(ctx, key)
		return nil, false
	}
	return food.Tag(e.Results, food.SourceSession), true
}

// Put stores results for query, replacing any earlier entry, then evicts
// the oldest entries while the session holds more than Capacity queries.
func (s *SessionCache) Put(ctx context.Context, query string, results []food.Candidate) {
	q := food.NormalizeQuery(query)
	e := sessionEntry{Query: q, Results: results, FetchedAt: s.now()}
	if e.Results == nil {
		e.Results = []food.Candidate{}
	}

	data, err := json.Marshal(e)
	if err != nil {
		s.log.Warn("failed to encode session entry", "query", query, "err", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Put(ctx, s.prefix+q, data, s.cfg.TTL); err != nil {
		s.log.Warn("failed to store session entry", "query", query, "err", err)
		return
	}
	s.evict(ctx)
}

type keyedEntry struct {
	key       string
	fetchedAt time.Time
}

func (s *SessionCache) scan(ctx context.Context) []keyedEntry {
	now := s.now()
	var live []keyedEntry
	var stale []string

	err := s.kv.Scan(ctx, s.prefix, func(key string, value []byte) error {
		var e sessionEntry
		if err := json.Unmarshal(value, &e); err != nil || s.expired(e, now) {
			stale = append(stale, key)
			return nil
		}
		live = append(live, keyedEntry{key: key, fetchedAt: e.FetchedAt})
		return nil
	})
	if err != nil {
		s.log.Warn("session scan failed", "err", err)
		return nil
	}
	for _, k := range stale {
		s.drop(ctx, k)
	}
	return live
}

func (s *SessionCache) evict(ctx context.Context) {
	if s.cfg.Capacity <= 0 {
		return
	}
	live := s.scan(ctx)
	if len(live) <= s.cfg.Capacity {
		return
	}
	sort.SliceStable(live, func(i, j int) bool {
		return live[i].fetchedAt.Before(live[j].fetchedAt)
	})
	for _, e := range live[:len(live)-s.cfg.Capacity] {
		s.drop(ctx, e.key)
	}
}

func (s *SessionCache) drop(ctx context.Context, key string) {
	if err := s.kv.Delete(ctx, key); err != nil {
		s.log.Warn("failed to drop session entry", "key", key, "err", err)
	}
}

// Len returns the number of live entries.
func (s *SessionCache) Len(ctx context.Context) int {
	return len(s.scan(ctx))
}

// Discard deletes every entry of the session.
func (s *SessionCache) Discard(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.kv.Scan(ctx, s.prefix, func(key string, _ []byte) error {
		s.drop(ctx, key)
		return nil
	})
	if err != nil {
		s.log.Warn("session discard failed", "err", err)
	}
}
