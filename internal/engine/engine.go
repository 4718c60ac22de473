/*
Package engine runs the search flow.

A query is answered from the personal-usage cache first, synchronously, so
callers can render instant predictions. The session result cache is checked
next; on a miss the remote provider is queried, its raw records ranked and
normalized, and the list cached for the session. Both lists are then merged.
A confirmed selection updates the personal cache and is handed to the
feedback recorder.

Nothing on this path returns storage or provider errors. Failures degrade to
empty results and are logged.
*/
package engine

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/khanglvm/food-search/internal/cache"
	"github.com/khanglvm/food-search/internal/food"
	"github.com/khanglvm/food-search/internal/logger"
	"github.com/khanglvm/food-search/internal/metrics"
	"github.com/khanglvm/food-search/internal/normalize"
	"github.com/khanglvm/food-search/internal/provider"
	"github.com/khanglvm/food-search/internal/search"
	"github.com/khanglvm/food-search/internal/storage"
)

// Tiers name where the non-local part of a response came from.
const (
	TierSession = "session"
	TierRemote  = "remote"
	TierNone    = "none"
)

var errNoProvider = errors.New("engine: no remote provider")

// Recorder receives feedback. feedback.Recorder implements it.
type Recorder interface {
	Record(event food.SelectionEvent)
	RecordSearch(search storage.SearchRecord)
}

type nopRecorder struct{}

func (nopRecorder) Record(food.SelectionEvent)        {}
func (nopRecorder) RecordSearch(storage.SearchRecord) {}

// Config holds the tunables of every stage.
type Config struct {
	Usage   cache.UsageConfig
	Session cache.SessionConfig
	Merge   search.MergeConfig
	Catalog search.CatalogScorer

	// FetchLimit is how many raw records are requested per provider call,
	// before junk filtering and ranking cut them to Catalog.MaxResults.
	FetchLimit int
}

// DefaultConfig returns the standard configuration.
func DefaultConfig() Config {
	return Config{
		Usage:      cache.DefaultUsageConfig(),
		Session:    cache.DefaultSessionConfig(),
		Merge:      search.DefaultMergeConfig,
		Catalog:    search.DefaultCatalogScorer(),
		FetchLimit: 50,
	}
}

// Engine owns the shared collaborators. Per-user and per-session state
// lives in Session.
type Engine struct {
	provider   provider.Provider
	usageKV    storage.KV
	sessionKV  storage.KV
	cfg        Config
	normalizer *normalize.Normalizer
	recorder   Recorder
	metrics    *metrics.Metrics
	log        *log.Logger
	now        func() time.Time

	// fetches collapses concurrent remote lookups of the same query.
	fetches singleflight.Group
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// WithMetrics records engine metrics on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithRecorder sends selections and search analytics to r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.recorder = r }
}

// WithClock replaces time.Now for the engine and its caches.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithNormalizer replaces the default rule set.
func WithNormalizer(n *normalize.Normalizer) Option {
	return func(e *Engine) { e.normalizer = n }
}

// New creates an engine. usageKV backs personal caches and sessionKV backs
// session caches; they may be the same store. A nil provider makes every
// remote lookup fail, leaving local results only.
func New(p provider.Provider, usageKV, sessionKV storage.KV, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		provider:  p,
		usageKV:   usageKV,
		sessionKV: sessionKV,
		cfg:       cfg,
		recorder:  nopRecorder{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.normalizer == nil {
		e.normalizer = normalize.Default()
	}
	if e.recorder == nil {
		e.recorder = nopRecorder{}
	}
	if e.cfg.FetchLimit <= 0 {
		e.cfg.FetchLimit = DefaultConfig().FetchLimit
	}
	e.log = logger.OrDefault(e.log, "engine")
	return e
}

// Candidate converts a raw record into a remote candidate.
func (e *Engine) Candidate(r food.RawRecord) food.Candidate {
	return food.Candidate{
		ID:          r.ID,
		RawName:     r.Name,
		DisplayName: e.normalizer.Normalize(r.Name),
		Category:    normalize.Categorize(r.Name).String(),
		Brand:       r.Brand,
		Nutrients:   r.Nutrients,
		Source:      food.SourceRemote,
	}
}

// fetch queries the provider, ranks the raw records, and normalizes the
// survivors. Concurrent callers for the same query share one provider call.
// The shared call is detached from any one caller's cancellation; a caller
// whose ctx ends stops waiting and gets ctx.Err().
func (e *Engine) fetch(ctx context.Context, query string) ([]food.Candidate, error) {
	if e.provider == nil {
		return nil, errNoProvider
	}

	ch := e.fetches.DoChan(query, func() (any, error) {
		start := time.Now()
		records, err := e.provider.Search(context.WithoutCancel(ctx), query, e.cfg.FetchLimit)
		e.metrics.ObserveRemote(time.Since(start).Seconds())
		if err != nil {
			return nil, err
		}

		ranked := e.cfg.Catalog.Rank(records, query, e.cfg.Catalog.MaxResults)
		out := make([]food.Candidate, len(ranked))
		for i, r := range ranked {
			out[i] = e.Candidate(r)
		}
		e.log.Debug("remote fetch", "query", query, "records", len(records), "kept", len(out))
		return out, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]food.Candidate), nil
	}
}
