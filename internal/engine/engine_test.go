package engine

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khanglvm/food-search/internal/food"
	"github.com/khanglvm/food-search/internal/logger"
	"github.com/khanglvm/food-search/internal/metrics"
	"github.com/khanglvm/food-search/internal/provider"
	"github.com/khanglvm/food-search/internal/storage"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recorder struct {
	mu         sync.Mutex
	selections []food.SelectionEvent
	searches   []storage.SearchRecord
}

func (r *recorder) Record(e food.SelectionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selections = append(r.selections, e)
}

func (r *recorder) RecordSearch(s storage.SearchRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searches = append(r.searches, s)
}

var catalog = []food.RawRecord{
	{ID: "171477", Name: "Chicken, broilers or fryers, breast, meat only, cooked, roasted", Nutrients: food.Nutrients{Calories: 165, Protein: 31}},
	{ID: "173627", Name: "Chicken, broilers or fryers, thigh, meat only, raw", Nutrients: food.Nutrients{Calories: 121, Protein: 19.7}},
	{ID: "171795", Name: "Chicken patty, frozen, cooked", Nutrients: food.Nutrients{Calories: 287}},
	{ID: "168878", Name: "Rice, white, cooked", Nutrients: food.Nutrients{Calories: 130, Carbs: 28}},
}

type fixture struct {
	engine   *Engine
	clock    *clock
	recorder *recorder
	calls    *int32
	kv       *storage.MemoryKV
}

func newFixture(t *testing.T, p provider.Provider, opts ...Option) fixture {
	t.Helper()
	clk := &clock{now: time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC)}
	rec := &recorder{}
	var calls int32
	if p == nil {
		static := provider.NewStatic(catalog)
		p = provider.Func(func(ctx context.Context, q string, limit int) ([]food.RawRecord, error) {
			atomic.AddInt32(&calls, 1)
			return static.Search(ctx, q, limit)
		})
	}
	kv := storage.NewMemoryKV()
	kv.SetClock(clk.Now)

	base := []Option{WithLogger(logger.Discard()), WithClock(clk.Now), WithRecorder(rec)}
	e := New(p, kv, kv, DefaultConfig(), append(base, opts...)...)
	return fixture{engine: e, clock: clk, recorder: rec, calls: &calls, kv: kv}
}

func ids(cs []food.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func TestSearch_RemoteThenSession(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	s := f.engine.NewSession("")

	resp := s.Search(ctx, "Chicken")
	assert.Equal(t, TierRemote, resp.Tier)
	assert.Equal(t, "chicken", resp.Query)
	assert.Empty(t, resp.Local)
	require.Len(t, resp.Results, 2, "the patty is filtered as processed")
	assert.Equal(t, "Chicken Thigh (raw)", resp.Results[0].DisplayName)
	assert.Equal(t, "Chicken Breast (roasted)", resp.Results[1].DisplayName)
	assert.Equal(t, "protein_meat/poultry", resp.Results[0].Category)
	for _, c := range resp.Results {
		assert.Equal(t, food.SourceRemote, c.Source)
	}

	again := s.Search(ctx, "chicken ")
	assert.Equal(t, TierSession, again.Tier)
	assert.Equal(t, ids(resp.Results), ids(again.Results))
	assert.Equal(t, food.SourceSession, again.Results[0].Source)
	assert.Equal(t, int32(1), atomic.LoadInt32(f.calls))

	f.clock.Advance(6 * time.Minute)
	assert.Equal(t, TierRemote, s.Search(ctx, "chicken").Tier, "session entry expired")
	assert.Equal(t, int32(2), atomic.LoadInt32(f.calls))
}

func TestSearch_SessionsDoNotShareResults(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	f.engine.NewSession("").Search(ctx, "rice")
	other := f.engine.NewSession("")
	assert.Equal(t, TierRemote, other.Search(ctx, "rice").Tier)
	assert.Equal(t, int32(2), atomic.LoadInt32(f.calls))
}

func TestSelect_FeedsInstantPredictions(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	s := f.engine.NewSession("alice")

	resp := s.Search(ctx, "chicken")
	require.NotEmpty(t, resp.Results)
	breast := resp.Results[1]
	s.Select(ctx, breast, "chicken", 2)

	instant := s.Instant(ctx, "chicken")
	require.Len(t, instant, 1)
	assert.Equal(t, breast.ID, instant[0].ID)
	assert.Equal(t, food.SourceLocal, instant[0].Source)

	// The local copy outranks and replaces its remote twin.
	merged := s.Search(ctx, "chicken")
	assert.Equal(t, []string{"171477", "173627"}, ids(merged.Results))
	assert.Equal(t, food.SourceLocal, merged.Results[0].Source)
	assert.Equal(t, food.SourceSession, merged.Results[1].Source)

	f.recorder.mu.Lock()
	defer f.recorder.mu.Unlock()
	require.Len(t, f.recorder.selections, 1)
	ev := f.recorder.selections[0]
	assert.Equal(t, "chicken", ev.Query)
	assert.Equal(t, breast.ID, ev.CandidateID)
	assert.Equal(t, "Chicken Breast (roasted)", ev.CandidateName)
	assert.Equal(t, 2, ev.RankPosition)
	assert.Equal(t, "alice", ev.UserID)
}

func TestSearch_DegradedRemote(t *testing.T) {
	failing := provider.Func(func(context.Context, string, int) ([]food.RawRecord, error) {
		return nil, errors.New("timeout")
	})
	m, reg := metrics.NewRegistered()
	f := newFixture(t, failing, WithMetrics(m))
	ctx := context.Background()
	s := f.engine.NewSession("")

	a := food.Candidate{ID: "a", RawName: "Chicken, breast", DisplayName: "Chicken Breast"}
	b := food.Candidate{ID: "b", RawName: "Chicken, thigh", DisplayName: "Chicken Thigh"}
	s.Select(ctx, a, "chicken", 1)
	f.clock.Advance(time.Second)
	s.Select(ctx, b, "chicken", 1)
	s.Select(ctx, a, "chicken", 1)

	resp := s.Search(ctx, "chicken")
	assert.Equal(t, TierNone, resp.Tier)
	assert.Empty(t, resp.Remote)
	assert.Equal(t, ids(resp.Local), ids(resp.Results))
	assert.Equal(t, []string{"a", "b"}, ids(resp.Results))

	// A failed fetch is not cached.
	_, ok := s.results.Get(ctx, "chicken")
	assert.False(t, ok)

	var buf bytes.Buffer
	require.NoError(t, metrics.Dump(&buf, reg))
	out := buf.String()
	assert.Contains(t, out, metrics.MetricRemoteErrorsTotal+" 1\n")
	assert.Contains(t, out, metrics.MetricSelectionsTotal+" 3\n")
	assert.Contains(t, out, metrics.MetricSearchesTotal+`{tier="none"} 1`)
	assert.Contains(t, out, metrics.MetricSessionCacheTotal+`{result="miss"} 1`)
}

func TestSearch_NilProvider(t *testing.T) {
	clk := &clock{now: time.Now()}
	kv := storage.NewMemoryKV()
	e := New(nil, kv, kv, DefaultConfig(), WithLogger(logger.Discard()), WithClock(clk.Now))

	resp := e.NewSession("").Search(context.Background(), "rice")
	assert.Equal(t, TierNone, resp.Tier)
	assert.Empty(t, resp.Results)
}

func TestSearch_EmptyQuery(t *testing.T) {
	f := newFixture(t, nil)
	resp := f.engine.NewSession("").Search(context.Background(), "   ")
	assert.Empty(t, resp.Results)
	assert.Equal(t, TierNone, resp.Tier)
	assert.Equal(t, int32(0), atomic.LoadInt32(f.calls))
}

func TestSearch_RecordsAnalytics(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	s := f.engine.NewSession("")

	resp := s.Search(ctx, "rice")

	f.recorder.mu.Lock()
	defer f.recorder.mu.Unlock()
	require.Len(t, f.recorder.searches, 1)
	rec := f.recorder.searches[0]
	assert.Equal(t, resp.SearchID, rec.SearchID)
	assert.Equal(t, storage.HashQuery("rice"), rec.QueryHash)
	assert.Equal(t, 1, rec.ResultsCount)
	assert.Equal(t, 0, rec.LocalCount)
	assert.Equal(t, 1, rec.RemoteCount)
	assert.Equal(t, TierRemote, rec.Tier)
}

func TestSearch_ConcurrentFetchesCollapse(t *testing.T) {
	release := make(chan struct{})
	var calls int32
	slow := provider.Func(func(context.Context, string, int) ([]food.RawRecord, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return catalog[3:], nil
	})
	f := newFixture(t, slow)
	ctx := context.Background()

	const n = 5
	var wg sync.WaitGroup
	results := make([]Response, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = f.engine.NewSession("").Search(ctx, "rice")
		}(i)
	}

	// Let every goroutine join the in-flight call before releasing it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	for _, r := range results {
		require.Len(t, r.Results, 1)
		assert.Equal(t, "168878", r.Results[0].ID)
	}
}

func TestSearch_CancelledLookupIsAbandoned(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	blocked := provider.Func(func(context.Context, string, int) ([]food.RawRecord, error) {
		<-release
		return catalog, nil
	})
	f := newFixture(t, blocked)
	s := f.engine.NewSession("")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	resp := s.Search(ctx, "chicken")
	assert.Equal(t, TierNone, resp.Tier)
	assert.Empty(t, resp.Results)

	_, ok := s.results.Get(context.Background(), "chicken")
	assert.False(t, ok, "an abandoned lookup writes nothing")
}

func TestFind(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	s := f.engine.NewSession("")

	c, pos, ok := s.Find(ctx, "chicken", "171477")
	require.True(t, ok)
	assert.Equal(t, 2, pos)
	assert.Equal(t, "Chicken Breast (roasted)", c.DisplayName)

	_, _, ok = s.Find(ctx, "chicken", "nope")
	assert.False(t, ok)
}

func TestHistoryAndClose(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	s := f.engine.NewSession("bob")

	resp := s.Search(ctx, "rice")
	require.Len(t, resp.Results, 1)
	s.Select(ctx, resp.Results[0], "rice", 1)

	hist := s.History(ctx)
	require.Len(t, hist, 1)
	assert.Equal(t, "White Rice (cooked)", hist[0].Candidate.DisplayName)

	s.Close(ctx)
	assert.Equal(t, TierRemote, s.Search(ctx, "rice").Tier, "closing drops the session cache")
	assert.Len(t, s.History(ctx), 1, "closing keeps personal history")

	s.ClearHistory(ctx)
	assert.Empty(t, s.History(ctx))
}

func TestEndToEndWithExpansion(t *testing.T) {
	kv := storage.NewMemoryKV()
	p := provider.NewExpanding(provider.Builtin(), func(q string) []string {
		return []string{q, q + " breast", q + " thigh"}
	}, provider.WithLogger(logger.Discard()))
	e := New(p, kv, kv, DefaultConfig(), WithLogger(logger.Discard()))

	resp := e.NewSession("").Search(context.Background(), "chicken")
	require.NotEmpty(t, resp.Results)

	names := map[string]bool{}
	for _, c := range resp.Results {
		names[c.DisplayName] = true
		assert.NotContains(t, c.RawName, "patty")
	}
	assert.True(t, names["Chicken Breast (roasted)"], "got %v", names)
}
