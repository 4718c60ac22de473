package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/khanglvm/food-search/internal/cache"
	"github.com/khanglvm/food-search/internal/food"
	"github.com/khanglvm/food-search/internal/metrics"
	"github.com/khanglvm/food-search/internal/search"
	"github.com/khanglvm/food-search/internal/storage"
)

// Response is the outcome of one search.
type Response struct {
	SearchID string `json:"search_id"`
	Query    string `json:"query"`

	// Local are the instant predictions from the personal cache.
	Local []food.Candidate `json:"local"`

	// Remote is the session or remote list, before merging.
	Remote []food.Candidate `json:"remote"`

	// Results is the merged list shown to the user.
	Results []food.Candidate `json:"results"`

	Tier     string        `json:"tier"`
	Duration time.Duration `json:"duration"`
}

// Session is one user's search session. The personal cache belongs to the
// user and outlives the session; the session cache is discarded by Close.
type Session struct {
	ID     string
	UserID string

	engine   *Engine
	personal *cache.PersonalCache
	results  *cache.SessionCache
}

// NewSession starts a session for userID. An empty userID is the single
// local user.
func (e *Engine) NewSession(userID string) *Session {
	return e.NewSessionWithID(uuid.NewString(), userID)
}

// NewSessionWithID resumes a session whose cache lives in a shared store.
func (e *Engine) NewSessionWithID(id, userID string) *Session {
	opts := []cache.Option{cache.WithLogger(e.log), cache.WithClock(e.now)}
	return &Session{
		ID:       id,
		UserID:   userID,
		engine:   e,
		personal: cache.NewPersonalCache(e.usageKV, userID, e.cfg.Usage, opts...),
		results:  cache.NewSessionCache(e.sessionKV, id, e.cfg.Session, opts...),
	}
}

// Instant returns the personal-cache predictions for query. It never
// touches the network.
func (s *Session) Instant(ctx context.Context, query string) []food.Candidate {
	return s.personal.SearchLocal(ctx, query)
}

// Search runs the full flow for query. A cancelled ctx abandons the remote
// lookup; the response then carries local results only and nothing is
// written to the session cache.
func (s *Session) Search(ctx context.Context, query string) Response {
	e := s.engine
	start := e.now()
	q := food.NormalizeQuery(query)

	resp := Response{
		SearchID: uuid.NewString(),
		Query:    q,
		Local:    s.Instant(ctx, q),
		Remote:   []food.Candidate{},
		Tier:     TierNone,
	}

	if q != "" {
		resp.Remote, resp.Tier = s.remote(ctx, q)
	}

	resp.Results = search.Merge(resp.Local, resp.Remote, e.cfg.Merge)
	resp.Duration = e.now().Sub(start)

	local, remote := 0, 0
	for _, c := range resp.Results {
		if c.Source == food.SourceLocal {
			local++
		} else {
			remote++
		}
	}
	e.recorder.RecordSearch(storage.SearchRecord{
		SearchID:     resp.SearchID,
		QueryHash:    storage.HashQuery(q),
		Timestamp:    e.now(),
		ResultsCount: len(resp.Results),
		LocalCount:   local,
		RemoteCount:  remote,
		Tier:         resp.Tier,
		Duration:     resp.Duration,
	})
	e.metrics.IncSearch(resp.Tier)
	return resp
}

func (s *Session) remote(ctx context.Context, q string) ([]food.Candidate, string) {
	e := s.engine

	if cached, ok := s.results.Get(ctx, q); ok {
		e.metrics.IncSessionCache(metrics.CacheHit)
		return cached, TierSession
	}
	e.metrics.IncSessionCache(metrics.CacheMiss)

	fetched, err := e.fetch(ctx, q)
	if err != nil {
		if ctx.Err() != nil {
			e.log.Debug("remote lookup abandoned", "query", q, "err", err)
			return []food.Candidate{}, TierNone
		}
		e.metrics.IncRemoteError()
		e.log.Warn("remote lookup failed, showing local results only", "query", q, "err", err)
		return []food.Candidate{}, TierNone
	}

	s.results.Put(ctx, q, fetched)
	return food.Tag(fetched, food.SourceRemote), TierRemote
}

// Select records a confirmed selection of c for query at the 1-based
// position it was shown in. It returns immediately.
func (s *Session) Select(ctx context.Context, c food.Candidate, query string, position int) {
	e := s.engine
	s.personal.RecordSelection(ctx, c, query)
	e.recorder.Record(food.SelectionEvent{
		Query:         food.NormalizeQuery(query),
		CandidateID:   c.ID,
		CandidateName: c.DisplayName,
		RankPosition:  position,
		UserID:        s.UserID,
		Timestamp:     e.now(),
	})
	e.metrics.IncSelection()
}

// Find searches query and returns the candidate with id and its 1-based
// position in the merged results.
func (s *Session) Find(ctx context.Context, query, id string) (food.Candidate, int, bool) {
	resp := s.Search(ctx, query)
	for i, c := range resp.Results {
		if c.ID == id {
			return c, i + 1, true
		}
	}
	return food.Candidate{}, 0, false
}

// History returns the user's live usage records, most recent first.
func (s *Session) History(ctx context.Context) []food.UsageRecord {
	return s.personal.Records(ctx)
}

// ClearHistory removes the user's usage records.
func (s *Session) ClearHistory(ctx context.Context) {
	s.personal.Clear(ctx)
}

// Close discards the session cache.
func (s *Session) Close(ctx context.Context) {
	s.results.Discard(ctx)
}
