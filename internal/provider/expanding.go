package provider

import (
	"context"
	"errors"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/khanglvm/food-search/internal/food"
	"github.com/khanglvm/food-search/internal/logger"
)

// maxFanOut bounds concurrent sub-queries of one expanded search.
const maxFanOut = 4

// Expanding runs a query and its expansions against an inner provider and
// concatenates the results in expansion order, keeping the first record for
// every id. It fails only when every sub-query fails.
type Expanding struct {
	inner  Provider
	expand func(string) []string
	log    *log.Logger
}

// NewExpanding wraps inner. expand must return the original query first.
func NewExpanding(inner Provider, expand func(string) []string, opts ...Option) *Expanding {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	return &Expanding{inner: inner, expand: expand, log: logger.OrDefault(o.log, "provider")}
}

// Search implements Provider. limit applies to each sub-query.
func (e *Expanding) Search(ctx context.Context, query string, limit int) ([]food.RawRecord, error) {
	queries := e.expand(query)
	if len(queries) <= 1 {
		return e.inner.Search(ctx, query, limit)
	}

	results := make([][]food.RawRecord, len(queries))
	errs := make([]error, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxFanOut)
	for i, q := range queries {
		g.Go(func() error {
			results[i], errs[i] = e.inner.Search(gctx, q, limit)
			if errs[i] != nil {
				e.log.Debug("sub-query failed", "query", q, "err", errs[i])
			}
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, err := range errs {
		if err != nil {
			failed++
		}
	}
	if failed == len(queries) {
		return nil, errors.Join(errs...)
	}

	seen := make(map[string]bool)
	var out []food.RawRecord
	for _, rs := range results {
		for _, r := range rs {
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			out = append(out, r)
		}
	}
	return out, nil
}
