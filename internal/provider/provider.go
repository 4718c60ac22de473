/*
Package provider implements the remote catalog collaborator.

A Provider turns a query into raw catalog records in the provider's own
order. USDA talks to FoodData Central, Static serves a YAML catalog, and
Expanding fans generic queries out into cut-specific ones over any inner
provider. Callers treat every error as an empty result.
*/
package provider

import (
	"context"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/khanglvm/food-search/internal/food"
)

var (
	// ErrEmptyQuery is returned for blank queries.
	ErrEmptyQuery = errors.New("provider: empty query")

	// ErrStatus wraps non-success HTTP responses.
	ErrStatus = errors.New("provider: unexpected status")
)

// Provider looks up raw catalog records.
type Provider interface {
	// Search returns at most limit records for query. A non-positive limit
	// means the provider's default page size.
	Search(ctx context.Context, query string, limit int) ([]food.RawRecord, error)
}

// Func adapts a function to Provider.
type Func func(ctx context.Context, query string, limit int) ([]food.RawRecord, error)

// Search calls f.
func (f Func) Search(ctx context.Context, query string, limit int) ([]food.RawRecord, error) {
	return f(ctx, query, limit)
}

type options struct {
	log    *log.Logger
	client *http.Client
}

// Option configures a provider.
type Option func(*options)

// WithLogger sets the provider logger.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithHTTPClient replaces the HTTP client of network providers.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.client = c }
}
