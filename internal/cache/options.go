/*
Package cache implements the two result caches in front of the remote catalog.

PersonalCache remembers the foods a user has confirmed, with recency and
frequency, and answers instant local searches from them. SessionCache keeps
remote result lists per query for a few minutes within one search session.

Both sit on a storage.KV and both treat storage as an optimization: read
failures look like misses, write failures are logged and dropped. Expiry is
lazy and evaluated against the cache's own clock when entries are read.
*/
package cache

import (
	"net/url"
	"time"

	"github.com/charmbracelet/log"

	"github.com/khanglvm/food-search/internal/logger"
)

type options struct {
	log *log.Logger
	now func() time.Time
}

// Option configures a cache.
type Option func(*options)

// WithLogger sets the logger used for swallowed storage failures.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func buildOptions(prefix string, opts []Option) options {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	o.log = logger.OrDefault(o.log, prefix)
	if o.now == nil {
		o.now = time.Now
	}
	return o
}

// keyPrefix namespaces one user's or session's keys under kind. The scope
// is path-escaped so it never contains the '/' that ends it; no scope's
// prefix is then a prefix of another's, and ids after it stay opaque.
func keyPrefix(kind, scope string) string {
	return kind + "/" + url.PathEscape(scope) + "/"
}
