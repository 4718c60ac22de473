package config

import (
	"errors"
	"strings"

	"github.com/charmbracelet/log"
)

// Validate checks every section and returns all problems joined.
func (c *Config) Validate() error {
	var errs []error
	positive := func(field string, v int) {
		if v <= 0 {
			errs = append(errs, invalid(field, "must be positive, got %d", v))
		}
	}

	positive("usage.capacity", c.Usage.Capacity)
	positive("usage.query_history", c.Usage.QueryHistory)
	positive("usage.local_limit", c.Usage.LocalLimit)
	if c.Usage.Retention <= 0 {
		errs = append(errs, invalid("usage.retention", "must be positive, got %s", c.Usage.Retention))
	}
	if c.Usage.MinQueryLength < 0 {
		errs = append(errs, invalid("usage.min_query_length", "must not be negative, got %d", c.Usage.MinQueryLength))
	}
	if c.Usage.UsageWeight < 0 {
		errs = append(errs, invalid("usage.usage_weight", "must not be negative, got %g", c.Usage.UsageWeight))
	}
	if c.Usage.RecentBonus < 0 {
		errs = append(errs, invalid("usage.recent_bonus", "must not be negative, got %g", c.Usage.RecentBonus))
	}

	positive("session.capacity", c.Session.Capacity)
	if c.Session.TTL <= 0 {
		errs = append(errs, invalid("session.ttl", "must be positive, got %s", c.Session.TTL))
	}
	switch c.Session.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Storage.RedisURL == "" {
			errs = append(errs, invalid("storage.redis_url", "is required when session.backend is %q", BackendRedis))
		}
	default:
		errs = append(errs, invalid("session.backend", "must be %q or %q, got %q", BackendMemory, BackendRedis, c.Session.Backend))
	}

	positive("merge.max_results", c.Merge.MaxResults)

	switch c.Provider.Kind {
	case ProviderUSDA:
		if !strings.HasPrefix(c.Provider.BaseURL, "http://") && !strings.HasPrefix(c.Provider.BaseURL, "https://") {
			errs = append(errs, invalid("provider.base_url", "must be an http(s) URL, got %q", c.Provider.BaseURL))
		}
	case ProviderStatic:
	default:
		errs = append(errs, invalid("provider.kind", "must be %q or %q, got %q", ProviderUSDA, ProviderStatic, c.Provider.Kind))
	}
	positive("provider.page_size", c.Provider.PageSize)
	if c.Provider.MaxRetries < 0 {
		errs = append(errs, invalid("provider.max_retries", "must not be negative, got %d", c.Provider.MaxRetries))
	}
	if c.Provider.RatePerSecond < 0 {
		errs = append(errs, invalid("provider.rate_per_second", "must not be negative, got %g", c.Provider.RatePerSecond))
	}

	positive("feedback.queue_size", c.Feedback.QueueSize)
	positive("feedback.batch_size", c.Feedback.BatchSize)
	if c.Feedback.FlushInterval <= 0 {
		errs = append(errs, invalid("feedback.flush_interval", "must be positive, got %s", c.Feedback.FlushInterval))
	}

	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, invalid("log.level", "%q is not a log level", c.Log.Level))
	}

	return errors.Join(errs...)
}
