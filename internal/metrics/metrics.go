// Package metrics provides Prometheus metrics for the search engine.
package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Metric names.
const (
	MetricSearchesTotal        = "food_search_searches_total"
	MetricSessionCacheTotal    = "food_search_session_cache_total"
	MetricRemoteErrorsTotal    = "food_search_remote_errors_total"
	MetricRemoteDuration       = "food_search_remote_duration_seconds"
	MetricSelectionsTotal      = "food_search_selections_total"
	MetricFeedbackDroppedTotal = "food_search_feedback_dropped_total"
	MetricFeedbackErrorsTotal  = "food_search_feedback_errors_total"
)

// Session cache lookup results.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Metrics holds the engine collectors. A nil *Metrics is valid and records
// nothing, so components can take one optionally.
type Metrics struct {
	searches       *prometheus.CounterVec
	sessionCache   *prometheus.CounterVec
	remoteErrors   prometheus.Counter
	remoteDuration prometheus.Histogram
	selections     prometheus.Counter
	dropped        prometheus.Counter
	feedbackErrors prometheus.Counter
}

// New creates the collectors. They are not registered; see Register.
func New() *Metrics {
	return &Metrics{
		searches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricSearchesTotal,
				Help: "Completed searches by the tier that supplied non-local results",
			},
			[]string{"tier"},
		),
		sessionCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricSessionCacheTotal,
				Help: "Session result cache lookups by result",
			},
			[]string{"result"},
		),
		remoteErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricRemoteErrorsTotal,
			Help: "Remote provider calls that failed and were treated as empty",
		}),
		remoteDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    MetricRemoteDuration,
			Help:    "Remote provider latency in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}),
		selections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricSelectionsTotal,
			Help: "Confirmed selections",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricFeedbackDroppedTotal,
			Help: "Feedback events dropped because the queue was full",
		}),
		feedbackErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricFeedbackErrorsTotal,
			Help: "Feedback events the sink failed to persist",
		}),
	}
}

// Collectors returns every collector.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.searches,
		m.sessionCache,
		m.remoteErrors,
		m.remoteDuration,
		m.selections,
		m.dropped,
		m.feedbackErrors,
	}
}

// Register registers all collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistered creates metrics on a fresh registry.
func NewRegistered() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	m := New()
	// A fresh registry cannot hold conflicting collectors.
	if err := m.Register(reg); err != nil {
		panic(err)
	}
	return m, reg
}

// IncSearch counts a completed search under the tier that answered it.
func (m *Metrics) IncSearch(tier string) {
	if m != nil {
		m.searches.WithLabelValues(tier).Inc()
	}
}

// IncSessionCache counts a session cache lookup as CacheHit or CacheMiss.
func (m *Metrics) IncSessionCache(result string) {
	if m != nil {
		m.sessionCache.WithLabelValues(result).Inc()
	}
}

// IncRemoteError counts a failed provider call.
func (m *Metrics) IncRemoteError() {
	if m != nil {
		m.remoteErrors.Inc()
	}
}

// ObserveRemote records one provider call's latency.
func (m *Metrics) ObserveRemote(seconds float64) {
	if m != nil {
		m.remoteDuration.Observe(seconds)
	}
}

// IncSelection counts a confirmed pick.
func (m *Metrics) IncSelection() {
	if m != nil {
		m.selections.Inc()
	}
}

// IncFeedbackDropped counts an event lost to a full feedback queue.
func (m *Metrics) IncFeedbackDropped() {
	if m != nil {
		m.dropped.Inc()
	}
}

// IncFeedbackError counts an event the sink failed to write.
func (m *Metrics) IncFeedbackError() {
	if m != nil {
		m.feedbackErrors.Inc()
	}
}

// Dump writes everything g gathers in the Prometheus text exposition
// format, the same bytes a /metrics scrape would return.
func Dump(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encoding %s: %w", mf.GetName(), err)
		}
	}
	if c, ok := enc.(expfmt.Closer); ok {
		return c.Close()
	}
	return nil
}
