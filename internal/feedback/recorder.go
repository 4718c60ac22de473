/*
Package feedback implements the selection feedback recorder.

Record and RecordSearch never block the caller: events go onto a bounded
queue and a background goroutine writes them to the sink in batches. A full
queue drops the event. Write failures are logged and dropped; there is no
delivery guarantee and no retry.
*/
package feedback

import (
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/khanglvm/food-search/internal/food"
	"github.com/khanglvm/food-search/internal/logger"
	"github.com/khanglvm/food-search/internal/metrics"
	"github.com/khanglvm/food-search/internal/storage"
)

// Sink persists feedback. storage.SQLiteStorage implements it.
type Sink interface {
	RecordSelection(event food.SelectionEvent) error
	RecordSearch(search storage.SearchRecord) error
}

// Config sizes the queue and batching.
type Config struct {
	// QueueSize is the buffer size of the event queue. When it is full
	// events are dropped.
	QueueSize int

	// BatchSize is the number of queued events that triggers a flush.
	BatchSize int

	// FlushInterval is how often pending events are flushed.
	FlushInterval time.Duration
}

// DefaultConfig returns the standard sizes.
func DefaultConfig() Config {
	return Config{
		QueueSize:     1000,
		BatchSize:     10,
		FlushInterval: 50 * time.Millisecond,
	}
}

// item is one queued write. Exactly one field is set.
type item struct {
	selection *food.SelectionEvent
	search    *storage.SearchRecord
}

// Recorder writes feedback in the background.
type Recorder struct {
	sink     Sink
	cfg      Config
	queue    chan item
	stopChan chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	enabled  bool
	mu       sync.RWMutex
	log      *log.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithLogger sets the recorder logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Recorder) { r.log = l }
}

// WithMetrics counts dropped and failed events.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Recorder) { r.metrics = m }
}

// WithClock overrides the timestamp source for events without one.
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) { r.now = now }
}

// New starts a recorder writing to sink. A nil sink yields a disabled
// recorder whose methods are no-ops.
func New(sink Sink, cfg Config, opts ...Option) *Recorder {
	def := DefaultConfig()
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}

	r := &Recorder{
		sink:     sink,
		cfg:      cfg,
		queue:    make(chan item, cfg.QueueSize),
		stopChan: make(chan struct{}),
		enabled:  sink != nil,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = logger.OrDefault(r.log, "feedback")

	r.wg.Add(1)
	go r.process()
	return r
}

// Record queues a selection event. A missing ID or Timestamp is filled in.
func (r *Recorder) Record(event food.SelectionEvent) {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = r.now()
	}
	r.enqueue(item{selection: &event}, "query", event.Query, "candidate", event.CandidateID)
}

// RecordSearch queues a search analytics record.
func (r *Recorder) RecordSearch(search storage.SearchRecord) {
	if search.SearchID == "" {
		search.SearchID = uuid.NewString()
	}
	if search.Timestamp.IsZero() {
		search.Timestamp = r.now()
	}
	r.enqueue(item{search: &search}, "search", search.SearchID)
}

func (r *Recorder) enqueue(it item, keyvals ...any) {
	if !r.IsEnabled() {
		return
	}
	select {
	case <-r.stopChan:
		return
	default:
	}

	select {
	case r.queue <- it:
	default:
		r.metrics.IncFeedbackDropped()
		r.log.Warn("feedback queue full, dropping event", keyvals...)
	}
}

// Stop flushes queued events and stops the background writer. It is safe to
// call more than once.
func (r *Recorder) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopChan)
		r.wg.Wait()
	})
}

// Disable makes Record a no-op.
func (r *Recorder) Disable() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = false
}

// Enable re-enables recording if a sink is present.
func (r *Recorder) Enable() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enabled = r.sink != nil
}

// IsEnabled reports whether events are accepted.
func (r *Recorder) IsEnabled() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.enabled
}

// QueueLen returns the number of events waiting to be written.
func (r *Recorder) QueueLen() int {
	return len(r.queue)
}

func (r *Recorder) process() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.cfg.FlushInterval)
	defer ticker.Stop()

	batch := make([]item, 0, r.cfg.BatchSize)
	flush := func() {
		r.flush(batch)
		batch = make([]item, 0, r.cfg.BatchSize)
	}

	for {
		select {
		case it := <-r.queue:
			batch = append(batch, it)
			if len(batch) >= r.cfg.BatchSize {
				flush()
			}

		case <-ticker.C:
			if len(batch) > 0 {
				flush()
			}

		case <-r.stopChan:
			for {
				select {
				case it := <-r.queue:
					batch = append(batch, it)
					if len(batch) >= r.cfg.BatchSize {
						flush()
					}
				default:
					r.flush(batch)
					return
				}
			}
		}
	}
}

func (r *Recorder) flush(batch []item) {
	for _, it := range batch {
		var err error
		switch {
		case it.selection != nil:
			err = r.sink.RecordSelection(*it.selection)
		case it.search != nil:
			err = r.sink.RecordSearch(*it.search)
		}
		if err != nil {
			r.metrics.IncFeedbackError()
			r.log.Warn("failed to record feedback", "err", err)
		}
	}
}
