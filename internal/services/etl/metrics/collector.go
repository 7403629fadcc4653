// Package metrics accumulates batch outcomes for logs, summaries and Prometheus
package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"stopsearch/internal/platform/logger"
	"stopsearch/internal/services/etl/domain"
)

// DefaultFailureCap bounds the retained failure list
const DefaultFailureCap = 1000

// Failure describes one failed batch
type Failure struct {
	BatchID string    `json:"batch_id"`
	Force   string    `json:"force"`
	Month   string    `json:"month"`
	Message string    `json:"error"`
	At      time.Time `json:"timestamp"`
}

// Snapshot is a point in time copy of the counters
type Snapshot struct {
	RecordsIngested     int       `json:"total_records_ingested"`
	RecordsDeduplicated int       `json:"total_records_deduplicated"`
	BatchesProcessed    int       `json:"total_batches_processed"`
	BatchesFailed       int       `json:"total_batches_failed"`
	Failures            []Failure `json:"failed_batches"`
	FailuresEvicted     int       `json:"failed_batches_evicted"`
}

// SuccessRate is processed / (processed + failed), 0 when nothing ran
func (s Snapshot) SuccessRate() float64 {
	total := s.BatchesProcessed + s.BatchesFailed
	if total == 0 {
		return 0
	}
	return float64(s.BatchesProcessed) / float64(total)
}

// Collector is safe for concurrent use and implements domain.Observer
type Collector struct {
	mu       sync.Mutex
	snap     Snapshot
	ring     []Failure
	head     int // next write slot once ring is full
	capacity int

	prom *Registry
	log  zerolog.Logger
	now  func() time.Time
}

var _ domain.Observer = (*Collector)(nil)

// Option tunes a Collector
type Option func(*Collector)

// WithFailureCap sets the retained failure count; n <= 0 keeps the default
func WithFailureCap(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.capacity = n
		}
	}
}

// WithRegistry mirrors every event into Prometheus series
func WithRegistry(r *Registry) Option { return func(c *Collector) { c.prom = r } }

// WithLogger replaces the component logger
func WithLogger(l logger.Logger) Option { return func(c *Collector) { c.log = l } }

// New returns an empty Collector
func New(opts ...Option) *Collector {
	c := &Collector{
		capacity: DefaultFailureCap,
		log:      *logger.Named("metrics"),
		now:      time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// RecordSuccess adds one successful batch
func (c *Collector) RecordSuccess(force, month string, inserted, deduplicated int) {
	c.mu.Lock()
	c.snap.RecordsIngested += inserted
	c.snap.RecordsDeduplicated += deduplicated
	c.snap.BatchesProcessed++
	c.mu.Unlock()

	if c.prom != nil {
		c.prom.Ingested.WithLabelValues(force).Add(float64(inserted))
		c.prom.Deduplicated.WithLabelValues(force).Add(float64(deduplicated))
		c.prom.Batches.WithLabelValues(force, "success").Inc()
	}
	c.log.Info().
		Str("force", force).
		Str("month", month).
		Int("records_ingested", inserted).
		Int("records_deduplicated", deduplicated).
		Msg("batch completed successfully")
}

// RecordFailure adds one failed batch; the oldest retained failure is evicted at capacity
func (c *Collector) RecordFailure(force, month, msg string) {
	f := Failure{BatchID: force + "-" + month, Force: force, Month: month, Message: msg, At: c.now().UTC()}

	c.mu.Lock()
	c.snap.BatchesFailed++
	if len(c.ring) < c.capacity {
		c.ring = append(c.ring, f)
	} else {
		c.ring[c.head] = f
		c.head = (c.head + 1) % c.capacity
		c.snap.FailuresEvicted++
	}
	c.mu.Unlock()

	if c.prom != nil {
		c.prom.Batches.WithLabelValues(force, "failure").Inc()
	}
	c.log.Error().
		Str("batch_id", f.BatchID).
		Str("force", force).
		Str("month", month).
		Str("error", msg).
		Msg("batch processing failed")
}

// OnBatchSuccess implements domain.Observer
func (c *Collector) OnBatchSuccess(_ context.Context, o domain.BatchOutcome) {
	if c.prom != nil {
		if n := len(o.Dropped); n > 0 {
			c.prom.Dropped.WithLabelValues(o.Force).Add(float64(n))
		}
		c.prom.BatchSeconds.WithLabelValues(o.Force).Observe(o.Elapsed.Seconds())
	}
	c.RecordSuccess(o.Force, o.Month, o.Inserted, o.Deduplicated)
}

// OnBatchFailure implements domain.Observer
func (c *Collector) OnBatchFailure(_ context.Context, force, month string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.RecordFailure(force, month, msg)
}

// Snapshot returns a copy; failures are oldest first
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.snap
	s.Failures = make([]Failure, 0, len(c.ring))
	s.Failures = append(s.Failures, c.ring[c.head:]...)
	s.Failures = append(s.Failures, c.ring[:c.head]...)
	return s
}

// SuccessRate reports the current success ratio
func (c *Collector) SuccessRate() float64 { return c.Snapshot().SuccessRate() }

// Reset zeroes the in-memory counters; Prometheus series are monotonic and untouched
func (c *Collector) Reset() {
	c.mu.Lock()
	c.snap = Snapshot{}
	c.ring = nil
	c.head = 0
	c.mu.Unlock()
}

// LogSummary writes one summary event
func (c *Collector) LogSummary() {
	s := c.Snapshot()
	c.log.Info().
		Int("total_records_ingested", s.RecordsIngested).
		Int("total_records_deduplicated", s.RecordsDeduplicated).
		Int("total_batches_processed", s.BatchesProcessed).
		Int("total_batches_failed", s.BatchesFailed).
		Float64("success_rate", s.SuccessRate()).
		Msg("etl operation summary")
}
