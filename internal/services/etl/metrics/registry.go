package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds the pipeline's Prometheus series on a private registry
type Registry struct {
	reg          *prometheus.Registry
	Ingested     *prometheus.CounterVec
	Deduplicated *prometheus.CounterVec
	Dropped      *prometheus.CounterVec
	Batches      *prometheus.CounterVec
	BatchSeconds *prometheus.HistogramVec
}

// NewRegistry builds and registers every series plus the Go runtime collectors
func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	ingested := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stopsearch",
		Name:      "records_ingested_total",
		Help:      "Rows newly inserted",
	}, []string{"force"})
	dedup := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stopsearch",
		Name:      "records_deduplicated_total",
		Help:      "Mapped rows already present",
	}, []string{"force"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stopsearch",
		Name:      "records_dropped_total",
		Help:      "Upstream rows that failed mapping",
	}, []string{"force"})
	batches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "stopsearch",
		Name:      "batches_total",
		Help:      "Force+month batches by status",
	}, []string{"force", "status"})
	secs := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "stopsearch",
		Name:      "batch_duration_seconds",
		Help:      "Wall time of successful batches",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
	}, []string{"force"})

	r.MustRegister(ingested, dedup, dropped, batches, secs,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Registry{
		reg:          r,
		Ingested:     ingested,
		Deduplicated: dedup,
		Dropped:      dropped,
		Batches:      batches,
		BatchSeconds: secs,
	}
}

// Handler serves the registry in the exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{Registry: r.reg})
}

// Gatherer exposes the registry for tests and custom exporters
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }
