// Package metrics defines the Prometheus metric collectors used by the
// trigram store and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the store. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	OperationDuration *prometheus.HistogramVec
	OperationErrors   *prometheus.CounterVec
	ProjectionWrites  *prometheus.CounterVec
	PartialWrites     prometheus.Counter
	ArtifactsWritten  *prometheus.CounterVec
	SamplesRecorded   *prometheus.CounterVec
	BulkItems         *prometheus.CounterVec
}

// New creates all collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "trigram_store_operation_duration_seconds",
				Help:    "Projection store operation latency in seconds by operation.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"op"},
		),
		OperationErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trigram_store_operation_errors_total",
				Help: "Projection store operations that failed, by operation.",
			},
			[]string{"op"},
		),
		ProjectionWrites: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trigram_projection_writes_total",
				Help: "Point writes per projection by status (ok, error, skipped).",
			},
			[]string{"projection", "status"},
		),
		PartialWrites: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "trigram_partial_writes_total",
				Help: "Increments that stopped after writing some but not all projections.",
			},
		),
		ArtifactsWritten: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trigram_artifacts_written_total",
				Help: "Result and report artifacts written by kind and status.",
			},
			[]string{"kind", "status"},
		),
		SamplesRecorded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trigram_timing_samples_total",
				Help: "Structured timing samples handed to the sample sink by metric.",
			},
			[]string{"metric"},
		),
		BulkItems: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trigram_bulk_items_total",
				Help: "Bulk runner items processed by status.",
			},
			[]string{"status"},
		),
	}

	reg.MustRegister(
		m.OperationDuration,
		m.OperationErrors,
		m.ProjectionWrites,
		m.PartialWrites,
		m.ArtifactsWritten,
		m.SamplesRecorded,
		m.BulkItems,
	)

	return m
}

// ObserveOperation records the latency of op, counting it as an error when
// err is non-nil.
func (m *Metrics) ObserveOperation(op string, seconds float64, err error) {
	if m == nil {
		return
	}
	m.OperationDuration.WithLabelValues(op).Observe(seconds)
	if err != nil {
		m.OperationErrors.WithLabelValues(op).Inc()
	}
}

func (m *Metrics) ProjectionWrite(projection, status string) {
	if m == nil {
		return
	}
	m.ProjectionWrites.WithLabelValues(projection, status).Inc()
}

func (m *Metrics) PartialWrite() {
	if m == nil {
		return
	}
	m.PartialWrites.Inc()
}

func (m *Metrics) ArtifactWritten(kind string, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ArtifactsWritten.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) SampleRecorded(metric string) {
	if m == nil {
		return
	}
	m.SamplesRecorded.WithLabelValues(metric).Inc()
}

func (m *Metrics) BulkItem(status string) {
	if m == nil {
		return
	}
	m.BulkItems.WithLabelValues(status).Inc()
}

// Handler returns the Prometheus scrape HTTP handler for the given gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
