// Package samples records every timing measurement as a structured row so
// statistics can be computed without re-parsing result artifacts.
package samples

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/trigram"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/metrics"
)

const (
	KindSelect = "select"
	KindInsert = "insert"
)

const (
	MetricExactFrequency = "exact_frequency"
	MetricAllValues      = "all_values"
	MetricInsert         = "insert"
)

// Sample is one timing measurement.
type Sample struct {
	Kind       string      `json:"kind"`
	Metric     string      `json:"metric"`
	Seconds    float64     `json:"seconds"`
	Key        trigram.Key `json:"key"`
	RecordedAt time.Time   `json:"recorded_at"`
}

// Sink stores samples.
type Sink interface {
	Record(ctx context.Context, samples ...Sample) error
}

// FromQuery turns a query outcome into its two samples.
func FromQuery(o trigram.QueryOutcome, at time.Time) []Sample {
	return []Sample{
		{Kind: KindSelect, Metric: MetricExactFrequency, Seconds: o.ExactLatency.Seconds(), Key: o.Key, RecordedAt: at},
		{Kind: KindSelect, Metric: MetricAllValues, Seconds: o.ScanLatency.Seconds(), Key: o.Key, RecordedAt: at},
	}
}

// FromInsert turns an insert outcome into its sample.
func FromInsert(o trigram.InsertOutcome, at time.Time) []Sample {
	return []Sample{
		{Kind: KindInsert, Metric: MetricInsert, Seconds: o.Latency.Seconds(), Key: o.Key, RecordedAt: at},
	}
}

// Recorder forwards samples to a sink and swallows its failures: a lost
// sample never fails the operation that produced it.
type Recorder struct {
	sink    Sink
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewRecorder wraps sink. A nil sink makes Record a no-op.
func NewRecorder(sink Sink, m *metrics.Metrics) *Recorder {
	return &Recorder{
		sink:    sink,
		metrics: m,
		logger:  slog.Default().With("component", "sample-recorder"),
	}
}

func (r *Recorder) Record(ctx context.Context, samples ...Sample) {
	if r == nil || r.sink == nil || len(samples) == 0 {
		return
	}
	if err := r.sink.Record(ctx, samples...); err != nil {
		r.logger.Warn("failed to record timing samples",
			"count", len(samples),
			"error", err,
		)
		return
	}
	for _, s := range samples {
		r.metrics.SampleRecorded(s.Metric)
	}
}
