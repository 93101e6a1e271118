// Package service runs single queries and inserts end to end: store access,
// latency measurement, artifact persistence and sample recording.
package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/samples"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/trigram"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// Store is the projection store surface the service uses.
type Store interface {
	LookupExact(ctx context.Context, key trigram.Key) (int64, bool, error)
	LookupCoOccurrences(ctx context.Context, key trigram.Key) (trigram.CoOccurrenceSet, error)
	IncrementWithToken(ctx context.Context, key trigram.Key, token string) (trigram.InsertOutcome, error)
}

// ArtifactWriter persists rendered outcomes.
type ArtifactWriter interface {
	WriteQuery(o trigram.QueryOutcome) (string, error)
	WriteInsert(o trigram.InsertOutcome) (string, error)
}

type Service struct {
	store   Store
	writer  ArtifactWriter
	samples *samples.Recorder
	group   singleflight.Group
	now     func() time.Time
	logger  *slog.Logger
}

// New creates a Service. rec may be nil.
func New(store Store, writer ArtifactWriter, rec *samples.Recorder) *Service {
	return &Service{
		store:   store,
		writer:  writer,
		samples: rec,
		now:     time.Now,
		logger:  slog.Default().With("component", "trigram-service"),
	}
}

type queryResult struct {
	outcome trigram.QueryOutcome
	path    string
}

// Query looks up key and its co-occurrences and writes the query artifact.
// It returns the artifact path, which is empty when the artifact could not be
// written; that failure is logged and does not fail the query. Concurrent
// queries for the same key share one execution.
func (s *Service) Query(ctx context.Context, key trigram.Key) (trigram.QueryOutcome, string, error) {
	v, err, shared := s.group.Do(key.String(), func() (any, error) {
		return s.query(ctx, key)
	})
	if err != nil {
		return trigram.QueryOutcome{}, "", err
	}
	if shared {
		logger.FromContext(ctx, s.logger).Debug("query result shared", "key", key.String())
	}
	res := v.(queryResult)
	return res.outcome, res.path, nil
}

func (s *Service) query(ctx context.Context, key trigram.Key) (queryResult, error) {
	start := s.now()
	freq, found, err := s.store.LookupExact(ctx, key)
	if err != nil {
		return queryResult{}, err
	}
	exactLatency := s.now().Sub(start)

	start = s.now()
	set, err := s.store.LookupCoOccurrences(ctx, key)
	if err != nil {
		return queryResult{}, err
	}
	scanLatency := s.now().Sub(start)

	outcome := trigram.QueryOutcome{
		CoOccurrenceSet: set,
		Key:             key,
		ExactFreq:       freq,
		Found:           found,
		ExactLatency:    exactLatency,
		ScanLatency:     scanLatency,
	}

	path, err := s.writer.WriteQuery(outcome)
	if err != nil {
		logger.FromContext(ctx, s.logger).Error("failed to write query artifact", "key", key.String(), "error", err)
		path = ""
	}
	s.samples.Record(ctx, samples.FromQuery(outcome, s.now())...)

	s.logger.Debug("query complete",
		"key", key.String(),
		"freq", freq,
		"found", found,
		"exact_ms", exactLatency.Milliseconds(),
		"scan_ms", scanLatency.Milliseconds(),
	)
	return queryResult{outcome: outcome, path: path}, nil
}

// Insert increments key, or creates it at 1, and writes the insert artifact.
// Artifact failures are logged only.
func (s *Service) Insert(ctx context.Context, key trigram.Key) (trigram.InsertOutcome, string, error) {
	return s.InsertWithToken(ctx, key, "")
}

// InsertWithToken is Insert with an increment token; see
// projection.Store.IncrementWithToken.
func (s *Service) InsertWithToken(ctx context.Context, key trigram.Key, token string) (trigram.InsertOutcome, string, error) {
	outcome, err := s.store.IncrementWithToken(ctx, key, token)
	if err != nil {
		return trigram.InsertOutcome{}, "", err
	}

	path, err := s.writer.WriteInsert(outcome)
	if err != nil {
		logger.FromContext(ctx, s.logger).Error("failed to write insert artifact", "key", key.String(), "error", err)
		path = ""
	}
	s.samples.Record(ctx, samples.FromInsert(outcome, s.now())...)

	s.logger.Debug("insert complete",
		"key", key.String(),
		"freq", outcome.Freq,
		"created", outcome.Created,
		"latency_ms", outcome.Latency.Milliseconds(),
	)
	return outcome, path, nil
}
