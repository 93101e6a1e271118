// Package bulk applies queries or inserts to a list of keys one after the
// other. The first failure stops the batch.
package bulk

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/trigram"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/metrics"
)

// Service is what the runner drives.
type Service interface {
	Query(ctx context.Context, key trigram.Key) (trigram.QueryOutcome, string, error)
	Insert(ctx context.Context, key trigram.Key) (trigram.InsertOutcome, string, error)
}

// Summary describes a completed batch.
type Summary struct {
	Processed int
	Elapsed   time.Duration
}

type Runner struct {
	svc     Service
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewRunner(svc Service, m *metrics.Metrics) *Runner {
	return &Runner{
		svc:     svc,
		metrics: m,
		logger:  slog.Default().With("component", "bulk-runner"),
	}
}

// Query runs a query for every key in order.
func (r *Runner) Query(ctx context.Context, keys []trigram.Key) (Summary, error) {
	return r.run(ctx, "query", keys, func(ctx context.Context, key trigram.Key) error {
		_, _, err := r.svc.Query(ctx, key)
		return err
	})
}

// Insert increments every key in order.
func (r *Runner) Insert(ctx context.Context, keys []trigram.Key) (Summary, error) {
	return r.run(ctx, "insert", keys, func(ctx context.Context, key trigram.Key) error {
		_, _, err := r.svc.Insert(ctx, key)
		return err
	})
}

func (r *Runner) run(ctx context.Context, op string, keys []trigram.Key, fn func(context.Context, trigram.Key) error) (Summary, error) {
	start := time.Now()
	r.logger.Info("bulk run started", "op", op, "keys", len(keys))
	for i, key := range keys {
		if err := ctx.Err(); err != nil {
			return Summary{Processed: i, Elapsed: time.Since(start)}, fmt.Errorf("bulk %s interrupted before item %d: %w", op, i+1, err)
		}
		if err := fn(ctx, key); err != nil {
			r.metrics.BulkItem("error")
			r.logger.Error("bulk run aborted",
				"op", op,
				"item", i+1,
				"key", key.String(),
				"processed", i,
				"error", err,
			)
			return Summary{Processed: i, Elapsed: time.Since(start)},
				fmt.Errorf("bulk %s item %d (%q): %w", op, i+1, key.String(), err)
		}
		r.metrics.BulkItem("ok")
	}
	summary := Summary{Processed: len(keys), Elapsed: time.Since(start)}
	r.logger.Info("bulk run finished",
		"op", op,
		"processed", summary.Processed,
		"elapsed_ms", summary.Elapsed.Milliseconds(),
	)
	return summary, nil
}
