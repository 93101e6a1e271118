package samples

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/postgres"
)

// Schema creates the sample table. The statement is valid for both
// PostgreSQL and SQLite.
const Schema = `CREATE TABLE IF NOT EXISTS timing_samples (
    kind        TEXT NOT NULL,
    metric      TEXT NOT NULL,
    seconds     DOUBLE PRECISION NOT NULL,
    word_1      TEXT NOT NULL,
    word_2      TEXT NOT NULL,
    word_3      TEXT NOT NULL,
    recorded_at TIMESTAMP NOT NULL
)`

// SQLStore keeps samples in the timing_samples table.
type SQLStore struct {
	db       *sql.DB
	postgres bool
}

// NewSQLStore wraps db. backend is config.BackendPostgres or
// config.BackendSQLite and selects the placeholder syntax.
func NewSQLStore(db *sql.DB, backend string) *SQLStore {
	return &SQLStore{db: db, postgres: backend == config.BackendPostgres}
}

func (s *SQLStore) rebind(query string) string {
	if !s.postgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Record inserts all samples in one transaction.
func (s *SQLStore) Record(ctx context.Context, samples ...Sample) error {
	query := s.rebind(`INSERT INTO timing_samples
        (kind, metric, seconds, word_1, word_2, word_3, recorded_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`)
	return postgres.InTx(ctx, s.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("preparing sample insert: %w", err)
		}
		defer stmt.Close()
		for _, smp := range samples {
			if _, err := stmt.ExecContext(ctx,
				smp.Kind, smp.Metric, smp.Seconds,
				smp.Key.Word1, smp.Key.Word2, smp.Key.Word3,
				smp.RecordedAt.UTC(),
			); err != nil {
				return fmt.Errorf("inserting %s sample: %w", smp.Metric, err)
			}
		}
		return nil
	})
}

// List returns every sample of kind in recording order.
func (s *SQLStore) List(ctx context.Context, kind string) ([]Sample, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT kind, metric, seconds, word_1, word_2, word_3, recorded_at
        FROM timing_samples WHERE kind = ? ORDER BY recorded_at`), kind)
	if err != nil {
		return nil, fmt.Errorf("listing %s samples: %w", kind, err)
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var smp Sample
		if err := rows.Scan(&smp.Kind, &smp.Metric, &smp.Seconds,
			&smp.Key.Word1, &smp.Key.Word2, &smp.Key.Word3, &smp.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning sample: %w", err)
		}
		out = append(out, smp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating samples: %w", err)
	}
	return out, nil
}

// Values returns the seconds of every sample of metric.
func (s *SQLStore) Values(ctx context.Context, metric string) ([]float64, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT seconds FROM timing_samples WHERE metric = ?`), metric)
	if err != nil {
		return nil, fmt.Errorf("reading %s samples: %w", metric, err)
	}
	defer rows.Close()

	var out []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scanning %s sample: %w", metric, err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
