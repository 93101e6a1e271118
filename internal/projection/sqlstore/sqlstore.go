// Package sqlstore is a projection backend for relational databases. Each
// projection is a table keyed by (word_1, word_2, word_3) with an index on its
// partition columns:
//
//	CREATE TABLE three_grams_1_2_pk (
//	    word_1 TEXT NOT NULL,
//	    word_2 TEXT NOT NULL,
//	    word_3 TEXT NOT NULL,
//	    freq   BIGINT NOT NULL,
//	    PRIMARY KEY (word_1, word_2, word_3)
//	);
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/projection"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/trigram"
)

// Dialect selects the placeholder syntax.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

type statements struct {
	get    string
	scan   string
	upsert string
	update string
}

// Store runs projection reads and writes against db.
type Store struct {
	db    *sql.DB
	stmts [len(projection.All)]statements
}

// New builds a Store. The caller owns db until Close is called.
func New(db *sql.DB, dialect Dialect) *Store {
	s := &Store{db: db}
	for _, p := range projection.All {
		s.stmts[p] = buildStatements(p, dialect)
	}
	return s
}

func buildStatements(p projection.Projection, d Dialect) statements {
	ph := func(n int) string {
		if d == Postgres {
			return "$" + strconv.Itoa(n)
		}
		return "?"
	}
	pk1, pk2 := p.PartitionColumns()
	table := p.Table()
	return statements{
		get: fmt.Sprintf("SELECT freq FROM %s WHERE word_1 = %s AND word_2 = %s AND word_3 = %s",
			table, ph(1), ph(2), ph(3)),
		scan: fmt.Sprintf("SELECT %s, freq FROM %s WHERE %s = %s AND %s = %s",
			p.FreeColumn(), table, pk1, ph(1), pk2, ph(2)),
		upsert: fmt.Sprintf(
			"INSERT INTO %s (word_1, word_2, word_3, freq) VALUES (%s, %s, %s, %s) "+
				"ON CONFLICT (word_1, word_2, word_3) DO UPDATE SET freq = excluded.freq",
			table, ph(1), ph(2), ph(3), ph(4)),
		update: fmt.Sprintf("UPDATE %s SET freq = %s WHERE word_1 = %s AND word_2 = %s AND word_3 = %s",
			table, ph(1), ph(2), ph(3), ph(4)),
	}
}

func (s *Store) Get(ctx context.Context, p projection.Projection, key trigram.Key) (int64, bool, error) {
	var freq int64
	err := s.db.QueryRowContext(ctx, s.stmts[p].get, key.Word1, key.Word2, key.Word3).Scan(&freq)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("querying %s: %w", p.Table(), err)
	}
	return freq, true, nil
}

func (s *Store) Scan(ctx context.Context, p projection.Projection, pair trigram.WordPair) (trigram.CoOccurrences, error) {
	rows, err := s.db.QueryContext(ctx, s.stmts[p].scan, pair.First, pair.Second)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", p.Table(), err)
	}
	defer rows.Close()

	out := make(trigram.CoOccurrences)
	for rows.Next() {
		var (
			word string
			freq int64
		)
		if err := rows.Scan(&word, &freq); err != nil {
			return nil, fmt.Errorf("reading %s row: %w", p.Table(), err)
		}
		out[word] = freq
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", p.Table(), err)
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, p projection.Projection, rec trigram.Record) error {
	if _, err := s.db.ExecContext(ctx, s.stmts[p].upsert, rec.Word1, rec.Word2, rec.Word3, rec.Freq); err != nil {
		return fmt.Errorf("inserting into %s: %w", p.Table(), err)
	}
	return nil
}

// Update sets freq on the row, inserting it when it is missing so that
// projections a previous partial write never reached are repaired.
func (s *Store) Update(ctx context.Context, p projection.Projection, rec trigram.Record) error {
	res, err := s.db.ExecContext(ctx, s.stmts[p].update, rec.Freq, rec.Word1, rec.Word2, rec.Word3)
	if err != nil {
		return fmt.Errorf("updating %s: %w", p.Table(), err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return s.Insert(ctx, p, rec)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Schema returns the DDL creating every projection table.
func Schema() []string {
	out := make([]string, 0, 2*len(projection.All))
	for _, p := range projection.All {
		pk1, pk2 := p.PartitionColumns()
		out = append(out,
			fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (word_1 TEXT NOT NULL, word_2 TEXT NOT NULL, "+
				"word_3 TEXT NOT NULL, freq BIGINT NOT NULL, PRIMARY KEY (word_1, word_2, word_3))", p.Table()),
			fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_partition ON %s (%s)",
				p.Table(), p.Table(), strings.Join([]string{pk1, pk2}, ", ")),
		)
	}
	return out
}
