// Package cassandra is the wide-column projection backend. The three tables
// live in one keyspace:
//
//	CREATE TABLE three_grams_1_2_pk (
//	    word_1 text, word_2 text, word_3 text, freq int,
//	    PRIMARY KEY ((word_1, word_2), word_3)
//	);
//
// and likewise for three_grams_1_3_pk ((word_1, word_3), word_2) and
// three_grams_2_3_pk ((word_2, word_3), word_1).
package cassandra

import (
	"context"
	"errors"
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/projection"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/trigram"
	"github.com/gocql/gocql"
)

type statements struct {
	get    string
	scan   string
	insert string
	update string
}

// Store issues single-partition CQL against a gocql session. Queries run at
// the session's default consistency.
type Store struct {
	session *gocql.Session
	stmts   [len(projection.All)]statements
}

func New(session *gocql.Session) *Store {
	s := &Store{session: session}
	for _, p := range projection.All {
		s.stmts[p] = buildStatements(p)
	}
	return s
}

func buildStatements(p projection.Projection) statements {
	pk1, pk2 := p.PartitionColumns()
	table := p.Table()
	return statements{
		get:    fmt.Sprintf("SELECT freq FROM %s WHERE word_1 = ? AND word_2 = ? AND word_3 = ?", table),
		scan:   fmt.Sprintf("SELECT %s, freq FROM %s WHERE %s = ? AND %s = ?", p.FreeColumn(), table, pk1, pk2),
		insert: fmt.Sprintf("INSERT INTO %s (word_1, word_2, word_3, freq) VALUES (?, ?, ?, ?)", table),
		update: fmt.Sprintf("UPDATE %s SET freq = ? WHERE word_1 = ? AND word_2 = ? AND word_3 = ?", table),
	}
}

func (s *Store) Get(ctx context.Context, p projection.Projection, key trigram.Key) (int64, bool, error) {
	var freq int64
	err := s.session.Query(s.stmts[p].get, key.Word1, key.Word2, key.Word3).
		WithContext(ctx).
		Scan(&freq)
	if errors.Is(err, gocql.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("querying %s: %w", p.Table(), err)
	}
	return freq, true, nil
}

func (s *Store) Scan(ctx context.Context, p projection.Projection, pair trigram.WordPair) (trigram.CoOccurrences, error) {
	iter := s.session.Query(s.stmts[p].scan, pair.First, pair.Second).
		WithContext(ctx).
		Iter()

	out := make(trigram.CoOccurrences)
	var (
		word string
		freq int64
	)
	for iter.Scan(&word, &freq) {
		out[word] = freq
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", p.Table(), err)
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, p projection.Projection, rec trigram.Record) error {
	err := s.session.Query(s.stmts[p].insert, rec.Word1, rec.Word2, rec.Word3, rec.Freq).
		WithContext(ctx).
		Exec()
	if err != nil {
		return fmt.Errorf("inserting into %s: %w", p.Table(), err)
	}
	return nil
}

// Update writes freq with a CQL UPDATE, which creates the row if it is
// missing.
func (s *Store) Update(ctx context.Context, p projection.Projection, rec trigram.Record) error {
	err := s.session.Query(s.stmts[p].update, rec.Freq, rec.Word1, rec.Word2, rec.Word3).
		WithContext(ctx).
		Exec()
	if err != nil {
		return fmt.Errorf("updating %s: %w", p.Table(), err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.session.Query("SELECT release_version FROM system.local").WithContext(ctx).Exec()
}

func (s *Store) Close() error {
	s.session.Close()
	return nil
}
