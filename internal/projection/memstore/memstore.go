// Package memstore is an in-process projection backend used for local runs
// and tests.
package memstore

import (
	"context"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/projection"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/trigram"
)

type partition map[string]int64

// Store keeps one partitioned map per projection.
type Store struct {
	mu     sync.RWMutex
	tables [len(projection.All)]map[trigram.WordPair]partition
}

func New() *Store {
	s := &Store{}
	for i := range s.tables {
		s.tables[i] = make(map[trigram.WordPair]partition)
	}
	return s
}

func (s *Store) Get(ctx context.Context, p projection.Projection, key trigram.Key) (int64, bool, error) {
	if err := ctx.Err(); err != nil {
		return 0, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	freq, ok := s.tables[p][p.Pair(key)][p.Free(key)]
	return freq, ok, nil
}

func (s *Store) Scan(ctx context.Context, p projection.Projection, pair trigram.WordPair) (trigram.CoOccurrences, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	part := s.tables[p][pair]
	out := make(trigram.CoOccurrences, len(part))
	for word, freq := range part {
		out[word] = freq
	}
	return out, nil
}

func (s *Store) Insert(ctx context.Context, p projection.Projection, rec trigram.Record) error {
	return s.put(ctx, p, rec)
}

// Update upserts like a wide-column UPDATE does.
func (s *Store) Update(ctx context.Context, p projection.Projection, rec trigram.Record) error {
	return s.put(ctx, p, rec)
}

func (s *Store) put(ctx context.Context, p projection.Projection, rec trigram.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	pair := p.Pair(rec.Key)
	part, ok := s.tables[p][pair]
	if !ok {
		part = make(partition)
		s.tables[p][pair] = part
	}
	part[p.Free(rec.Key)] = rec.Freq
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *Store) Close() error {
	return nil
}
