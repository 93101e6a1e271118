package memstore

import (
	"context"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/projection"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/trigram"
)

func TestPutIsPartitionedPerProjection(t *testing.T) {
	s := New()
	ctx := context.Background()
	key := trigram.Key{Word1: "a", Word2: "b", Word3: "c"}

	if err := s.Insert(ctx, projection.ByFirstThird, trigram.Record{Key: key, Freq: 4}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	if _, found, _ := s.Get(ctx, projection.ByFirstSecond, key); found {
		t.Fatal("write to B must not be visible in A")
	}
	freq, found, err := s.Get(ctx, projection.ByFirstThird, key)
	if err != nil || !found || freq != 4 {
		t.Fatalf("Get B = (%d, %v, %v), want (4, true, nil)", freq, found, err)
	}

	words, err := s.Scan(ctx, projection.ByFirstThird, trigram.WordPair{First: "a", Second: "c"})
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(words) != 1 || words["b"] != 4 {
		t.Fatalf("Scan = %v, want map[b:4]", words)
	}
}

func TestScanReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()
	key := trigram.Key{Word1: "a", Word2: "b", Word3: "c"}
	_ = s.Insert(ctx, projection.ByFirstSecond, trigram.Record{Key: key, Freq: 1})

	words, _ := s.Scan(ctx, projection.ByFirstSecond, trigram.WordPair{First: "a", Second: "b"})
	words["c"] = 99

	freq, _, _ := s.Get(ctx, projection.ByFirstSecond, key)
	if freq != 1 {
		t.Fatalf("mutating scan result changed stored freq to %d", freq)
	}
}

func TestUpdateOverwrites(t *testing.T) {
	s := New()
	ctx := context.Background()
	rec := trigram.Record{Key: trigram.Key{Word1: "a", Word2: "b", Word3: "c"}, Freq: 1}
	_ = s.Insert(ctx, projection.BySecondThird, rec)
	rec.Freq = 5
	if err := s.Update(ctx, projection.BySecondThird, rec); err != nil {
		t.Fatalf("Update: %v", err)
	}
	freq, _, _ := s.Get(ctx, projection.BySecondThird, rec.Key)
	if freq != 5 {
		t.Fatalf("freq = %d, want 5", freq)
	}
}

func TestCancelledContext(t *testing.T) {
	s := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Scan(ctx, projection.ByFirstSecond, trigram.WordPair{}); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
