package benchmark

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/artifact"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/projection"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/projection/memstore"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/stats"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/trigram"
)

func keys(n, vocab int) []trigram.Key {
	rng := rand.New(rand.NewSource(1))
	word := func() string { return fmt.Sprintf("w%d", rng.Intn(vocab)) }
	out := make([]trigram.Key, n)
	for i := range out {
		out[i] = trigram.Key{Word1: word(), Word2: word(), Word3: word()}
	}
	return out
}

// BenchmarkIncrement measures increment-or-create on the in-memory backend
// for vocabularies that produce mostly creates or mostly updates.
func BenchmarkIncrement(b *testing.B) {
	for _, vocab := range []int{5, 100, 10000} {
		b.Run(fmt.Sprintf("vocab_%d", vocab), func(b *testing.B) {
			store := projection.NewStore(memstore.New(), nil, nil)
			ks := keys(1024, vocab)
			ctx := context.Background()
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := store.IncrementOrCreate(ctx, ks[i%len(ks)]); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkLookupCoOccurrences measures the three parallel partition scans.
func BenchmarkLookupCoOccurrences(b *testing.B) {
	store := projection.NewStore(memstore.New(), nil, nil)
	ctx := context.Background()
	for _, k := range keys(20000, 50) {
		if _, err := store.IncrementOrCreate(ctx, k); err != nil {
			b.Fatal(err)
		}
	}
	probe := keys(64, 50)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := store.LookupCoOccurrences(ctx, probe[i%len(probe)]); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRenderQuery(b *testing.B) {
	for _, size := range []int{5, 50, 5000} {
		words := make(trigram.CoOccurrences, size)
		for i := 0; i < size; i++ {
			words[fmt.Sprintf("word%d", i)] = int64(i % 17)
		}
		key := trigram.Key{Word1: "a", Word2: "b", Word3: "c"}
		outcome := trigram.QueryOutcome{
			Key:   key,
			Found: true,
			CoOccurrenceSet: trigram.CoOccurrenceSet{
				ByFirstSecond: trigram.PairResult{Pair: trigram.WordPair{First: "a", Second: "b"}, Words: words},
				ByFirstThird:  trigram.PairResult{Pair: trigram.WordPair{First: "a", Second: "c"}, Words: words},
				BySecondThird: trigram.PairResult{Pair: trigram.WordPair{First: "b", Second: "c"}, Words: words},
			},
			ExactLatency: 3 * time.Millisecond,
			ScanLatency:  12 * time.Millisecond,
		}
		b.Run(fmt.Sprintf("partition_%d", size), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_ = artifact.RenderQuery(outcome)
			}
		})
	}
}

func BenchmarkSummarize(b *testing.B) {
	for _, n := range []int{100, 10000, 1000000} {
		rng := rand.New(rand.NewSource(2))
		samples := make([]float64, n)
		for i := range samples {
			samples[i] = rng.ExpFloat64() / 100
		}
		b.Run(fmt.Sprintf("samples_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				stats.Summarize(samples, 90)
			}
		})
	}
}
