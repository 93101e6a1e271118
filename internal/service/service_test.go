package service

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/artifact"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/projection"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/projection/memstore"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/samples"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/trigram"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/errors"
)

type sampleCollector struct {
	mu  sync.Mutex
	got []samples.Sample
}

func (c *sampleCollector) Record(_ context.Context, s ...samples.Sample) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, s...)
	return nil
}

func newTestService(t *testing.T) (*Service, config.ArtifactsConfig, *sampleCollector) {
	t.Helper()
	root := t.TempDir()
	dirs := config.ArtifactsConfig{
		Root:      root,
		SelectDir: filepath.Join(root, "select"),
		InsertDir: filepath.Join(root, "insert"),
	}
	col := &sampleCollector{}
	svc := New(
		projection.NewStore(memstore.New(), nil, nil),
		artifact.NewWriter(dirs, nil),
		samples.NewRecorder(col, nil),
	)
	return svc, dirs, col
}

func TestInsertThenQuery(t *testing.T) {
	svc, dirs, col := newTestService(t)
	ctx := context.Background()
	key := trigram.Key{Word1: "the", Word2: "quick", Word3: "fox"}

	for i := 1; i <= 2; i++ {
		outcome, path, err := svc.Insert(ctx, key)
		if err != nil {
			t.Fatalf("Insert %d: %v", i, err)
		}
		if outcome.Freq != int64(i) {
			t.Fatalf("Insert %d freq = %d", i, outcome.Freq)
		}
		if path != filepath.Join(dirs.InsertDir, "the-quick-fox-"+strconv.Itoa(i)) {
			t.Fatalf("insert path = %q", path)
		}
	}

	outcome, path, err := svc.Query(ctx, key)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if !outcome.Found || outcome.ExactFreq != 2 {
		t.Fatalf("outcome = %+v", outcome)
	}
	if outcome.ByFirstSecond.Words["fox"] != 2 {
		t.Fatalf("A words = %v", outcome.ByFirstSecond.Words)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read artifact: %v", err)
	}
	if !strings.HasPrefix(string(data), "Given 3-gram: the quick fox = 2\n") {
		t.Fatalf("artifact = %q", data)
	}

	if len(col.got) != 4 {
		t.Fatalf("recorded %d samples, want 4", len(col.got))
	}
}

func TestQueryAbsentKey(t *testing.T) {
	svc, _, _ := newTestService(t)
	outcome, _, err := svc.Query(context.Background(), trigram.Key{Word1: "a", Word2: "b", Word3: "c"})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if outcome.Found || outcome.ExactFreq != 0 {
		t.Fatalf("outcome = %+v", outcome)
	}
}

type failingWriter struct{}

func (failingWriter) WriteQuery(trigram.QueryOutcome) (string, error) {
	return "", apperrors.New(apperrors.ErrArtifactIO, "read-only")
}

func (failingWriter) WriteInsert(trigram.InsertOutcome) (string, error) {
	return "", apperrors.New(apperrors.ErrArtifactIO, "read-only")
}

func TestArtifactFailureDoesNotFailOperation(t *testing.T) {
	svc := New(projection.NewStore(memstore.New(), nil, nil), failingWriter{}, nil)
	key := trigram.Key{Word1: "a", Word2: "b", Word3: "c"}

	outcome, path, err := svc.Insert(context.Background(), key)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if outcome.Freq != 1 || path != "" {
		t.Fatalf("Insert = (%+v, %q)", outcome, path)
	}
	if _, path, err := svc.Query(context.Background(), key); err != nil || path != "" {
		t.Fatalf("Query = (%q, %v)", path, err)
	}
}

type blockingStore struct {
	calls   atomic.Int32
	release chan struct{}
}

func (b *blockingStore) LookupExact(context.Context, trigram.Key) (int64, bool, error) {
	b.calls.Add(1)
	<-b.release
	return 3, true, nil
}

func (b *blockingStore) LookupCoOccurrences(context.Context, trigram.Key) (trigram.CoOccurrenceSet, error) {
	return trigram.CoOccurrenceSet{}, nil
}

func (b *blockingStore) IncrementWithToken(context.Context, trigram.Key, string) (trigram.InsertOutcome, error) {
	return trigram.InsertOutcome{}, errors.New("unused")
}

func TestConcurrentQueriesShareExecution(t *testing.T) {
	store := &blockingStore{release: make(chan struct{})}
	svc := New(store, failingWriter{}, nil)
	key := trigram.Key{Word1: "a", Word2: "b", Word3: "c"}

	const n = 5
	var wg sync.WaitGroup
	results := make([]int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			o, _, err := svc.Query(context.Background(), key)
			if err != nil {
				t.Errorf("Query: %v", err)
				return
			}
			results[i] = o.ExactFreq
		}(i)
	}

	deadline := time.Now().Add(2 * time.Second)
	for store.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	// Give the remaining goroutines time to join the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(store.release)
	wg.Wait()

	for i, f := range results {
		if f != 3 {
			t.Errorf("result %d = %d, want 3", i, f)
		}
	}
	if got := store.calls.Load(); got < 1 || got > n {
		t.Fatalf("store called %d times", got)
	}
}

func TestStoreFailurePropagates(t *testing.T) {
	svc := New(errStore{}, failingWriter{}, nil)
	_, _, err := svc.Query(context.Background(), trigram.Key{Word1: "a", Word2: "b", Word3: "c"})
	if !errors.Is(err, apperrors.ErrStoreUnavailable) {
		t.Fatalf("error = %v, want ErrStoreUnavailable", err)
	}
}

type errStore struct{}

func (errStore) LookupExact(context.Context, trigram.Key) (int64, bool, error) {
	return 0, false, apperrors.New(apperrors.ErrStoreUnavailable, "down")
}

func (errStore) LookupCoOccurrences(context.Context, trigram.Key) (trigram.CoOccurrenceSet, error) {
	return trigram.CoOccurrenceSet{}, nil
}

func (errStore) IncrementWithToken(context.Context, trigram.Key, string) (trigram.InsertOutcome, error) {
	return trigram.InsertOutcome{}, apperrors.New(apperrors.ErrStoreUnavailable, "down")
}
