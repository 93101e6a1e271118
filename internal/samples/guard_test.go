package samples

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/resilience"
)

type countingFailSink struct {
	calls    int
	failures int
	deadline bool
}

func (c *countingFailSink) Record(ctx context.Context, _ ...Sample) error {
	c.calls++
	_, c.deadline = ctx.Deadline()
	if c.calls <= c.failures {
		return errors.New("broker down")
	}
	return nil
}

func TestGuardedSinkStopsAfterFailures(t *testing.T) {
	inner := &countingFailSink{failures: 100}
	g := NewGuardedSink(inner, time.Second, resilience.NewBreaker("samples", resilience.BreakerConfig{
		Threshold: 2,
		Cooldown:  time.Hour,
	}))

	for i := 0; i < 5; i++ {
		_ = g.Record(context.Background(), Sample{Kind: KindSelect})
	}
	if inner.calls != 2 {
		t.Fatalf("inner sink called %d times, want 2", inner.calls)
	}
	if err := g.Record(context.Background()); !errors.Is(err, resilience.ErrOpen) {
		t.Fatalf("error = %v, want ErrOpen", err)
	}
}

func TestGuardedSinkSetsDeadline(t *testing.T) {
	inner := &countingFailSink{}
	g := NewGuardedSink(inner, time.Second, resilience.NewBreaker("samples", resilience.BreakerConfig{}))
	if err := g.Record(context.Background(), Sample{Kind: KindSelect}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !inner.deadline {
		t.Fatal("publish context has no deadline")
	}
}

func TestRetryingSink(t *testing.T) {
	inner := &countingFailSink{failures: 2}
	r := NewRetryingSink(inner, resilience.Backoff{Attempts: 3, Initial: time.Millisecond})
	if err := r.Record(context.Background(), Sample{Kind: KindInsert}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if inner.calls != 3 {
		t.Fatalf("calls = %d, want 3", inner.calls)
	}
}
