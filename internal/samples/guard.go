package samples

import (
	"context"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/resilience"
)

// GuardedSink bounds every publish by a timeout and stops publishing for a
// while after repeated failures, so a broker outage costs queries at most
// the timeout a few times instead of on every call.
type GuardedSink struct {
	sink    Sink
	timeout time.Duration
	breaker *resilience.Breaker
}

func NewGuardedSink(sink Sink, timeout time.Duration, breaker *resilience.Breaker) *GuardedSink {
	return &GuardedSink{sink: sink, timeout: timeout, breaker: breaker}
}

func (g *GuardedSink) Record(ctx context.Context, samples ...Sample) error {
	return g.breaker.Do(func() error {
		if g.timeout <= 0 {
			return g.sink.Record(ctx, samples...)
		}
		tctx, cancel := context.WithTimeout(ctx, g.timeout)
		defer cancel()
		return g.sink.Record(tctx, samples...)
	})
}

// RetryingSink retries failed writes with backoff. The sample consumer uses
// it so a brief database hiccup does not stall the partition.
type RetryingSink struct {
	sink    Sink
	backoff resilience.Backoff
}

func NewRetryingSink(sink Sink, backoff resilience.Backoff) *RetryingSink {
	return &RetryingSink{sink: sink, backoff: backoff}
}

func (r *RetryingSink) Record(ctx context.Context, samples ...Sample) error {
	return r.backoff.Retry(ctx, "record samples", func(ctx context.Context) error {
		return r.sink.Record(ctx, samples...)
	})
}
