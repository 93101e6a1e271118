package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Backoff retries with doubling delays between Initial and Max.
type Backoff struct {
	Attempts int
	Initial  time.Duration
	Max      time.Duration
}

// Retry calls fn until it succeeds, the attempts are used up, or ctx ends.
func (b Backoff) Retry(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	attempts := b.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	delay := b.Initial
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt == attempts {
			break
		}
		slog.Warn("retrying after failure",
			"operation", name,
			"attempt", attempt,
			"next_delay", delay,
			"error", err,
		)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", name, ctx.Err())
		}
		delay *= 2
		if b.Max > 0 && delay > b.Max {
			delay = b.Max
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, attempts, err)
}
