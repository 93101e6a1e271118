package projection

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/trigram"
	apperrors "github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

const (
	opLookupExact         = "lookup_exact"
	opLookupCoOccurrences = "lookup_cooccurrences"
	opIncrement           = "increment"
)

// Store implements lookups and the increment-or-create protocol on top of a
// Backend. It holds no locks: two callers incrementing the same key at the
// same time can both read the same frequency and one update is lost.
type Store struct {
	backend Backend
	ledger  Ledger
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewStore creates a Store. ledger and m may be nil.
func NewStore(backend Backend, ledger Ledger, m *metrics.Metrics) *Store {
	return &Store{
		backend: backend,
		ledger:  ledger,
		metrics: m,
		logger:  slog.Default().With("component", "projection-store"),
	}
}

// Ping checks that the backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// LookupExact reads the frequency of key from projection A. An absent key
// yields (0, false, nil).
func (s *Store) LookupExact(ctx context.Context, key trigram.Key) (int64, bool, error) {
	start := time.Now()
	freq, found, err := s.backend.Get(ctx, ByFirstSecond, key)
	s.metrics.ObserveOperation(opLookupExact, time.Since(start).Seconds(), err)
	if err != nil {
		return 0, false, apperrors.Wrap(apperrors.ErrStoreUnavailable, "reading projection A", err)
	}
	if !found {
		return 0, false, nil
	}
	return freq, true, nil
}

// LookupCoOccurrences scans the partition of each projection that key falls
// into. The three scans run concurrently; the first failure cancels the
// others and fails the whole lookup.
func (s *Store) LookupCoOccurrences(ctx context.Context, key trigram.Key) (trigram.CoOccurrenceSet, error) {
	start := time.Now()
	var results [len(All)]trigram.PairResult
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range All {
		i, p := i, p
		g.Go(func() error {
			pair := p.Pair(key)
			words, err := s.backend.Scan(gctx, p, pair)
			if err != nil {
				return fmt.Errorf("scanning projection %s: %w", p, err)
			}
			if words == nil {
				words = trigram.CoOccurrences{}
			}
			results[i] = trigram.PairResult{Pair: pair, Words: words}
			return nil
		})
	}
	err := g.Wait()
	s.metrics.ObserveOperation(opLookupCoOccurrences, time.Since(start).Seconds(), err)
	if err != nil {
		return trigram.CoOccurrenceSet{}, apperrors.Wrap(apperrors.ErrStoreUnavailable, "co-occurrence lookup", err)
	}
	return trigram.CoOccurrenceSet{
		ByFirstSecond: results[ByFirstSecond],
		ByFirstThird:  results[ByFirstThird],
		BySecondThird: results[BySecondThird],
	}, nil
}

// IncrementOrCreate reads key from projection A and writes freq+1 (or 1 for a
// new key) to projections A, B and C in that order. The writes are not
// atomic: a failure after the first write returns ErrPartialWrite and leaves
// the projections disagreeing.
func (s *Store) IncrementOrCreate(ctx context.Context, key trigram.Key) (trigram.InsertOutcome, error) {
	return s.IncrementWithToken(ctx, key, "")
}

// IncrementWithToken behaves like IncrementOrCreate, but when a ledger is
// configured and token is non-empty the plan is recorded under token. Calling
// again with the same token completes that plan, skipping projections that
// were already written, rather than incrementing a second time.
func (s *Store) IncrementWithToken(ctx context.Context, key trigram.Key, token string) (trigram.InsertOutcome, error) {
	start := time.Now()
	outcome, err := s.increment(ctx, key, token)
	outcome.Latency = time.Since(start)
	s.metrics.ObserveOperation(opIncrement, outcome.Latency.Seconds(), err)
	if err != nil {
		return trigram.InsertOutcome{}, err
	}
	return outcome, nil
}

func (s *Store) increment(ctx context.Context, key trigram.Key, token string) (trigram.InsertOutcome, error) {
	useLedger := s.ledger != nil && token != ""
	plan, err := s.plan(ctx, key, token, useLedger)
	if err != nil {
		return trigram.InsertOutcome{}, err
	}

	rec := trigram.Record{Key: key, Freq: plan.Freq}
	applied := make([]string, 0, len(All))
	for _, p := range All {
		if plan.Applied[p] {
			s.metrics.ProjectionWrite(p.String(), "skipped")
			applied = append(applied, p.String())
			continue
		}
		var werr error
		if plan.Created {
			werr = s.backend.Insert(ctx, p, rec)
		} else {
			werr = s.backend.Update(ctx, p, rec)
		}
		if werr != nil {
			s.metrics.ProjectionWrite(p.String(), "error")
			cause := apperrors.Wrap(apperrors.ErrStoreUnavailable, "writing projection "+p.String(), werr)
			if len(applied) == 0 {
				return trigram.InsertOutcome{}, cause
			}
			s.metrics.PartialWrite()
			s.logger.Error("increment left projections inconsistent",
				"key", key.String(),
				"freq", plan.Freq,
				"applied", applied,
				"failed", p.String(),
				"token", token,
				"error", werr,
			)
			return trigram.InsertOutcome{}, apperrors.Wrap(apperrors.ErrPartialWrite,
				fmt.Sprintf("%q freq %d written to %v, not to %s", key.String(), plan.Freq, applied, p), cause)
		}
		s.metrics.ProjectionWrite(p.String(), "ok")
		applied = append(applied, p.String())
		if useLedger {
			// Re-writing a projection with the planned freq is harmless, so a
			// lost marker only costs one redundant write on retry.
			if err := s.ledger.MarkApplied(ctx, token, p); err != nil {
				s.logger.Warn("failed to mark projection applied",
					"token", token,
					"projection", p.String(),
					"error", err,
				)
			}
		}
	}

	return trigram.InsertOutcome{Key: key, Freq: plan.Freq, Created: plan.Created}, nil
}

func (s *Store) plan(ctx context.Context, key trigram.Key, token string, useLedger bool) (Plan, error) {
	if useLedger {
		plan, ok, err := s.ledger.Load(ctx, token)
		if err != nil {
			return Plan{}, apperrors.Wrap(apperrors.ErrStoreUnavailable, "loading increment token "+token, err)
		}
		if ok {
			if plan.Key != key {
				return Plan{}, apperrors.Newf(apperrors.ErrMalformedInput,
					"increment token %q belongs to %q, not %q", token, plan.Key.String(), key.String())
			}
			s.logger.Info("resuming increment",
				"token", token,
				"key", key.String(),
				"freq", plan.Freq,
			)
			return plan, nil
		}
	}

	freq, found, err := s.backend.Get(ctx, ByFirstSecond, key)
	if err != nil {
		return Plan{}, apperrors.Wrap(apperrors.ErrStoreUnavailable, "reading projection A", err)
	}
	plan := Plan{Key: key, Freq: 1, Created: true, Applied: map[Projection]bool{}}
	if found {
		plan.Freq = freq + 1
		plan.Created = false
	}

	if useLedger {
		if err := s.ledger.Begin(ctx, token, plan); err != nil {
			return Plan{}, apperrors.Wrap(apperrors.ErrStoreUnavailable, "recording increment token "+token, err)
		}
	}
	return plan, nil
}
