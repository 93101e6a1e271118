package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/projection"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/trigram"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/redis"
)

const keyPrefix = "trigram:incr:"

// Hash fields of a stored plan. Applied projections are stored as
// "applied_A", "applied_B", "applied_C".
const (
	fieldWord1   = "word_1"
	fieldWord2   = "word_2"
	fieldWord3   = "word_3"
	fieldFreq    = "freq"
	fieldCreated = "created"
	appliedField = "applied_"
)

// Redis keeps plans in one hash per token, expiring after ttl.
type Redis struct {
	client *pkgredis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedis(client *pkgredis.Client, ttl time.Duration) *Redis {
	return &Redis{
		client: client,
		ttl:    ttl,
		logger: slog.Default().With("component", "increment-ledger"),
	}
}

func (r *Redis) Load(ctx context.Context, token string) (projection.Plan, bool, error) {
	fields, err := r.client.HGetAll(ctx, keyPrefix+token)
	if err != nil {
		return projection.Plan{}, false, fmt.Errorf("loading plan %s: %w", token, err)
	}
	if len(fields) == 0 {
		return projection.Plan{}, false, nil
	}
	plan, err := decodePlan(fields)
	if err != nil {
		return projection.Plan{}, false, fmt.Errorf("decoding plan %s: %w", token, err)
	}
	return plan, true, nil
}

func (r *Redis) Begin(ctx context.Context, token string, plan projection.Plan) error {
	fields := map[string]any{
		fieldWord1:   plan.Key.Word1,
		fieldWord2:   plan.Key.Word2,
		fieldWord3:   plan.Key.Word3,
		fieldFreq:    strconv.FormatInt(plan.Freq, 10),
		fieldCreated: strconv.FormatBool(plan.Created),
	}
	for p, ok := range plan.Applied {
		if ok {
			fields[appliedField+p.String()] = "1"
		}
	}
	if err := r.client.HSetWithTTL(ctx, keyPrefix+token, r.ttl, fields); err != nil {
		return err
	}
	r.logger.Debug("increment plan recorded", "token", token, "key", plan.Key.String(), "freq", plan.Freq)
	return nil
}

func (r *Redis) MarkApplied(ctx context.Context, token string, p projection.Projection) error {
	return r.client.HSetWithTTL(ctx, keyPrefix+token, r.ttl, map[string]any{
		appliedField + p.String(): "1",
	})
}

// Purge drops every stored plan and reports how many were removed.
func (r *Redis) Purge(ctx context.Context) (int64, error) {
	deleted, err := r.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("purging increment ledger: %w", err)
	}
	r.logger.Info("increment ledger purged", "plans_deleted", deleted)
	return deleted, nil
}

func decodePlan(fields map[string]string) (projection.Plan, error) {
	key, err := trigram.NewKey(fields[fieldWord1], fields[fieldWord2], fields[fieldWord3])
	if err != nil {
		return projection.Plan{}, err
	}
	freq, err := strconv.ParseInt(fields[fieldFreq], 10, 64)
	if err != nil {
		return projection.Plan{}, fmt.Errorf("freq field: %w", err)
	}
	created, err := strconv.ParseBool(fields[fieldCreated])
	if err != nil {
		return projection.Plan{}, fmt.Errorf("created field: %w", err)
	}
	plan := projection.Plan{
		Key:     key,
		Freq:    freq,
		Created: created,
		Applied: make(map[projection.Projection]bool, len(projection.All)),
	}
	for _, p := range projection.All {
		if fields[appliedField+p.String()] == "1" {
			plan.Applied[p] = true
		}
	}
	return plan, nil
}
