package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/artifact"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/bulk"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/ledger"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/projection"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/projection/cassandra"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/projection/memstore"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/projection/sqlstore"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/samples"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/service"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/stats"
	pkgcassandra "github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/cassandra"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/postgres"
	pkgredis "github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/sqlite"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// app holds every wired component of one CLI invocation.
type app struct {
	cfg     *config.Config
	store   *projection.Store
	svc     *service.Service
	runner  *bulk.Runner
	engine  *stats.Engine
	checker *health.Checker
	ledger  *ledger.Redis
	closers []func() error
}

func newApp(cfg *config.Config, initSchema bool) (*app, error) {
	a := &app{cfg: cfg, checker: health.NewChecker()}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)
	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port, reg, a.checker)
		a.closers = append(a.closers, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return shutdown(ctx)
		})
	}

	backend, db, err := a.openBackend(initSchema)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, backend.Close)
	a.checker.Register("store", health.Ping(backend.Ping))

	var incrLedger projection.Ledger
	if cfg.Ledger.Enabled {
		client, err := pkgredis.NewClient(cfg.Redis)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connecting increment ledger: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		a.checker.Register("redis", health.Ping(client.Ping))
		a.ledger = ledger.NewRedis(client, cfg.Ledger.TTL)
		incrLedger = a.ledger
	}

	var source stats.SampleSource
	if db != nil {
		source = samples.NewSQLStore(db, cfg.Store.Backend)
	}
	var sink samples.Sink
	if cfg.Samples.Enabled {
		switch cfg.Samples.Sink {
		case config.SinkSQL:
			sink = samples.NewSQLStore(db, cfg.Store.Backend)
		case config.SinkKafka:
			producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.Topics.Samples)
			a.closers = append(a.closers, producer.Close)
			a.checker.RegisterOptional("sample_broker", health.Ping(producer.Ping))
			sink = samples.NewKafkaSink(producer)
		}
		sink = samples.NewGuardedSink(sink, cfg.Samples.PublishTimeout,
			resilience.NewBreaker("sample-sink", resilience.BreakerConfig{
				Threshold: cfg.Samples.BreakerThreshold,
				Cooldown:  cfg.Samples.BreakerCooldown,
			}))
	}

	writer := artifact.NewWriter(cfg.Artifacts, m)
	a.store = projection.NewStore(backend, incrLedger, m)
	a.svc = service.New(a.store, writer, samples.NewRecorder(sink, m))
	a.runner = bulk.NewRunner(a.svc, m)
	a.engine = stats.NewEngine(cfg.Artifacts, cfg.Stats.Percentile, writer, source)

	slog.Info("trigram store ready",
		"backend", cfg.Store.Backend,
		"ledger", cfg.Ledger.Enabled,
		"samples", cfg.Samples.Enabled,
		"artifacts", cfg.Artifacts.Root,
	)
	return a, nil
}

// openBackend connects the configured projection backend. db is the
// underlying SQL handle for the relational backends and nil otherwise.
func (a *app) openBackend(initSchema bool) (projection.Backend, *sql.DB, error) {
	cfg := a.cfg
	var db *sql.DB
	switch cfg.Store.Backend {
	case config.BackendCassandra:
		session, err := pkgcassandra.NewSession(cfg.Cassandra)
		if err != nil {
			return nil, nil, err
		}
		return cassandra.New(session), nil, nil
	case config.BackendMemory:
		return memstore.New(), nil, nil
	case config.BackendPostgres:
		client, err := postgres.New(cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		db = client.DB
	case config.BackendSQLite:
		var err error
		db, err = sqlite.Open(cfg.SQLite)
		if err != nil {
			return nil, nil, err
		}
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	if initSchema {
		stmts := append(sqlstore.Schema(), samples.Schema)
		if err := postgres.ApplySchema(context.Background(), db, stmts); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("applying schema: %w", err)
		}
		slog.Info("schema applied", "backend", cfg.Store.Backend, "statements", len(stmts))
	}

	dialect := sqlstore.SQLite
	if cfg.Store.Backend == config.BackendPostgres {
		dialect = sqlstore.Postgres
	}
	return sqlstore.New(db, dialect), db, nil
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			slog.Warn("close failed", "error", err)
		}
	}
	a.closers = nil
}
