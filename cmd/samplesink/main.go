package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/internal/samples"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/config"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/health"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/metrics"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/postgres"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/resilience"
	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/sqlite"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	initSchema := flag.Bool("init-schema", false, "create the sample table before consuming")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting sample sink", "backend", cfg.Store.Backend, "topic", cfg.Kafka.Topics.Samples)

	db, err := openDB(cfg)
	if err != nil {
		slog.Error("failed to open sample database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if *initSchema {
		if err := postgres.ApplySchema(context.Background(), db, []string{samples.Schema}); err != nil {
			slog.Error("failed to create sample table", "error", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	checker := health.NewChecker()
	checker.Register("sample_db", health.Ping(db.PingContext))
	if cfg.Metrics.Enabled {
		shutdown := metrics.StartServer(cfg.Metrics.Port, reg, checker)
		defer shutdown(context.Background())
	}

	store := samples.NewSQLStore(db, cfg.Store.Backend)
	retrying := samples.NewRetryingSink(store, resilience.Backoff{
		Attempts: cfg.Samples.WriteRetries,
		Initial:  100 * time.Millisecond,
		Max:      2 * time.Second,
	})
	handler := samples.HandleEvent(&countingSink{sink: retrying, metrics: m})
	consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.Topics.Samples, handler)

	slog.Info("sample sink ready, consuming from kafka",
		"topic", cfg.Kafka.Topics.Samples,
		"group", cfg.Kafka.ConsumerGroup,
	)
	if err := consumer.Start(ctx); err != nil {
		slog.Error("sample sink stopped on error", "error", err)
		os.Exit(1)
	}
	slog.Info("sample sink stopped")
}

func openDB(cfg *config.Config) (*sql.DB, error) {
	switch cfg.Store.Backend {
	case config.BackendPostgres:
		client, err := postgres.New(cfg.Postgres)
		if err != nil {
			return nil, err
		}
		return client.DB, nil
	case config.BackendSQLite:
		return sqlite.Open(cfg.SQLite)
	default:
		return nil, fmt.Errorf("sample sink needs a postgres or sqlite backend, got %q", cfg.Store.Backend)
	}
}

// countingSink counts stored samples by metric.
type countingSink struct {
	sink    samples.Sink
	metrics *metrics.Metrics
}

func (c *countingSink) Record(ctx context.Context, s ...samples.Sample) error {
	if err := c.sink.Record(ctx, s...); err != nil {
		return err
	}
	for _, smp := range s {
		c.metrics.SampleRecorded(smp.Metric)
	}
	return nil
}
