// Package config loads and validates application configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Store, Cassandra, Postgres, SQLite, Redis, Kafka, Artifacts, etc.).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend names accepted by StoreConfig.Backend.
const (
	BackendCassandra = "cassandra"
	BackendPostgres  = "postgres"
	BackendSQLite    = "sqlite"
	BackendMemory    = "memory"
)

// Sample sink names accepted by SamplesConfig.Sink.
const (
	SinkSQL   = "sql"
	SinkKafka = "kafka"
)

// Config is the top-level application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store"`
	Cassandra CassandraConfig `yaml:"cassandra"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	SQLite    SQLiteConfig    `yaml:"sqlite"`
	Redis     RedisConfig     `yaml:"redis"`
	Ledger    LedgerConfig    `yaml:"ledger"`
	Kafka     KafkaConfig     `yaml:"kafka"`
	Samples   SamplesConfig   `yaml:"samples"`
	Artifacts ArtifactsConfig `yaml:"artifacts"`
	Stats     StatsConfig     `yaml:"stats"`
	Logging   LoggingConfig   `yaml:"logging"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// StoreConfig selects the backing store for the three projections.
type StoreConfig struct {
	Backend string `yaml:"backend"`
}

// CassandraConfig holds cluster contact points and query settings for the
// wide-column backend.
type CassandraConfig struct {
	Hosts          []string      `yaml:"hosts"`
	Keyspace       string        `yaml:"keyspace"`
	Consistency    string        `yaml:"consistency"`
	Timeout        time.Duration `yaml:"timeout"`
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
	NumConns       int           `yaml:"numConns"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Database        string        `yaml:"database"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslMode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// DSN returns a lib/pq-compatible data source name.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// SQLiteConfig points at the embedded database file.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"poolSize"`
}

// LedgerConfig controls the increment-token ledger that makes retried
// increments skip projections they already wrote.
type LedgerConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

// KafkaConfig holds Kafka broker and topic settings.
type KafkaConfig struct {
	Brokers       []string    `yaml:"brokers"`
	ConsumerGroup string      `yaml:"consumerGroup"`
	Topics        KafkaTopics `yaml:"topics"`
}

// KafkaTopics maps logical topic names to their Kafka topic strings.
type KafkaTopics struct {
	Samples string `yaml:"samples"`
}

// SamplesConfig controls structured timing sample recording.
type SamplesConfig struct {
	Enabled bool   `yaml:"enabled"`
	Sink    string `yaml:"sink"`
	// PublishTimeout bounds each publish to the sink.
	PublishTimeout time.Duration `yaml:"publishTimeout"`
	// BreakerThreshold consecutive publish failures stop publishing for
	// BreakerCooldown.
	BreakerThreshold int           `yaml:"breakerThreshold"`
	BreakerCooldown  time.Duration `yaml:"breakerCooldown"`
	// WriteRetries is how often the sample consumer retries a failed insert.
	WriteRetries int `yaml:"writeRetries"`
}

// ArtifactsConfig lays out the flat artifact directories. Empty sub-directories
// are derived from Root.
type ArtifactsConfig struct {
	Root           string `yaml:"root"`
	SelectDir      string `yaml:"selectDir"`
	InsertDir      string `yaml:"insertDir"`
	SelectStatsDir string `yaml:"selectStatsDir"`
	InsertStatsDir string `yaml:"insertStatsDir"`
	InputDir       string `yaml:"inputDir"`
}

// StatsConfig controls the statistics engine.
type StatsConfig struct {
	Percentile int `yaml:"percentile"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing
// values.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	cfg.Artifacts.fillDirs()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendCassandra, BackendPostgres, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Samples.Enabled {
		switch c.Samples.Sink {
		case SinkSQL:
			if c.Store.Backend != BackendPostgres && c.Store.Backend != BackendSQLite {
				return fmt.Errorf("sample sink %q needs a postgres or sqlite store backend", c.Samples.Sink)
			}
		case SinkKafka:
		default:
			return fmt.Errorf("unknown sample sink %q", c.Samples.Sink)
		}
	}
	if c.Stats.Percentile < 0 || c.Stats.Percentile > 100 {
		return fmt.Errorf("stats percentile %d out of range [0,100]", c.Stats.Percentile)
	}
	return nil
}

func (a *ArtifactsConfig) fillDirs() {
	if a.SelectDir == "" {
		a.SelectDir = filepath.Join(a.Root, "query-results", "select")
	}
	if a.InsertDir == "" {
		a.InsertDir = filepath.Join(a.Root, "query-results", "insert")
	}
	if a.SelectStatsDir == "" {
		a.SelectStatsDir = filepath.Join(a.Root, "stats", "select")
	}
	if a.InsertStatsDir == "" {
		a.InsertStatsDir = filepath.Join(a.Root, "stats", "insert")
	}
	if a.InputDir == "" {
		a.InputDir = filepath.Join(a.Root, "query-inputs")
	}
}

// defaultConfig returns a Config with defaults for local development.
func defaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: BackendCassandra,
		},
		Cassandra: CassandraConfig{
			Hosts:          []string{"127.0.0.1:9042"},
			Keyspace:       "n_grams",
			Consistency:    "ONE",
			Timeout:        5 * time.Second,
			ConnectTimeout: 5 * time.Second,
			NumConns:       2,
		},
		Postgres: PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			Database:        "n_grams",
			User:            "n_grams",
			Password:        "localdev",
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 5 * time.Minute,
		},
		SQLite: SQLiteConfig{
			Path: "n_grams.db",
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			Password: "",
			DB:       0,
			PoolSize: 10,
		},
		Ledger: LedgerConfig{
			Enabled: false,
			TTL:     24 * time.Hour,
		},
		Kafka: KafkaConfig{
			Brokers:       []string{"localhost:9092"},
			ConsumerGroup: "trigram-samples",
			Topics: KafkaTopics{
				Samples: "trigram-timing-samples",
			},
		},
		Samples: SamplesConfig{
			Enabled:          false,
			Sink:             SinkSQL,
			PublishTimeout:   2 * time.Second,
			BreakerThreshold: 5,
			BreakerCooldown:  30 * time.Second,
			WriteRetries:     3,
		},
		Artifacts: ArtifactsConfig{
			Root: "/home/projekt",
		},
		Stats: StatsConfig{
			Percentile: 90,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

// applyEnvOverrides reads TG_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TG_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("TG_CASSANDRA_HOSTS"); v != "" {
		cfg.Cassandra.Hosts = strings.Split(v, ",")
	}
	// SCYLLA_URI is honoured for compatibility with existing deployments.
	if v := os.Getenv("SCYLLA_URI"); v != "" && os.Getenv("TG_CASSANDRA_HOSTS") == "" {
		cfg.Cassandra.Hosts = []string{v}
	}
	if v := os.Getenv("TG_CASSANDRA_KEYSPACE"); v != "" {
		cfg.Cassandra.Keyspace = v
	}
	if v := os.Getenv("TG_CASSANDRA_CONSISTENCY"); v != "" {
		cfg.Cassandra.Consistency = v
	}
	if v := os.Getenv("TG_POSTGRES_HOST"); v != "" {
		cfg.Postgres.Host = v
	}
	if v := os.Getenv("TG_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Postgres.Port = port
		}
	}
	if v := os.Getenv("TG_POSTGRES_DATABASE"); v != "" {
		cfg.Postgres.Database = v
	}
	if v := os.Getenv("TG_POSTGRES_USER"); v != "" {
		cfg.Postgres.User = v
	}
	if v := os.Getenv("TG_POSTGRES_PASSWORD"); v != "" {
		cfg.Postgres.Password = v
	}
	if v := os.Getenv("TG_POSTGRES_SSLMODE"); v != "" {
		cfg.Postgres.SSLMode = v
	}
	if v := os.Getenv("TG_SQLITE_PATH"); v != "" {
		cfg.SQLite.Path = v
	}
	if v := os.Getenv("TG_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("TG_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("TG_LEDGER_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Ledger.Enabled = enabled
		}
	}
	if v := os.Getenv("TG_KAFKA_BROKERS"); v != "" {
		cfg.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("TG_SAMPLES_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Samples.Enabled = enabled
		}
	}
	if v := os.Getenv("TG_SAMPLES_SINK"); v != "" {
		cfg.Samples.Sink = v
	}
	if v := os.Getenv("TG_SAMPLES_PUBLISH_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Samples.PublishTimeout = d
		}
	}
	if v := os.Getenv("TG_ARTIFACTS_ROOT"); v != "" {
		cfg.Artifacts.Root = v
	}
	if v := os.Getenv("TG_STATS_PERCENTILE"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Stats.Percentile = p
		}
	}
	if v := os.Getenv("TG_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TG_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("TG_METRICS_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = enabled
		}
	}
	if v := os.Getenv("TG_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}
