// Package cassandra builds gocql sessions for Cassandra/ScyllaDB clusters
// from the platform configuration.
package cassandra

import (
	"fmt"

	"github.com/Adithya-Monish-Kumar-K/Trigram-Frequency-Store/pkg/config"
	"github.com/gocql/gocql"
)

// NewSession connects to the cluster. Every query issued through the session
// defaults to cfg.Consistency.
func NewSession(cfg config.CassandraConfig) (*gocql.Session, error) {
	consistency, err := gocql.ParseConsistencyWrapper(cfg.Consistency)
	if err != nil {
		return nil, fmt.Errorf("parsing consistency %q: %w", cfg.Consistency, err)
	}
	cluster := gocql.NewCluster(cfg.Hosts...)
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = consistency
	if cfg.Timeout > 0 {
		cluster.Timeout = cfg.Timeout
	}
	if cfg.ConnectTimeout > 0 {
		cluster.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.NumConns > 0 {
		cluster.NumConns = cfg.NumConns
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("connecting to cassandra %v: %w", cfg.Hosts, err)
	}
	return session, nil
}
