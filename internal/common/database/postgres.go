package database

import (
	"context"
	"database/sql"
	"fmt"

	"startup-intake/internal/common/config"

	_ "github.com/lib/pq"
)

// PostgresClient owns the pool shared by the application store.
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres opens the pool without dialing. Ping checks reachability.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres %s/%s: %w", cfg.Host, cfg.Database, err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	lifetime := config.GetDuration(cfg.ConnLifetime)
	db.SetConnMaxLifetime(lifetime)
	db.SetConnMaxIdleTime(lifetime)

	return &PostgresClient{DB: db}, nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	if err := c.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}

// PoolStats is the slice of sql.DBStats reported by the readiness probe.
type PoolStats struct {
	Open    int `json:"open"`
	InUse   int `json:"inUse"`
	Idle    int `json:"idle"`
	MaxOpen int `json:"maxOpen"`
}

func (c *PostgresClient) Stats() PoolStats {
	s := c.DB.Stats()
	return PoolStats{Open: s.OpenConnections, InUse: s.InUse, Idle: s.Idle, MaxOpen: s.MaxOpenConnections}
}

func (c *PostgresClient) Close() error {
	if c.DB == nil {
		return nil
	}
	return c.DB.Close()
}
