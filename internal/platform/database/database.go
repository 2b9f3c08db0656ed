// Package database manages the PostgreSQL pool that stores learning events.
package database

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/playground/internal/platform/config"
)

//go:embed schema.sql
var schema string

// ErrNoSchema is returned by HealthCheck when the events table is missing.
var ErrNoSchema = errors.New("events table missing, run with a migrated database")

// DB wraps a pgx connection pool.
type DB struct {
	Pool *pgxpool.Pool
}

// ParseURL validates a PostgreSQL connection URL.
func ParseURL(url string) (*pgxpool.Config, error) {
	if url == "" {
		return nil, fmt.Errorf("database URL is empty")
	}
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("invalid database URL: %w", err)
	}
	return cfg, nil
}

// poolConfig maps the playground settings onto a pgx pool config. Zero
// MaxConns keeps the pgx default.
func poolConfig(c config.DatabaseConfig) (*pgxpool.Config, error) {
	cfg, err := ParseURL(c.URL)
	if err != nil {
		return nil, err
	}
	if c.MaxConns > 0 {
		cfg.MaxConns = int32(c.MaxConns)
	}
	if c.MinConns > 0 && c.MinConns <= int(cfg.MaxConns) {
		cfg.MinConns = int32(c.MinConns)
	}
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 2 * time.Minute
	return cfg, nil
}

// Open connects to the database and applies the events schema.
func Open(ctx context.Context, c config.DatabaseConfig) (*DB, error) {
	cfg, err := poolConfig(c)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	db := &DB{Pool: pool}
	if err := db.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the events table and its indexes if they do not exist.
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

// Close shuts down the connection pool.
func (db *DB) Close() {
	db.Pool.Close()
}

// HealthCheck pings the database and confirms the events table exists.
func (db *DB) HealthCheck(ctx context.Context) error {
	var present bool
	err := db.Pool.QueryRow(ctx, `SELECT to_regclass('events') IS NOT NULL`).Scan(&present)
	if err != nil {
		return fmt.Errorf("querying database: %w", err)
	}
	if !present {
		return ErrNoSchema
	}
	return nil
}
