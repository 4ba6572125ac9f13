package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dtroode/userdir-server/database"
)

const applicationName = "userdir-server"

var errNotOpen = errors.New("postgres connection is not open")

// Connection is a pgx pool over a migrated users schema.
type Connection struct {
	*pgxpool.Pool
}

// NewConnection migrates the schema behind dsn, then opens a pool and checks
// that it can reach the server.
func NewConnection(ctx context.Context, dsn string) (*Connection, error) {
	poolCfg, err := poolConfig(dsn)
	if err != nil {
		return nil, err
	}

	if err := database.Migrate(ctx, dsn); err != nil {
		return nil, fmt.Errorf("failed to migrate users schema: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	conn := &Connection{Pool: pool}
	if err := conn.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}

	return conn, nil
}

// poolConfig parses dsn and fills in settings the dsn leaves unset. One idle
// connection is kept for the store health check.
func poolConfig(dsn string) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres dsn: %w", err)
	}

	if cfg.MinConns == 0 {
		cfg.MinConns = 1
	}
	if _, ok := cfg.ConnConfig.RuntimeParams["application_name"]; !ok {
		cfg.ConnConfig.RuntimeParams["application_name"] = applicationName
	}

	return cfg, nil
}

func (c *Connection) Close() error {
	if c == nil || c.Pool == nil {
		return nil
	}
	c.Pool.Close()
	return nil
}

// Ping reports whether the pool can reach the server.
func (c *Connection) Ping(ctx context.Context) error {
	if c == nil || c.Pool == nil {
		return errNotOpen
	}
	return c.Pool.Ping(ctx)
}
