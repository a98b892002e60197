// Package postgres provides a PostgreSQL implementation of gallery.PhotoStore.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/gallery/internal/migrations"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

// DB wraps the database connection pool and exposes the photo store.
type DB struct {
	pool   *pgxpool.Pool
	logger *slog.Logger

	PhotoStore *PhotoStore
}

// Open connects to databaseURL, runs migrations and returns the wrapper.
func Open(ctx context.Context, databaseURL string, logger *slog.Logger) (*DB, error) {
	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}
	poolCfg.MaxConns = 10
	poolCfg.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	sqlDB := stdlib.OpenDBFromPool(pool)
	err = migrations.Up(sqlDB, migrations.DialectPostgres)
	sqlDB.Close()
	if err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("database connected",
		slog.Int("max_conns", int(poolCfg.MaxConns)),
		slog.Int("min_conns", int(poolCfg.MinConns)))

	return NewDB(pool, logger), nil
}

// NewDB creates a new database wrapper with the store initialized.
func NewDB(pool *pgxpool.Pool, logger *slog.Logger) *DB {
	db := &DB{pool: pool, logger: logger}
	db.PhotoStore = &PhotoStore{db: db}
	return db
}

// Pool returns the underlying connection pool.
// Use sparingly - prefer using store methods.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Close closes the database connection pool.
func (db *DB) Close() {
	db.pool.Close()
}
