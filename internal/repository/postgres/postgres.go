// Package postgres implements the repository interfaces on PostgreSQL via
// a pgx connection pool. The production deployment of MindPlace runs
// against a DATABASE_URL-style Postgres; the sqlite package covers
// single-file and test setups.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrations embed.FS

// DB wraps the pgx connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// New creates a connection pool for url and runs pending migrations.
func New(ctx context.Context, url string, logger *slog.Logger) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("postgres: parsing connection string: %w", err)
	}
	poolConfig.MaxConns = 10
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres: creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: pinging database: %w", err)
	}

	if err := runMigrations(url); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("connected to postgres",
		slog.String("database", poolConfig.ConnConfig.Database),
		slog.String("host", poolConfig.ConnConfig.Host),
	)
	return &DB{pool: pool}, nil
}

// runMigrations applies the embedded goose migrations. goose needs a
// database/sql handle, so a short-lived stdlib connection is opened just
// for this.
func runMigrations(url string) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("postgres: setting goose dialect: %w", err)
	}
	goose.SetBaseFS(migrations)

	stdDB, err := sql.Open("pgx", url)
	if err != nil {
		return fmt.Errorf("postgres: opening migration connection: %w", err)
	}
	defer stdDB.Close()

	if err := goose.Up(stdDB, "migrations"); err != nil {
		return fmt.Errorf("postgres: running migrations: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	db.pool.Close()
	return nil
}

// Ping checks whether the database is reachable.
func (db *DB) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.pool.Ping(ctx)
}
