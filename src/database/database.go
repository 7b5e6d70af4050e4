package database

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/Skythrill256/yield-ranker-sub001/src/logger"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Pool wraps pgxpool.Pool so stores can take it as a dependency.
type Pool struct {
	*pgxpool.Pool
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.L.Info("Database connection established", "host", config.ConnConfig.Host, "database", config.ConnConfig.Database)
	return &Pool{Pool: pool}, nil
}

// RunMigrations applies the embedded schema migrations. Having nothing to
// apply is not an error.
func RunMigrations(pool *Pool) error {
	if pool == nil {
		return errors.New("database connection is not initialized")
	}

	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("open embedded migrations: %w", err)
	}

	db := stdlib.OpenDBFromPool(pool.Pool)
	driver, err := migratepgx.WithInstance(db, &migratepgx.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("create pgx migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", driver)
	if err != nil {
		db.Close()
		return fmt.Errorf("migration instance creation failed: %w", err)
	}
	defer m.Close()

	logger.L.Info("Applying database migrations...")
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.L.Info("No new database migrations to apply.")
			return nil
		}
		return fmt.Errorf("apply migrations: %w", err)
	}
	logger.L.Info("Database migrations applied successfully.")
	return nil
}

// IsNotFoundError reports a query that returned no rows.
func IsNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
