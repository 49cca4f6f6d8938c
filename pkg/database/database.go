package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopboard/shopboard-backend/pkg/config"
	"github.com/shopboard/shopboard-backend/pkg/logger"
)

// DB wraps sqlx.DB with tenant-scoped execution and timeout policy
type DB struct {
	*sqlx.DB
	logger *logger.Logger

	statementTimeout time.Duration
	acquireTimeout   time.Duration
}

// New creates a new database connection pool
func New(cfg *config.DatabaseConfig, log *logger.Logger) (*DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.PoolMax)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return &DB{
		DB:               db,
		logger:           log,
		statementTimeout: cfg.StatementTimeout(),
		acquireTimeout:   cfg.AcquireTimeout(),
	}, nil
}

// NewWithDSN creates a database connection from a DSN string
func NewWithDSN(dsn string, log *logger.Logger, statementTimeout, acquireTimeout time.Duration) (*DB, error) {
	db, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{
		DB:               db,
		logger:           log,
		statementTimeout: statementTimeout,
		acquireTimeout:   acquireTimeout,
	}, nil
}

// NewWithDB wraps an existing sqlx.DB. Used by tests with sqlmock and by
// the integration suite with a container-backed pool.
func NewWithDB(db *sqlx.DB, log *logger.Logger, statementTimeout, acquireTimeout time.Duration) *DB {
	return &DB{
		DB:               db,
		logger:           log,
		statementTimeout: statementTimeout,
		acquireTimeout:   acquireTimeout,
	}
}

// Ping checks the database connection
func (db *DB) Ping(ctx context.Context) error {
	return db.PingContext(ctx)
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}

// Health returns the health status of the database
func (db *DB) Health(ctx context.Context) map[string]string {
	status := map[string]string{
		"status": "up",
	}

	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		status["status"] = "down"
		status["error"] = err.Error()
	}

	return status
}
