// Package testutil provides testing utilities for the board service.
// It includes a testcontainers PostgreSQL harness with the RLS schema,
// tenant context helpers, sqlmock wrappers, and fixture builders.
package testutil

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresContainer wraps a testcontainers PostgreSQL instance
type PostgresContainer struct {
	*postgres.PostgresContainer
	DSN string
}

// PostgresContainerConfig configures the test PostgreSQL container
type PostgresContainerConfig struct {
	Database string
	Username string
	Password string
	Image    string // Optional: defaults to postgres:15-alpine
}

// DefaultPostgresConfig returns sensible defaults for test containers
func DefaultPostgresConfig() PostgresContainerConfig {
	return PostgresContainerConfig{
		Database: "shopboard_test",
		Username: "test",
		Password: "test",
		Image:    "postgres:15-alpine",
	}
}

// NewPostgresContainer creates a new PostgreSQL test container
func NewPostgresContainer(ctx context.Context, cfg PostgresContainerConfig) (*PostgresContainer, error) {
	if cfg.Image == "" {
		cfg.Image = "postgres:15-alpine"
	}
	if cfg.Database == "" {
		cfg.Database = "shopboard_test"
	}
	if cfg.Username == "" {
		cfg.Username = "test"
	}
	if cfg.Password == "" {
		cfg.Password = "test"
	}

	container, err := postgres.RunContainer(ctx,
		testcontainers.WithImage(cfg.Image),
		postgres.WithDatabase(cfg.Database),
		postgres.WithUsername(cfg.Username),
		postgres.WithPassword(cfg.Password),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &PostgresContainer{
		PostgresContainer: container,
		DSN:               dsn,
	}, nil
}

// Connect returns a sqlx.DB connection to the container
func (c *PostgresContainer) Connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", c.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to test database: %w", err)
	}
	return db, nil
}

// Terminate stops and removes the container
func (c *PostgresContainer) Terminate(ctx context.Context) error {
	return c.PostgresContainer.Terminate(ctx)
}

// CreateSchema creates the board schema with row level security.
// All tenants share the tables; policies bind visibility to the
// app.tenant_id setting the gateway establishes per transaction.
// FORCE makes the policies apply to the table owner too, so even the
// test connection cannot read across tenants without the GUC.
func (c *PostgresContainer) CreateSchema(ctx context.Context, db *sqlx.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS tenants (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(255) NOT NULL,
			slug VARCHAR(100) UNIQUE NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS customers (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id),
			name VARCHAR(255) NOT NULL,
			phone VARCHAR(50),
			email VARCHAR(255),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS vehicles (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id),
			customer_id UUID REFERENCES customers(id),
			make VARCHAR(100),
			model VARCHAR(100),
			license_plate VARCHAR(20),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS appointments (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id),
			customer_id UUID REFERENCES customers(id),
			vehicle_id UUID REFERENCES vehicles(id),
			status VARCHAR(20) NOT NULL DEFAULT 'scheduled',
			position INT NOT NULL DEFAULT 0,
			title VARCHAR(255) NOT NULL DEFAULT '',
			notes TEXT,
			start_ts TIMESTAMPTZ,
			end_ts TIMESTAMPTZ,
			check_in_at TIMESTAMPTZ,
			check_out_at TIMESTAMPTZ,
			total_amount_cents BIGINT,
			paid_amount_cents BIGINT NOT NULL DEFAULT 0,
			voided BOOLEAN NOT NULL DEFAULT FALSE,
			version BIGINT NOT NULL DEFAULT 1,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT appointments_status_valid CHECK (
				status IN ('scheduled', 'in_progress', 'ready', 'completed', 'no_show', 'canceled')
			),
			CONSTRAINT appointments_position_nonnegative CHECK (position >= 0),
			CONSTRAINT appointments_paid_le_total CHECK (
				total_amount_cents IS NULL OR paid_amount_cents <= total_amount_cents
			),
			CONSTRAINT appointments_checkout_after_checkin CHECK (
				check_out_at IS NULL OR check_in_at IS NULL OR check_out_at >= check_in_at
			)
		);

		CREATE INDEX IF NOT EXISTS appointments_lane_idx
			ON appointments (tenant_id, status, position);
		CREATE INDEX IF NOT EXISTS appointments_start_ts_idx
			ON appointments (tenant_id, start_ts);

		CREATE TABLE IF NOT EXISTS appointment_services (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			tenant_id UUID NOT NULL REFERENCES tenants(id),
			appointment_id UUID NOT NULL REFERENCES appointments(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			estimated_hours NUMERIC(6,2),
			estimated_price_cents BIGINT,
			category VARCHAR(100)
		);

		ALTER TABLE customers ENABLE ROW LEVEL SECURITY;
		ALTER TABLE customers FORCE ROW LEVEL SECURITY;
		ALTER TABLE vehicles ENABLE ROW LEVEL SECURITY;
		ALTER TABLE vehicles FORCE ROW LEVEL SECURITY;
		ALTER TABLE appointments ENABLE ROW LEVEL SECURITY;
		ALTER TABLE appointments FORCE ROW LEVEL SECURITY;
		ALTER TABLE appointment_services ENABLE ROW LEVEL SECURITY;
		ALTER TABLE appointment_services FORCE ROW LEVEL SECURITY;

		DO $$
		DECLARE
			tbl TEXT;
		BEGIN
			FOREACH tbl IN ARRAY ARRAY['customers', 'vehicles', 'appointments', 'appointment_services']
			LOOP
				IF NOT EXISTS (
					SELECT 1 FROM pg_policies
					WHERE tablename = tbl AND policyname = 'tenant_isolation'
				) THEN
					EXECUTE format(
						'CREATE POLICY tenant_isolation ON %I
							USING (tenant_id = current_setting(''app.tenant_id'', true)::uuid)
							WITH CHECK (tenant_id = current_setting(''app.tenant_id'', true)::uuid)',
						tbl
					);
				END IF;
			END LOOP;
		END
		$$;
	`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create board schema: %w", err)
	}

	return nil
}
