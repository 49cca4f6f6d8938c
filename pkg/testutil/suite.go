package testutil

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopboard/shopboard-backend/pkg/database"
	"github.com/shopboard/shopboard-backend/pkg/logger"
)

var (
	// Global test container (shared across all integration tests)
	globalContainer *PostgresContainer
	globalDB        *sqlx.DB
	containerOnce   sync.Once
	containerErr    error
)

// IntegrationSuite provides a base for integration tests with real
// PostgreSQL and RLS policies in force.
type IntegrationSuite struct {
	Container     *PostgresContainer
	RawDB         *sqlx.DB
	DB            *database.DB
	TenantManager *TenantManager
	Fixtures      *FixtureFactory
	Logger        *logger.Logger
}

// NewIntegrationSuite creates a new integration test suite.
// Call this in TestMain to set up shared test infrastructure.
//
// Usage:
//
//	var suite *testutil.IntegrationSuite
//
//	func TestMain(m *testing.M) {
//	    ctx := context.Background()
//
//	    s, err := testutil.NewIntegrationSuite(ctx)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    suite = s
//	    code := m.Run()
//	    suite.Cleanup(ctx)
//	    os.Exit(code)
//	}
func NewIntegrationSuite(ctx context.Context) (*IntegrationSuite, error) {
	container, db, err := getOrCreateContainer(ctx)
	if err != nil {
		return nil, err
	}

	if err := container.CreateSchema(ctx, db); err != nil {
		return nil, err
	}

	log := logger.New("test", "test")
	wrappedDB, err := database.NewWithDSN(container.DSN, log, 5*time.Second, 2*time.Second)
	if err != nil {
		return nil, err
	}

	return &IntegrationSuite{
		Container:     container,
		RawDB:         db,
		DB:            wrappedDB,
		TenantManager: NewTenantManager(db),
		Fixtures:      NewFixtureFactory(),
		Logger:        log,
	}, nil
}

// getOrCreateContainer returns the shared test container
func getOrCreateContainer(ctx context.Context) (*PostgresContainer, *sqlx.DB, error) {
	containerOnce.Do(func() {
		globalContainer, containerErr = NewPostgresContainer(ctx, DefaultPostgresConfig())
		if containerErr != nil {
			return
		}
		globalDB, containerErr = globalContainer.Connect(ctx)
	})

	return globalContainer, globalDB, containerErr
}

// SetupTenant creates a tenant for a specific test. Each test should
// use its own tenant for isolation.
func (s *IntegrationSuite) SetupTenant(t *testing.T, ctx context.Context, name string) *TestTenant {
	t.Helper()

	tenant, err := s.TenantManager.CreateTenant(ctx, name)
	if err != nil {
		t.Fatalf("failed to create tenant: %v", err)
	}

	t.Cleanup(func() {
		if err := s.TenantManager.DropTenant(ctx, tenant); err != nil {
			t.Logf("warning: failed to drop tenant %s: %v", tenant.Slug, err)
		}
	})

	return tenant
}

// TenantContext returns a context with the tenant set
func (s *IntegrationSuite) TenantContext(tenant *TestTenant) context.Context {
	return WithTestTenant(context.Background(), tenant)
}

// SeedCustomer inserts a customer through the tenant-bound gateway
func (s *IntegrationSuite) SeedCustomer(t *testing.T, ctx context.Context, c *CustomerFixture) {
	t.Helper()
	err := s.DB.WithTenantTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO customers (id, tenant_id, name, phone, email)
			VALUES ($1, current_setting('app.tenant_id')::uuid, $2, $3, $4)`,
			c.ID, c.Name, c.Phone, c.Email)
		return err
	})
	if err != nil {
		t.Fatalf("failed to seed customer: %v", err)
	}
}

// SeedVehicle inserts a vehicle through the tenant-bound gateway
func (s *IntegrationSuite) SeedVehicle(t *testing.T, ctx context.Context, v *VehicleFixture) {
	t.Helper()
	err := s.DB.WithTenantTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO vehicles (id, tenant_id, customer_id, make, model, license_plate)
			VALUES ($1, current_setting('app.tenant_id')::uuid, $2, $3, $4, $5)`,
			v.ID, v.CustomerID, v.Make, v.Model, v.LicensePlate)
		return err
	})
	if err != nil {
		t.Fatalf("failed to seed vehicle: %v", err)
	}
}

// SeedAppointment inserts an appointment through the tenant-bound gateway
func (s *IntegrationSuite) SeedAppointment(t *testing.T, ctx context.Context, a *AppointmentFixture) {
	t.Helper()
	if a.Version == 0 {
		a.Version = 1
	}
	err := s.DB.WithTenantTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO appointments (
				id, tenant_id, customer_id, vehicle_id, status, position, title,
				start_ts, end_ts, check_in_at, check_out_at,
				total_amount_cents, paid_amount_cents, voided, version
			) VALUES (
				$1, current_setting('app.tenant_id')::uuid, $2, $3, $4, $5, $6,
				$7, $8, $9, $10, $11, $12, $13, $14
			)`,
			a.ID, nullableID(a.CustomerID), nullableID(a.VehicleID), a.Status, a.Position, a.Title,
			a.StartTS, a.EndTS, a.CheckInAt, a.CheckOutAt,
			a.TotalAmountCents, a.PaidAmountCents, a.Voided, a.Version)
		return err
	})
	if err != nil {
		t.Fatalf("failed to seed appointment: %v", err)
	}
}

// SeedService inserts a service line through the tenant-bound gateway
func (s *IntegrationSuite) SeedService(t *testing.T, ctx context.Context, svc *ServiceFixture) {
	t.Helper()
	err := s.DB.WithTenantTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO appointment_services (
				id, tenant_id, appointment_id, name, estimated_hours, estimated_price_cents, category
			) VALUES (
				$1, current_setting('app.tenant_id')::uuid, $2, $3, $4, $5, $6
			)`,
			svc.ID, svc.AppointmentID, svc.Name, svc.EstimatedHours, svc.EstimatedPriceCents, svc.Category)
		return err
	})
	if err != nil {
		t.Fatalf("failed to seed service: %v", err)
	}
}

func nullableID(id string) interface{} {
	if id == "" {
		return nil
	}
	return id
}

// Cleanup cleans up all test resources
func (s *IntegrationSuite) Cleanup(ctx context.Context) error {
	return s.TenantManager.Cleanup(ctx)
}

// TerminateContainer terminates the shared container.
// Only call this in TestMain after all tests have completed.
func TerminateContainer(ctx context.Context) {
	if globalContainer != nil {
		globalContainer.Terminate(ctx)
	}
}

// GetEnvOrDefault returns environment variable or default value
func GetEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
