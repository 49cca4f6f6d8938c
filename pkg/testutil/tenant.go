package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopboard/shopboard-backend/pkg/tenant"
)

// TestTenant represents a tenant created for testing
type TestTenant struct {
	ID   string
	Name string
	Slug string
}

// TenantManager manages test tenant rows. With RLS isolation a tenant
// is just a registry row; the policies do the rest.
type TenantManager struct {
	db      *sqlx.DB
	tenants []TestTenant
	mu      sync.Mutex
}

// NewTenantManager creates a new tenant manager for tests
func NewTenantManager(db *sqlx.DB) *TenantManager {
	return &TenantManager{
		db:      db,
		tenants: make([]TestTenant, 0),
	}
}

// CreateTenant registers a new isolated tenant for testing.
// Each test should use its own tenant for isolation.
func (tm *TenantManager) CreateTenant(ctx context.Context, name string) (*TestTenant, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	id := uuid.New().String()
	slug := strings.ToLower(strings.ReplaceAll(name, " ", "-"))

	_, err := tm.db.ExecContext(ctx, `
		INSERT INTO tenants (id, name, slug)
		VALUES ($1, $2, $3)
		ON CONFLICT (slug) DO NOTHING
	`, id, name, slug)
	if err != nil {
		return nil, fmt.Errorf("failed to register tenant: %w", err)
	}

	t := TestTenant{
		ID:   id,
		Name: name,
		Slug: slug,
	}

	tm.tenants = append(tm.tenants, t)
	return &t, nil
}

// DropTenant removes a tenant and all of its rows
func (tm *TenantManager) DropTenant(ctx context.Context, t *TestTenant) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if err := tm.deleteTenantRows(ctx, t.ID); err != nil {
		return err
	}

	for i, tracked := range tm.tenants {
		if tracked.ID == t.ID {
			tm.tenants = append(tm.tenants[:i], tm.tenants[i+1:]...)
			break
		}
	}

	return nil
}

// Cleanup drops all tenants created by this manager
func (tm *TenantManager) Cleanup(ctx context.Context) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	var lastErr error
	for _, t := range tm.tenants {
		if err := tm.deleteTenantRows(ctx, t.ID); err != nil {
			lastErr = err
		}
	}

	tm.tenants = make([]TestTenant, 0)
	return lastErr
}

// deleteTenantRows removes the tenant's data in one tenant-bound
// transaction; the RLS policies require the GUC even for deletes.
func (tm *TenantManager) deleteTenantRows(ctx context.Context, tenantID string) error {
	tx, err := tm.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL app.tenant_id = '%s'", tenantID)); err != nil {
		return err
	}

	statements := []string{
		"DELETE FROM appointment_services",
		"DELETE FROM appointments",
		"DELETE FROM vehicles",
		"DELETE FROM customers",
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to clean tenant rows: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM tenants WHERE id = $1", tenantID); err != nil {
		return fmt.Errorf("failed to delete tenant record: %w", err)
	}

	return tx.Commit()
}

// WithTestTenant binds the tenant to the context the way the HTTP
// middleware would.
func WithTestTenant(ctx context.Context, t *TestTenant) context.Context {
	return tenant.WithID(ctx, t.ID)
}
