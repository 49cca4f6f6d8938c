package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	apperrors "github.com/shopboard/shopboard-backend/pkg/errors"
	"github.com/shopboard/shopboard-backend/pkg/tenant"
)

// WithTenantTx executes a function inside a transaction bound to the
// tenant in ctx. This is the only path through which tenant-scoped
// writes may touch the database.
//
// Usage in repositories:
//
//	err := r.db.WithTenantTx(ctx, func(tx *sqlx.Tx) error {
//	    _, err := tx.ExecContext(ctx, "UPDATE appointments SET ...")
//	    return err
//	})
//
// How it works:
//  1. Starts a transaction, bounded by the pool acquire timeout
//  2. Sets "SET LOCAL statement_timeout = <ms>"
//  3. Sets "SET LOCAL app.tenant_id = '<tenant-id>'"
//  4. RLS policies filter rows: USING (tenant_id = current_setting('app.tenant_id'))
//  5. Commits, which clears the LOCAL settings; rollback and connection
//     death clear them too, so a pooled connection never leaks tenant state
func (db *DB) WithTenantTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.beginTenantTx(ctx)
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			db.logger.Error().Err(rbErr).Msg("failed to rollback tenant transaction")
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit tenant transaction: %w", err)
	}

	return nil
}

// WithTenantConn executes a read-only function with tenant isolation.
// Reads share the transactional mechanism so SET LOCAL cleanup holds on
// every exit path, but the transaction is always rolled back.
func (db *DB) WithTenantConn(ctx context.Context, fn func(q sqlx.QueryerContext) error) error {
	tx, err := db.beginTenantTx(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			db.logger.Error().Err(rbErr).Msg("failed to release tenant read transaction")
		}
	}()

	return fn(tx)
}

// beginTenantTx opens a transaction and binds the tenant GUC and
// statement timeout to it.
func (db *DB) beginTenantTx(ctx context.Context) (*sqlx.Tx, error) {
	tenantID, err := tenant.ID(ctx)
	if err != nil {
		return nil, apperrors.MissingTenant().WithCause(err)
	}
	if !tenant.ValidID(tenantID) {
		return nil, apperrors.InvalidTenant()
	}

	acquireCtx, cancel := context.WithTimeout(ctx, db.acquireTimeout)
	defer cancel()

	tx, err := db.BeginTxx(acquireCtx, nil)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, apperrors.ResourceExhausted("database is busy, retry shortly").WithCause(err)
		}
		return nil, fmt.Errorf("failed to begin tenant transaction: %w", err)
	}

	if db.statementTimeout > 0 {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL statement_timeout = %d", db.statementTimeout.Milliseconds())); err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("failed to set statement_timeout: %w", err)
		}
	}

	// SET LOCAL does not take bind parameters. Interpolation is safe only
	// because tenant.ValidID restricts the value to UUID or slug syntax.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL app.tenant_id = '%s'", tenantID)); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to set app.tenant_id: %w", err)
	}

	return tx, nil
}
