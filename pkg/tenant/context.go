package tenant

import (
	"context"
	"errors"
	"regexp"

	"github.com/google/uuid"
)

// contextKey is a private type for context keys to prevent collisions
type contextKey string

const tenantIDKey contextKey = "tenant_id"

var (
	// ErrNoTenantInContext is returned when tenant context is missing
	ErrNoTenantInContext = errors.New("no tenant in context")
)

// slugPattern matches short tenant slugs: lowercase alphanumeric with
// internal hyphens, 3-63 characters.
var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,61}[a-z0-9]$`)

// ValidID reports whether raw is a syntactically valid tenant identifier.
// Recognized forms are a UUID or a short slug. The persistence gateway
// interpolates the identifier into SET statements, so nothing that fails
// this check may ever reach it.
func ValidID(raw string) bool {
	if raw == "" {
		return false
	}
	if _, err := uuid.Parse(raw); err == nil {
		return true
	}
	return slugPattern.MatchString(raw)
}

// WithID adds the tenant identifier to the context.
// This should be called by middleware after resolving the tenant.
func WithID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// ID extracts the tenant identifier from context.
// Returns ErrNoTenantInContext if no tenant is bound.
func ID(ctx context.Context) (string, error) {
	id, ok := ctx.Value(tenantIDKey).(string)
	if !ok || id == "" {
		return "", ErrNoTenantInContext
	}
	return id, nil
}
