// Package principal identifies the authenticated actor behind a request.
// A Principal is created by the authentication gate, lives for the
// request, and travels through the context.
package principal

import (
	"context"
	"fmt"
)

// Role is the fixed set of roles a principal may hold.
type Role string

const (
	RoleOwner      Role = "owner"
	RoleAdvisor    Role = "advisor"
	RoleTechnician Role = "technician"
	RoleAccountant Role = "accountant"
	RoleCustomer   Role = "customer"
)

// KnownRole reports whether r is one of the defined roles.
func KnownRole(r Role) bool {
	switch r {
	case RoleOwner, RoleAdvisor, RoleTechnician, RoleAccountant, RoleCustomer:
		return true
	}
	return false
}

// Principal is the authenticated actor making a request.
type Principal struct {
	// ID is the subject identifier from the credential
	ID string `json:"id"`

	// Email is the actor's email address, when the credential carries one
	Email string `json:"email,omitempty"`

	// Role is the actor's role within the tenant
	Role Role `json:"role"`

	// TenantID is the tenant the actor belongs to
	TenantID string `json:"tenant_id"`
}

// String returns a representation for logging
func (p *Principal) String() string {
	if p == nil {
		return "anonymous"
	}
	return fmt.Sprintf("%s (%s)", p.ID, p.Role)
}

// contextKey is the type for context keys to avoid collisions
type contextKey string

const principalContextKey contextKey = "principal"

// FromContext retrieves the Principal from the context.
// Returns nil when the request is unauthenticated.
func FromContext(ctx context.Context) *Principal {
	if ctx == nil {
		return nil
	}
	p, ok := ctx.Value(principalContextKey).(*Principal)
	if !ok {
		return nil
	}
	return p
}

// WithPrincipal returns a new context with the Principal attached.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, principalContextKey, p)
}
