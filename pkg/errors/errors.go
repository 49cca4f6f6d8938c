package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinel errors for errors.Is checks across layers.
var (
	ErrBadRequest        = errors.New("bad request")
	ErrAuthRequired      = errors.New("authentication required")
	ErrForbidden         = errors.New("forbidden")
	ErrNotFound          = errors.New("resource not found")
	ErrConflict          = errors.New("version conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidState      = errors.New("invalid state")
	ErrRateLimited       = errors.New("rate limited")
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrInternal          = errors.New("internal error")
)

// AppError is the single error type that crosses component boundaries.
// Code is a stable, machine-readable identifier; Detail is safe,
// non-leaky prose. Internal causes ride in Err and are logged, never
// echoed to clients.
type AppError struct {
	Err        error             `json:"-"`
	Code       string            `json:"code"`
	Detail     string            `json:"detail"`
	StatusCode int               `json:"status"`
	Fields     map[string]string `json:"fields,omitempty"`

	// Current carries the fresh entity on OCC conflicts so clients can
	// reconcile without a second round trip.
	Current any `json:"-"`

	// RetryAfter is set for rate_limited and resource_exhausted errors.
	RetryAfter time.Duration `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.Err)
	}
	return e.Detail
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithCause attaches an internal cause for logging
func (e *AppError) WithCause(err error) *AppError {
	e.Err = err
	return e
}

// Error constructors, one per kind in the taxonomy.

func BadRequest(detail string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "bad_request",
		Detail:     detail,
		StatusCode: http.StatusBadRequest,
	}
}

func Validation(fields map[string]string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "bad_request",
		Detail:     "validation failed",
		StatusCode: http.StatusBadRequest,
		Fields:     fields,
	}
}

func AuthRequired(detail string) *AppError {
	return &AppError{
		Err:        ErrAuthRequired,
		Code:       "auth_required",
		Detail:     detail,
		StatusCode: http.StatusUnauthorized,
	}
}

func Forbidden(detail string) *AppError {
	return &AppError{
		Err:        ErrForbidden,
		Code:       "forbidden",
		Detail:     detail,
		StatusCode: http.StatusForbidden,
	}
}

// MissingTenant is returned when a tenant-scoped route has no resolvable tenant.
func MissingTenant() *AppError {
	return &AppError{
		Err:        ErrForbidden,
		Code:       "missing_tenant",
		Detail:     "tenant context is required",
		StatusCode: http.StatusForbidden,
	}
}

// TenantMismatch is returned when the tenant header disagrees with the
// authenticated principal's tenant affinity.
func TenantMismatch() *AppError {
	return &AppError{
		Err:        ErrForbidden,
		Code:       "tenant_mismatch",
		Detail:     "tenant header does not match credentials",
		StatusCode: http.StatusForbidden,
	}
}

// InvalidTenant is returned for syntactically malformed tenant identifiers.
func InvalidTenant() *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		Code:       "invalid_tenant",
		Detail:     "tenant identifier is malformed",
		StatusCode: http.StatusBadRequest,
	}
}

func NotFound(resource string) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		Code:       "not_found",
		Detail:     fmt.Sprintf("%s not found", resource),
		StatusCode: http.StatusNotFound,
	}
}

// Conflict reports an optimistic-concurrency version mismatch. current is
// the entity at its present version, surfaced to the client via meta.
func Conflict(detail string, current any) *AppError {
	return &AppError{
		Err:        ErrConflict,
		Code:       "conflict",
		Detail:     detail,
		StatusCode: http.StatusConflict,
		Current:    current,
	}
}

func InvalidTransition(from, to string) *AppError {
	return &AppError{
		Err:        ErrInvalidTransition,
		Code:       "invalid_transition",
		Detail:     fmt.Sprintf("cannot move appointment from %s to %s", from, to),
		StatusCode: http.StatusUnprocessableEntity,
	}
}

func InvalidState(detail string) *AppError {
	return &AppError{
		Err:        ErrInvalidState,
		Code:       "invalid_state",
		Detail:     detail,
		StatusCode: http.StatusUnprocessableEntity,
	}
}

func RateLimited(retryAfter time.Duration) *AppError {
	return &AppError{
		Err:        ErrRateLimited,
		Code:       "rate_limited",
		Detail:     "too many move requests, slow down",
		StatusCode: http.StatusTooManyRequests,
		RetryAfter: retryAfter,
	}
}

func ResourceExhausted(detail string) *AppError {
	return &AppError{
		Err:        ErrResourceExhausted,
		Code:       "resource_exhausted",
		Detail:     detail,
		StatusCode: http.StatusServiceUnavailable,
		RetryAfter: time.Second,
	}
}

func Internal(detail string) *AppError {
	return &AppError{
		Err:        ErrInternal,
		Code:       "internal",
		Detail:     detail,
		StatusCode: http.StatusInternalServerError,
	}
}

// AsAppError extracts an AppError from err's chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// Is checks if the error matches a target error
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As attempts to convert an error to a specific type
func As(err error, target any) bool {
	return errors.As(err, target)
}
