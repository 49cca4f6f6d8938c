package database

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	apperrors "github.com/shopboard/shopboard-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with safe messages.
// Returns nil if the error is not a pq.Error the mapper recognizes.
func MapPQError(err error) *apperrors.AppError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return apperrors.Conflict("a record with these values already exists", nil)

	// Foreign key violation (23503)
	case "23503":
		return apperrors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return apperrors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// IsSerializationFailure reports whether err is a retryable concurrency
// error: serialization_failure (40001) or deadlock_detected (40P01).
func IsSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}

// mapCheckConstraint maps domain CHECK constraint names to safe messages.
func mapCheckConstraint(pqErr *pq.Error) *apperrors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "paid_le_total"):
		return apperrors.InvalidState("paid amount cannot exceed the appointment total")

	case strings.Contains(constraint, "checkout_after_checkin"):
		return apperrors.InvalidState("check-out cannot precede check-in")

	case strings.Contains(constraint, "status_valid"):
		return apperrors.InvalidState("appointment status is not recognized")

	case strings.Contains(constraint, "position_nonnegative"):
		return apperrors.Validation(map[string]string{
			"position": "must be zero or greater",
		})

	default:
		return apperrors.BadRequest("data validation failed: " + constraint)
	}
}
