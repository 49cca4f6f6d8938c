package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopboard/shopboard-backend/internal/board/domain"
)

// BoardParams scope a board read
type BoardParams struct {
	Date            time.Time
	IncludeCanceled bool
}

// GetBoard loads the board view for a day in one aggregate query.
// Column totals fold out of the same result set, so the whole view
// costs exactly one round trip.
//
// A card belongs to the day when its start falls inside the window, or
// when it is IN_PROGRESS or READY and was checked in inside the window
// without being scheduled there (carry-over work).
func (r *AppointmentRepository) GetBoard(ctx context.Context, params BoardParams) (*domain.View, error) {
	windowStart, windowEnd := r.DayWindow(params.Date)

	query := r.cardSelectSQL() + `
	WHERE (
		(a.start_ts >= $1 AND a.start_ts < $2)
		OR (
			a.status IN ('in_progress', 'ready')
			AND a.check_in_at >= $1 AND a.check_in_at < $2
			AND (a.start_ts IS NULL OR a.start_ts < $1 OR a.start_ts >= $2)
		)
	)`
	args := []interface{}{windowStart, windowEnd}

	if !params.IncludeCanceled {
		query += `
	AND a.status <> 'canceled'`
	}

	query += `
	ORDER BY a.status, a.position, a.start_ts ASC NULLS LAST, a.id`

	var rows []cardRow
	err := r.db.WithTenantConn(ctx, func(q sqlx.QueryerContext) error {
		return sqlx.SelectContext(ctx, q, &rows, query, args...)
	})
	if err != nil {
		return nil, err
	}

	view := domain.NewView(r.now().UTC())
	for _, row := range rows {
		view.Add(row.toCard())
	}

	return view, nil
}
