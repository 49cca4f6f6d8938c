package repository

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopboard/shopboard-backend/internal/board/domain"
)

// statsRow is the single-row result of the dashboard aggregate
type statsRow struct {
	JobsToday        int      `db:"jobs_today"`
	OnPrem           int      `db:"on_prem"`
	Scheduled        int      `db:"scheduled_count"`
	InProgress       int      `db:"in_progress_count"`
	Ready            int      `db:"ready_count"`
	Completed        int      `db:"completed_count"`
	NoShow           int      `db:"no_show_count"`
	Canceled         int      `db:"canceled_count"`
	UnpaidTotalCents int64    `db:"unpaid_total_cents"`
	AvgCycleMinutes  *float64 `db:"avg_cycle_minutes"`
}

// GetStats computes the daily dashboard in one aggregate query.
// jobsToday counts completions inside the window; onPrem counts cars
// checked in and not yet out regardless of the day; unpaid sums
// max(total - paid, 0) over non-voided appointments in the window.
func (r *AppointmentRepository) GetStats(ctx context.Context, date time.Time) (*domain.Stats, error) {
	windowStart, windowEnd := r.DayWindow(date)
	now := r.now().UTC()

	const query = `
	SELECT
		COUNT(*) FILTER (WHERE a.status = 'completed' AND a.check_out_at >= $1 AND a.check_out_at < $2) AS jobs_today,
		COUNT(*) FILTER (WHERE a.check_in_at IS NOT NULL AND a.check_in_at <= $3 AND a.check_out_at IS NULL) AS on_prem,
		COUNT(*) FILTER (WHERE a.status = 'scheduled' AND a.start_ts >= $1 AND a.start_ts < $2) AS scheduled_count,
		COUNT(*) FILTER (WHERE a.status = 'in_progress' AND a.start_ts >= $1 AND a.start_ts < $2) AS in_progress_count,
		COUNT(*) FILTER (WHERE a.status = 'ready' AND a.start_ts >= $1 AND a.start_ts < $2) AS ready_count,
		COUNT(*) FILTER (WHERE a.status = 'completed' AND a.start_ts >= $1 AND a.start_ts < $2) AS completed_count,
		COUNT(*) FILTER (WHERE a.status = 'no_show' AND a.start_ts >= $1 AND a.start_ts < $2) AS no_show_count,
		COUNT(*) FILTER (WHERE a.status = 'canceled' AND a.start_ts >= $1 AND a.start_ts < $2) AS canceled_count,
		COALESCE(SUM(GREATEST(COALESCE(a.total_amount_cents, 0) - a.paid_amount_cents, 0))
			FILTER (WHERE NOT a.voided AND a.start_ts >= $1 AND a.start_ts < $2), 0) AS unpaid_total_cents,
		AVG(EXTRACT(EPOCH FROM (a.check_out_at - a.check_in_at)) / 60.0)
			FILTER (WHERE a.status = 'completed'
				AND a.check_out_at >= $1 AND a.check_out_at < $2
				AND a.check_in_at IS NOT NULL) AS avg_cycle_minutes
	FROM appointments a
	WHERE (a.start_ts >= $1 AND a.start_ts < $2)
	   OR (a.check_out_at >= $1 AND a.check_out_at < $2)
	   OR (a.check_in_at IS NOT NULL AND a.check_out_at IS NULL)`

	var row statsRow
	err := r.db.WithTenantConn(ctx, func(q sqlx.QueryerContext) error {
		return sqlx.GetContext(ctx, q, &row, query, windowStart, windowEnd, now)
	})
	if err != nil {
		return nil, err
	}

	stats := domain.NewStats()
	stats.JobsToday = row.JobsToday
	stats.OnPrem = row.OnPrem
	stats.StatusCounts[domain.StatusScheduled] = row.Scheduled
	stats.StatusCounts[domain.StatusInProgress] = row.InProgress
	stats.StatusCounts[domain.StatusReady] = row.Ready
	stats.StatusCounts[domain.StatusCompleted] = row.Completed
	stats.StatusCounts[domain.StatusNoShow] = row.NoShow
	stats.StatusCounts[domain.StatusCanceled] = row.Canceled
	stats.UnpaidTotalCents = row.UnpaidTotalCents
	stats.AvgCycleMinutes = row.AvgCycleMinutes

	return stats, nil
}
