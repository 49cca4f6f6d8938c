package repository

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopboard/shopboard-backend/internal/board/domain"
	"github.com/shopboard/shopboard-backend/pkg/database"
	apperrors "github.com/shopboard/shopboard-backend/pkg/errors"
)

// cardRow is the flat projection the card queries return. Joined fields
// come from customers, vehicles and the lateral service summary.
type cardRow struct {
	ID               string     `db:"id"`
	Status           string     `db:"status"`
	Position         int        `db:"position"`
	Title            string     `db:"title"`
	CustomerName     string     `db:"customer_name"`
	VehicleLabel     string     `db:"vehicle_label"`
	ServicesSummary  string     `db:"services_summary"`
	ServiceCount     int        `db:"service_count"`
	StartTS          *time.Time `db:"start_ts"`
	EndTS            *time.Time `db:"end_ts"`
	CheckInAt        *time.Time `db:"check_in_at"`
	CheckOutAt       *time.Time `db:"check_out_at"`
	TotalAmountCents *int64     `db:"total_amount_cents"`
	PaidAmountCents  int64      `db:"paid_amount_cents"`
	Version          int64      `db:"version"`
	CreatedAt        time.Time  `db:"created_at"`
	UpdatedAt        time.Time  `db:"updated_at"`
}

func (r cardRow) toCard() domain.Card {
	return domain.Card{
		ID:               r.ID,
		Status:           domain.Status(r.Status),
		Position:         r.Position,
		Title:            r.Title,
		CustomerName:     r.CustomerName,
		VehicleLabel:     r.VehicleLabel,
		ServicesSummary:  r.ServicesSummary,
		ServiceCount:     r.ServiceCount,
		StartTS:          r.StartTS,
		EndTS:            r.EndTS,
		CheckInAt:        r.CheckInAt,
		CheckOutAt:       r.CheckOutAt,
		TotalAmountCents: r.TotalAmountCents,
		PaidAmountCents:  r.PaidAmountCents,
		Version:          r.Version,
		UpdatedAt:        r.UpdatedAt,
	}
}

// lockedRow is the subset loaded under FOR UPDATE during a move.
type lockedRow struct {
	ID         string     `db:"id"`
	Status     string     `db:"status"`
	Position   int        `db:"position"`
	StartTS    *time.Time `db:"start_ts"`
	CheckInAt  *time.Time `db:"check_in_at"`
	CheckOutAt *time.Time `db:"check_out_at"`
	Version    int64      `db:"version"`
	CreatedAt  time.Time  `db:"created_at"`
}

// cardSelect joins the appointment with its customer, vehicle and an
// aggregated service summary. The board and detail paths share it so a
// card always looks the same. Service names are concatenated and capped
// in SQL; no per-card round trips.
const cardSelect = `
	SELECT
		a.id, a.status, a.position, a.title,
		COALESCE(c.name, '') AS customer_name,
		COALESCE(NULLIF(TRIM(CONCAT_WS(' ', v.make, v.model, v.license_plate)), ''), '') AS vehicle_label,
		COALESCE(svc.services_summary, '') AS services_summary,
		COALESCE(svc.service_count, 0) AS service_count,
		a.start_ts, a.end_ts, a.check_in_at, a.check_out_at,
		a.total_amount_cents, a.paid_amount_cents,
		a.version, a.created_at, a.updated_at
	FROM appointments a
	LEFT JOIN customers c ON c.id = a.customer_id
	LEFT JOIN vehicles v ON v.id = a.vehicle_id
	LEFT JOIN LATERAL (
		SELECT
			COUNT(*) AS service_count,
			LEFT(STRING_AGG(s.name, ', ' ORDER BY s.name), %d) AS services_summary
		FROM appointment_services s
		WHERE s.appointment_id = a.id
	) svc ON true`

// AppointmentRepository handles appointment persistence. Every query
// runs under the tenant-bound transaction, so RLS scopes all rows.
type AppointmentRepository struct {
	db            *database.DB
	dayBoundary   *time.Location
	summaryMaxLen int

	now func() time.Time
}

// NewAppointmentRepository creates a new appointment repository.
// dayBoundary is the zone lanes and day windows are interpreted in.
func NewAppointmentRepository(db *database.DB, dayBoundary *time.Location, summaryMaxLen int) *AppointmentRepository {
	if dayBoundary == nil {
		dayBoundary = time.UTC
	}
	if summaryMaxLen <= 0 {
		summaryMaxLen = 120
	}
	return &AppointmentRepository{
		db:            db,
		dayBoundary:   dayBoundary,
		summaryMaxLen: summaryMaxLen,
		now:           time.Now,
	}
}

func (r *AppointmentRepository) cardSelectSQL() string {
	return fmt.Sprintf(cardSelect, r.summaryMaxLen)
}

// DayWindow returns the half-open [start, end) window covering the
// given date in the repository's day boundary zone.
func (r *AppointmentRepository) DayWindow(date time.Time) (time.Time, time.Time) {
	d := date.In(r.dayBoundary)
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, r.dayBoundary)
	return start, start.AddDate(0, 0, 1)
}

// GetCard loads a single card by id
func (r *AppointmentRepository) GetCard(ctx context.Context, id string) (*domain.Card, error) {
	var row cardRow
	err := r.db.WithTenantConn(ctx, func(q sqlx.QueryerContext) error {
		query := r.cardSelectSQL() + ` WHERE a.id = $1`
		return sqlx.GetContext(ctx, q, &row, query, id)
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("appointment")
		}
		return nil, err
	}

	card := row.toCard()
	return &card, nil
}

// ListParams holds filters and paging for the appointment list.
// Cursor and Page are mutually exclusive; the handler enforces that.
type ListParams struct {
	Status     *domain.Status
	From       *time.Time
	To         *time.Time
	CustomerID *string
	Page       int
	PageSize   int
	Cursor     string
}

// List returns a page of cards ordered by (created_at, id). When the
// page is full a cursor for the next page is returned.
func (r *AppointmentRepository) List(ctx context.Context, params ListParams) ([]domain.Card, string, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if params.Status != nil {
		conds = append(conds, "a.status = "+arg(string(*params.Status)))
	}
	if params.From != nil {
		conds = append(conds, "a.start_ts >= "+arg(*params.From))
	}
	if params.To != nil {
		conds = append(conds, "a.start_ts < "+arg(*params.To))
	}
	if params.CustomerID != nil {
		conds = append(conds, "a.customer_id = "+arg(*params.CustomerID))
	}

	if params.Cursor != "" {
		createdAt, id, err := decodeCursor(params.Cursor)
		if err != nil {
			return nil, "", apperrors.BadRequest("cursor is malformed")
		}
		conds = append(conds, fmt.Sprintf("(a.created_at, a.id) > (%s, %s)", arg(createdAt), arg(id)))
	}

	query := r.cardSelectSQL()
	if len(conds) > 0 {
		query += "\n\tWHERE " + strings.Join(conds, " AND ")
	}
	query += "\n\tORDER BY a.created_at, a.id"
	query += "\n\tLIMIT " + arg(params.PageSize)

	if params.Cursor == "" && params.Page > 1 {
		query += " OFFSET " + arg((params.Page-1)*params.PageSize)
	}

	var rows []cardRow
	err := r.db.WithTenantConn(ctx, func(q sqlx.QueryerContext) error {
		return sqlx.SelectContext(ctx, q, &rows, query, args...)
	})
	if err != nil {
		return nil, "", err
	}

	cards := make([]domain.Card, 0, len(rows))
	for _, row := range rows {
		cards = append(cards, row.toCard())
	}

	var nextCursor string
	if len(rows) == params.PageSize && params.PageSize > 0 {
		last := rows[len(rows)-1]
		nextCursor = encodeCursor(last.CreatedAt, last.ID)
	}

	return cards, nextCursor, nil
}

func encodeCursor(createdAt time.Time, id string) string {
	raw := createdAt.UTC().Format(time.RFC3339Nano) + "|" + id
	return base64.URLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (time.Time, string, error) {
	raw, err := base64.URLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, "", err
	}
	parts := strings.SplitN(string(raw), "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		return time.Time{}, "", fmt.Errorf("malformed cursor")
	}
	createdAt, err := time.Parse(time.RFC3339Nano, parts[0])
	if err != nil {
		return time.Time{}, "", err
	}
	return createdAt, parts[1], nil
}

// MoveParams are the validated inputs of a move operation
type MoveParams struct {
	ID              string
	NewStatus       domain.Status
	Position        int
	ExpectedVersion int64
}

// MoveResult carries the fresh card and the status it left
type MoveResult struct {
	Card       *domain.Card
	FromStatus domain.Status
}

// Move applies a status or position change in one transaction: lock the
// row, check the version, check the transition, apply side effects,
// renumber the affected lanes, bump the version, and return the fresh
// card. On a version mismatch the current card rides on the conflict
// error so clients can reconcile.
func (r *AppointmentRepository) Move(ctx context.Context, params MoveParams) (*MoveResult, error) {
	var result MoveResult

	err := r.db.WithTenantTx(ctx, func(tx *sqlx.Tx) error {
		var row lockedRow
		err := tx.GetContext(ctx, &row, `
			SELECT id, status, position, start_ts, check_in_at, check_out_at, version, created_at
			FROM appointments
			WHERE id = $1
			FOR UPDATE`, params.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apperrors.NotFound("appointment")
			}
			return err
		}

		if row.Version != params.ExpectedVersion {
			current, loadErr := r.cardInTx(ctx, tx, row.ID)
			if loadErr != nil {
				return loadErr
			}
			return apperrors.Conflict("appointment was modified by someone else", current)
		}

		fromStatus := domain.Status(row.Status)
		if !fromStatus.CanTransition(params.NewStatus) {
			return apperrors.InvalidTransition(row.Status, string(params.NewStatus))
		}

		now := r.now().UTC()
		checkIn, checkOut := r.applySideEffects(fromStatus, params.NewStatus, row.CheckInAt, row.CheckOutAt, now)

		newPosition, err := r.renumber(ctx, tx, row, params, checkIn)
		if err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE appointments
			SET status = $1, position = $2, check_in_at = $3, check_out_at = $4,
			    version = version + 1, updated_at = $5
			WHERE id = $6 AND version = $7`,
			string(params.NewStatus), newPosition, checkIn, checkOut, now,
			row.ID, params.ExpectedVersion,
		)
		if err != nil {
			if mapped := database.MapPQError(err); mapped != nil {
				return mapped
			}
			return err
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if affected != 1 {
			return apperrors.Conflict("appointment was modified by someone else", nil)
		}

		fresh, err := r.cardInTx(ctx, tx, row.ID)
		if err != nil {
			return err
		}
		result = MoveResult{Card: fresh, FromStatus: fromStatus}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// applySideEffects computes the timestamp changes a transition carries.
// Entering IN_PROGRESS stamps check-in, entering COMPLETED stamps
// check-out; existing stamps are never overwritten. CANCELED and
// NO_SHOW preserve whatever was recorded for audit.
func (r *AppointmentRepository) applySideEffects(from, to domain.Status, checkIn, checkOut *time.Time, now time.Time) (*time.Time, *time.Time) {
	if from == to {
		return checkIn, checkOut
	}
	switch to {
	case domain.StatusInProgress:
		if checkIn == nil {
			checkIn = &now
		}
	case domain.StatusCompleted:
		if checkOut == nil {
			checkOut = &now
		}
	}
	return checkIn, checkOut
}

// laneMembership returns the expression that keys a row into a day
// lane for the given status. It must agree with the board query:
// IN_PROGRESS and READY lanes follow the check-in, so carry-over work
// is renumbered in the day it is actually shown; every other status
// lanes by its scheduled start.
func laneMembership(status domain.Status) string {
	if status == domain.StatusInProgress || status == domain.StatusReady {
		return "COALESCE(check_in_at, start_ts, created_at)"
	}
	return "COALESCE(start_ts, check_in_at, created_at)"
}

// laneWindow derives the day window of the lane a card with the given
// fields occupies. Mirrors laneMembership.
func (r *AppointmentRepository) laneWindow(status domain.Status, startTS, checkInAt *time.Time, createdAt time.Time) (time.Time, time.Time) {
	anchor := createdAt
	switch {
	case (status == domain.StatusInProgress || status == domain.StatusReady) && checkInAt != nil:
		anchor = *checkInAt
	case startTS != nil:
		anchor = *startTS
	case checkInAt != nil:
		anchor = *checkInAt
	}
	return r.DayWindow(anchor)
}

// renumber keeps both affected lanes contiguous and returns the clamped
// position the moved row takes. The destination window is derived from
// the post-transition card, so a check-in stamped by this move lands the
// card in the current day's lane. Positions may collide transiently
// within the transaction; the index on (tenant_id, status, position) is
// non-unique for that reason.
func (r *AppointmentRepository) renumber(ctx context.Context, tx *sqlx.Tx, row lockedRow, params MoveParams, checkIn *time.Time) (int, error) {
	fromStatus := domain.Status(row.Status)
	sameLane := fromStatus == params.NewStatus

	srcLane := laneMembership(fromStatus)
	srcStart, srcEnd := r.laneWindow(fromStatus, row.StartTS, row.CheckInAt, row.CreatedAt)
	dstLane := laneMembership(params.NewStatus)
	dstStart, dstEnd := r.laneWindow(params.NewStatus, row.StartTS, checkIn, row.CreatedAt)

	destCount, err := r.laneCount(ctx, tx, params.NewStatus, dstStart, dstEnd)
	if err != nil {
		return 0, err
	}

	target := params.Position
	if sameLane {
		// The row stays in the lane, so the last valid slot is count-1.
		if max := destCount - 1; target > max {
			target = max
		}
		if target < 0 {
			target = 0
		}
		if target == row.Position {
			return target, nil
		}

		if target > row.Position {
			// Moving down: pull the cards in between up by one.
			_, err = tx.ExecContext(ctx, fmt.Sprintf(`
				UPDATE appointments
				SET position = position - 1
				WHERE status = $1
				  AND %s >= $2 AND %s < $3
				  AND position > $4 AND position <= $5
				  AND id <> $6`, srcLane, srcLane),
				row.Status, srcStart, srcEnd, row.Position, target, row.ID)
		} else {
			// Moving up: push the cards in between down by one.
			_, err = tx.ExecContext(ctx, fmt.Sprintf(`
				UPDATE appointments
				SET position = position + 1
				WHERE status = $1
				  AND %s >= $2 AND %s < $3
				  AND position >= $4 AND position < $5
				  AND id <> $6`, srcLane, srcLane),
				row.Status, srcStart, srcEnd, target, row.Position, row.ID)
		}
		return target, err
	}

	if target > destCount {
		target = destCount
	}
	if target < 0 {
		target = 0
	}

	// Compact the source lane.
	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		UPDATE appointments
		SET position = position - 1
		WHERE status = $1
		  AND %s >= $2 AND %s < $3
		  AND position > $4`, srcLane, srcLane),
		row.Status, srcStart, srcEnd, row.Position)
	if err != nil {
		return 0, err
	}

	// Open a slot in the destination lane.
	_, err = tx.ExecContext(ctx, fmt.Sprintf(`
		UPDATE appointments
		SET position = position + 1
		WHERE status = $1
		  AND %s >= $2 AND %s < $3
		  AND position >= $4`, dstLane, dstLane),
		string(params.NewStatus), dstStart, dstEnd, target)
	if err != nil {
		return 0, err
	}

	return target, nil
}

func (r *AppointmentRepository) laneCount(ctx context.Context, tx *sqlx.Tx, status domain.Status, laneStart, laneEnd time.Time) (int, error) {
	var count int
	err := tx.GetContext(ctx, &count, fmt.Sprintf(`
		SELECT COUNT(*)
		FROM appointments
		WHERE status = $1
		  AND %s >= $2 AND %s < $3`, laneMembership(status), laneMembership(status)),
		string(status), laneStart, laneEnd)
	return count, err
}

func (r *AppointmentRepository) cardInTx(ctx context.Context, tx *sqlx.Tx, id string) (*domain.Card, error) {
	var row cardRow
	query := r.cardSelectSQL() + ` WHERE a.id = $1`
	if err := tx.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}
	card := row.toCard()
	return &card, nil
}
