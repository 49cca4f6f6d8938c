package domain

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"time"
)

// Card is the per-appointment projection shown on the board. Derived,
// never stored.
type Card struct {
	ID               string     `json:"id"`
	Status           Status     `json:"status"`
	Position         int        `json:"position"`
	Title            string     `json:"title"`
	CustomerName     string     `json:"customer_name"`
	VehicleLabel     string     `json:"vehicle_label"`
	ServicesSummary  string     `json:"services_summary"`
	ServiceCount     int        `json:"service_count"`
	StartTS          *time.Time `json:"start_ts"`
	EndTS            *time.Time `json:"end_ts"`
	CheckInAt        *time.Time `json:"check_in_at"`
	CheckOutAt       *time.Time `json:"check_out_at"`
	TotalAmountCents *int64     `json:"total_amount_cents"`
	PaidAmountCents  int64      `json:"paid_amount_cents"`
	Version          int64      `json:"version"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Column is one status lane of the board view
type Column struct {
	Items            []Card `json:"items"`
	Count            int    `json:"count"`
	TotalAmountCents int64  `json:"total_amount_cents"`
}

// View is the full board for a (tenant, date). Every status column is
// present, empty ones with an empty items array.
type View struct {
	Columns     map[Status]*Column `json:"columns"`
	GeneratedAt time.Time          `json:"generated_at"`
}

// NewView builds an empty view with all columns materialized
func NewView(generatedAt time.Time) *View {
	columns := make(map[Status]*Column, len(AllStatuses))
	for _, s := range AllStatuses {
		columns[s] = &Column{Items: []Card{}}
	}
	return &View{
		Columns:     columns,
		GeneratedAt: generatedAt,
	}
}

// Add appends a card to its status column and folds it into the column
// totals. Cards must arrive in lane order.
func (v *View) Add(card Card) {
	col, ok := v.Columns[card.Status]
	if !ok {
		col = &Column{Items: []Card{}}
		v.Columns[card.Status] = col
	}
	col.Items = append(col.Items, card)
	col.Count++
	if card.TotalAmountCents != nil {
		col.TotalAmountCents += *card.TotalAmountCents
	}
}

// Fingerprint returns a content hash over every card's id and version,
// in column order. Two views with the same fingerprint render the same
// board, so the value doubles as an ETag.
func (v *View) Fingerprint() string {
	h := fnv.New64a()
	for _, s := range AllStatuses {
		col := v.Columns[s]
		if col == nil {
			continue
		}
		for _, card := range col.Items {
			fmt.Fprintf(h, "%s:%d;", card.ID, card.Version)
		}
	}
	return strconv.FormatUint(h.Sum64(), 16)
}

// Stats is the daily dashboard projection for a (tenant, date)
type Stats struct {
	JobsToday        int            `json:"jobsToday"`
	OnPrem           int            `json:"onPrem"`
	StatusCounts     map[Status]int `json:"statusCounts"`
	UnpaidTotalCents int64          `json:"unpaidTotalCents"`
	AvgCycleMinutes  *float64       `json:"avgCycleMinutes"`
}

// NewStats returns zeroed stats with every status present in the counts
func NewStats() *Stats {
	counts := make(map[Status]int, len(AllStatuses))
	for _, s := range AllStatuses {
		counts[s] = 0
	}
	return &Stats{StatusCounts: counts}
}
