package domain

import (
	"fmt"
	"strings"
)

// Status is the workflow state of an appointment. Canonical form is
// lowercase; parsing accepts any case.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusReady      Status = "ready"
	StatusCompleted  Status = "completed"
	StatusNoShow     Status = "no_show"
	StatusCanceled   Status = "canceled"
)

// AllStatuses lists every status in board column order.
var AllStatuses = []Status{
	StatusScheduled,
	StatusInProgress,
	StatusReady,
	StatusCompleted,
	StatusNoShow,
	StatusCanceled,
}

// transitions holds the permitted moves between statuses. READY back to
// IN_PROGRESS covers rework. Terminal statuses have no outgoing edges.
var transitions = map[Status][]Status{
	StatusScheduled:  {StatusInProgress, StatusNoShow, StatusCanceled},
	StatusInProgress: {StatusReady, StatusCompleted, StatusCanceled},
	StatusReady:      {StatusCompleted, StatusInProgress},
	StatusCompleted:  {},
	StatusNoShow:     {},
	StatusCanceled:   {},
}

// ParseStatus normalizes and validates a status string
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(raw))
	for _, known := range AllStatuses {
		if s == known {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", raw)
}

// Valid reports whether s is one of the defined statuses
func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether an appointment in s can never move again
func (s Status) Terminal() bool {
	targets, ok := transitions[s]
	return ok && len(targets) == 0
}

// CanTransition reports whether moving from s to target is permitted.
// A no-op transition (same status) is always allowed; it expresses
// repositioning within a lane.
func (s Status) CanTransition(target Status) bool {
	if s == target {
		return s.Valid()
	}
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}
