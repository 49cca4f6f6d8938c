package messaging

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types
const (
	EventAppointmentMoved     = "appointment.moved"
	EventAppointmentCompleted = "appointment.completed"
)

// Exchange names
const (
	ExchangeBoardEvents = "board.events"
)

// Event is the base event structure
type Event struct {
	ID            string          `json:"id"`
	Type          string          `json:"type"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
	CorrelationID string          `json:"correlation_id"`
	Data          json.RawMessage `json:"data"`
}

// NewEvent creates a new event with the given type and data
func NewEvent(eventType, source, correlationID string, data interface{}) (*Event, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}

	return &Event{
		ID:            GenerateEventID(),
		Type:          eventType,
		Source:        source,
		Timestamp:     time.Now().UTC(),
		CorrelationID: correlationID,
		Data:          dataBytes,
	}, nil
}

// UnmarshalData unmarshals the event data into the provided struct
func (e *Event) UnmarshalData(v interface{}) error {
	return json.Unmarshal(e.Data, v)
}

// GenerateEventID generates a unique event identifier
func GenerateEventID() string {
	return uuid.New().String()
}

// AppointmentMovedData is the payload for appointment.moved
type AppointmentMovedData struct {
	TenantID      string `json:"tenant_id"`
	AppointmentID string `json:"appointment_id"`
	FromStatus    string `json:"from_status"`
	ToStatus      string `json:"to_status"`
	Position      int    `json:"position"`
	Version       int64  `json:"version"`
	MovedBy       string `json:"moved_by"`
}

// AppointmentCompletedData is the payload for appointment.completed
type AppointmentCompletedData struct {
	TenantID      string     `json:"tenant_id"`
	AppointmentID string     `json:"appointment_id"`
	CheckOutAt    *time.Time `json:"check_out_at,omitempty"`
	CompletedBy   string     `json:"completed_by"`
}
