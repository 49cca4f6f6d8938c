package events

import (
	"context"

	"github.com/shopboard/shopboard-backend/internal/board/domain"
	"github.com/shopboard/shopboard-backend/pkg/logger"
	"github.com/shopboard/shopboard-backend/pkg/messaging"
)

// sink is the transport the publisher writes to. Satisfied by
// messaging.Publisher and by test doubles.
type sink interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// BoardEventPublisher publishes board-related events. Publishing is
// best effort: failures are logged, never surfaced to the caller, and
// never roll back the move that triggered them.
type BoardEventPublisher struct {
	sink   sink
	logger *logger.Logger
}

// NewBoardEventPublisher creates a publisher backed by RabbitMQ
func NewBoardEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*BoardEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeBoardEvents, "board-service", log)
	if err != nil {
		return nil, err
	}

	return &BoardEventPublisher{
		sink:   publisher,
		logger: log,
	}, nil
}

// NewWithSink creates a publisher over an arbitrary sink. Used by tests.
func NewWithSink(s sink, log *logger.Logger) *BoardEventPublisher {
	return &BoardEventPublisher{sink: s, logger: log}
}

// Disabled returns a publisher that drops every event. Used when the
// broker is not configured.
func Disabled(log *logger.Logger) *BoardEventPublisher {
	return &BoardEventPublisher{logger: log}
}

// PublishAppointmentMoved publishes an appointment.moved event
func (p *BoardEventPublisher) PublishAppointmentMoved(ctx context.Context, tenantID, fromStatus string, card *domain.Card, movedBy string) {
	if p.sink == nil {
		return
	}

	data := messaging.AppointmentMovedData{
		TenantID:      tenantID,
		AppointmentID: card.ID,
		FromStatus:    fromStatus,
		ToStatus:      string(card.Status),
		Position:      card.Position,
		Version:       card.Version,
		MovedBy:       movedBy,
	}

	if err := p.sink.Publish(ctx, messaging.EventAppointmentMoved, data); err != nil {
		p.logger.Error().Err(err).Str("appointment_id", card.ID).Msg("failed to publish appointment moved event")
	}
}

// PublishAppointmentCompleted publishes an appointment.completed event
func (p *BoardEventPublisher) PublishAppointmentCompleted(ctx context.Context, tenantID string, card *domain.Card, completedBy string) {
	if p.sink == nil {
		return
	}

	data := messaging.AppointmentCompletedData{
		TenantID:      tenantID,
		AppointmentID: card.ID,
		CheckOutAt:    card.CheckOutAt,
		CompletedBy:   completedBy,
	}

	if err := p.sink.Publish(ctx, messaging.EventAppointmentCompleted, data); err != nil {
		p.logger.Error().Err(err).Str("appointment_id", card.ID).Msg("failed to publish appointment completed event")
	}
}
