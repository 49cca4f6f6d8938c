package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/shopboard/shopboard-backend/internal/board/domain"
	"github.com/shopboard/shopboard-backend/internal/board/repository"
	"github.com/shopboard/shopboard-backend/pkg/database"
	apperrors "github.com/shopboard/shopboard-backend/pkg/errors"
	"github.com/shopboard/shopboard-backend/pkg/httputil"
	"github.com/shopboard/shopboard-backend/pkg/messaging"
	"github.com/shopboard/shopboard-backend/pkg/principal"
	"github.com/shopboard/shopboard-backend/pkg/tenant"
)

// Serialization failures are retried with a short random backoff so two
// concurrent movers on the same lane do not collide again immediately.
const (
	moveMaxAttempts = 3
	retryBaseDelay  = 10 * time.Millisecond
	retryMaxJitter  = 30 * time.Millisecond
)

// MoveInput is the decoded move request. The status arrives as a raw
// string and is parsed here.
type MoveInput struct {
	AppointmentID   string
	NewStatus       string
	Position        int
	ExpectedVersion int64
}

// Move applies a status or position change on behalf of the
// authenticated principal. Per-actor rate limiting runs before the
// write; events publish after it, best effort.
func (s *BoardService) Move(ctx context.Context, input MoveInput) (*domain.Card, error) {
	status, err := domain.ParseStatus(input.NewStatus)
	if err != nil {
		return nil, apperrors.BadRequest(fmt.Sprintf("%q is not a valid status", input.NewStatus))
	}

	tenantID, err := tenant.ID(ctx)
	if err != nil {
		return nil, apperrors.MissingTenant()
	}
	p := principal.FromContext(ctx)
	if p == nil {
		return nil, apperrors.AuthRequired("credentials are required")
	}

	if s.limiter != nil {
		if allowed, retryAfter := s.limiter.Allow(tenantID + "|" + p.ID); !allowed {
			return nil, apperrors.RateLimited(retryAfter)
		}
	}

	params := repository.MoveParams{
		ID:              input.AppointmentID,
		NewStatus:       status,
		Position:        input.Position,
		ExpectedVersion: input.ExpectedVersion,
	}

	log := s.logger.WithTenantID(tenantID)

	var result *repository.MoveResult
	for attempt := 1; ; attempt++ {
		result, err = s.repo.Move(ctx, params)
		if err == nil {
			break
		}
		if !database.IsSerializationFailure(err) {
			return nil, err
		}
		if attempt >= moveMaxAttempts {
			return nil, apperrors.Conflict("the appointment is being modified concurrently, retry", nil).WithCause(err)
		}

		delay := retryBaseDelay + time.Duration(rand.Int63n(int64(retryMaxJitter)))
		log.Warn().
			Str("appointment_id", input.AppointmentID).
			Int("attempt", attempt).
			Dur("backoff", delay).
			Msg("move hit a serialization failure, retrying")
		if err := s.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}

	// Emitted events carry the originating request id as their
	// correlation id.
	evCtx := messaging.WithCorrelationID(ctx, httputil.GetRequestID(ctx))

	card := result.Card
	s.publisher.PublishAppointmentMoved(evCtx, tenantID, string(result.FromStatus), card, p.ID)
	if card.Status == domain.StatusCompleted && result.FromStatus != domain.StatusCompleted {
		s.publisher.PublishAppointmentCompleted(evCtx, tenantID, card, p.ID)
	}

	return card, nil
}
