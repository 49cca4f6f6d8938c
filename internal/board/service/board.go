package service

import (
	"context"
	"time"

	"github.com/shopboard/shopboard-backend/internal/board/domain"
	"github.com/shopboard/shopboard-backend/internal/board/events"
	"github.com/shopboard/shopboard-backend/internal/board/repository"
	apperrors "github.com/shopboard/shopboard-backend/pkg/errors"
	"github.com/shopboard/shopboard-backend/pkg/logger"
	"github.com/shopboard/shopboard-backend/pkg/ratelimit"
)

// dateLayout is the wire format for board dates
const dateLayout = "2006-01-02"

// AppointmentStore is the persistence surface the service drives
type AppointmentStore interface {
	GetBoard(ctx context.Context, params repository.BoardParams) (*domain.View, error)
	GetStats(ctx context.Context, date time.Time) (*domain.Stats, error)
	GetCard(ctx context.Context, id string) (*domain.Card, error)
	List(ctx context.Context, params repository.ListParams) ([]domain.Card, string, error)
	Move(ctx context.Context, params repository.MoveParams) (*repository.MoveResult, error)
}

// BoardService handles board business logic
type BoardService struct {
	repo        AppointmentStore
	publisher   *events.BoardEventPublisher
	limiter     *ratelimit.Limiter
	dayBoundary *time.Location
	logger      *logger.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewBoardService creates a new board service. limiter may be nil to
// disable move rate limiting.
func NewBoardService(
	repo AppointmentStore,
	publisher *events.BoardEventPublisher,
	limiter *ratelimit.Limiter,
	dayBoundary *time.Location,
	log *logger.Logger,
) *BoardService {
	if dayBoundary == nil {
		dayBoundary = time.UTC
	}
	return &BoardService{
		repo:        repo,
		publisher:   publisher,
		limiter:     limiter,
		dayBoundary: dayBoundary,
		logger:      log,
		now:         time.Now,
		sleep:       sleepContext,
	}
}

// resolveDate parses a YYYY-MM-DD date in the shop's day boundary zone.
// An empty date means today.
func (s *BoardService) resolveDate(date string) (time.Time, error) {
	if date == "" {
		return s.now().In(s.dayBoundary), nil
	}
	parsed, err := time.ParseInLocation(dateLayout, date, s.dayBoundary)
	if err != nil {
		return time.Time{}, apperrors.BadRequest("date must use the YYYY-MM-DD format")
	}
	return parsed, nil
}

// GetBoard returns the board view for a day
func (s *BoardService) GetBoard(ctx context.Context, date string, includeCanceled bool) (*domain.View, error) {
	day, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}
	return s.repo.GetBoard(ctx, repository.BoardParams{Date: day, IncludeCanceled: includeCanceled})
}

// GetStats returns the daily dashboard for a day
func (s *BoardService) GetStats(ctx context.Context, date string) (*domain.Stats, error) {
	day, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}
	return s.repo.GetStats(ctx, day)
}

// GetCard returns a single appointment card
func (s *BoardService) GetCard(ctx context.Context, id string) (*domain.Card, error) {
	return s.repo.GetCard(ctx, id)
}

// List returns a page of appointment cards
func (s *BoardService) List(ctx context.Context, params repository.ListParams) ([]domain.Card, string, error) {
	return s.repo.List(ctx, params)
}

// sleepContext blocks for d or until the context is done
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
