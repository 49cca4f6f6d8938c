package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopboard/shopboard-backend/internal/board/domain"
	"github.com/shopboard/shopboard-backend/internal/board/repository"
	"github.com/shopboard/shopboard-backend/internal/board/service"
	apperrors "github.com/shopboard/shopboard-backend/pkg/errors"
	"github.com/shopboard/shopboard-backend/pkg/httputil"
	"github.com/shopboard/shopboard-backend/pkg/logger"
)

const (
	defaultPageSize = 50
	maxPageSize     = 100
)

// AppointmentHandler handles appointment endpoints
type AppointmentHandler struct {
	service *service.BoardService
	logger  *logger.Logger
}

// NewAppointmentHandler creates a new appointment handler
func NewAppointmentHandler(svc *service.BoardService, log *logger.Logger) *AppointmentHandler {
	return &AppointmentHandler{
		service: svc,
		logger:  log,
	}
}

// MoveRequest is the body of a move call
type MoveRequest struct {
	NewStatus       string `json:"new_status" validate:"required"`
	Position        *int   `json:"position" validate:"required,gte=0"`
	ExpectedVersion *int64 `json:"expected_version" validate:"required,gte=1"`
}

// List lists appointments with filters and pagination. Offset paging
// via page and keyset paging via cursor are mutually exclusive.
func (h *AppointmentHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	params := repository.ListParams{
		Page:     1,
		PageSize: defaultPageSize,
		Cursor:   q.Get("cursor"),
	}

	if raw := q.Get("page"); raw != "" {
		if params.Cursor != "" {
			httputil.Error(w, r, apperrors.BadRequest("page and cursor are mutually exclusive"))
			return
		}
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			httputil.Error(w, r, apperrors.BadRequest("page must be a positive integer"))
			return
		}
		params.Page = page
	}

	if raw := q.Get("pageSize"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			httputil.Error(w, r, apperrors.BadRequest("pageSize must be a positive integer"))
			return
		}
		// Values above the cap clamp silently; meta reports the effective size.
		if size > maxPageSize {
			size = maxPageSize
		}
		params.PageSize = size
	}

	if raw := q.Get("status"); raw != "" {
		status, err := domain.ParseStatus(raw)
		if err != nil {
			httputil.Error(w, r, apperrors.BadRequest("status filter is not a known status"))
			return
		}
		params.Status = &status
	}
	if raw := q.Get("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httputil.Error(w, r, apperrors.BadRequest("from must use the YYYY-MM-DD format"))
			return
		}
		params.From = &from
	}
	if raw := q.Get("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			httputil.Error(w, r, apperrors.BadRequest("to must use the YYYY-MM-DD format"))
			return
		}
		params.To = &to
	}
	if customerID := q.Get("customerId"); customerID != "" {
		params.CustomerID = &customerID
	}

	cards, nextCursor, err := h.service.List(r.Context(), params)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	meta := map[string]any{
		"pageSize": params.PageSize,
	}
	if params.Cursor == "" {
		meta["page"] = params.Page
	}
	if nextCursor != "" {
		meta["nextCursor"] = nextCursor
	}

	httputil.JSONWithMeta(w, r, http.StatusOK, cards, meta)
}

// Get returns a single appointment card
func (h *AppointmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	card, err := h.service.GetCard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, r, http.StatusOK, card)
}

// Move changes an appointment's status or position
func (h *AppointmentHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, r, err)
		return
	}
	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, r, err)
		return
	}

	card, err := h.service.Move(r.Context(), service.MoveInput{
		AppointmentID:   chi.URLParam(r, "id"),
		NewStatus:       req.NewStatus,
		Position:        *req.Position,
		ExpectedVersion: *req.ExpectedVersion,
	})
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, r, http.StatusOK, card)
}
