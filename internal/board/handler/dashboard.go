package handler

import (
	"net/http"

	"github.com/shopboard/shopboard-backend/internal/board/service"
	"github.com/shopboard/shopboard-backend/pkg/httputil"
	"github.com/shopboard/shopboard-backend/pkg/logger"
)

// DashboardHandler handles the daily stats endpoint
type DashboardHandler struct {
	service *service.BoardService
	logger  *logger.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(svc *service.BoardService, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{
		service: svc,
		logger:  log,
	}
}

// GetStats returns the daily dashboard numbers. Defaults to today in
// the shop's timezone.
func (h *DashboardHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	httputil.JSON(w, r, http.StatusOK, stats)
}
