package handler

import (
	"net/http"

	"github.com/shopboard/shopboard-backend/internal/board/service"
	"github.com/shopboard/shopboard-backend/pkg/httputil"
	"github.com/shopboard/shopboard-backend/pkg/logger"
)

// BoardHandler handles board view endpoints
type BoardHandler struct {
	service *service.BoardService
	logger  *logger.Logger
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(svc *service.BoardService, log *logger.Logger) *BoardHandler {
	return &BoardHandler{
		service: svc,
		logger:  log,
	}
}

// GetBoard returns the board view for a day. Defaults to today in the
// shop's timezone. Supports conditional requests via ETag.
func (h *BoardHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	includeCanceled := r.URL.Query().Get("includeCanceled") == "true"

	view, err := h.service.GetBoard(r.Context(), date, includeCanceled)
	if err != nil {
		httputil.Error(w, r, err)
		return
	}

	etag := `W/"` + view.Fingerprint() + `"`
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		httputil.NotModified(w)
		return
	}

	httputil.JSONWithMeta(w, r, http.StatusOK, view, map[string]any{
		"generated_at": view.GeneratedAt,
		"etag":         etag,
	})
}
