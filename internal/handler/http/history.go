package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/discovery/internal/service"
	apperrors "github.com/utafrali/discovery/pkg/errors"
	"github.com/utafrali/discovery/pkg/httputil"
	"github.com/utafrali/discovery/pkg/middleware"
	"github.com/utafrali/discovery/pkg/pagination"
	"github.com/utafrali/discovery/pkg/validator"
)

// HistoryHandler serves an authenticated actor's own search history. Every
// route is mounted behind RequireActor.
type HistoryHandler struct {
	history *service.HistoryService
	logger  *slog.Logger
}

// NewHistoryHandler creates a new history HTTP handler.
func NewHistoryHandler(history *service.HistoryService, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{
		history: history,
		logger:  logger,
	}
}

type listParams struct {
	Page  int `query:"page" validate:"gte=0,lte=100"`
	Limit int `query:"limit" validate:"gte=0,lte=100"`
}

type recentParams struct {
	Limit int `query:"limit" validate:"gte=0,lte=20"`
}

// ClearResponse is returned by DELETE /search/history.
type ClearResponse struct {
	Deleted int `json:"deleted"`
}

// List handles GET /api/v1/search/history
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		params listParams
		err    error
	)
	if params.Page, err = queryInt(q, "page"); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if params.Limit, err = queryInt(q, "limit"); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := validator.Validate(params); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	actor, _ := middleware.ActorFromContext(r.Context())
	result, err := h.history.List(r.Context(), actor, pagination.Params{Page: params.Page, Limit: params.Limit})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "", result)
}

// Recent handles GET /api/v1/search/recent
func (h *HistoryHandler) Recent(w http.ResponseWriter, r *http.Request) {
	var (
		params recentParams
		err    error
	)
	if params.Limit, err = queryInt(r.URL.Query(), "limit"); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := validator.Validate(params); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	actor, _ := middleware.ActorFromContext(r.Context())
	entries, err := h.history.Recent(r.Context(), actor, params.Limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "", entries)
}

// Clear handles DELETE /api/v1/search/history
func (h *HistoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	actor, _ := middleware.ActorFromContext(r.Context())

	n, err := h.history.Clear(r.Context(), actor)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "search history cleared", ClearResponse{Deleted: n})
}

// Delete handles DELETE /api/v1/search/history/{id}
func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "id")
	id, ok := httputil.ParseUUID(w, r, raw, "search history entry")
	if !ok {
		return
	}

	actor, _ := middleware.ActorFromContext(r.Context())
	deleted, err := h.history.Delete(r.Context(), actor, id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if !deleted {
		httputil.WriteError(w, r, apperrors.NotFound("search history entry", raw), h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "search history entry deleted", nil)
}
