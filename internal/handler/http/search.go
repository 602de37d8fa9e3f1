package http

import (
	"log/slog"
	"net/http"

	"github.com/utafrali/discovery/internal/domain"
	"github.com/utafrali/discovery/internal/service"
	"github.com/utafrali/discovery/pkg/httputil"
	"github.com/utafrali/discovery/pkg/middleware"
	"github.com/utafrali/discovery/pkg/validator"
)

// SearchHandler handles HTTP requests for the public discovery endpoints.
type SearchHandler struct {
	search   *service.SearchService
	suggest  *service.SuggestionService
	trending *service.TrendingService
	logger   *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler.
func NewSearchHandler(
	search *service.SearchService,
	suggest *service.SuggestionService,
	trending *service.TrendingService,
	logger *slog.Logger,
) *SearchHandler {
	return &SearchHandler{
		search:   search,
		suggest:  suggest,
		trending: trending,
		logger:   logger,
	}
}

// --- Request parameters ---

// searchParams are the query parameters of GET /search. The text itself is
// checked by the service so that short queries report QUERY_TOO_SHORT.
type searchParams struct {
	Query      string `query:"q"`
	Kind       string `query:"type" validate:"omitempty,oneof=all items vendors"`
	Sort       string `query:"sort" validate:"omitempty,oneof=relevance price_asc price_desc recent"`
	CategoryID string `query:"categoryId" validate:"omitempty,max=64"`
	PriceMin   *int64 `query:"priceMin" validate:"omitempty,gte=0"`
	PriceMax   *int64 `query:"priceMax" validate:"omitempty,gte=0"`
	PromoOnly  bool   `query:"promoOnly"`
	Page       int    `query:"page" validate:"gte=0,lte=100"`
	Limit      int    `query:"limit" validate:"gte=0,lte=100"`
}

type suggestParams struct {
	Query string `query:"q"`
	Limit int    `query:"limit" validate:"gte=0,lte=20"`
}

type trendingParams struct {
	Limit int `query:"limit" validate:"gte=0,lte=20"`
	Days  int `query:"days" validate:"gte=0,lte=30"`
}

func parseSearchParams(r *http.Request) (searchParams, error) {
	q := r.URL.Query()
	p := searchParams{
		Query:      q.Get("q"),
		Kind:       q.Get("type"),
		Sort:       q.Get("sort"),
		CategoryID: q.Get("categoryId"),
	}

	var err error
	if p.PriceMin, err = queryInt64Ptr(q, "priceMin"); err != nil {
		return p, err
	}
	if p.PriceMax, err = queryInt64Ptr(q, "priceMax"); err != nil {
		return p, err
	}
	if p.PromoOnly, err = queryBool(q, "promoOnly"); err != nil {
		return p, err
	}
	if p.Page, err = queryInt(q, "page"); err != nil {
		return p, err
	}
	if p.Limit, err = queryInt(q, "limit"); err != nil {
		return p, err
	}
	return p, validator.Validate(p)
}

func (p searchParams) toQuery() *domain.SearchQuery {
	query := &domain.SearchQuery{
		Text: p.Query,
		Kind: domain.Kind(p.Kind),
		Sort: domain.Sort(p.Sort),
		Filters: domain.Filters{
			PriceMin:  p.PriceMin,
			PriceMax:  p.PriceMax,
			PromoOnly: p.PromoOnly,
		},
		Page:  p.Page,
		Limit: p.Limit,
	}
	if p.CategoryID != "" {
		category := p.CategoryID
		query.Filters.CategoryID = &category
	}
	return query
}

// --- Handlers ---

// Search handles GET /api/v1/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	params, err := parseSearchParams(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	actor, _ := middleware.ActorFromContext(r.Context())

	result, err := h.search.Search(r.Context(), params.toQuery(), actor, clientInfo(r))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "", result)
}

// Suggestions handles GET /api/v1/search/suggestions
func (h *SearchHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := suggestParams{Query: q.Get("q")}

	var err error
	if params.Limit, err = queryInt(q, "limit"); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := validator.Validate(params); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	suggestions, err := h.suggest.Suggest(r.Context(), params.Query, params.Limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "", suggestions)
}

// Trending handles GET /api/v1/search/trending
func (h *SearchHandler) Trending(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var (
		params trendingParams
		err    error
	)
	if params.Limit, err = queryInt(q, "limit"); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if params.Days, err = queryInt(q, "days"); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if err := validator.Validate(params); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	entries, err := h.trending.Trending(r.Context(), params.Limit, params.Days)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteSuccess(w, http.StatusOK, "", entries)
}
