package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/utafrali/discovery/pkg/health"
	"github.com/utafrali/discovery/pkg/middleware"
)

const serviceName = "discovery"

// RouterConfig holds the transport settings of the router.
type RouterConfig struct {
	CORS middleware.CORSConfig

	// TrendingMaxAge is advertised in Cache-Control on trending responses.
	// Zero disables the header.
	TrendingMaxAge time.Duration

	// RateLimit, when set, wraps every /api/v1/search route.
	RateLimit func(http.Handler) http.Handler
}

// NewRouter creates a chi router with all discovery service routes registered.
func NewRouter(
	searchHandler *SearchHandler,
	historyHandler *HistoryHandler,
	healthHandler *health.Handler,
	logger *slog.Logger,
	cfg RouterConfig,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(cfg.CORS))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.RealIP)
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.Actor)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.PrometheusMetrics(serviceName))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	r.Route("/api/v1/search", func(r chi.Router) {
		if cfg.RateLimit != nil {
			r.Use(cfg.RateLimit)
		}

		r.Get("/", searchHandler.Search)
		r.Get("/suggestions", searchHandler.Suggestions)

		r.Group(func(r chi.Router) {
			if cfg.TrendingMaxAge > 0 {
				r.Use(middleware.CacheControl(cfg.TrendingMaxAge))
			}
			r.Get("/trending", searchHandler.Trending)
		})

		// Per-actor history
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireActor)
			r.Use(middleware.NoStore)
			r.Get("/history", historyHandler.List)
			r.Delete("/history", historyHandler.Clear)
			r.Delete("/history/{id}", historyHandler.Delete)
			r.Get("/recent", historyHandler.Recent)
		})
	})

	return r
}
