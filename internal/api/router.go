package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"genie-dashboard/internal/middleware"
)

// RouterConfig carries the cross-cutting settings of the router.
type RouterConfig struct {
	CORSAllowedOrigins []string
	RateLimiter        *middleware.RateLimiter // nil disables rate limiting
	Dashboard          http.Handler            // mounted under /ui when set
}

// NewRouter builds the HTTP router. The API routes are served both at the
// root and under /api.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(h.logger))
	r.Use(chimw.Recoverer)
	r.Use(middleware.Metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Location"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.health)
	r.Handle("/metrics", promhttp.Handler())
	if cfg.Dashboard != nil {
		r.Mount("/ui", cfg.Dashboard)
	}

	routes := func(r chi.Router) {
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Handler)
		}
		r.Post("/genie/ask", h.ask)
		r.Get("/genie/result/{conversationId}/{messageId}", h.result)
		r.Get("/query/{id}/data", h.widgetData)

		r.Route("/widgets", func(r chi.Router) {
			r.Post("/", h.createWidget)
			r.Get("/", h.listWidgets)
			r.Get("/events", h.widgetEvents)
			r.Get("/{id}", h.getWidget)
			r.Patch("/{id}", h.updateWidget)
			r.Delete("/{id}", h.deleteWidget)
		})
	}
	r.Group(routes)
	r.Route("/api", routes)

	r.NotFound(h.notFound)
	return r
}
