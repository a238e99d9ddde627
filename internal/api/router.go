// Package api exposes the lookup service over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/yravipati/countydata/internal/lookup"
	"github.com/yravipati/countydata/internal/middleware"
)

// Lookuper answers county data lookups.
type Lookuper interface {
	Lookup(ctx context.Context, req lookup.Request) ([]lookup.Record, error)
	Ping(ctx context.Context) error
}

// Options configures the router.
type Options struct {
	Logger             *slog.Logger
	RateLimit          middleware.RateLimitConfig
	CORSAllowedOrigins []string
}

// NewRouter returns the HTTP handler serving svc.
func NewRouter(svc Lookuper, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := opts.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	h := &handler{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(logger))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader, "Retry-After"},
		MaxAge:         300,
	}))
	if opts.RateLimit.RequestsPerSecond > 0 {
		r.Use(middleware.RateLimiter(opts.RateLimit))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		h.writeDetail(w, r, http.StatusNotFound, "Not Found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		h.writeDetail(w, r, http.StatusMethodNotAllowed, "Method Not Allowed")
	})

	r.Get("/", h.root)
	r.Get("/healthz", h.healthz)
	r.Post("/county_data", h.countyData)

	return r
}
