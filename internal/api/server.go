// Package api provides the REST API server for the scan orchestrator.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	v1 "github.com/topicfeed/scan-orchestrator/internal/api/v1"
)

// ServerOption configures the orchestrator API server
type ServerOption func(*serverConfig)

// serverConfig holds the server configuration
type serverConfig struct {
	middlewares    []func(http.Handler) http.Handler
	metricsEnabled bool
}

// WithMiddlewares adds middleware to the server
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(cfg *serverConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithMetricsEndpoint exposes the Prometheus scrape endpoint at /metrics
func WithMetricsEndpoint() ServerOption {
	return func(cfg *serverConfig) {
		cfg.metricsEnabled = true
	}
}

// NewServer creates and configures the HTTP router with the given services
// and options
func NewServer(scans v1.ScanService, stats v1.StatsService, opts ...ServerOption) *chi.Mux {
	cfg := &serverConfig{
		middlewares: []func(http.Handler) http.Handler{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	r := chi.NewRouter()

	for _, mw := range cfg.middlewares {
		r.Use(mw)
	}

	// Health and version live at the root, outside the versioned API
	r.Mount("/", v1.HealthRouter())

	r.Mount("/api/v1", v1.Router(scans, stats))

	if cfg.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		slog.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
