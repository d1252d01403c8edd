// Package v1 provides the REST API handlers for the scan orchestrator.
package v1

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/topicfeed/scan-orchestrator/internal/scan"
	"github.com/topicfeed/scan-orchestrator/internal/stats"
	"github.com/topicfeed/scan-orchestrator/internal/versions"
)

// ScanService runs coordinated scans and reports source readiness
type ScanService interface {
	RunCoordinatedScan(ctx context.Context) (*scan.UnifiedResult, error)
	GetSourceStatuses(ctx context.Context) []scan.SourceStatus
}

// StatsService reports cross-source aggregated statistics
type StatsService interface {
	GetUnifiedStats(ctx context.Context) *stats.UnifiedStats
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// SourceStatusesResponse wraps the per-source readiness report
type SourceStatusesResponse struct {
	Sources []scan.SourceStatus `json:"sources"`
}

// Routes defines the routes for the orchestrator API with dependency
// injection
type Routes struct {
	scans ScanService
	stats StatsService
}

// NewRoutes creates a new Routes instance with the provided services
func NewRoutes(scans ScanService, statsSvc StatsService) *Routes {
	return &Routes{
		scans: scans,
		stats: statsSvc,
	}
}

// Router creates a new router for the orchestrator API
func Router(scans ScanService, statsSvc StatsService) http.Handler {
	routes := NewRoutes(scans, statsSvc)

	r := chi.NewRouter()

	r.Post("/scan", routes.triggerScan)
	r.Get("/sources/status", routes.getSourceStatuses)
	r.Get("/stats", routes.getStats)

	return r
}

// triggerScan handles POST /api/v1/scan by running one coordinated scan
// cycle synchronously
func (rr *Routes) triggerScan(w http.ResponseWriter, r *http.Request) {
	result, err := rr.scans.RunCoordinatedScan(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, scan.ErrScanInProgress):
			rr.writeErrorResponse(w, "A coordinated scan is already in progress", http.StatusConflict)
		case errors.Is(err, scan.ErrConfigUnavailable):
			slog.Error("Coordination config unavailable", "error", err)
			rr.writeErrorResponse(w, "Coordination configuration unavailable", http.StatusServiceUnavailable)
		default:
			slog.Error("Coordinated scan failed", "error", err)
			rr.writeErrorResponse(w, "Coordinated scan failed", http.StatusInternalServerError)
		}
		return
	}

	rr.writeJSONResponse(w, result)
}

// getSourceStatuses handles GET /api/v1/sources/status
func (rr *Routes) getSourceStatuses(w http.ResponseWriter, r *http.Request) {
	statuses := rr.scans.GetSourceStatuses(r.Context())
	rr.writeJSONResponse(w, SourceStatusesResponse{Sources: statuses})
}

// getStats handles GET /api/v1/stats
func (rr *Routes) getStats(w http.ResponseWriter, r *http.Request) {
	rr.writeJSONResponse(w, rr.stats.GetUnifiedStats(r.Context()))
}

// HealthRouter creates a router for health check endpoints
func HealthRouter() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", healthHandler)
	r.Get("/version", versionHandler)

	return r
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}

// versionHandler handles version information requests
func versionHandler(w http.ResponseWriter, _ *http.Request) {
	info := versions.GetVersionInfo()

	response := map[string]string{
		"version":    info.Version,
		"commit":     info.Commit,
		"build_date": info.BuildDate,
		"go_version": info.GoVersion,
		"platform":   info.Platform,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode version info", "error", err)
	}
}

// writeJSONResponse writes a JSON response with the given data
func (*Routes) writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode JSON response", "error", err)
	}
}

// writeErrorResponse writes a standardized error response
func (*Routes) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: message}); err != nil {
		slog.Error("Failed to encode error response", "error", err)
	}
}
