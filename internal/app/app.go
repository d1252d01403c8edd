// Package app provides application lifecycle management for the scan
// orchestrator server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/topicfeed/scan-orchestrator/internal/config"
)

// ScanApp encapsulates all components needed to run the orchestrator
// server. It provides lifecycle management and graceful shutdown
// capabilities.
type ScanApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// Start starts the application components (HTTP server and the scan
// scheduler). This method blocks until the HTTP server stops or
// encounters an error.
func (app *ScanApp) Start() error {
	if err := app.components.Scheduler.Start(app.ctx); err != nil {
		return fmt.Errorf("failed to start scan scheduler: %w", err)
	}

	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the application with the given timeout. The
// scheduler is stopped first so no new scan cycle begins; an in-flight
// scan runs to completion before Stop proceeds.
func (app *ScanApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	app.components.Scheduler.Stop()

	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// GetConfig returns the application configuration
func (app *ScanApp) GetConfig() *config.Config {
	return app.config
}

// GetComponents returns the assembled components (useful for one-shot
// CLI commands)
func (app *ScanApp) GetComponents() *AppComponents {
	return app.components
}

// GetHTTPServer returns the HTTP server (useful for testing to get the
// actual port)
func (app *ScanApp) GetHTTPServer() *http.Server {
	return app.httpServer
}
