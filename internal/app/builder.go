package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/metric"

	"github.com/topicfeed/scan-orchestrator/internal/api"
	"github.com/topicfeed/scan-orchestrator/internal/config"
	"github.com/topicfeed/scan-orchestrator/internal/scan"
	"github.com/topicfeed/scan-orchestrator/internal/scan/scheduler"
	"github.com/topicfeed/scan-orchestrator/internal/sources"
	"github.com/topicfeed/scan-orchestrator/internal/sources/history"
	"github.com/topicfeed/scan-orchestrator/internal/stats"
	"github.com/topicfeed/scan-orchestrator/internal/telemetry"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second
)

// ScanAppOptions is a function that configures the scan app builder
type ScanAppOptions func(*scanAppConfig) error

// scanAppConfig collects everything the builder needs to assemble a
// ScanApp. It supports dependency injection for testing while providing
// sensible defaults for production.
type scanAppConfig struct {
	config     *config.Config
	configPath string

	// Optional component overrides (primarily for testing)
	history  history.Service
	registry *sources.Registry
	store    config.CoordinationStore

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration

	// Telemetry components
	meterProvider metric.MeterProvider
}

func baseConfig(opts ...ScanAppOptions) (*scanAppConfig, error) {
	cfg := &scanAppConfig{
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// NewScanApp assembles the orchestrator application from configuration
func NewScanApp(ctx context.Context, opts ...ScanAppOptions) (*ScanApp, error) {
	b, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}
	if b.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if b.address == "" {
		b.address = b.config.GetAddress()
	}

	if b.history == nil {
		b.history, err = history.NewFileService(b.config.GetHistoryFile())
		if err != nil {
			return nil, fmt.Errorf("failed to create history service: %w", err)
		}
	}

	if b.registry == nil {
		b.registry, err = sources.BuildRegistry(b.config, b.history)
		if err != nil {
			return nil, fmt.Errorf("failed to build source registry: %w", err)
		}
	}

	// The file-backed store makes out-of-band config edits visible on the
	// next cycle; the static store serves one-shot invocations
	if b.store == nil {
		if b.configPath != "" {
			b.store = config.NewFileCoordinationStore(b.configPath)
		} else {
			b.store = &config.StaticCoordinationStore{Coordination: b.config.Coordination}
		}
	}

	orchestrator, scanScheduler, err := buildScanComponents(b)
	if err != nil {
		return nil, fmt.Errorf("failed to build scan components: %w", err)
	}

	aggregator := stats.NewAggregator(b.registry)

	httpServer, err := buildHTTPServer(b, orchestrator, aggregator)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	appCtx, cancel := context.WithCancel(ctx)

	return &ScanApp{
		config: b.config,
		components: &AppComponents{
			Registry:     b.registry,
			Orchestrator: orchestrator,
			Scheduler:    scanScheduler,
			Stats:        aggregator,
		},
		httpServer: httpServer,
		ctx:        appCtx,
		cancelFunc: cancel,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) ScanAppOptions {
	return func(cfg *scanAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithConfigPath sets the config file path, enabling fresh coordination
// config reads on every scan cycle
func WithConfigPath(path string) ScanAppOptions {
	return func(cfg *scanAppConfig) error {
		cfg.configPath = path
		return nil
	}
}

// WithAddress sets the HTTP server address
func WithAddress(addr string) ScanAppOptions {
	return func(cfg *scanAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		parts := strings.SplitN(addr, ":", 2)
		if len(parts) != 2 || parts[1] == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		host := parts[0]
		port := parts[1]

		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) ScanAppOptions {
	return func(cfg *scanAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithHistoryService allows injecting a custom history service (for testing)
func WithHistoryService(svc history.Service) ScanAppOptions {
	return func(cfg *scanAppConfig) error {
		cfg.history = svc
		return nil
	}
}

// WithRegistry allows injecting a pre-built source registry (for testing)
func WithRegistry(registry *sources.Registry) ScanAppOptions {
	return func(cfg *scanAppConfig) error {
		cfg.registry = registry
		return nil
	}
}

// WithCoordinationStore allows injecting a custom coordination store (for testing)
func WithCoordinationStore(store config.CoordinationStore) ScanAppOptions {
	return func(cfg *scanAppConfig) error {
		cfg.store = store
		return nil
	}
}

// WithMeterProvider sets the OpenTelemetry meter provider for scan metrics
func WithMeterProvider(mp metric.MeterProvider) ScanAppOptions {
	return func(cfg *scanAppConfig) error {
		cfg.meterProvider = mp
		return nil
	}
}

// buildScanComponents builds the orchestrator and its scheduler
func buildScanComponents(b *scanAppConfig) (*scan.Orchestrator, *scheduler.Scheduler, error) {
	slog.Info("Initializing scan components")

	var scanMetrics *telemetry.ScanMetrics
	if b.meterProvider != nil {
		var err error
		scanMetrics, err = telemetry.NewScanMetrics(b.meterProvider)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create scan metrics: %w", err)
		}
		if scanMetrics != nil {
			slog.Info("Scan metrics enabled")
		}
	}

	orchestrator := scan.New(b.store, b.registry,
		scan.WithScanMetrics(scanMetrics),
		scan.WithLastScanLookup(b.history),
	)

	scanScheduler := scheduler.New(orchestrator, b.store,
		scheduler.WithScanMetrics(scanMetrics),
	)

	slog.Info("Scan components initialized successfully")
	return orchestrator, scanScheduler, nil
}

// buildHTTPServer builds the HTTP server with router and middleware
func buildHTTPServer(
	b *scanAppConfig,
	orchestrator *scan.Orchestrator,
	aggregator *stats.Aggregator,
) (*http.Server, error) {
	slog.Info("Initializing HTTP server")

	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	serverOpts := []api.ServerOption{
		api.WithMiddlewares(b.middlewares...),
	}
	if b.config.MetricsEnabled() {
		serverOpts = append(serverOpts, api.WithMetricsEndpoint())
	}

	router := api.NewServer(orchestrator, aggregator, serverOpts...)

	server := &http.Server{
		Addr:         b.address,
		Handler:      router,
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}
