// Package telemetry provides OpenTelemetry instrumentation for the scan
// orchestrator. Metrics are exported through the Prometheus exporter and
// served from the HTTP API's /metrics endpoint.
package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	// DefaultServiceName is the default service name for telemetry
	DefaultServiceName = "topicfeed-scan-orchestrator"
)

// Telemetry encapsulates the meter provider and handles its lifecycle
type Telemetry struct {
	meterProvider metric.MeterProvider
}

// Option is a function that configures the telemetry setup
type Option func(*telemetryConfig)

// telemetryConfig holds the configuration for creating telemetry
type telemetryConfig struct {
	enabled        bool
	serviceName    string
	serviceVersion string
}

// WithMetricsEnabled toggles metrics collection
func WithMetricsEnabled(enabled bool) Option {
	return func(tc *telemetryConfig) {
		tc.enabled = enabled
	}
}

// WithServiceName sets the service name reported on metrics
func WithServiceName(name string) Option {
	return func(tc *telemetryConfig) {
		tc.serviceName = name
	}
}

// WithServiceVersion sets the service version reported on metrics
func WithServiceVersion(version string) Option {
	return func(tc *telemetryConfig) {
		tc.serviceVersion = version
	}
}

// New creates and initializes a new Telemetry instance.
// When metrics are disabled it returns a no-op meter provider, so callers
// can record unconditionally.
func New(ctx context.Context, opts ...Option) (*Telemetry, error) {
	cfg := &telemetryConfig{
		serviceName:    DefaultServiceName,
		serviceVersion: "unknown",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if !cfg.enabled {
		slog.Debug("Metrics disabled, using no-op meter provider")
		return &Telemetry{meterProvider: noop.NewMeterProvider()}, nil
	}

	// Create resource with service information
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.serviceName),
			semconv.ServiceVersion(cfg.serviceVersion),
		),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	// The Prometheus exporter registers with the default registerer, which
	// the /metrics handler serves
	exporter, err := otelprom.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	slog.Info("Telemetry initialized",
		"service_name", cfg.serviceName,
		"service_version", cfg.serviceVersion)

	return &Telemetry{meterProvider: mp}, nil
}

// MeterProvider returns the configured meter provider
func (t *Telemetry) MeterProvider() metric.MeterProvider {
	return t.meterProvider
}

// Shutdown flushes and stops the underlying providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if mp, ok := t.meterProvider.(*sdkmetric.MeterProvider); ok {
		if err := mp.Shutdown(ctx); err != nil {
			return fmt.Errorf("failed to shut down meter provider: %w", err)
		}
	}
	return nil
}
