package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// ScanMetricsMeterName is the name used for the scan metrics meter
	ScanMetricsMeterName = "github.com/topicfeed/scan-orchestrator/scan"
)

// ScanMetrics holds the OpenTelemetry instruments for coordinated scan
// metrics
type ScanMetrics struct {
	cycleDuration metric.Float64Histogram
	sourceItems   metric.Int64Counter
	sourceOutcome metric.Int64Counter
	ticksSkipped  metric.Int64Counter
}

// NewScanMetrics creates a new ScanMetrics instance with the given meter
// provider. If provider is nil, it returns nil (no-op metrics).
func NewScanMetrics(provider metric.MeterProvider) (*ScanMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(ScanMetricsMeterName)

	cycleDuration, err := meter.Float64Histogram(
		"tf_scan_cycle_duration_seconds",
		metric.WithDescription("Duration of coordinated scan cycles in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	sourceItems, err := meter.Int64Counter(
		"tf_scan_source_items_total",
		metric.WithDescription("Items found and approved per source"),
		metric.WithUnit("{item}"),
	)
	if err != nil {
		return nil, err
	}

	sourceOutcome, err := meter.Int64Counter(
		"tf_scan_source_outcomes_total",
		metric.WithDescription("Per-source scan outcomes by result"),
		metric.WithUnit("{scan}"),
	)
	if err != nil {
		return nil, err
	}

	ticksSkipped, err := meter.Int64Counter(
		"tf_scan_ticks_skipped_total",
		metric.WithDescription("Scheduler ticks skipped because a scan was already running"),
		metric.WithUnit("{tick}"),
	)
	if err != nil {
		return nil, err
	}

	return &ScanMetrics{
		cycleDuration: cycleDuration,
		sourceItems:   sourceItems,
		sourceOutcome: sourceOutcome,
		ticksSkipped:  ticksSkipped,
	}, nil
}

// RecordCycleDuration records the duration of one coordinated scan cycle
func (m *ScanMetrics) RecordCycleDuration(ctx context.Context, duration time.Duration, success bool) {
	if m == nil || m.cycleDuration == nil {
		return
	}

	m.cycleDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.Bool("success", success),
	))
}

// RecordSourceItems records the items found and approved by one source scan
func (m *ScanMetrics) RecordSourceItems(ctx context.Context, source string, found, approved int) {
	if m == nil || m.sourceItems == nil {
		return
	}

	m.sourceItems.Add(ctx, int64(found), metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("disposition", "found"),
	))
	m.sourceItems.Add(ctx, int64(approved), metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("disposition", "approved"),
	))
}

// RecordSourceOutcome counts a per-source scan outcome
// (succeeded, failed, skipped)
func (m *ScanMetrics) RecordSourceOutcome(ctx context.Context, source, outcome string) {
	if m == nil || m.sourceOutcome == nil {
		return
	}

	m.sourceOutcome.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("outcome", outcome),
	))
}

// RecordTickSkipped counts a scheduler tick skipped due to an in-flight scan
func (m *ScanMetrics) RecordTickSkipped(ctx context.Context) {
	if m == nil || m.ticksSkipped == nil {
		return
	}

	m.ticksSkipped.Add(ctx, 1)
}
