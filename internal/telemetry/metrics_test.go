package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

func TestNewScanMetrics_NilProvider(t *testing.T) {
	t.Parallel()

	metrics, err := NewScanMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, metrics)

	// Recording on nil metrics must be a safe no-op
	ctx := context.Background()
	metrics.RecordCycleDuration(ctx, time.Second, true)
	metrics.RecordSourceItems(ctx, "reddit", 10, 3)
	metrics.RecordSourceOutcome(ctx, "reddit", "succeeded")
	metrics.RecordTickSkipped(ctx)
}

func TestNewScanMetrics_NoopProvider(t *testing.T) {
	t.Parallel()

	metrics, err := NewScanMetrics(noop.NewMeterProvider())
	require.NoError(t, err)
	require.NotNil(t, metrics)

	ctx := context.Background()
	metrics.RecordCycleDuration(ctx, 2*time.Second, false)
	metrics.RecordSourceItems(ctx, "youtube", 5, 5)
	metrics.RecordSourceOutcome(ctx, "youtube", "failed")
	metrics.RecordTickSkipped(ctx)
}

func TestNew_Disabled(t *testing.T) {
	t.Parallel()

	tel, err := New(context.Background(), WithMetricsEnabled(false))
	require.NoError(t, err)
	require.NotNil(t, tel.MeterProvider())
	require.NoError(t, tel.Shutdown(context.Background()))
}
