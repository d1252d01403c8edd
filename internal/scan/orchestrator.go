// Package scan implements the coordinated multi-source scan orchestrator.
//
// One coordinated scan cycle loads the coordination configuration fresh,
// orders the registered sources by priority, polls each strictly
// sequentially, isolates per-source failures, and folds the results into a
// single UnifiedResult. At most one coordinated scan executes at any
// instant; concurrent invocations fail fast with ErrScanInProgress.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/topicfeed/scan-orchestrator/internal/config"
	"github.com/topicfeed/scan-orchestrator/internal/sources"
	"github.com/topicfeed/scan-orchestrator/internal/telemetry"
)

// LastScanLookup resolves when a source last finished a scan. Used by
// GetSourceStatuses; the orchestrator itself never records history.
type LastScanLookup interface {
	LastScanTime(ctx context.Context, source string) *time.Time
}

// Orchestrator executes coordinated scan cycles over the registered
// source adapters
type Orchestrator struct {
	store    config.CoordinationStore
	registry *sources.Registry

	metrics   *telemetry.ScanMetrics
	lastScans LastScanLookup

	// mu is the process-wide single-flight guard. TryLock gives the
	// fail-fast semantics the contract requires; it is never held across
	// calls, only for the duration of one cycle.
	mu sync.Mutex
}

// Option configures the orchestrator
type Option func(*Orchestrator)

// WithScanMetrics sets the metrics recorded per cycle and per source
func WithScanMetrics(metrics *telemetry.ScanMetrics) Option {
	return func(o *Orchestrator) {
		o.metrics = metrics
	}
}

// WithLastScanLookup sets the history lookup used by GetSourceStatuses
func WithLastScanLookup(lookup LastScanLookup) Option {
	return func(o *Orchestrator) {
		o.lastScans = lookup
	}
}

// New creates an orchestrator over the given config store and adapter
// registry
func New(store config.CoordinationStore, registry *sources.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:    store,
		registry: registry,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunCoordinatedScan executes exactly one coordinated scan cycle.
//
// It returns ErrScanInProgress when another cycle is executing and
// ErrConfigUnavailable when the coordination config cannot be loaded.
// Per-source problems never abort the cycle: a disabled or unauthenticated
// source is skipped (absent from the result), a failed scan increments
// FailedSources, and the cycle moves on to the next source.
func (o *Orchestrator) RunCoordinatedScan(ctx context.Context) (*UnifiedResult, error) {
	if !o.mu.TryLock() {
		return nil, ErrScanInProgress
	}
	defer o.mu.Unlock()

	startedAt := time.Now()

	// Config is read fresh every cycle; external edits apply immediately
	coord, err := o.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigUnavailable, err)
	}

	result := &UnifiedResult{
		Sources:   []sources.ScanResult{},
		StartedAt: startedAt,
	}

	if !coord.Enabled {
		slog.Info("Coordinated scanning disabled, skipping cycle")
		result.EndedAt = time.Now()
		return result, nil
	}

	if coord.ContentBalancing != nil && coord.ContentBalancing.Enabled {
		result.Weights = coord.ContentBalancing.WeightBySource
	}

	order := o.effectiveOrder(coord.SourcePriority)
	slog.Info("Starting coordinated scan",
		"source_count", len(order),
		"rate_limit_coordination", coord.RateLimitCoordination)

	// Sources are polled strictly one at a time. Sequential execution is
	// the rate-limit coordination mechanism: no two sources ever consume
	// API quota in the same instant.
	consecutiveFailures := 0
	for _, adapter := range order {
		srcResult, outcome := o.pollSource(ctx, adapter)

		switch outcome {
		case outcomeSucceeded:
			result.Sources = append(result.Sources, *srcResult)
			result.SuccessfulSources++
			consecutiveFailures = 0
			o.metrics.RecordSourceItems(ctx, adapter.Name(), srcResult.ItemsFound, srcResult.ItemsApproved)
		case outcomeFailed:
			result.FailedSources++
			consecutiveFailures++
			if coord.ErrorThreshold > 0 && consecutiveFailures >= coord.ErrorThreshold {
				slog.Warn("Sequential source failures reached error threshold",
					"failures", consecutiveFailures,
					"threshold", coord.ErrorThreshold)
			}
		}
		o.metrics.RecordSourceOutcome(ctx, adapter.Name(), outcome)
	}

	for _, src := range result.Sources {
		result.TotalItemsFound += src.ItemsFound
		result.TotalItemsApproved += src.ItemsApproved
	}
	result.EndedAt = time.Now()

	o.metrics.RecordCycleDuration(ctx, result.EndedAt.Sub(result.StartedAt), result.FailedSources == 0)
	slog.Info("Coordinated scan complete",
		"successful_sources", result.SuccessfulSources,
		"failed_sources", result.FailedSources,
		"total_items_found", result.TotalItemsFound,
		"total_items_approved", result.TotalItemsApproved)

	return result, nil
}

// pollSource runs the gate checks and scan for one source. A skipped
// source returns (nil, outcomeSkipped); a failed scan returns
// (nil, outcomeFailed).
func (o *Orchestrator) pollSource(ctx context.Context, adapter sources.Adapter) (*sources.ScanResult, string) {
	name := adapter.Name()

	cfg, err := adapter.GetConfig(ctx)
	if err != nil {
		slog.Warn("Skipping source", "source", name, "reason", ReasonConfigFailed, "error", err)
		return nil, outcomeSkipped
	}
	if !cfg.Enabled {
		slog.Debug("Skipping source", "source", name, "reason", ReasonSourceDisabled)
		return nil, outcomeSkipped
	}

	conn, err := adapter.TestConnection(ctx)
	if err != nil || !conn.Success {
		message := ""
		if conn != nil {
			message = conn.Message
		}
		slog.Warn("Skipping source",
			"source", name,
			"reason", ReasonNotAuthenticated,
			"message", message,
			"error", err)
		return nil, outcomeSkipped
	}

	srcResult, err := adapter.PerformScan(ctx)
	if err != nil {
		// Isolated: the failure is counted and the cycle continues
		slog.Error("Source scan failed", "source", name, "error", err)
		return nil, outcomeFailed
	}

	slog.Info("Source scan complete",
		"source", name,
		"scan_id", srcResult.ScanID,
		"items_found", srcResult.ItemsFound,
		"items_approved", srcResult.ItemsApproved,
		"rate_limit_hit", srcResult.RateLimitHit)
	return srcResult, outcomeSucceeded
}

// effectiveOrder returns the adapters to poll: prioritized sources first,
// in priority order, then the remaining registered sources in registration
// order
func (o *Orchestrator) effectiveOrder(priority []string) []sources.Adapter {
	ordered := make([]sources.Adapter, 0, o.registry.Len())
	seen := make(map[string]bool, o.registry.Len())

	for _, name := range priority {
		if seen[name] {
			continue
		}
		if adapter, ok := o.registry.Get(name); ok {
			ordered = append(ordered, adapter)
			seen[name] = true
		}
	}
	for _, adapter := range o.registry.List() {
		if !seen[adapter.Name()] {
			ordered = append(ordered, adapter)
		}
	}
	return ordered
}

// GetSourceStatuses reports each registered source's readiness without
// performing a scan. Only GetConfig and TestConnection are called.
func (o *Orchestrator) GetSourceStatuses(ctx context.Context) []SourceStatus {
	adapters := o.registry.List()
	statuses := make([]SourceStatus, 0, len(adapters))

	for _, adapter := range adapters {
		status := SourceStatus{Source: adapter.Name()}

		if cfg, err := adapter.GetConfig(ctx); err == nil {
			status.Enabled = cfg.Enabled
		}
		if conn, err := adapter.TestConnection(ctx); err == nil && conn.Success {
			status.Authenticated = true
		}
		if o.lastScans != nil {
			status.LastScanTime = o.lastScans.LastScanTime(ctx, adapter.Name())
		}

		statuses = append(statuses, status)
	}
	return statuses
}
