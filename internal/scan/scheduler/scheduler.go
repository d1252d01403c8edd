// Package scheduler runs coordinated scans on a recurring interval.
//
// The scheduler owns a single background goroutine that performs one scan
// immediately on start and one per interval tick thereafter. Ticks that
// arrive while a scan is still executing are skipped, never queued, and
// Stop waits for the loop to exit without interrupting an in-flight scan.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/topicfeed/scan-orchestrator/internal/config"
	"github.com/topicfeed/scan-orchestrator/internal/scan"
	"github.com/topicfeed/scan-orchestrator/internal/telemetry"
)

// Runner executes one coordinated scan cycle
type Runner interface {
	RunCoordinatedScan(ctx context.Context) (*scan.UnifiedResult, error)
}

// Scheduler triggers coordinated scans on a fixed recurrence
type Scheduler struct {
	runner  Runner
	store   config.CoordinationStore
	metrics *telemetry.ScanMetrics

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// Option configures the scheduler
type Option func(*Scheduler)

// WithScanMetrics sets the metrics used to record skipped ticks
func WithScanMetrics(metrics *telemetry.ScanMetrics) Option {
	return func(s *Scheduler) {
		s.metrics = metrics
	}
}

// New creates a scheduler that drives the given runner
func New(runner Runner, store config.CoordinationStore, opts ...Option) *Scheduler {
	s := &Scheduler{
		runner: runner,
		store:  store,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the recurrence. When coordination is disabled in the
// configuration the scheduler stays stopped and returns nil. Calling Start
// on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}

	coord, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load coordination config: %w", err)
	}
	if !coord.Enabled {
		slog.Info("Coordinated scanning disabled, scheduler not started")
		return nil
	}

	interval := time.Duration(coord.IntervalMinutes) * time.Minute

	// The loop gets its own lifetime so Stop works independently of the
	// caller's context
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.running = true

	go s.run(loopCtx, interval, done)

	slog.Info("Scan scheduler started", "interval", interval)
	return nil
}

// Stop halts the recurrence and waits for the loop goroutine to exit. An
// in-flight scan is never interrupted; Stop returns once it completes.
// Stopping a stopped scheduler is a no-op. The scheduler may be started
// again afterwards.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel, done := s.cancel, s.done
	s.running = false
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	cancel()
	<-done
	slog.Info("Scan scheduler stopped")
}

// IsRunning reports whether the recurrence loop is active
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) run(ctx context.Context, interval time.Duration, done chan struct{}) {
	defer close(done)

	// First scan fires immediately, not after the first interval
	s.runScan(ctx)

	// time.Ticker drops ticks that elapse while the loop is busy, so a
	// slow scan never causes a burst of catch-up scans
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runScan(ctx)
		}
	}
}

func (s *Scheduler) runScan(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	// Detached from the loop context so Stop never cancels a scan that
	// has already begun
	scanCtx := context.WithoutCancel(ctx)

	result, err := s.runner.RunCoordinatedScan(scanCtx)
	if err != nil {
		if errors.Is(err, scan.ErrScanInProgress) {
			slog.Info("Scan already in progress, skipping scheduled tick")
			s.metrics.RecordTickSkipped(ctx)
			return
		}
		slog.Error("Scheduled scan failed", "error", err)
		return
	}

	slog.Info("Scheduled scan complete",
		"successful_sources", result.SuccessfulSources,
		"failed_sources", result.FailedSources,
		"total_items_found", result.TotalItemsFound)
}
