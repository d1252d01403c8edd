package sources

import (
	"context"
	"time"
)

// AdapterConfig is the per-source configuration an adapter reports.
// Source-specific options ride along in Settings and are opaque to the
// orchestrator.
type AdapterConfig struct {
	// Enabled reports whether the source should be polled
	Enabled bool `json:"enabled"`

	// ScanIntervalMinutes is the adapter's own suggested scan interval
	ScanIntervalMinutes int `json:"scan_interval_minutes"`

	// Settings holds source-specific options
	Settings map[string]any `json:"settings,omitempty"`
}

// ConnectionStatus is the result of a connectivity/authentication probe
type ConnectionStatus struct {
	// Success reports whether the source is reachable and authenticated
	Success bool `json:"success"`

	// Message describes the probe outcome
	Message string `json:"message,omitempty"`
}

// ScanResult is the outcome of one scan of one source, produced by the
// adapter and consumed as-is by the orchestrator
type ScanResult struct {
	// Source is the name of the source that produced this result
	Source string `json:"source"`

	// ScanID uniquely identifies this scan
	ScanID string `json:"scan_id"`

	// StartedAt is when the scan began
	StartedAt time.Time `json:"started_at"`

	// EndedAt is when the scan finished
	EndedAt time.Time `json:"ended_at"`

	// ItemsFound is the number of items the platform search returned
	ItemsFound int `json:"items_found"`

	// ItemsProcessed is the number of items that went through validation
	ItemsProcessed int `json:"items_processed"`

	// ItemsApproved is the number of items that passed validation
	ItemsApproved int `json:"items_approved"`

	// ItemsRejected is the number of items that failed validation
	ItemsRejected int `json:"items_rejected"`

	// ItemsFlagged is the number of items held for manual review
	ItemsFlagged int `json:"items_flagged"`

	// DuplicatesFound is the number of items discarded as duplicates
	DuplicatesFound int `json:"duplicates_found"`

	// Errors lists non-fatal problems encountered during the scan
	Errors []string `json:"errors,omitempty"`

	// RateLimitHit reports whether the platform rate limit cut the scan short
	RateLimitHit bool `json:"rate_limit_hit"`

	// Metadata carries source-specific details (search terms, subreddits,
	// channel ids). Passed through unmodified by the orchestrator.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// HistoricalStats summarizes a source's accumulated scan history
type HistoricalStats struct {
	// TotalScans is the number of scans attempted
	TotalScans int `json:"total_scans"`

	// TotalFound is the cumulative number of items found
	TotalFound int `json:"total_found"`

	// TotalApproved is the cumulative number of items approved
	TotalApproved int `json:"total_approved"`

	// SuccessRate is the percentage of successful scans (0-100)
	SuccessRate float64 `json:"success_rate"`

	// LastScanTime is when the most recent scan finished
	LastScanTime *time.Time `json:"last_scan_time,omitempty"`
}

// Adapter is the uniform contract every platform source implements.
// All methods may fail; the orchestrator isolates per-source failures.
type Adapter interface {
	// Name returns the source identifier
	Name() string

	// ContentType returns the static content label this source reports
	// (posts, videos, photos)
	ContentType() string

	// GetConfig returns the source's current configuration
	GetConfig(ctx context.Context) (*AdapterConfig, error)

	// TestConnection probes reachability and authentication without scanning
	TestConnection(ctx context.Context) (*ConnectionStatus, error)

	// PerformScan executes one scan against the platform
	PerformScan(ctx context.Context) (*ScanResult, error)

	// GetHistoricalStats returns the source's accumulated scan counters
	GetHistoricalStats(ctx context.Context) (*HistoricalStats, error)
}

// ContentItem is one piece of content returned by a platform search,
// normalized just enough for validation counting
type ContentItem struct {
	ID          string
	Title       string
	URL         string
	Score       int
	PublishedAt time.Time
}
