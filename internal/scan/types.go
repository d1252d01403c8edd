package scan

import (
	"time"

	"github.com/topicfeed/scan-orchestrator/internal/sources"
)

// UnifiedResult is the outcome of one coordinated scan cycle across all
// eligible sources. It is created fresh per cycle and owned by the caller
// after return; the orchestrator keeps no reference.
type UnifiedResult struct {
	// Sources holds the per-source results of the sources actually polled,
	// in poll order. Skipped sources are absent.
	Sources []sources.ScanResult `json:"sources"`

	// TotalItemsFound is the sum of ItemsFound over Sources
	TotalItemsFound int `json:"total_items_found"`

	// TotalItemsApproved is the sum of ItemsApproved over Sources
	TotalItemsApproved int `json:"total_items_approved"`

	// SuccessfulSources is the number of sources whose scan completed
	SuccessfulSources int `json:"successful_sources"`

	// FailedSources is the number of sources whose scan raised an error
	FailedSources int `json:"failed_sources"`

	// StartedAt is when the cycle began
	StartedAt time.Time `json:"started_at"`

	// EndedAt is when the cycle finished
	EndedAt time.Time `json:"ended_at"`

	// Weights echoes the advisory content-balancing weights in effect for
	// this cycle, when content balancing is enabled
	Weights map[string]int `json:"weights,omitempty"`
}

// SourceStatus reports a source's readiness without performing a scan
type SourceStatus struct {
	// Source is the source identifier
	Source string `json:"source"`

	// Enabled reports whether the source's own config enables it
	Enabled bool `json:"enabled"`

	// Authenticated reports whether the connection probe succeeded
	Authenticated bool `json:"authenticated"`

	// LastScanTime is when the source last finished a scan, if known
	LastScanTime *time.Time `json:"last_scan_time,omitempty"`
}
