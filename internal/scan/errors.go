package scan

import "errors"

// Sentinel errors surfaced to callers. Everything else that can go wrong
// during a cycle is absorbed and reflected as data in the UnifiedResult.
var (
	// ErrScanInProgress is returned when a coordinated scan is rejected
	// because another one is already executing. Callers must treat this as
	// "skip this cycle", never retry immediately.
	ErrScanInProgress = errors.New("coordinated scan already in progress")

	// ErrConfigUnavailable is returned when the coordination configuration
	// could not be loaded. No source is contacted in that case.
	ErrConfigUnavailable = errors.New("coordination configuration unavailable")
)

// Skip reason constants
const (
	// ReasonConfigFailed means the source's own config could not be read
	ReasonConfigFailed = "source-config-failed"

	// ReasonSourceDisabled means the source's config disables it
	ReasonSourceDisabled = "source-disabled"

	// ReasonNotAuthenticated means the connection probe failed or was
	// rejected
	ReasonNotAuthenticated = "source-not-authenticated"
)

// Per-source outcome labels used for logging and metrics
const (
	outcomeSucceeded = "succeeded"
	outcomeFailed    = "failed"
	outcomeSkipped   = "skipped"
)
