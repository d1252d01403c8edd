package app

import (
	"github.com/topicfeed/scan-orchestrator/internal/scan"
	"github.com/topicfeed/scan-orchestrator/internal/scan/scheduler"
	"github.com/topicfeed/scan-orchestrator/internal/sources"
	"github.com/topicfeed/scan-orchestrator/internal/stats"
)

// AppComponents groups the long-lived components the app manages
type AppComponents struct {
	// Registry holds the configured source adapters
	Registry *sources.Registry

	// Orchestrator runs coordinated scan cycles
	Orchestrator *scan.Orchestrator

	// Scheduler drives the scan recurrence
	Scheduler *scheduler.Scheduler

	// Stats aggregates cross-source statistics
	Stats *stats.Aggregator
}
