// Package stats aggregates per-source scan history into a single
// cross-source view
package stats

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/topicfeed/scan-orchestrator/internal/sources"
)

// SourceStats is one source's row in the unified statistics report
type SourceStats struct {
	// Source is the source name
	Source string `json:"source"`

	// ContentType is the content label the source produces
	ContentType string `json:"content_type"`

	// TotalScans is the number of scans this source has attempted
	TotalScans int `json:"total_scans"`

	// TotalFound is the cumulative number of items found
	TotalFound int `json:"total_found"`

	// TotalApproved is the cumulative number of items approved
	TotalApproved int `json:"total_approved"`

	// SuccessRate is the source's scan success percentage (0-100)
	SuccessRate float64 `json:"success_rate"`

	// LastScanTime is when the source last finished a scan
	LastScanTime *time.Time `json:"last_scan_time,omitempty"`
}

// UnifiedStats aggregates scan history across every registered source
type UnifiedStats struct {
	// Sources holds the per-source breakdown in registration order
	Sources []SourceStats `json:"sources"`

	// TotalScans is the sum of scan counts across all sources
	TotalScans int `json:"total_scans"`

	// TotalItemsFound is the sum of found items across all sources
	TotalItemsFound int `json:"total_items_found"`

	// TotalItemsApproved is the sum of approved items across all sources
	TotalItemsApproved int `json:"total_items_approved"`

	// AverageSuccessRate is the success rate across sources, weighted by
	// each source's scan count, rounded to two decimals
	AverageSuccessRate float64 `json:"average_success_rate"`

	// ContentDistribution maps content type to its percentage share of
	// approved items, rounded to two decimals
	ContentDistribution map[string]float64 `json:"content_distribution"`

	// LastScanTime is the most recent scan completion across all sources
	LastScanTime *time.Time `json:"last_scan_time,omitempty"`
}

// Aggregator builds unified statistics from the registered adapters
type Aggregator struct {
	registry *sources.Registry
}

// NewAggregator creates a stats aggregator over the given registry
func NewAggregator(registry *sources.Registry) *Aggregator {
	return &Aggregator{registry: registry}
}

// GetUnifiedStats reports cross-source aggregate statistics. It never
// returns an error: a source whose history cannot be read is omitted from
// the breakdown so the remaining sources still report.
func (a *Aggregator) GetUnifiedStats(ctx context.Context) *UnifiedStats {
	unified := &UnifiedStats{
		Sources:             []SourceStats{},
		ContentDistribution: map[string]float64{},
	}

	approvedByType := make(map[string]int)
	weightedRateSum := 0.0

	for _, adapter := range a.registry.List() {
		hist, err := adapter.GetHistoricalStats(ctx)
		if err != nil {
			slog.Warn("Failed to read source history, omitting source",
				"source", adapter.Name(), "error", err)
			continue
		}

		row := SourceStats{
			Source:        adapter.Name(),
			ContentType:   adapter.ContentType(),
			TotalScans:    hist.TotalScans,
			TotalFound:    hist.TotalFound,
			TotalApproved: hist.TotalApproved,
			SuccessRate:   hist.SuccessRate,
			LastScanTime:  hist.LastScanTime,
		}

		unified.Sources = append(unified.Sources, row)
		unified.TotalScans += row.TotalScans
		unified.TotalItemsFound += row.TotalFound
		unified.TotalItemsApproved += row.TotalApproved
		weightedRateSum += float64(row.TotalScans) * row.SuccessRate
		approvedByType[row.ContentType] += row.TotalApproved

		if row.LastScanTime != nil &&
			(unified.LastScanTime == nil || row.LastScanTime.After(*unified.LastScanTime)) {
			unified.LastScanTime = row.LastScanTime
		}
	}

	// Sources that have scanned more carry proportionally more weight
	if unified.TotalScans > 0 {
		unified.AverageSuccessRate = round2(weightedRateSum / float64(unified.TotalScans))
	}

	for contentType, approved := range approvedByType {
		share := 0.0
		if unified.TotalItemsApproved > 0 {
			share = round2(float64(approved) / float64(unified.TotalItemsApproved) * 100)
		}
		unified.ContentDistribution[contentType] = share
	}

	return unified
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
