package sources

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"

	"github.com/topicfeed/scan-orchestrator/internal/config"
	"github.com/topicfeed/scan-orchestrator/internal/httpclient"
	"github.com/topicfeed/scan-orchestrator/internal/sources/history"
)

const (
	// defaultMaxItems caps the number of items requested per scan when the
	// source block does not set one
	defaultMaxItems = 50

	// maxFetchAttempts bounds the retry loop for transient platform errors
	maxFetchAttempts = 3
)

// platformOps is the platform-specific half of an adapter: a cheap
// authenticated probe and a content search
type platformOps interface {
	// ping performs a cheap call that fails when the platform is
	// unreachable or the credentials are rejected
	ping(ctx context.Context) error

	// search queries the platform for content matching the keywords and
	// returns normalized items plus source-specific scan metadata
	search(ctx context.Context, keywords []string, limit int) ([]ContentItem, map[string]any, error)
}

// platformAdapter implements the Adapter contract on top of a platformOps.
// It owns scan-id assignment, item validation counting, and history
// recording, which are identical across platforms.
type platformAdapter struct {
	cfg      config.SourceConfig
	keywords []string
	history  history.Service
	ops      platformOps
}

func newPlatformAdapter(cfg config.SourceConfig, topicKeywords []string, hist history.Service, ops platformOps) *platformAdapter {
	return &platformAdapter{
		cfg:      cfg,
		keywords: topicKeywords,
		history:  hist,
		ops:      ops,
	}
}

func (a *platformAdapter) Name() string {
	return a.cfg.Name
}

func (a *platformAdapter) ContentType() string {
	return a.cfg.ContentType
}

func (a *platformAdapter) GetConfig(_ context.Context) (*AdapterConfig, error) {
	return &AdapterConfig{
		Enabled:             a.cfg.Enabled,
		ScanIntervalMinutes: a.cfg.ScanIntervalMinutes,
		Settings:            a.cfg.Settings,
	}, nil
}

func (a *platformAdapter) TestConnection(ctx context.Context) (*ConnectionStatus, error) {
	if err := a.ops.ping(ctx); err != nil {
		return &ConnectionStatus{
			Success: false,
			Message: fmt.Sprintf("connection failed: %v", err),
		}, nil
	}
	return &ConnectionStatus{Success: true, Message: "connection OK"}, nil
}

func (a *platformAdapter) PerformScan(ctx context.Context) (*ScanResult, error) {
	startedAt := time.Now()
	result := &ScanResult{
		Source:    a.cfg.Name,
		ScanID:    uuid.NewString(),
		StartedAt: startedAt,
	}

	items, metadata, err := a.ops.search(ctx, a.keywords, a.maxItems())
	if err != nil {
		if !httpclient.IsRateLimited(err) {
			a.recordHistory(ctx, history.Record{Succeeded: false, Timestamp: time.Now()})
			return nil, fmt.Errorf("scan failed for source %s: %w", a.cfg.Name, err)
		}
		// A rate-limited scan is delivered with whatever was gathered
		// before the platform cut us off
		result.RateLimitHit = true
		result.Errors = append(result.Errors, err.Error())
		slog.Warn("Platform rate limit hit, returning partial scan",
			"source", a.cfg.Name,
			"items_found", len(items))
	}

	a.evaluate(items, result)
	result.EndedAt = time.Now()
	result.Metadata = metadata

	a.recordHistory(ctx, history.Record{
		Succeeded:     true,
		ItemsFound:    result.ItemsFound,
		ItemsApproved: result.ItemsApproved,
		Timestamp:     result.EndedAt,
	})

	return result, nil
}

func (a *platformAdapter) GetHistoricalStats(ctx context.Context) (*HistoricalStats, error) {
	h, ok := a.history.Get(ctx, a.cfg.Name)
	if !ok {
		return &HistoricalStats{}, nil
	}
	return &HistoricalStats{
		TotalScans:    h.TotalScans,
		TotalFound:    h.TotalFound,
		TotalApproved: h.TotalApproved,
		SuccessRate:   h.SuccessRate(),
		LastScanTime:  h.LastScanTime,
	}, nil
}

// evaluate folds the fetched items into the scan counters. Duplicates are
// detected within the scan by id/url; approval requires the minimum
// platform score; flag terms send an item to manual review instead.
func (a *platformAdapter) evaluate(items []ContentItem, result *ScanResult) {
	seen := make(map[string]bool, len(items))

	result.ItemsFound = len(items)
	for _, item := range items {
		key := item.ID
		if key == "" {
			key = item.URL
		}
		if key != "" && seen[key] {
			result.DuplicatesFound++
			continue
		}
		seen[key] = true

		result.ItemsProcessed++
		switch {
		case a.isFlagged(item):
			result.ItemsFlagged++
		case item.Score >= a.cfg.MinScore:
			result.ItemsApproved++
		default:
			result.ItemsRejected++
		}
	}
}

func (a *platformAdapter) isFlagged(item ContentItem) bool {
	title := strings.ToLower(item.Title)
	for _, term := range a.cfg.FlagTerms {
		if strings.Contains(title, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

func (a *platformAdapter) maxItems() int {
	if a.cfg.MaxItems > 0 {
		return a.cfg.MaxItems
	}
	return defaultMaxItems
}

func (a *platformAdapter) recordHistory(ctx context.Context, rec history.Record) {
	if err := a.history.RecordScan(ctx, a.cfg.Name, rec); err != nil {
		slog.Error("Failed to record scan history",
			"source", a.cfg.Name,
			"error", err)
	}
}

// fetchWithRetry performs a GET with exponential backoff on transient
// failures. Rate-limit and client errors are permanent: retrying them
// would burn more of the platform quota the coordination exists to protect.
func fetchWithRetry(ctx context.Context, client httpclient.Client, url string) ([]byte, error) {
	operation := func() ([]byte, error) {
		body, err := client.Get(ctx, url)
		if err != nil {
			if httpclient.IsRateLimited(err) || !httpclient.IsRetryable(err) {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return body, nil
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(maxFetchAttempts),
	)
}
