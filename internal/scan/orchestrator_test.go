package scan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topicfeed/scan-orchestrator/internal/config"
	"github.com/topicfeed/scan-orchestrator/internal/sources"
)

// fakeAdapter implements sources.Adapter with per-method function hooks
// and call counters
type fakeAdapter struct {
	name        string
	contentType string

	getConfigFn      func(ctx context.Context) (*sources.AdapterConfig, error)
	testConnectionFn func(ctx context.Context) (*sources.ConnectionStatus, error)
	performScanFn    func(ctx context.Context) (*sources.ScanResult, error)

	getConfigCalls      int
	testConnectionCalls int
	performScanCalls    int
}

func (f *fakeAdapter) Name() string        { return f.name }
func (f *fakeAdapter) ContentType() string { return f.contentType }

func (f *fakeAdapter) GetConfig(ctx context.Context) (*sources.AdapterConfig, error) {
	f.getConfigCalls++
	if f.getConfigFn != nil {
		return f.getConfigFn(ctx)
	}
	return &sources.AdapterConfig{Enabled: true}, nil
}

func (f *fakeAdapter) TestConnection(ctx context.Context) (*sources.ConnectionStatus, error) {
	f.testConnectionCalls++
	if f.testConnectionFn != nil {
		return f.testConnectionFn(ctx)
	}
	return &sources.ConnectionStatus{Success: true}, nil
}

func (f *fakeAdapter) PerformScan(ctx context.Context) (*sources.ScanResult, error) {
	f.performScanCalls++
	if f.performScanFn != nil {
		return f.performScanFn(ctx)
	}
	return &sources.ScanResult{Source: f.name}, nil
}

func (f *fakeAdapter) GetHistoricalStats(_ context.Context) (*sources.HistoricalStats, error) {
	return &sources.HistoricalStats{}, nil
}

// failingStore always fails to load the coordination config
type failingStore struct{}

func (failingStore) Load(_ context.Context) (*config.CoordinationConfig, error) {
	return nil, errors.New("config file unreadable")
}

// fakeLastScans serves fixed last-scan timestamps
type fakeLastScans struct {
	times map[string]*time.Time
}

func (f *fakeLastScans) LastScanTime(_ context.Context, source string) *time.Time {
	return f.times[source]
}

func newRegistry(t *testing.T, adapters ...sources.Adapter) *sources.Registry {
	t.Helper()
	registry := sources.NewRegistry()
	for _, adapter := range adapters {
		require.NoError(t, registry.Register(adapter))
	}
	return registry
}

func enabledStore(priority ...string) *config.StaticCoordinationStore {
	return &config.StaticCoordinationStore{
		Coordination: config.CoordinationConfig{
			Enabled:         true,
			IntervalMinutes: 30,
			SourcePriority:  priority,
		},
	}
}

func TestRunCoordinatedScan_MixedOutcomes(t *testing.T) {
	t.Parallel()

	// Priority [B, A, C]: B succeeds, A is disabled, C's scan throws.
	sourceB := &fakeAdapter{
		name: "B",
		performScanFn: func(_ context.Context) (*sources.ScanResult, error) {
			return &sources.ScanResult{
				Source:        "B",
				ItemsFound:    15,
				ItemsApproved: 8,
			}, nil
		},
	}
	sourceA := &fakeAdapter{
		name: "A",
		getConfigFn: func(_ context.Context) (*sources.AdapterConfig, error) {
			return &sources.AdapterConfig{Enabled: false}, nil
		},
	}
	sourceC := &fakeAdapter{
		name: "C",
		performScanFn: func(_ context.Context) (*sources.ScanResult, error) {
			return nil, errors.New("platform exploded")
		},
	}

	registry := newRegistry(t, sourceA, sourceB, sourceC)
	orchestrator := New(enabledStore("B", "A", "C"), registry)

	result, err := orchestrator.RunCoordinatedScan(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Sources, 1)
	assert.Equal(t, "B", result.Sources[0].Source)
	assert.Equal(t, 1, result.SuccessfulSources)
	assert.Equal(t, 1, result.FailedSources)
	assert.Equal(t, 15, result.TotalItemsFound)
	assert.Equal(t, 8, result.TotalItemsApproved)
	assert.False(t, result.EndedAt.Before(result.StartedAt))

	// The disabled source was never probed or scanned
	assert.Equal(t, 0, sourceA.testConnectionCalls)
	assert.Equal(t, 0, sourceA.performScanCalls)
}

func TestRunCoordinatedScan_CoordinationDisabled(t *testing.T) {
	t.Parallel()

	adapter := &fakeAdapter{name: "reddit"}
	registry := newRegistry(t, adapter)
	store := &config.StaticCoordinationStore{
		Coordination: config.CoordinationConfig{Enabled: false},
	}

	result, err := New(store, registry).RunCoordinatedScan(context.Background())
	require.NoError(t, err)

	assert.Empty(t, result.Sources)
	assert.Equal(t, 0, result.SuccessfulSources)
	assert.Equal(t, 0, result.FailedSources)
	assert.Equal(t, 0, result.TotalItemsFound)
	assert.Equal(t, 0, adapter.getConfigCalls)
	assert.Equal(t, 0, adapter.performScanCalls)
}

func TestRunCoordinatedScan_ConfigUnavailable(t *testing.T) {
	t.Parallel()

	registry := newRegistry(t, &fakeAdapter{name: "reddit"})
	result, err := New(failingStore{}, registry).RunCoordinatedScan(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfigUnavailable)
	assert.Nil(t, result)
}

func TestRunCoordinatedScan_SingleFlight(t *testing.T) {
	t.Parallel()

	scanStarted := make(chan struct{})
	releaseScan := make(chan struct{})
	var startOnce sync.Once
	slow := &fakeAdapter{
		name: "reddit",
		performScanFn: func(_ context.Context) (*sources.ScanResult, error) {
			startOnce.Do(func() { close(scanStarted) })
			<-releaseScan
			return &sources.ScanResult{Source: "reddit"}, nil
		},
	}

	orchestrator := New(enabledStore(), newRegistry(t, slow))

	firstDone := make(chan error, 1)
	go func() {
		_, err := orchestrator.RunCoordinatedScan(context.Background())
		firstDone <- err
	}()

	<-scanStarted
	_, err := orchestrator.RunCoordinatedScan(context.Background())
	assert.ErrorIs(t, err, ErrScanInProgress)

	close(releaseScan)
	require.NoError(t, <-firstDone)

	// The guard is released once the first cycle completes
	_, err = orchestrator.RunCoordinatedScan(context.Background())
	require.NoError(t, err)
}

func TestRunCoordinatedScan_SkipReasons(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		adapter *fakeAdapter
	}{
		{
			name: "config retrieval fails",
			adapter: &fakeAdapter{
				name: "youtube",
				getConfigFn: func(_ context.Context) (*sources.AdapterConfig, error) {
					return nil, errors.New("credentials store offline")
				},
			},
		},
		{
			name: "connection probe reports failure",
			adapter: &fakeAdapter{
				name: "youtube",
				testConnectionFn: func(_ context.Context) (*sources.ConnectionStatus, error) {
					return &sources.ConnectionStatus{Success: false, Message: "invalid API key"}, nil
				},
			},
		},
		{
			name: "connection probe errors",
			adapter: &fakeAdapter{
				name: "youtube",
				testConnectionFn: func(_ context.Context) (*sources.ConnectionStatus, error) {
					return nil, errors.New("dial timeout")
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			orchestrator := New(enabledStore(), newRegistry(t, tt.adapter))
			result, err := orchestrator.RunCoordinatedScan(context.Background())
			require.NoError(t, err)

			// Skipped sources are absent entirely, not counted as failures
			assert.Empty(t, result.Sources)
			assert.Equal(t, 0, result.SuccessfulSources)
			assert.Equal(t, 0, result.FailedSources)
			assert.Equal(t, 0, tt.adapter.performScanCalls)
		})
	}
}

func TestRunCoordinatedScan_PriorityOrder(t *testing.T) {
	t.Parallel()

	var polled []string
	record := func(name string) *fakeAdapter {
		return &fakeAdapter{
			name: name,
			performScanFn: func(_ context.Context) (*sources.ScanResult, error) {
				polled = append(polled, name)
				return &sources.ScanResult{Source: name}, nil
			},
		}
	}

	registry := newRegistry(t, record("reddit"), record("youtube"), record("mastodon"))

	// "ghost" names no registered source and is ignored; sources missing
	// from the priority list follow in registration order.
	store := enabledStore("mastodon", "ghost", "reddit")
	result, err := New(store, registry).RunCoordinatedScan(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"mastodon", "reddit", "youtube"}, polled)
	require.Len(t, result.Sources, 3)
	assert.Equal(t, "mastodon", result.Sources[0].Source)
	assert.Equal(t, 3, result.SuccessfulSources)
}

func TestRunCoordinatedScan_ContentBalancingWeights(t *testing.T) {
	t.Parallel()

	registry := newRegistry(t, &fakeAdapter{name: "reddit"})

	store := enabledStore()
	store.Coordination.ContentBalancing = &config.ContentBalancingConfig{
		Enabled:        true,
		WeightBySource: map[string]int{"reddit": 60, "youtube": 40},
	}

	result, err := New(store, registry).RunCoordinatedScan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"reddit": 60, "youtube": 40}, result.Weights)

	// Weights are omitted when balancing is off
	store.Coordination.ContentBalancing.Enabled = false
	result, err = New(store, registry).RunCoordinatedScan(context.Background())
	require.NoError(t, err)
	assert.Nil(t, result.Weights)
}

func TestGetSourceStatuses(t *testing.T) {
	t.Parallel()

	lastScan := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	ready := &fakeAdapter{name: "reddit"}
	disabled := &fakeAdapter{
		name: "instagram",
		getConfigFn: func(_ context.Context) (*sources.AdapterConfig, error) {
			return &sources.AdapterConfig{Enabled: false}, nil
		},
	}
	unauthenticated := &fakeAdapter{
		name: "youtube",
		testConnectionFn: func(_ context.Context) (*sources.ConnectionStatus, error) {
			return &sources.ConnectionStatus{Success: false, Message: "expired key"}, nil
		},
	}

	registry := newRegistry(t, ready, disabled, unauthenticated)
	lookup := &fakeLastScans{times: map[string]*time.Time{"reddit": &lastScan}}
	orchestrator := New(enabledStore(), registry, WithLastScanLookup(lookup))

	statuses := orchestrator.GetSourceStatuses(context.Background())
	require.Len(t, statuses, 3)

	byName := make(map[string]SourceStatus, len(statuses))
	for _, status := range statuses {
		byName[status.Source] = status
	}

	assert.True(t, byName["reddit"].Enabled)
	assert.True(t, byName["reddit"].Authenticated)
	require.NotNil(t, byName["reddit"].LastScanTime)
	assert.Equal(t, lastScan, *byName["reddit"].LastScanTime)

	assert.False(t, byName["instagram"].Enabled)
	assert.False(t, byName["youtube"].Authenticated)
	assert.Nil(t, byName["youtube"].LastScanTime)

	// Status reporting never triggers a scan
	assert.Equal(t, 0, ready.performScanCalls)
	assert.Equal(t, 0, unauthenticated.performScanCalls)
}
