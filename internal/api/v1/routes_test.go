package v1

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topicfeed/scan-orchestrator/internal/scan"
	"github.com/topicfeed/scan-orchestrator/internal/stats"
)

// fakeScanService serves canned scan results and statuses
type fakeScanService struct {
	result   *scan.UnifiedResult
	err      error
	statuses []scan.SourceStatus
}

func (f *fakeScanService) RunCoordinatedScan(_ context.Context) (*scan.UnifiedResult, error) {
	return f.result, f.err
}

func (f *fakeScanService) GetSourceStatuses(_ context.Context) []scan.SourceStatus {
	return f.statuses
}

// fakeStatsService serves canned unified stats
type fakeStatsService struct {
	unified *stats.UnifiedStats
}

func (f *fakeStatsService) GetUnifiedStats(_ context.Context) *stats.UnifiedStats {
	return f.unified
}

func TestTriggerScan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		scanErr    error
		wantStatus int
	}{
		{
			name:       "successful scan",
			wantStatus: http.StatusOK,
		},
		{
			name:       "scan already in progress",
			scanErr:    scan.ErrScanInProgress,
			wantStatus: http.StatusConflict,
		},
		{
			name:       "config unavailable",
			scanErr:    scan.ErrConfigUnavailable,
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name:       "unexpected failure",
			scanErr:    errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			svc := &fakeScanService{
				result: &scan.UnifiedResult{
					SuccessfulSources:  2,
					FailedSources:      1,
					TotalItemsFound:    20,
					TotalItemsApproved: 9,
				},
				err: tt.scanErr,
			}
			router := Router(svc, &fakeStatsService{unified: &stats.UnifiedStats{}})

			req := httptest.NewRequest(http.MethodPost, "/scan", nil)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			if tt.scanErr == nil {
				var result scan.UnifiedResult
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
				assert.Equal(t, 2, result.SuccessfulSources)
				assert.Equal(t, 20, result.TotalItemsFound)
			} else {
				var errResp ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
				assert.NotEmpty(t, errResp.Error)
			}
		})
	}
}

func TestGetSourceStatuses(t *testing.T) {
	t.Parallel()

	lastScan := time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)
	svc := &fakeScanService{
		statuses: []scan.SourceStatus{
			{Source: "reddit", Enabled: true, Authenticated: true, LastScanTime: &lastScan},
			{Source: "youtube", Enabled: true, Authenticated: false},
		},
	}
	router := Router(svc, &fakeStatsService{unified: &stats.UnifiedStats{}})

	req := httptest.NewRequest(http.MethodGet, "/sources/status", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp SourceStatusesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Sources, 2)
	assert.Equal(t, "reddit", resp.Sources[0].Source)
	assert.True(t, resp.Sources[0].Authenticated)
	assert.False(t, resp.Sources[1].Authenticated)
}

func TestGetStats(t *testing.T) {
	t.Parallel()

	svc := &fakeStatsService{
		unified: &stats.UnifiedStats{
			TotalScans:         13,
			TotalItemsFound:    150,
			TotalItemsApproved: 42,
			AverageSuccessRate: 85.38,
			ContentDistribution: map[string]float64{
				"posts":  66.67,
				"videos": 33.33,
			},
		},
	}
	router := Router(&fakeScanService{}, svc)

	req := httptest.NewRequest(http.MethodGet, "/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var unified stats.UnifiedStats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &unified))
	assert.Equal(t, 13, unified.TotalScans)
	assert.InDelta(t, 85.38, unified.AverageSuccessRate, 0.001)
	assert.InDelta(t, 66.67, unified.ContentDistribution["posts"], 0.001)
}

func TestHealthRouter(t *testing.T) {
	t.Parallel()

	router := HealthRouter()

	t.Run("health", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
	})

	t.Run("version", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/version", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var info map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
		assert.NotEmpty(t, info["version"])
		assert.NotEmpty(t, info["go_version"])
	})
}
