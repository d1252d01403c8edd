// Package history provides file-backed per-source scan history tracking.
//
// Source adapters record each scan outcome here and serve their historical
// statistics from it. The scan orchestrator itself never writes history;
// recording is an adapter concern.
package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Record captures the outcome of a single scan for one source
type Record struct {
	// Succeeded reports whether the scan completed without a fatal error
	Succeeded bool

	// ItemsFound is the number of items the scan discovered
	ItemsFound int

	// ItemsApproved is the number of items that passed content validation
	ItemsApproved int

	// Timestamp is when the scan finished
	Timestamp time.Time
}

// SourceHistory holds the accumulated counters for one source
type SourceHistory struct {
	// TotalScans is the number of scans attempted
	TotalScans int `yaml:"totalScans"`

	// SuccessfulScans is the number of scans that completed successfully
	SuccessfulScans int `yaml:"successfulScans"`

	// TotalFound is the cumulative number of items found
	TotalFound int `yaml:"totalFound"`

	// TotalApproved is the cumulative number of items approved
	TotalApproved int `yaml:"totalApproved"`

	// LastScanTime is when the most recent scan finished
	LastScanTime *time.Time `yaml:"lastScanTime,omitempty"`
}

// SuccessRate returns the percentage of successful scans (0-100)
func (h *SourceHistory) SuccessRate() float64 {
	if h.TotalScans == 0 {
		return 0
	}
	return float64(h.SuccessfulScans) / float64(h.TotalScans) * 100
}

// Service tracks scan history per source
type Service interface {
	// RecordScan folds one scan outcome into the source's counters
	RecordScan(ctx context.Context, source string, rec Record) error

	// Get returns a copy of the source's history. The second return value
	// reports whether any history exists for the source.
	Get(ctx context.Context, source string) (*SourceHistory, bool)

	// LastScanTime returns when the source last finished a scan, or nil
	LastScanTime(ctx context.Context, source string) *time.Time
}

// fileService implements Service with an in-memory cache persisted to a
// YAML file after every write
type fileService struct {
	path string

	mu       sync.RWMutex
	statuses map[string]*SourceHistory
}

// NewFileService creates a file-backed history service, loading any
// existing state from the given path
func NewFileService(path string) (Service, error) {
	svc := &fileService{
		path:     path,
		statuses: make(map[string]*SourceHistory),
	}
	if err := svc.load(); err != nil {
		return nil, err
	}
	return svc, nil
}

func (f *fileService) RecordScan(_ context.Context, source string, rec Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	h, ok := f.statuses[source]
	if !ok {
		h = &SourceHistory{}
		f.statuses[source] = h
	}

	h.TotalScans++
	if rec.Succeeded {
		h.SuccessfulScans++
	}
	h.TotalFound += rec.ItemsFound
	h.TotalApproved += rec.ItemsApproved
	ts := rec.Timestamp
	h.LastScanTime = &ts

	return f.save()
}

func (f *fileService) Get(_ context.Context, source string) (*SourceHistory, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	h, ok := f.statuses[source]
	if !ok {
		return nil, false
	}

	// Return a copy to prevent external modification
	historyCopy := *h
	return &historyCopy, true
}

func (f *fileService) LastScanTime(_ context.Context, source string) *time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()

	h, ok := f.statuses[source]
	if !ok || h.LastScanTime == nil {
		return nil
	}
	ts := *h.LastScanTime
	return &ts
}

// load reads the history file into the cache. A missing file is not an
// error; it just means no scans have run yet.
func (f *fileService) load() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read history file: %w", err)
	}

	statuses := make(map[string]*SourceHistory)
	if err := yaml.Unmarshal(data, &statuses); err != nil {
		return fmt.Errorf("failed to parse history file: %w", err)
	}
	f.statuses = statuses
	return nil
}

// save writes the cache to disk. Callers must hold the write lock.
func (f *fileService) save() error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := yaml.Marshal(f.statuses)
	if err != nil {
		return fmt.Errorf("failed to marshal history data: %w", err)
	}

	// Write to temporary file first for atomic operation
	tempPath := f.path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary history file: %w", err)
	}

	if err := os.Rename(tempPath, f.path); err != nil {
		_ = os.Remove(tempPath)
		return fmt.Errorf("failed to rename history file: %w", err)
	}

	return nil
}
