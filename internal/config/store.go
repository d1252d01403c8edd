package config

import (
	"context"
	"fmt"
)

// CoordinationStore returns the orchestrator's coordination tunables.
// Implementations must return the current state on every call; the
// orchestrator reads it fresh at the start of each scan cycle.
type CoordinationStore interface {
	// Load returns the coordination configuration
	Load(ctx context.Context) (*CoordinationConfig, error)
}

// fileCoordinationStore re-reads the coordination section from the config
// file on every Load, so out-of-band edits take effect on the next cycle
// without a restart.
type fileCoordinationStore struct {
	path string
}

// NewFileCoordinationStore creates a CoordinationStore backed by the config
// file at the given path
func NewFileCoordinationStore(path string) CoordinationStore {
	return &fileCoordinationStore{path: path}
}

func (s *fileCoordinationStore) Load(_ context.Context) (*CoordinationConfig, error) {
	cfg, err := LoadConfig(WithConfigPath(s.path))
	if err != nil {
		return nil, fmt.Errorf("failed to load coordination config: %w", err)
	}

	// Return a copy so callers never share the parsed struct
	coordination := cfg.Coordination
	return &coordination, nil
}

// StaticCoordinationStore serves a fixed coordination configuration.
// Used by the one-shot CLI commands where the config file was already
// loaded, and by tests.
type StaticCoordinationStore struct {
	Coordination CoordinationConfig
}

// Load returns a copy of the stored coordination configuration
func (s *StaticCoordinationStore) Load(_ context.Context) (*CoordinationConfig, error) {
	coordination := s.Coordination
	return &coordination, nil
}
