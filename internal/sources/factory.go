package sources

import (
	"fmt"

	"github.com/topicfeed/scan-orchestrator/internal/config"
	"github.com/topicfeed/scan-orchestrator/internal/sources/history"
)

// NewAdapter creates the adapter implementation for a source block
func NewAdapter(cfg config.SourceConfig, topicKeywords []string, hist history.Service) (Adapter, error) {
	switch cfg.Platform {
	case config.PlatformReddit:
		return NewRedditAdapter(cfg, topicKeywords, hist), nil
	case config.PlatformYouTube:
		return NewYouTubeAdapter(cfg, topicKeywords, hist), nil
	case config.PlatformInstagram:
		return NewInstagramAdapter(cfg, topicKeywords, hist), nil
	case config.PlatformMastodon:
		return NewMastodonAdapter(cfg, topicKeywords, hist), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", cfg.Platform)
	}
}

// BuildRegistry creates and registers an adapter for every configured
// source, in configuration order
func BuildRegistry(cfg *config.Config, hist history.Service) (*Registry, error) {
	registry := NewRegistry()
	for _, src := range cfg.Sources {
		adapter, err := NewAdapter(src, cfg.Topic.Keywords, hist)
		if err != nil {
			return nil, fmt.Errorf("source '%s': %w", src.Name, err)
		}
		if err := registry.Register(adapter); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// settingString reads a string option from a source's settings map
func settingString(settings map[string]any, key, fallback string) string {
	if value, ok := settings[key].(string); ok && value != "" {
		return value
	}
	return fallback
}

// settingStringList reads a string-list option from a source's settings
// map. YAML unmarshals sequences as []any, so each element is converted.
func settingStringList(settings map[string]any, key string) []string {
	raw, ok := settings[key].([]any)
	if !ok {
		return nil
	}
	result := make([]string, 0, len(raw))
	for _, entry := range raw {
		if s, ok := entry.(string); ok {
			result = append(result, s)
		}
	}
	return result
}
