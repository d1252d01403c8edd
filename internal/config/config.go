// Package config provides configuration loading and management for the scan orchestrator.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment variables read by the CLI
const EnvPrefix = "TFSCAND"

const (
	// PlatformReddit identifies the reddit source adapter
	PlatformReddit = "reddit"

	// PlatformYouTube identifies the youtube source adapter
	PlatformYouTube = "youtube"

	// PlatformInstagram identifies the instagram source adapter
	PlatformInstagram = "instagram"

	// PlatformMastodon identifies the mastodon source adapter
	PlatformMastodon = "mastodon"
)

const (
	// ContentTypePosts labels sources that report text/link posts
	ContentTypePosts = "posts"

	// ContentTypeVideos labels sources that report videos
	ContentTypeVideos = "videos"

	// ContentTypePhotos labels sources that report photos
	ContentTypePhotos = "photos"
)

// defaultContentTypes maps each platform to the content type it reports
// when a source block does not override it
var defaultContentTypes = map[string]string{
	PlatformReddit:    ContentTypePosts,
	PlatformYouTube:   ContentTypeVideos,
	PlatformInstagram: ContentTypePhotos,
	PlatformMastodon:  ContentTypePosts,
}

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

// loaderConfig defines the configuration for loading a configuration
type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks.
		// Note that this calls filepath.Clean internally.
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		// Validate the path to prevent path traversal attacks
		if !filepath.IsAbs(realPath) {
			if !filepath.IsLocal(realPath) {
				return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
			}
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	// Topic describes the subject the orchestrator aggregates content about
	Topic TopicConfig `yaml:"topic"`

	// Coordination holds the tunables for the coordinated scan cycle
	Coordination CoordinationConfig `yaml:"coordination"`

	// Sources lists the platform source configurations in registration order
	Sources []SourceConfig `yaml:"sources"`

	// Server holds the HTTP API server settings
	Server *ServerConfig `yaml:"server,omitempty"`

	// Telemetry holds the metrics settings
	Telemetry *TelemetryConfig `yaml:"telemetry,omitempty"`

	// HistoryFile is the path to the per-source scan history state file
	HistoryFile string `yaml:"historyFile,omitempty"`
}

// TopicConfig describes the aggregated topic
type TopicConfig struct {
	// Name is the human-readable topic name
	Name string `yaml:"name"`

	// Keywords are the search terms used by source adapters
	Keywords []string `yaml:"keywords,omitempty"`
}

// CoordinationConfig holds the orchestrator tunables.
// It is re-read from the store at the start of every scan cycle and never
// cached across cycles.
type CoordinationConfig struct {
	// Enabled toggles coordinated scanning as a whole
	Enabled bool `yaml:"enabled"`

	// IntervalMinutes is the recurrence interval between scan cycles
	IntervalMinutes int `yaml:"intervalMinutes"`

	// SourcePriority is the ordered list of source names polled first.
	// Registered sources not listed here are appended in registration order.
	SourcePriority []string `yaml:"sourcePriority,omitempty"`

	// ContentBalancing carries advisory per-source representation weights
	ContentBalancing *ContentBalancingConfig `yaml:"contentBalancing,omitempty"`

	// RateLimitCoordination requests strictly one-at-a-time polling so no
	// two sources consume API quota in the same instant. Polling is
	// sequential regardless; the flag is reported for operator visibility.
	RateLimitCoordination bool `yaml:"rateLimitCoordination"`

	// ErrorThreshold is the advisory number of sequential source failures
	// considered noteworthy
	ErrorThreshold int `yaml:"errorThreshold,omitempty"`
}

// ContentBalancingConfig carries advisory per-source weights (0-100).
// Weights are reported in scan results, not enforced as a scheduling
// constraint.
type ContentBalancingConfig struct {
	Enabled        bool           `yaml:"enabled"`
	WeightBySource map[string]int `yaml:"weightBySource,omitempty"`
}

// SourceConfig defines a single platform source configuration
type SourceConfig struct {
	// Name is the identifier for this source
	Name string `yaml:"name"`

	// Platform selects the adapter implementation (reddit, youtube, ...)
	Platform string `yaml:"platform"`

	// Enabled toggles this source
	Enabled bool `yaml:"enabled"`

	// ContentType labels what this source reports (posts, videos, photos).
	// Defaults per platform when empty.
	ContentType string `yaml:"contentType,omitempty"`

	// ScanIntervalMinutes is the adapter's own suggested scan interval
	ScanIntervalMinutes int `yaml:"scanIntervalMinutes,omitempty"`

	// Credentials holds the platform API credentials
	Credentials CredentialsConfig `yaml:"credentials,omitempty"`

	// MinScore is the minimum platform score for an item to be approved
	MinScore int `yaml:"minScore,omitempty"`

	// FlagTerms mark items for manual review instead of approval
	FlagTerms []string `yaml:"flagTerms,omitempty"`

	// MaxItems caps the number of items requested per scan
	MaxItems int `yaml:"maxItems,omitempty"`

	// Settings holds platform-specific options (subreddits, channel ids,
	// instance URLs). Opaque to the orchestrator core.
	Settings map[string]any `yaml:"settings,omitempty"`
}

// CredentialsConfig holds platform API credentials.
// Values support environment indirection: a value of the form ${VAR} is
// resolved from the environment at load time.
type CredentialsConfig struct {
	APIKey      string `yaml:"apiKey,omitempty"`
	AccessToken string `yaml:"accessToken,omitempty"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	// Address is the listen address, e.g. ":8080"
	Address string `yaml:"address,omitempty"`
}

// TelemetryConfig holds metrics settings
type TelemetryConfig struct {
	// Metrics enables the OpenTelemetry meter with Prometheus export
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`
}

// MetricsConfig enables or disables metrics collection
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoadConfig loads and parses configuration from a YAML file
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	// Read the entire file into memory
	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML content
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	config.applyDefaults()

	// Validate the config
	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	config.resolveCredentials()

	return &config, nil
}

// GetHistoryFile returns the history file path, using the default if unset
func (c *Config) GetHistoryFile() string {
	if c.HistoryFile == "" {
		return "./data/history.yaml"
	}
	return c.HistoryFile
}

// GetAddress returns the HTTP listen address, using the default if unset
func (c *Config) GetAddress() string {
	if c.Server == nil || c.Server.Address == "" {
		return ":8080"
	}
	return c.Server.Address
}

// MetricsEnabled reports whether metrics collection is configured
func (c *Config) MetricsEnabled() bool {
	return c.Telemetry != nil && c.Telemetry.Metrics != nil && c.Telemetry.Metrics.Enabled
}

// SourceByName returns the source block with the given name, if present
func (c *Config) SourceByName(name string) *SourceConfig {
	for i := range c.Sources {
		if c.Sources[i].Name == name {
			return &c.Sources[i]
		}
	}
	return nil
}

// applyDefaults fills derivable fields before validation
func (c *Config) applyDefaults() {
	for i := range c.Sources {
		src := &c.Sources[i]
		if src.ContentType == "" {
			src.ContentType = defaultContentTypes[src.Platform]
		}
		if src.ScanIntervalMinutes == 0 {
			src.ScanIntervalMinutes = c.Coordination.IntervalMinutes
		}
	}
}

// resolveCredentials expands ${VAR} credential values from the environment
func (c *Config) resolveCredentials() {
	for i := range c.Sources {
		creds := &c.Sources[i].Credentials
		creds.APIKey = resolveEnvValue(creds.APIKey)
		creds.AccessToken = resolveEnvValue(creds.AccessToken)
	}
}

func resolveEnvValue(value string) string {
	if len(value) > 3 && value[0] == '$' && value[1] == '{' && value[len(value)-1] == '}' {
		return os.Getenv(value[2 : len(value)-1])
	}
	return value
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	if err := c.Coordination.Validate(); err != nil {
		return err
	}

	// Validate at least one source is configured
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source must be configured")
	}

	// Validate each source configuration
	sourceNames := make(map[string]bool)
	for i, src := range c.Sources {
		prefix := fmt.Sprintf("source[%d]", i)

		if src.Name == "" {
			return fmt.Errorf("%s: name is required", prefix)
		}
		if sourceNames[src.Name] {
			return fmt.Errorf("%s: duplicate source name '%s'", prefix, src.Name)
		}
		sourceNames[src.Name] = true

		if src.Platform == "" {
			return fmt.Errorf("%s (%s): platform is required", prefix, src.Name)
		}
		if _, ok := defaultContentTypes[src.Platform]; !ok {
			return fmt.Errorf("%s (%s): unknown platform '%s'", prefix, src.Name, src.Platform)
		}
		if src.MaxItems < 0 {
			return fmt.Errorf("%s (%s): maxItems must not be negative", prefix, src.Name)
		}
	}

	// Priority entries must reference configured sources
	for _, name := range c.Coordination.SourcePriority {
		if !sourceNames[name] {
			return fmt.Errorf("coordination.sourcePriority: unknown source '%s'", name)
		}
	}

	return nil
}

// Validate checks the coordination tunables
func (cc *CoordinationConfig) Validate() error {
	if cc.Enabled && cc.IntervalMinutes <= 0 {
		return fmt.Errorf("coordination.intervalMinutes must be greater than zero")
	}
	if cc.ErrorThreshold < 0 {
		return fmt.Errorf("coordination.errorThreshold must not be negative")
	}
	if cc.ContentBalancing != nil {
		for source, weight := range cc.ContentBalancing.WeightBySource {
			if weight < 0 || weight > 100 {
				return fmt.Errorf("coordination.contentBalancing: weight for '%s' must be between 0 and 100", source)
			}
		}
	}
	return nil
}
