package sources

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topicfeed/scan-orchestrator/internal/config"
)

func TestBuildRegistry(t *testing.T) {
	t.Parallel()

	cfg := &config.Config{
		Topic: config.TopicConfig{Name: "urban cycling", Keywords: []string{"cycling"}},
		Sources: []config.SourceConfig{
			{Name: "youtube", Platform: config.PlatformYouTube, ContentType: config.ContentTypeVideos},
			{Name: "reddit", Platform: config.PlatformReddit, ContentType: config.ContentTypePosts},
		},
	}

	registry, err := BuildRegistry(cfg, newTestHistory(t))
	require.NoError(t, err)

	// Configuration order becomes registration order
	assert.Equal(t, []string{"youtube", "reddit"}, registry.Names())

	adapter, ok := registry.Get("reddit")
	require.True(t, ok)
	assert.Equal(t, config.ContentTypePosts, adapter.ContentType())
}

func TestNewAdapter_UnsupportedPlatform(t *testing.T) {
	t.Parallel()

	_, err := NewAdapter(config.SourceConfig{Name: "x", Platform: "friendster"}, nil, newTestHistory(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported platform")
}

func TestSettingHelpers(t *testing.T) {
	t.Parallel()

	settings := map[string]any{
		"baseUrl":    "https://example.test",
		"subreddits": []any{"bicycling", "cycling"},
		"mixed":      []any{"ok", 42},
	}

	assert.Equal(t, "https://example.test", settingString(settings, "baseUrl", "fallback"))
	assert.Equal(t, "fallback", settingString(settings, "missing", "fallback"))
	assert.Equal(t, []string{"bicycling", "cycling"}, settingStringList(settings, "subreddits"))
	assert.Equal(t, []string{"ok"}, settingStringList(settings, "mixed"))
	assert.Nil(t, settingStringList(settings, "missing"))
}
