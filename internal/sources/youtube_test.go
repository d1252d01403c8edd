package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYouTubeOps_Search(t *testing.T) {
	t.Parallel()

	client := &fakeHTTPClient{responses: map[string]string{"/search?": `{
      "items": [
        {"id": {"videoId": "v123"}, "snippet": {"title": "City cycling vlog", "publishedAt": "2026-01-05T08:00:00Z"}}
      ]
    }`}}
	ops := &youtubeOps{client: client, baseURL: "https://yt.test", apiKey: "k"}

	items, _, err := ops.search(context.Background(), []string{"cycling"}, 5)
	require.NoError(t, err)

	require.Len(t, items, 1)
	assert.Equal(t, "v123", items[0].ID)
	assert.Equal(t, "https://www.youtube.com/watch?v=v123", items[0].URL)
	assert.Equal(t, "City cycling vlog", items[0].Title)
}

func TestYouTubeOps_MissingAPIKey(t *testing.T) {
	t.Parallel()

	ops := &youtubeOps{client: &fakeHTTPClient{}, baseURL: "https://yt.test"}

	require.Error(t, ops.ping(context.Background()))

	_, _, err := ops.search(context.Background(), []string{"cycling"}, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "api key not configured")
}
