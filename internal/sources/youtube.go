package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/topicfeed/scan-orchestrator/internal/config"
	"github.com/topicfeed/scan-orchestrator/internal/httpclient"
	"github.com/topicfeed/scan-orchestrator/internal/sources/history"
)

const defaultYouTubeBaseURL = "https://www.googleapis.com/youtube/v3"

// youtubeOps queries the YouTube Data API search endpoint. The API reports
// no score for search results, so approval is driven by the keyword match
// and a zero minScore.
type youtubeOps struct {
	client     httpclient.Client
	baseURL    string
	apiKey     string
	channelIDs []string
}

// NewYouTubeAdapter creates a youtube source adapter reporting videos
func NewYouTubeAdapter(cfg config.SourceConfig, topicKeywords []string, hist history.Service) Adapter {
	ops := &youtubeOps{
		client:     httpclient.NewDefaultClient(0),
		baseURL:    settingString(cfg.Settings, "baseUrl", defaultYouTubeBaseURL),
		apiKey:     cfg.Credentials.APIKey,
		channelIDs: settingStringList(cfg.Settings, "channelIds"),
	}
	return newPlatformAdapter(cfg, topicKeywords, hist, ops)
}

func (o *youtubeOps) ping(ctx context.Context) error {
	if o.apiKey == "" {
		return fmt.Errorf("youtube api key not configured")
	}
	pingURL := fmt.Sprintf("%s/search?part=snippet&maxResults=1&q=ping&key=%s",
		o.baseURL, url.QueryEscape(o.apiKey))
	_, err := o.client.Get(ctx, pingURL)
	return err
}

func (o *youtubeOps) search(ctx context.Context, keywords []string, limit int) ([]ContentItem, map[string]any, error) {
	metadata := map[string]any{
		"search_terms": keywords,
	}
	if len(o.channelIDs) > 0 {
		metadata["channel_ids"] = o.channelIDs
	}

	if o.apiKey == "" {
		return nil, metadata, fmt.Errorf("youtube api key not configured")
	}

	query := strings.Join(keywords, "|")

	// An empty channel filter means one unrestricted search
	channels := o.channelIDs
	if len(channels) == 0 {
		channels = []string{""}
	}

	var items []ContentItem
	for _, channelID := range channels {
		searchURL := fmt.Sprintf("%s/search?part=snippet&type=video&order=date&maxResults=%d&q=%s&key=%s",
			o.baseURL, limit, url.QueryEscape(query), url.QueryEscape(o.apiKey))
		if channelID != "" {
			searchURL += "&channelId=" + url.QueryEscape(channelID)
		}

		body, err := fetchWithRetry(ctx, o.client, searchURL)
		if err != nil {
			return items, metadata, err
		}

		for _, entry := range gjson.GetBytes(body, "items").Array() {
			videoID := entry.Get("id.videoId").String()
			publishedAt, _ := time.Parse(time.RFC3339, entry.Get("snippet.publishedAt").String())
			items = append(items, ContentItem{
				ID:          videoID,
				Title:       entry.Get("snippet.title").String(),
				URL:         "https://www.youtube.com/watch?v=" + videoID,
				PublishedAt: publishedAt,
			})
		}
	}

	return items, metadata, nil
}
