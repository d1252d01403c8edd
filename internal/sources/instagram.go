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

const defaultInstagramBaseURL = "https://graph.instagram.com"

// instagramOps reads the authenticated account's recent media through the
// Instagram Graph API and keeps items whose caption mentions a topic
// keyword or configured hashtag
type instagramOps struct {
	client      httpclient.Client
	baseURL     string
	accessToken string
	hashtags    []string
}

// NewInstagramAdapter creates an instagram source adapter reporting photos
func NewInstagramAdapter(cfg config.SourceConfig, topicKeywords []string, hist history.Service) Adapter {
	ops := &instagramOps{
		client:      httpclient.NewDefaultClient(0),
		baseURL:     settingString(cfg.Settings, "baseUrl", defaultInstagramBaseURL),
		accessToken: cfg.Credentials.AccessToken,
		hashtags:    settingStringList(cfg.Settings, "hashtags"),
	}
	return newPlatformAdapter(cfg, topicKeywords, hist, ops)
}

func (o *instagramOps) ping(ctx context.Context) error {
	if o.accessToken == "" {
		return fmt.Errorf("instagram access token not configured")
	}
	pingURL := fmt.Sprintf("%s/me?fields=id&access_token=%s",
		o.baseURL, url.QueryEscape(o.accessToken))
	_, err := o.client.Get(ctx, pingURL)
	return err
}

func (o *instagramOps) search(ctx context.Context, keywords []string, limit int) ([]ContentItem, map[string]any, error) {
	metadata := map[string]any{
		"search_terms": keywords,
	}
	if len(o.hashtags) > 0 {
		metadata["hashtags"] = o.hashtags
	}

	if o.accessToken == "" {
		return nil, metadata, fmt.Errorf("instagram access token not configured")
	}

	mediaURL := fmt.Sprintf("%s/me/media?fields=id,caption,permalink,like_count,timestamp&limit=%d&access_token=%s",
		o.baseURL, limit, url.QueryEscape(o.accessToken))

	body, err := fetchWithRetry(ctx, o.client, mediaURL)
	if err != nil {
		return nil, metadata, err
	}

	terms := append(append([]string{}, keywords...), o.hashtags...)

	var items []ContentItem
	for _, entry := range gjson.GetBytes(body, "data").Array() {
		caption := entry.Get("caption").String()
		if !mentionsAny(caption, terms) {
			continue
		}
		publishedAt, _ := time.Parse("2006-01-02T15:04:05-0700", entry.Get("timestamp").String())
		items = append(items, ContentItem{
			ID:          entry.Get("id").String(),
			Title:       caption,
			URL:         entry.Get("permalink").String(),
			Score:       int(entry.Get("like_count").Int()),
			PublishedAt: publishedAt,
		})
	}

	return items, metadata, nil
}

// mentionsAny reports whether text contains any of the terms,
// case-insensitively. An empty term list matches everything.
func mentionsAny(text string, terms []string) bool {
	if len(terms) == 0 {
		return true
	}
	lower := strings.ToLower(text)
	for _, term := range terms {
		if strings.Contains(lower, strings.ToLower(term)) {
			return true
		}
	}
	return false
}
