package sources

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/topicfeed/scan-orchestrator/internal/config"
	"github.com/topicfeed/scan-orchestrator/internal/httpclient"
	"github.com/topicfeed/scan-orchestrator/internal/sources/history"
)

const defaultMastodonInstance = "https://mastodon.social"

// htmlTagPattern strips markup from status bodies, which the mastodon API
// returns as HTML
var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// mastodonOps queries a mastodon instance's search API for statuses
type mastodonOps struct {
	client   httpclient.Client
	instance string
}

// NewMastodonAdapter creates a mastodon source adapter reporting posts
func NewMastodonAdapter(cfg config.SourceConfig, topicKeywords []string, hist history.Service) Adapter {
	ops := &mastodonOps{
		client: httpclient.NewDefaultClient(0,
			httpclient.WithBearerToken(cfg.Credentials.AccessToken)),
		instance: settingString(cfg.Settings, "instance", defaultMastodonInstance),
	}
	return newPlatformAdapter(cfg, topicKeywords, hist, ops)
}

func (o *mastodonOps) ping(ctx context.Context) error {
	_, err := o.client.Get(ctx, o.instance+"/api/v1/instance")
	return err
}

func (o *mastodonOps) search(ctx context.Context, keywords []string, limit int) ([]ContentItem, map[string]any, error) {
	metadata := map[string]any{
		"search_terms": keywords,
		"instance":     o.instance,
	}

	var items []ContentItem
	for _, keyword := range keywords {
		searchURL := fmt.Sprintf("%s/api/v2/search?q=%s&type=statuses&limit=%d",
			o.instance, url.QueryEscape(keyword), limit)

		body, err := fetchWithRetry(ctx, o.client, searchURL)
		if err != nil {
			return items, metadata, err
		}

		for _, status := range gjson.GetBytes(body, "statuses").Array() {
			createdAt, _ := time.Parse(time.RFC3339, status.Get("created_at").String())
			items = append(items, ContentItem{
				ID:          status.Get("id").String(),
				Title:       stripHTML(status.Get("content").String()),
				URL:         status.Get("url").String(),
				Score:       int(status.Get("favourites_count").Int()),
				PublishedAt: createdAt,
			})
		}
	}

	return items, metadata, nil
}

func stripHTML(content string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(content, " "))
}
