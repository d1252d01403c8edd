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

const defaultRedditBaseURL = "https://www.reddit.com"

// redditOps queries the reddit search API, per subreddit when subreddits
// are configured and site-wide otherwise
type redditOps struct {
	client     httpclient.Client
	baseURL    string
	subreddits []string
}

// NewRedditAdapter creates a reddit source adapter reporting posts
func NewRedditAdapter(cfg config.SourceConfig, topicKeywords []string, hist history.Service) Adapter {
	ops := &redditOps{
		client: httpclient.NewDefaultClient(0,
			httpclient.WithBearerToken(cfg.Credentials.AccessToken)),
		baseURL:    settingString(cfg.Settings, "baseUrl", defaultRedditBaseURL),
		subreddits: settingStringList(cfg.Settings, "subreddits"),
	}
	return newPlatformAdapter(cfg, topicKeywords, hist, ops)
}

func (o *redditOps) ping(ctx context.Context) error {
	pingURL := fmt.Sprintf("%s/search.json?q=ping&limit=1", o.baseURL)
	_, err := o.client.Get(ctx, pingURL)
	return err
}

func (o *redditOps) search(ctx context.Context, keywords []string, limit int) ([]ContentItem, map[string]any, error) {
	metadata := map[string]any{
		"search_terms": keywords,
	}
	if len(o.subreddits) > 0 {
		metadata["subreddits"] = o.subreddits
	}

	query := strings.Join(keywords, " OR ")

	// No subreddit restriction configured: one site-wide search
	paths := []string{"/search.json"}
	if len(o.subreddits) > 0 {
		paths = paths[:0]
		for _, sub := range o.subreddits {
			paths = append(paths, fmt.Sprintf("/r/%s/search.json", sub))
		}
	}

	var items []ContentItem
	for _, path := range paths {
		searchURL := fmt.Sprintf("%s%s?q=%s&restrict_sr=1&sort=new&limit=%d",
			o.baseURL, path, url.QueryEscape(query), limit)

		body, err := fetchWithRetry(ctx, o.client, searchURL)
		if err != nil {
			// Deliver what earlier subreddits produced alongside the error
			return items, metadata, err
		}

		for _, child := range gjson.GetBytes(body, "data.children").Array() {
			post := child.Get("data")
			items = append(items, ContentItem{
				ID:          post.Get("id").String(),
				Title:       post.Get("title").String(),
				URL:         post.Get("url").String(),
				Score:       int(post.Get("score").Int()),
				PublishedAt: time.Unix(post.Get("created_utc").Int(), 0).UTC(),
			})
		}
	}

	return items, metadata, nil
}
