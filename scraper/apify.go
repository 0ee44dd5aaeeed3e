// Package scraper fetches TikTok video metadata through the Apify scraper
// actor. Video acquisition itself is an external collaborator; the core only
// needs the metadata record to anchor the pipeline.
package scraper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tumilabs/rumiai/providers"
	"github.com/tumilabs/rumiai/types"
)

const (
	defaultBaseURL = "https://api.apify.com"
	actorPath      = "/v2/acts/clockworks~tiktok-scraper/run-sync-get-dataset-items"
)

// Client talks to the Apify actor API.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewClient creates a scraper client. An empty baseURL uses the public
// Apify API.
func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Transport: providers.NewPooledTransport()},
	}
}

// apifyItem is the subset of the actor's dataset item the core consumes.
type apifyItem struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	CreateTime int64  `json:"createTime"`
	VideoMeta  struct {
		Height   int     `json:"height"`
		Width    int     `json:"width"`
		Duration float64 `json:"duration"`
	} `json:"videoMeta"`
	AuthorMeta struct {
		Name string `json:"name"`
	} `json:"authorMeta"`
	DiggCount    int64 `json:"diggCount"`
	CommentCount int64 `json:"commentCount"`
	ShareCount   int64 `json:"shareCount"`
	PlayCount    int64 `json:"playCount"`
	CollectCount int64 `json:"collectCount"`
}

// FetchMetadata resolves a video URL to VideoMetadata.
func (c *Client) FetchMetadata(ctx context.Context, videoURL string) (types.VideoMetadata, error) {
	if c.token == "" {
		return types.VideoMetadata{}, fmt.Errorf("APIFY_API_TOKEN is not set")
	}

	body, err := json.Marshal(map[string]any{
		"postURLs":       []string{videoURL},
		"resultsPerPage": 1,
	})
	if err != nil {
		return types.VideoMetadata{}, err
	}

	url := c.baseURL + actorPath + "?token=" + c.token
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return types.VideoMetadata{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return types.VideoMetadata{}, fmt.Errorf("apify request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return types.VideoMetadata{}, fmt.Errorf("failed to read apify response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return types.VideoMetadata{}, fmt.Errorf("apify returned status %d", resp.StatusCode)
	}

	var items []apifyItem
	if err := json.Unmarshal(respBody, &items); err != nil {
		return types.VideoMetadata{}, fmt.Errorf("failed to parse apify response: %w", err)
	}
	if len(items) == 0 {
		return types.VideoMetadata{}, fmt.Errorf("apify returned no items for %s", videoURL)
	}

	item := items[0]
	meta := types.VideoMetadata{
		VideoID:         item.ID,
		URL:             videoURL,
		DurationSeconds: item.VideoMeta.Duration,
		Width:           item.VideoMeta.Width,
		Height:          item.VideoMeta.Height,
		Description:     item.Text,
		Author:          item.AuthorMeta.Name,
		Stats: types.Stats{
			Views:    item.PlayCount,
			Likes:    item.DiggCount,
			Comments: item.CommentCount,
			Shares:   item.ShareCount,
			Saves:    item.CollectCount,
		},
		CreatedAt: time.Unix(item.CreateTime, 0).UTC(),
	}
	if err := meta.Validate(); err != nil {
		return types.VideoMetadata{}, fmt.Errorf("scraped metadata invalid: %w", err)
	}
	return meta, nil
}
