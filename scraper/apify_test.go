package scraper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchMetadata(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("token"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req["postURLs"])

		items := []map[string]any{{
			"id":         "7345",
			"text":       "my video #fyp",
			"createTime": int64(1717243800),
			"videoMeta":  map[string]any{"height": 1920, "width": 1080, "duration": 33.5},
			"authorMeta": map[string]any{"name": "creator"},
			"diggCount":  100, "commentCount": 5, "shareCount": 2, "playCount": 4000, "collectCount": 9,
		}}
		json.NewEncoder(w).Encode(items)
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret")
	meta, err := c.FetchMetadata(context.Background(), "https://www.tiktok.com/@creator/video/7345")
	require.NoError(t, err)
	assert.Equal(t, "7345", meta.VideoID)
	assert.Equal(t, 33.5, meta.DurationSeconds)
	assert.Equal(t, int64(4000), meta.Stats.Views)
	assert.Equal(t, "creator", meta.Author)
}

func TestFetchMetadataNoToken(t *testing.T) {
	c := NewClient("", "")
	_, err := c.FetchMetadata(context.Background(), "https://example.com/v/1")
	assert.Error(t, err)
}

func TestFetchMetadataEmptyResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	c := NewClient(server.URL, "secret")
	_, err := c.FetchMetadata(context.Background(), "https://example.com/v/1")
	assert.Error(t, err)
}
