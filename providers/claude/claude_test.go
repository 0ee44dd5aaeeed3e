package claude

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tumilabs/rumiai/providers"
)

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "https://api.anthropic.com/v1"},
		{"https://api.anthropic.com", "https://api.anthropic.com/v1"},
		{"https://api.anthropic.com/v1", "https://api.anthropic.com/v1"},
		{"http://127.0.0.1:8080", "http://127.0.0.1:8080"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeBaseURL(tt.in), "in=%q", tt.in)
	}
}

func TestSendPromptSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("Anthropic-Version"))

		var req claudeRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "claude-3-5-haiku-20241022", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Contains(t, req.Messages[0].Content, "Context:")

		resp := claudeResponse{
			Content: []claudeContent{{Type: "text", Text: `{"CoreMetrics":{"confidence":0.9}}`}},
			Usage:   claudeUsage{InputTokens: 1000, OutputTokens: 200},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	p := NewProvider("claude", "claude-3-5-haiku-20241022", server.URL, "test-key")
	resp, err := p.SendPrompt(context.Background(), providers.PromptRequest{
		Analysis: "creative_density",
		Prompt:   "Analyze this video.",
		Context:  map[string]any{"duration": 10},
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Contains(t, resp.ResponseText, "CoreMetrics")
	require.NotNil(t, resp.Usage)
	// 1000 in at 0.0008/1K + 200 out at 0.004/1K
	assert.InDelta(t, 0.0016, resp.Usage.Cost, 1e-9)
}

func TestSendPromptAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(claudeResponse{
			Error: &claudeError{Type: "rate_limit_error", Message: "slow down"},
		})
	}))
	defer server.Close()

	p := NewProvider("claude", "claude-3-5-haiku-20241022", server.URL, "test-key")
	resp, err := p.SendPrompt(context.Background(), providers.PromptRequest{Analysis: "speech_analysis", Prompt: "x"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "rate_limit_error")
}

func TestSendPromptTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	p := NewProvider("claude", "claude-3-5-haiku-20241022", server.URL, "test-key")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.SendPrompt(ctx, providers.PromptRequest{Analysis: "scene_pacing", Prompt: "x"})
	assert.Error(t, err)
}
