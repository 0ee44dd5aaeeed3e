// Package claude provides the Anthropic Claude implementation of the LLM
// capability.
package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tumilabs/rumiai/logger"
	"github.com/tumilabs/rumiai/metrics"
	"github.com/tumilabs/rumiai/providers"
)

// HTTP constants
const (
	contentTypeHeader     = "Content-Type"
	applicationJSON       = "application/json"
	anthropicVersionKey   = "Anthropic-Version"
	anthropicVersionValue = "2023-06-01"
	anthropicAPIHost      = "api.anthropic.com"
	defaultBaseURL        = "https://api.anthropic.com/v1"

	defaultMaxTokens = 4096
)

// pricing per model, USD per 1K tokens.
var modelPricing = map[string]providers.Pricing{
	"claude-3-5-sonnet-20241022": {InputCostPer1K: 0.003, OutputCostPer1K: 0.015},
	"claude-3-5-haiku-20241022":  {InputCostPer1K: 0.0008, OutputCostPer1K: 0.004},
}

// normalizeBaseURL ensures the baseURL includes the /v1 path for Anthropic's
// API. Mock server URLs (non-Anthropic hosts) are left unchanged.
func normalizeBaseURL(baseURL string) string {
	if baseURL == "" {
		return defaultBaseURL
	}
	if strings.Contains(baseURL, anthropicAPIHost) && !strings.Contains(baseURL, "/v1") {
		return strings.TrimSuffix(baseURL, "/") + "/v1"
	}
	return baseURL
}

// Provider implements providers.Provider against the Claude messages API.
type Provider struct {
	providers.BaseProvider
	model   string
	baseURL string
	apiKey  string
}

// NewProvider creates a Claude provider. An empty baseURL uses the public
// Anthropic API.
func NewProvider(id, model, baseURL, apiKey string) *Provider {
	return &Provider{
		BaseProvider: providers.NewBaseProvider(id, nil),
		model:        model,
		baseURL:      normalizeBaseURL(baseURL),
		apiKey:       apiKey,
	}
}

// Model returns the model id used by this provider.
func (p *Provider) Model() string {
	return p.model
}

// Claude API request/response structures
type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	Messages  []claudeMessage `json:"messages"`
	System    string          `json:"system,omitempty"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	Role       string          `json:"role"`
	Content    []claudeContent `json:"content"`
	Model      string          `json:"model"`
	StopReason string          `json:"stop_reason"`
	Usage      claudeUsage     `json:"usage"`
	Error      *claudeError    `json:"error,omitempty"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type claudeUsage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

type claudeError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// SendPrompt sends one analysis prompt to the messages API. The request
// context carries the per-call deadline; transport errors are returned as
// Go errors, API-level errors as Success=false responses.
func (p *Provider) SendPrompt(ctx context.Context, req providers.PromptRequest) (providers.PromptResponse, error) {
	start := time.Now()

	userContent := req.Prompt
	if req.Context != nil {
		contextJSON, err := json.Marshal(req.Context)
		if err != nil {
			return providers.PromptResponse{}, fmt.Errorf("failed to marshal prompt context: %w", err)
		}
		userContent = req.Prompt + "\n\nContext:\n" + string(contextJSON)
	}

	claudeReq := claudeRequest{
		Model:     p.model,
		MaxTokens: defaultMaxTokens,
		Messages:  []claudeMessage{{Role: "user", Content: userContent}},
	}

	body, err := json.Marshal(claudeReq)
	if err != nil {
		return providers.PromptResponse{}, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return providers.PromptResponse{}, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set(contentTypeHeader, applicationJSON)
	httpReq.Header.Set(anthropicVersionKey, anthropicVersionValue)
	httpReq.Header.Set("X-API-Key", p.apiKey)

	logger.LLMCall(p.ID(), req.Analysis, len(userContent), "model", p.model)

	httpResp, err := p.Client().Do(httpReq)
	if err != nil {
		metrics.ObserveProviderCall(p.ID(), p.model, "error", 0, 0, 0)
		return providers.PromptResponse{}, fmt.Errorf("claude request failed: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		metrics.ObserveProviderCall(p.ID(), p.model, "error", 0, 0, 0)
		return providers.PromptResponse{}, fmt.Errorf("failed to read response body: %w", err)
	}

	var claudeResp claudeResponse
	if err := json.Unmarshal(respBody, &claudeResp); err != nil {
		metrics.ObserveProviderCall(p.ID(), p.model, "error", 0, 0, 0)
		return providers.PromptResponse{}, fmt.Errorf("failed to parse response (status %d): %w", httpResp.StatusCode, err)
	}

	if claudeResp.Error != nil || httpResp.StatusCode != http.StatusOK {
		msg := fmt.Sprintf("status %d", httpResp.StatusCode)
		if claudeResp.Error != nil {
			msg = claudeResp.Error.Type + ": " + claudeResp.Error.Message
		}
		metrics.ObserveProviderCall(p.ID(), p.model, "error", 0, 0, 0)
		logger.LLMError(p.ID(), req.Analysis, fmt.Errorf("%s", logger.RedactSensitiveData(msg)))
		return providers.PromptResponse{
			Success: false,
			Error:   msg,
			Latency: time.Since(start),
		}, nil
	}

	var text strings.Builder
	for _, c := range claudeResp.Content {
		if c.Type == "text" {
			text.WriteString(c.Text)
		}
	}

	usage := &providers.Usage{
		InputTokens:  claudeResp.Usage.InputTokens,
		OutputTokens: claudeResp.Usage.OutputTokens,
		Cost:         p.pricing().Cost(claudeResp.Usage.InputTokens, claudeResp.Usage.OutputTokens),
	}

	metrics.ObserveProviderCall(p.ID(), p.model, "success", usage.InputTokens, usage.OutputTokens, usage.Cost)
	logger.LLMResponse(p.ID(), req.Analysis, usage.InputTokens, usage.OutputTokens, usage.Cost)

	return providers.PromptResponse{
		Success:      true,
		ResponseText: text.String(),
		Usage:        usage,
		Latency:      time.Since(start),
	}, nil
}

func (p *Provider) pricing() providers.Pricing {
	if pricing, ok := modelPricing[p.model]; ok {
		return pricing
	}
	// Unknown models report zero cost rather than guessing.
	return providers.Pricing{}
}
