// Package mock provides a deterministic in-process LLM capability used in
// tests and credential-less dry runs. Unless Responses or Err override it,
// it returns a well-formed six-block response with every confidence at 0.5.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/tumilabs/rumiai/providers"
)

// Provider implements providers.Provider with canned responses.
type Provider struct {
	mu sync.Mutex

	// Responses maps analysis type to a canned response text. Analyses
	// without an entry get the default six-block JSON.
	Responses map[string]string

	// Err, when set, is returned by every SendPrompt call.
	Err error

	// Calls records the requests received, in order.
	Calls []providers.PromptRequest
}

// NewProvider creates a mock provider with default responses.
func NewProvider() *Provider {
	return &Provider{Responses: map[string]string{}}
}

// ID returns the provider id.
func (p *Provider) ID() string { return "mock" }

// Model returns the mock model id.
func (p *Provider) Model() string { return "mock-model" }

// Close is a no-op.
func (p *Provider) Close() error { return nil }

// defaultResponse is a complete six-block response with neutral confidences.
func defaultResponse(analysis string) string {
	blocks := map[string]any{}
	for _, name := range []string{"CoreMetrics", "Dynamics", "Interactions", "KeyEvents", "Patterns", "Quality"} {
		blocks[name] = map[string]any{
			"confidence": 0.5,
			"analysis":   analysis,
		}
	}
	data, _ := json.Marshal(blocks)
	return string(data)
}

// SendPrompt records the call and returns the canned response.
func (p *Provider) SendPrompt(_ context.Context, req providers.PromptRequest) (providers.PromptResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Calls = append(p.Calls, req)

	if p.Err != nil {
		return providers.PromptResponse{}, fmt.Errorf("mock provider: %w", p.Err)
	}

	text, ok := p.Responses[req.Analysis]
	if !ok {
		text = defaultResponse(req.Analysis)
	}

	return providers.PromptResponse{
		Success:      true,
		ResponseText: text,
		Usage:        &providers.Usage{InputTokens: 100, OutputTokens: 50},
	}, nil
}
