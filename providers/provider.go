// Package providers defines the LLM capability consumed by the orchestrator
// and the shared HTTP plumbing for concrete providers.
//
// The core never retries inside the orchestrator; providers own
// transport-level retries if they want them.
package providers

import (
	"context"
	"time"
)

// PromptRequest is one structured analysis prompt. Context carries the
// serializable payload (precomputed metrics, projected timelines, metadata)
// appended to the prompt template.
type PromptRequest struct {
	Analysis string `json:"analysis"`
	Prompt   string `json:"prompt"`
	Context  any    `json:"context,omitempty"`
}

// Usage reports token consumption and cost of one call.
type Usage struct {
	InputTokens  int     `json:"input_tokens"`
	OutputTokens int     `json:"output_tokens"`
	Cost         float64 `json:"cost"`
}

// PromptResponse is the provider's reply. Success false with Error set
// covers application-level failures (the transport error path returns a Go
// error instead).
type PromptResponse struct {
	Success      bool          `json:"success"`
	ResponseText string        `json:"response_text"`
	Usage        *Usage        `json:"usage,omitempty"`
	Error        string        `json:"error,omitempty"`
	Latency      time.Duration `json:"latency,omitempty"`
}

// Provider is the send_prompt capability. Implementations must honor
// context cancellation and deadlines; per-call timeouts are applied by the
// orchestrator through ctx.
type Provider interface {
	ID() string
	Model() string
	SendPrompt(ctx context.Context, req PromptRequest) (PromptResponse, error)
	Close() error
}

// Pricing defines cost per 1K tokens for input and output.
type Pricing struct {
	InputCostPer1K  float64
	OutputCostPer1K float64
}

// Cost computes the USD cost of a call under this pricing.
func (p Pricing) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1000*p.InputCostPer1K +
		float64(outputTokens)/1000*p.OutputCostPer1K
}
