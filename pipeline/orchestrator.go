// Package pipeline sequences the seven LLM analyses over a unified
// analysis: context assembly, the provider call, response validation, and
// persistence, with inter-call spacing and per-call isolation.
//
// Ordering guarantees: the analysis order is fixed; each call's output is
// persisted before the next begins. A cancellation signal is checked
// between analyses and halts further ones while preserving already
// persisted results.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tumilabs/rumiai/config"
	"github.com/tumilabs/rumiai/logger"
	"github.com/tumilabs/rumiai/metrics"
	"github.com/tumilabs/rumiai/persistence"
	"github.com/tumilabs/rumiai/precompute"
	"github.com/tumilabs/rumiai/prompts"
	"github.com/tumilabs/rumiai/providers"
	"github.com/tumilabs/rumiai/types"
	"github.com/tumilabs/rumiai/validators"
)

// ErrStrictViolation marks a schema violation elevated to fatal by strict
// mode.
var ErrStrictViolation = errors.New("schema violation in strict mode")

// AnalysisStatus is the per-analysis record in the run report.
type AnalysisStatus struct {
	Analysis      string        `json:"analysis"`
	Success       bool          `json:"success"`
	BlocksPresent int           `json:"blocks_present"`
	BlocksMissing int           `json:"blocks_missing"`
	Error         string        `json:"error,omitempty"`
	Duration      time.Duration `json:"duration"`
	Compression   int           `json:"compression_level"`
	// MarkersIncluded is the rollout decision for this call.
	MarkersIncluded bool   `json:"markers_included"`
	MarkersReason   string `json:"markers_reason,omitempty"`
}

// RunReport is the final pipeline summary.
type RunReport struct {
	RunID         string           `json:"run_id"`
	VideoID       string           `json:"video_id"`
	FormatVersion string           `json:"format_version"`
	Success       bool             `json:"success"`
	Analyses      []AnalysisStatus `json:"analyses"`
	Warnings      map[string]int64 `json:"warnings"`
	TotalCost     float64          `json:"total_cost"`
	StartedAt     time.Time        `json:"started_at"`
	Duration      time.Duration    `json:"duration"`
}

// Orchestrator drives the seven analyses.
type Orchestrator struct {
	settings config.Settings
	provider providers.Provider
	store    *persistence.Store
	registry *prompts.Registry
	engine   *precompute.Engine
}

// New creates an orchestrator.
func New(settings config.Settings, provider providers.Provider, store *persistence.Store, registry *prompts.Registry) *Orchestrator {
	return &Orchestrator{
		settings: settings,
		provider: provider,
		store:    store,
		registry: registry,
		engine:   precompute.NewEngine(settings.Weights),
	}
}

// Run executes all seven analyses in order. A failure of one analysis does
// not abort the next; only strict-mode violations and context cancellation
// stop the run early. Already-persisted results are always preserved.
func (o *Orchestrator) Run(ctx context.Context, ua *types.UnifiedAnalysis) (*RunReport, error) {
	started := time.Now()
	report := &RunReport{
		RunID:         uuid.NewString(),
		VideoID:       ua.VideoID,
		FormatVersion: o.settings.OutputFormat,
		Success:       true,
		StartedAt:     started.UTC(),
	}

	limiter := rate.NewLimiter(rate.Every(o.settings.PromptDelay), 1)
	if o.settings.PromptDelay <= 0 {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}

	for _, analysis := range precompute.AnalysisOrder {
		// Cancellation is checked between analyses only; an in-flight call
		// finishes (or times out) and persists first.
		if err := ctx.Err(); err != nil {
			logger.Warn("pipeline cancelled, halting remaining analyses",
				"video_id", ua.VideoID, "next", analysis)
			report.Success = false
			break
		}

		if err := limiter.Wait(ctx); err != nil {
			report.Success = false
			break
		}

		status := o.runOne(ctx, ua, analysis)
		report.Analyses = append(report.Analyses, status)
		if !status.Success {
			report.Success = false
			if o.settings.StrictMode && status.Error != "" {
				report.Warnings = metrics.RecoverySnapshot()
				report.Duration = time.Since(started)
				return report, fmt.Errorf("%w: %s: %s", ErrStrictViolation, analysis, status.Error)
			}
		}
	}

	report.Warnings = metrics.RecoverySnapshot()
	report.Duration = time.Since(started)
	report.TotalCost = o.totalCost(ua.VideoID)
	return report, nil
}

// runOne executes a single analysis with per-call isolation: any failure is
// captured in the status and persisted, never propagated.
func (o *Orchestrator) runOne(ctx context.Context, ua *types.UnifiedAnalysis, analysis string) AnalysisStatus {
	started := time.Now()
	status := AnalysisStatus{Analysis: analysis}

	bundle := o.engine.Compute(analysis, ua)

	includeMarkers, reason := o.rolloutDecision(ua, bundle)
	status.MarkersIncluded = includeMarkers
	status.MarkersReason = reason

	assembled, pc, err := o.buildPrompt(analysis, ua, bundle, includeMarkers)
	if err != nil {
		return o.failed(ua.VideoID, analysis, status, started, err.Error())
	}
	status.Compression = pc.CompressionLevel

	callCtx, cancel := context.WithTimeout(ctx, o.settings.AnalysisTimeout)
	defer cancel()

	resp, err := o.provider.SendPrompt(callCtx, providers.PromptRequest{
		Analysis: analysis,
		Prompt:   assembled.Text,
		Context:  pc,
	})
	if err != nil {
		kind := metrics.KindLLMTransport
		msg := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			kind = metrics.KindLLMTimeout
			msg = "timeout"
		}
		metrics.Recovery(kind)
		logger.LLMError(o.provider.ID(), analysis, err)
		return o.failed(ua.VideoID, analysis, status, started, msg)
	}
	if !resp.Success {
		metrics.Recovery(metrics.KindLLMTransport)
		return o.failed(ua.VideoID, analysis, status, started, resp.Error)
	}

	validated := validators.ValidateResponse(resp.ResponseText, analysis)
	if o.settings.StrictMode && len(validated.BlocksMissing) > 0 {
		return o.failed(ua.VideoID, analysis, status, started,
			fmt.Sprintf("missing blocks: %v", validated.BlocksMissing))
	}
	if schemaErrs := validators.CheckBlockSchemas(validated); len(schemaErrs) > 0 {
		metrics.Recovery(metrics.KindSchemaViolation)
		logger.Warn("block schema violations", "analysis", analysis, "count", len(schemaErrs))
		if o.settings.StrictMode {
			return o.failed(ua.VideoID, analysis, status, started, schemaErrs[0].Error())
		}
	}

	result := &persistence.InsightResult{
		Success:         true,
		BlocksPresent:   validated.BlocksPresent,
		BlocksMissing:   validated.BlocksMissing,
		Data:            validated.Data,
		Usage:           resp.Usage,
		PromptVersion:   assembled.Version,
		MarkersIncluded: includeMarkers,
		MarkersReason:   reason,
	}
	if err := o.store.WriteInsight(ua.VideoID, analysis, result); err != nil {
		metrics.Recovery(metrics.KindPersistence)
		return o.failed(ua.VideoID, analysis, status, started, "persistence: "+err.Error())
	}

	status.Success = true
	status.BlocksPresent = len(validated.BlocksPresent)
	status.BlocksMissing = len(validated.BlocksMissing)
	status.Duration = time.Since(started)
	metrics.ObserveAnalysis(analysis, "success", status.Duration.Seconds())
	return status
}

// failed persists the failure record and finalizes the status. Persistence
// of a failure record is best effort.
func (o *Orchestrator) failed(videoID, analysis string, status AnalysisStatus, started time.Time, msg string) AnalysisStatus {
	status.Success = false
	status.Error = msg
	status.Duration = time.Since(started)
	metrics.ObserveAnalysis(analysis, "error", status.Duration.Seconds())

	result := &persistence.InsightResult{
		Success:         false,
		BlocksPresent:   []string{},
		BlocksMissing:   validators.CanonicalBlocks,
		Data:            map[string]map[string]any{},
		Error:           msg,
		MarkersIncluded: status.MarkersIncluded,
		MarkersReason:   status.MarkersReason,
	}
	if err := o.store.WriteInsight(videoID, analysis, result); err != nil {
		metrics.Recovery(metrics.KindPersistence)
		logger.Error("failed to persist failure record",
			"video_id", videoID, "analysis", analysis, "error", err)
	}
	return status
}

func (o *Orchestrator) buildPrompt(analysis string, ua *types.UnifiedAnalysis, bundle types.FeatureBundle, includeMarkers bool) (prompts.AssembledPrompt, *prompts.PromptContext, error) {
	assembled, err := o.registry.Load(analysis)
	if err != nil {
		return prompts.AssembledPrompt{}, nil, err
	}
	pc, err := prompts.BuildContext(analysis, ua, bundle, includeMarkers)
	if err != nil {
		return prompts.AssembledPrompt{}, nil, err
	}
	return assembled, pc, nil
}

// rolloutDecision records whether temporal markers ride along with this
// call, and why not when they don't.
func (o *Orchestrator) rolloutDecision(ua *types.UnifiedAnalysis, bundle types.FeatureBundle) (bool, string) {
	if !o.settings.UseMLPrecompute {
		return false, "ml precompute disabled"
	}
	if ua.TemporalMarkers == nil {
		return false, "markers not extracted"
	}
	if bundle.IsFallback() {
		return false, "precompute fallback"
	}
	return true, ""
}

func (o *Orchestrator) totalCost(videoID string) float64 {
	var total float64
	for _, analysis := range precompute.AnalysisOrder {
		result, err := o.store.ReadInsight(videoID, analysis)
		if err != nil || result.Usage == nil {
			continue
		}
		total += result.Usage.Cost
	}
	return total
}
