package prompts

import (
	"encoding/json"
	"fmt"

	"github.com/tumilabs/rumiai/logger"
	"github.com/tumilabs/rumiai/metrics"
	"github.com/tumilabs/rumiai/precompute"
	"github.com/tumilabs/rumiai/types"
)

// ContextSizeLimit bounds the compact JSON serialization of a prompt context.
const ContextSizeLimit = 200 * 1024

// Compression tiers applied in order until the context fits.
const (
	CompressionNone          = 0 // full context
	CompressionNoDescription = 1 // verbose descriptions dropped
	CompressionCapped        = 2 // per-modality entries capped at 50
	CompressionSummary       = 3 // raw timelines replaced with counts
)

const (
	cappedEntriesPerModality = 50
	framingObjectEntries     = 30 // downsample cap for person_framing objects
)

// relevantModalities projects each analysis onto the modalities it consumes.
var relevantModalities = map[string][]types.Modality{
	precompute.AnalysisCreativeDensity:  {types.ModalityTextOverlay, types.ModalitySticker, types.ModalitySceneChange, types.ModalityObject, types.ModalityGesture},
	precompute.AnalysisEmotionalJourney: {types.ModalityExpression, types.ModalityGesture},
	precompute.AnalysisPersonFraming:    {types.ModalityObject, types.ModalityPose},
	precompute.AnalysisScenePacing:      {types.ModalitySceneChange},
	precompute.AnalysisSpeech:           {types.ModalitySpeech, types.ModalityGesture},
	precompute.AnalysisVisualOverlay:    {types.ModalityTextOverlay, types.ModalitySticker, types.ModalityGesture, types.ModalitySpeech},
	precompute.AnalysisMetadata:         {},
}

// contextEntry is the compact timeline projection sent to the LLM.
type contextEntry struct {
	Start   float64 `json:"start"`
	End     float64 `json:"end,omitempty"`
	Payload any     `json:"payload"`
}

// PromptContext is the JSON payload accompanying an analysis prompt.
type PromptContext struct {
	PrecomputedMetrics types.FeatureBundle       `json:"precomputed_metrics"`
	Timelines          map[string][]contextEntry `json:"timelines,omitempty"`
	TimelineSummary    map[string]int            `json:"timeline_summary,omitempty"`
	Metadata           types.VideoMetadata       `json:"metadata"`
	Duration           float64                   `json:"duration"`
	TemporalMarkers    *types.TemporalMarkers    `json:"temporal_markers,omitempty"`
	CompressionLevel   int                       `json:"compression_level"`
}

// BuildContext assembles the bounded context for one analysis. Compression
// tiers are applied in order until the compact serialization fits
// ContextSizeLimit; the tier applied is recorded on the context.
func BuildContext(analysis string, ua *types.UnifiedAnalysis, bundle types.FeatureBundle, includeMarkers bool) (*PromptContext, error) {
	for level := CompressionNone; level <= CompressionSummary; level++ {
		pc := buildAtLevel(analysis, ua, bundle, includeMarkers, level)

		data, err := json.Marshal(pc)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize prompt context for %s: %w", analysis, err)
		}
		if len(data) <= ContextSizeLimit {
			if level > CompressionNone {
				metrics.Recovery(metrics.KindSizeOverflow)
				logger.Warn("prompt context compressed",
					"analysis", analysis, "level", level, "size", len(data))
			}
			return pc, nil
		}
	}

	return nil, fmt.Errorf("prompt context for %s exceeds %d bytes even at summary level", analysis, ContextSizeLimit)
}

func buildAtLevel(analysis string, ua *types.UnifiedAnalysis, bundle types.FeatureBundle, includeMarkers bool, level int) *PromptContext {
	meta := ua.Metadata
	if level >= CompressionNoDescription {
		meta.Description = ""
	}

	pc := &PromptContext{
		PrecomputedMetrics: bundle,
		Metadata:           meta,
		Duration:           meta.DurationSeconds,
		CompressionLevel:   level,
	}
	if includeMarkers {
		pc.TemporalMarkers = ua.TemporalMarkers
	}

	modalities := relevantModalities[analysis]
	if level >= CompressionSummary {
		pc.TimelineSummary = map[string]int{}
		for _, m := range modalities {
			pc.TimelineSummary[string(m)] = len(ua.Timeline.ByModality(m))
		}
		return pc
	}

	pc.Timelines = map[string][]contextEntry{}
	for _, m := range modalities {
		entries := ua.Timeline.ByModality(m)

		// Person framing reads a downsampled object timeline: at most 30
		// evenly-spaced entries.
		if analysis == precompute.AnalysisPersonFraming && m == types.ModalityObject {
			entries = downsample(entries, framingObjectEntries)
		}
		if level >= CompressionCapped {
			entries = downsample(entries, cappedEntriesPerModality)
		}

		projected := make([]contextEntry, 0, len(entries))
		for _, e := range entries {
			ce := contextEntry{Start: e.Start.Seconds(), Payload: e.Payload}
			if e.End != nil {
				ce.End = e.End.Seconds()
			}
			projected = append(projected, ce)
		}
		pc.Timelines[string(m)] = projected
	}

	return pc
}

// downsample keeps at most max evenly-spaced entries.
func downsample(entries []types.TimelineEntry, max int) []types.TimelineEntry {
	if len(entries) <= max {
		return entries
	}
	out := make([]types.TimelineEntry, 0, max)
	step := float64(len(entries)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		out = append(out, entries[int(float64(i)*step)])
	}
	return out
}
