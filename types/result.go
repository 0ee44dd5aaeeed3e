package types

import (
	"encoding/json"
	"time"
)

// marshalJSON is the single JSON encoder used by the data model so that
// persisted artifacts serialize identically across runs.
func marshalJSON(v any) ([]byte, error) {
	return json.Marshal(v)
}

// MLAnalysisResult is the normalized output of one analyzer adapter.
// When Success is false, Data may be empty but is always a valid value
// (never nil), so downstream consumers can range over it unconditionally.
type MLAnalysisResult struct {
	ModelName      string  `json:"model_name"`
	ModelVersion   string  `json:"model_version,omitempty"`
	Success        bool    `json:"success"`
	Data           any     `json:"data"`
	Error          string  `json:"error,omitempty"`
	ProcessingTime float64 `json:"processing_time,omitempty"`
}

// FailedResult builds an unsuccessful MLAnalysisResult with empty data.
func FailedResult(modelName, errMsg string) MLAnalysisResult {
	return MLAnalysisResult{
		ModelName: modelName,
		Success:   false,
		Data:      map[string]any{},
		Error:     errMsg,
	}
}

// Analyzer model names used as keys of UnifiedAnalysis.MLResults.
const (
	ModelObjectTracking = "object_tracking"
	ModelSpeech         = "speech_transcription"
	ModelHuman          = "human_analysis"
	ModelOCR            = "ocr"
	ModelSceneDetection = "scene_detection"
)

// AnalyzerModels lists the five analyzer keys in canonical order.
var AnalyzerModels = []string{
	ModelObjectTracking,
	ModelSpeech,
	ModelHuman,
	ModelOCR,
	ModelSceneDetection,
}

// UnifiedAnalysis is the fused, time-indexed representation of one video.
// It owns its Timeline and MLResults exclusively; after marker extraction it
// is treated as read-only by the precompute, prompt, and validation stages.
type UnifiedAnalysis struct {
	VideoID         string                      `json:"video_id"`
	Metadata        VideoMetadata               `json:"metadata"`
	Timeline        *Timeline                   `json:"timeline"`
	MLResults       map[string]MLAnalysisResult `json:"ml_results"`
	TemporalMarkers *TemporalMarkers            `json:"temporal_markers,omitempty"`
	CreatedAt       time.Time                   `json:"created_at"`
}

// MissingModalities returns the analyzer keys that are absent or failed.
func (u *UnifiedAnalysis) MissingModalities() []string {
	var missing []string
	for _, name := range AnalyzerModels {
		r, ok := u.MLResults[name]
		if !ok || !r.Success {
			missing = append(missing, name)
		}
	}
	return missing
}

// DataCompleteness is the fraction of analyzers that succeeded, in [0,1].
func (u *UnifiedAnalysis) DataCompleteness() float64 {
	return 1 - float64(len(u.MissingModalities()))/float64(len(AnalyzerModels))
}

// FeatureBundle is the typed metric map produced by one precompute extractor.
// Keys are fixed per analysis type; values are JSON-serializable.
type FeatureBundle map[string]any

// FallbackBundle builds the degraded bundle emitted when an extractor fails:
// the error, a fallback flag, and minimal counts from the raw timeline.
func FallbackBundle(errMsg string, timelineSize int, duration float64) FeatureBundle {
	return FeatureBundle{
		"error":             errMsg,
		"fallback":          true,
		"total_entries":     timelineSize,
		"duration":          duration,
		"confidence":        0.0,
		"data_completeness": 0.0,
	}
}

// IsFallback reports whether the bundle was produced by failure recovery.
func (b FeatureBundle) IsFallback() bool {
	v, ok := b["fallback"].(bool)
	return ok && v
}
