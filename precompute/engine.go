package precompute

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/semaphore"

	"github.com/tumilabs/rumiai/config"
	"github.com/tumilabs/rumiai/logger"
	"github.com/tumilabs/rumiai/metrics"
	"github.com/tumilabs/rumiai/types"
)

// Analysis type names, in the fixed execution order of the orchestrator.
const (
	AnalysisCreativeDensity  = "creative_density"
	AnalysisEmotionalJourney = "emotional_journey"
	AnalysisPersonFraming    = "person_framing"
	AnalysisScenePacing      = "scene_pacing"
	AnalysisSpeech           = "speech_analysis"
	AnalysisVisualOverlay    = "visual_overlay"
	AnalysisMetadata         = "metadata_analysis"
)

// AnalysisOrder lists the seven analyses in canonical order.
var AnalysisOrder = []string{
	AnalysisCreativeDensity,
	AnalysisEmotionalJourney,
	AnalysisPersonFraming,
	AnalysisScenePacing,
	AnalysisSpeech,
	AnalysisVisualOverlay,
	AnalysisMetadata,
}

// maxWorkers caps the worker pool regardless of core count.
const maxWorkers = 4

// extractor is one feature extractor over the read-only analysis.
type extractor func(ua *types.UnifiedAnalysis, w config.Weights) types.FeatureBundle

var extractors = map[string]extractor{
	AnalysisCreativeDensity:  computeCreativeDensity,
	AnalysisEmotionalJourney: computeEmotionalJourney,
	AnalysisPersonFraming:    computePersonFraming,
	AnalysisScenePacing:      computeScenePacing,
	AnalysisSpeech:           computeSpeechAnalysis,
	AnalysisVisualOverlay:    computeVisualOverlay,
	AnalysisMetadata:         computeMetadataAnalysis,
}

// Engine runs the seven extractors over a bounded worker pool.
type Engine struct {
	weights config.Weights
	workers int64
}

// NewEngine creates an engine using the given scoring weights. The pool is
// sized to the core count, capped at 4.
func NewEngine(weights config.Weights) *Engine {
	workers := runtime.GOMAXPROCS(0)
	if workers > maxWorkers {
		workers = maxWorkers
	}
	if workers < 1 {
		workers = 1
	}
	return &Engine{weights: weights, workers: int64(workers)}
}

// Run computes all seven feature bundles. Extractor failures never
// propagate: a panicking extractor yields a fallback bundle with minimal
// counts and the pipeline continues.
func (e *Engine) Run(ctx context.Context, ua *types.UnifiedAnalysis) map[string]types.FeatureBundle {
	sem := semaphore.NewWeighted(e.workers)
	results := make([]types.FeatureBundle, len(AnalysisOrder))

	for i, name := range AnalysisOrder {
		if err := sem.Acquire(ctx, 1); err != nil {
			// Context cancelled: remaining extractors fall back.
			results[i] = types.FallbackBundle(err.Error(), ua.Timeline.Len(), ua.Metadata.DurationSeconds)
			continue
		}
		go func(i int, name string) {
			defer sem.Release(1)
			results[i] = e.compute(name, ua)
		}(i, name)
	}

	// Join the pool.
	if err := sem.Acquire(context.Background(), e.workers); err == nil {
		sem.Release(e.workers)
	}

	out := make(map[string]types.FeatureBundle, len(AnalysisOrder))
	for i, name := range AnalysisOrder {
		if results[i] == nil {
			results[i] = types.FallbackBundle("extractor did not run", ua.Timeline.Len(), ua.Metadata.DurationSeconds)
		}
		out[name] = results[i]
	}
	return out
}

// Compute runs a single named extractor with failure recovery.
func (e *Engine) Compute(name string, ua *types.UnifiedAnalysis) types.FeatureBundle {
	return e.compute(name, ua)
}

func (e *Engine) compute(name string, ua *types.UnifiedAnalysis) (bundle types.FeatureBundle) {
	defer func() {
		if r := recover(); r != nil {
			metrics.Recovery(metrics.KindPrecomputeFailure)
			logger.Error("precompute extractor failed",
				"analysis", name, "video_id", ua.VideoID, "panic", fmt.Sprint(r))
			bundle = types.FallbackBundle(fmt.Sprint(r), ua.Timeline.Len(), ua.Metadata.DurationSeconds)
		}
	}()

	fn, ok := extractors[name]
	if !ok {
		return types.FallbackBundle("unknown analysis "+name, ua.Timeline.Len(), ua.Metadata.DurationSeconds)
	}
	return fn(ua, e.weights)
}
