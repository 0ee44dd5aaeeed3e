package timestamp

import (
	"fmt"
	"sync"

	"github.com/tumilabs/rumiai/logger"
)

// Conservative defaults applied when a video has no registered FPS context.
const (
	DefaultOriginalFPS   = 30.0
	DefaultExtractionFPS = 1.0
)

// FPSContext tracks the four frame rates that coexist per video. Only
// Original participates in frame<->seconds conversion; the rest are sampling
// metadata carried for diagnostics.
type FPSContext struct {
	// Original is the source video frame rate (typically 24-60).
	Original float64 `json:"original"`
	// Extraction is the adaptive frame-extraction rate (typically 2-5).
	Extraction float64 `json:"extraction"`
	// ModelSampling is the model-internal sampling rate, if known.
	ModelSampling float64 `json:"model_sampling,omitempty"`
	// Aggregation is the output bucket rate, fixed at 1 Hz.
	Aggregation float64 `json:"aggregation"`
}

// Registry maps video ids to their FPS contexts. Entries are write-once:
// registration after the first write for a video id is rejected so conversion
// factors cannot drift mid-pipeline.
type Registry struct {
	mu      sync.RWMutex
	byVideo map[string]FPSContext
}

// NewRegistry creates an empty FPS registry.
func NewRegistry() *Registry {
	return &Registry{byVideo: make(map[string]FPSContext)}
}

// DefaultRegistry is the process-wide registry consulted by conversions.
var DefaultRegistry = NewRegistry()

// Register records the FPS context for a video id. Returns an error if the
// video is already registered with a different context.
func (r *Registry) Register(videoID string, ctx FPSContext) error {
	if ctx.Original <= 0 {
		return fmt.Errorf("invalid FPS context for %s: original fps must be positive, got %v", videoID, ctx.Original)
	}
	if ctx.Aggregation == 0 {
		ctx.Aggregation = 1
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byVideo[videoID]; ok {
		if existing != ctx {
			return fmt.Errorf("FPS context for %s already registered", videoID)
		}
		return nil
	}
	r.byVideo[videoID] = ctx
	return nil
}

// Lookup returns the FPS context for a video id. When absent, conservative
// defaults (30 original, 1 extraction) are returned and a warning is logged.
func (r *Registry) Lookup(videoID string) FPSContext {
	r.mu.RLock()
	ctx, ok := r.byVideo[videoID]
	r.mu.RUnlock()

	if !ok {
		logger.Warn("no FPS context registered, using conservative defaults",
			"video_id", videoID,
			"original_fps", DefaultOriginalFPS,
			"extraction_fps", DefaultExtractionFPS)
		return FPSContext{
			Original:    DefaultOriginalFPS,
			Extraction:  DefaultExtractionFPS,
			Aggregation: 1,
		}
	}
	return ctx
}

// FrameToTimestamp converts a frame index for the given video to a Timestamp
// using the registered original FPS.
func (r *Registry) FrameToTimestamp(videoID string, frame int) (Timestamp, bool) {
	ctx := r.Lookup(videoID)
	return FromSeconds(FrameToSeconds(frame, ctx.Original))
}
