package types

import "time"

// Size bounds on serialized TemporalMarkers.
const (
	// MarkersSoftLimit is the target size for the first_5_seconds lists.
	MarkersSoftLimit = 100 * 1024
	// MarkersHardLimit is the absolute cap; overflow past it yields the
	// canonical empty structure.
	MarkersHardLimit = 180 * 1024
)

// DensityCap is the per-second ceiling on density_progression values.
const DensityCap = 10

// TextMoment is a ranked on-screen text event in the first five seconds.
type TextMoment struct {
	Time       float64 `json:"time"`
	Text       string  `json:"text"`
	SizeClass  string  `json:"size_class"`
	Position   string  `json:"position,omitempty"`
	Confidence float64 `json:"confidence"`
}

// GestureMoment is a ranked gesture event in the first five seconds.
type GestureMoment struct {
	Time       float64 `json:"time"`
	Label      string  `json:"label"`
	Target     string  `json:"target,omitempty"`
	Confidence float64 `json:"confidence"`
}

// ObjectAppearance is a ranked object event in the first five seconds.
// Novel marks the first appearance of a class.
type ObjectAppearance struct {
	Time       float64 `json:"time"`
	Class      string  `json:"class"`
	Confidence float64 `json:"confidence"`
	Novel      bool    `json:"novel,omitempty"`
}

// FirstFiveSeconds summarizes the opening of the video.
type FirstFiveSeconds struct {
	// DensityProgression has exactly 5 values, each in [0, DensityCap].
	DensityProgression []int              `json:"density_progression"`
	TextMoments        []TextMoment       `json:"text_moments"`
	EmotionSequence    []string           `json:"emotion_sequence"`
	GestureMoments     []GestureMoment    `json:"gesture_moments"`
	ObjectAppearances  []ObjectAppearance `json:"object_appearances"`
}

// CTAAppearance is a call-to-action signal inside the CTA window.
type CTAAppearance struct {
	Time       float64 `json:"time"`
	Text       string  `json:"text"`
	Source     string  `json:"source"` // "text_overlay" or "lexicon"
	Confidence float64 `json:"confidence"`
}

// CTAWindow summarizes the final stretch of the video where calls to action
// cluster. The window is the last 15% of the duration, widened to at least
// 3 s and capped at 15 s.
type CTAWindow struct {
	TimeRange      string          `json:"time_range"` // "<start>-<end>s"
	CTAAppearances []CTAAppearance `json:"cta_appearances"`
	// GestureSync maps a gesture label to whether it occurs within 0.5 s
	// of any CTA appearance.
	GestureSync map[string]bool `json:"gesture_sync"`
	ObjectFocus []string        `json:"object_focus"`
}

// MarkersMetadata identifies the video a marker snapshot belongs to.
type MarkersMetadata struct {
	VideoID     string    `json:"video_id"`
	Duration    float64   `json:"duration"`
	GeneratedAt time.Time `json:"generated_at"`
}

// TemporalMarkers is the bounded early/late-video summary used to prime the
// LLM analyses. Serialized size never exceeds MarkersHardLimit.
type TemporalMarkers struct {
	FirstFiveSeconds FirstFiveSeconds `json:"first_5_seconds"`
	CTAWindow        CTAWindow        `json:"cta_window"`
	Metadata         MarkersMetadata  `json:"metadata"`
}

// EmptyTemporalMarkers returns the canonical empty-but-valid structure used
// when extraction fails or overflows persistently.
func EmptyTemporalMarkers(videoID string, duration float64, generatedAt time.Time) *TemporalMarkers {
	return &TemporalMarkers{
		FirstFiveSeconds: FirstFiveSeconds{
			DensityProgression: make([]int, 5),
			TextMoments:        []TextMoment{},
			EmotionSequence:    []string{"neutral", "neutral", "neutral", "neutral", "neutral"},
			GestureMoments:     []GestureMoment{},
			ObjectAppearances:  []ObjectAppearance{},
		},
		CTAWindow: CTAWindow{
			TimeRange:      "",
			CTAAppearances: []CTAAppearance{},
			GestureSync:    map[string]bool{},
			ObjectFocus:    []string{},
		},
		Metadata: MarkersMetadata{
			VideoID:     videoID,
			Duration:    duration,
			GeneratedAt: generatedAt,
		},
	}
}
