package precompute

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tumilabs/rumiai/config"
	"github.com/tumilabs/rumiai/timeline"
	"github.com/tumilabs/rumiai/types"
)

func buildAnalysis(t *testing.T, duration float64, results map[string]types.MLAnalysisResult) *types.UnifiedAnalysis {
	t.Helper()
	ua, err := timeline.Assemble(types.VideoMetadata{
		VideoID:         "vid",
		DurationSeconds: duration,
		OriginalFPS:     30,
		Description:     "check this out #fyp #dance dance all day",
		Stats:           types.Stats{Views: 1000, Likes: 80, Comments: 10, Shares: 5, Saves: 5},
		CreatedAt:       time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC),
	}, results)
	require.NoError(t, err)
	return ua
}

func speechOnly(t *testing.T) *types.UnifiedAnalysis {
	return buildAnalysis(t, 10, map[string]types.MLAnalysisResult{
		types.ModelSpeech: {Success: true, Data: types.SpeechData{
			Segments: []types.SpeechSegment{{Start: 1, End: 3, Text: "hello world", Confidence: 0.9}},
		}},
	})
}

func TestSpeechAnalysisMinimalVideo(t *testing.T) {
	bundle := computeSpeechAnalysis(speechOnly(t), config.DefaultWeights())

	assert.Equal(t, 2, bundle["word_count"])
	assert.InDelta(t, 0.2, bundle["speech_coverage"].(float64), 1e-9)
	assert.InDelta(t, 1.0, bundle["speech_density"].(float64), 1e-9)
	assert.InDelta(t, 60.0, bundle["speech_rate_wpm"].(float64), 1e-9)
	assert.False(t, bundle.IsFallback())
}

func TestSpeechPauseClassification(t *testing.T) {
	ua := buildAnalysis(t, 30, map[string]types.MLAnalysisResult{
		types.ModelSpeech: {Success: true, Data: types.SpeechData{
			Segments: []types.SpeechSegment{
				{Start: 0, End: 2, Text: "first"},
				{Start: 2.7, End: 4, Text: "breath gap"},   // 0.7s gap
				{Start: 5.5, End: 7, Text: "strategic"},    // 1.5s gap
				{Start: 10, End: 12, Text: "dramatic gap"}, // 3s gap
			},
		}},
	})

	bundle := computeSpeechAnalysis(ua, config.DefaultWeights())
	pauses := bundle["pause_analysis"].(map[string]any)
	assert.Equal(t, 3, pauses["total_pauses"])
	assert.Equal(t, 1, pauses["dramatic_pauses"])
	assert.Equal(t, 1, pauses["strategic_pauses"])
	assert.Equal(t, 1, pauses["breath_pauses"])
}

func TestCreativeDensityClassification(t *testing.T) {
	// 25 overlays over 10 s: 2.5 elements/sec is heavy.
	frames := make([]types.OCRFrame, 25)
	for i := range frames {
		frames[i] = types.OCRFrame{
			Time:  float64(i) * 0.4,
			Texts: []types.TextElement{{Text: "x", BBox: types.BBox{W: 0.2, H: 0.1}}},
		}
	}
	ua := buildAnalysis(t, 10, map[string]types.MLAnalysisResult{
		types.ModelOCR: {Success: true, Data: types.OCRData{Frames: frames}},
	})

	bundle := computeCreativeDensity(ua, config.DefaultWeights())
	assert.Equal(t, "heavy", bundle["density_classification"])
	assert.Equal(t, 25, bundle["total_elements"])

	// Uniform spacing reads as an even pattern with no front-loading.
	assert.Equal(t, "even", bundle["acceleration_pattern"])
	patterns := bundle["structural_patterns"].(map[string]bool)
	assert.False(t, patterns["front_loaded"])
}

func TestCreativeDensityEmptyTimeline(t *testing.T) {
	ua := buildAnalysis(t, 10, nil)

	bundle := computeCreativeDensity(ua, config.DefaultWeights())
	assert.Equal(t, "minimal", bundle["density_classification"])
	assert.Equal(t, 10, bundle["empty_seconds"])
}

func TestScenePacingClassification(t *testing.T) {
	// 10 one-second shots: rapid.
	shots := make([]types.Shot, 10)
	for i := range shots {
		shots[i] = types.Shot{StartTime: float64(i), EndTime: float64(i + 1)}
	}
	ua := buildAnalysis(t, 10, map[string]types.MLAnalysisResult{
		types.ModelSceneDetection: {Success: true, Data: types.SceneData{Shots: shots}},
	})

	bundle := computeScenePacing(ua, config.DefaultWeights())
	assert.Equal(t, 10, bundle["total_shots"])
	assert.Equal(t, "rapid", bundle["pacing_classification"])
	assert.Equal(t, "consistent", bundle["rhythm_consistency"])
	assert.InDelta(t, 60.0, bundle["shots_per_minute"].(float64), 1e-9)
}

func TestScenePacingNoShots(t *testing.T) {
	bundle := computeScenePacing(buildAnalysis(t, 10, nil), config.DefaultWeights())
	assert.Equal(t, 0, bundle["total_shots"])
	assert.Equal(t, "static", bundle["pacing_classification"])
}

func TestPersonFraming(t *testing.T) {
	var frames []types.HumanFrame
	for i := 0; i < 8; i++ {
		frames = append(frames, types.HumanFrame{
			Time: float64(i),
			Face: &types.FaceObs{
				Emotion: "happy",
				BBox:    &types.BBox{X: 0.3, Y: 0.2, W: 0.7, H: 0.6}, // area 0.42: close
			},
			Pose: &types.PoseObs{Label: "standing", Confidence: 0.9},
		})
	}
	ua := buildAnalysis(t, 10, map[string]types.MLAnalysisResult{
		types.ModelHuman: {Success: true, Data: types.HumanData{Frames: frames}},
	})

	bundle := computePersonFraming(ua, config.DefaultWeights())
	assert.InDelta(t, 0.8, bundle["face_screen_time_ratio"].(float64), 1e-9)

	dist := bundle["shot_type_distribution"].(map[string]int)
	assert.Equal(t, 8, dist["close"])
	assert.Equal(t, 1, bundle["subject_absence_count"])
	assert.Equal(t, 2, bundle["longest_absence_duration"])
}

func TestEmotionalJourney(t *testing.T) {
	var frames []types.HumanFrame
	// Ascending valence over 30 s: sad start, happy end.
	for i := 0; i < 30; i++ {
		valence := -0.5 + float64(i)/30.0*1.4
		emotion := "sad"
		if valence > 0.1 {
			emotion = "happy"
		}
		frames = append(frames, types.HumanFrame{
			Time: float64(i),
			Face: &types.FaceObs{Emotion: emotion, Valence: valence, Intensity: 0.5},
		})
	}
	ua := buildAnalysis(t, 30, map[string]types.MLAnalysisResult{
		types.ModelHuman: {Success: true, Data: types.HumanData{Frames: frames}},
	})

	bundle := computeEmotionalJourney(ua, config.DefaultWeights())
	assert.Equal(t, "ascending", bundle["emotional_trajectory"])

	sequence := bundle["emotion_sequence"].([]string)
	require.Len(t, sequence, 6)
	assert.Equal(t, "sad", sequence[0])
	assert.Equal(t, "happy", sequence[5])
	assert.Greater(t, bundle["emotion_change_rate"].(float64), 0.0)
}

func TestVisualOverlay(t *testing.T) {
	ua := buildAnalysis(t, 10, map[string]types.MLAnalysisResult{
		types.ModelOCR: {Success: true, Data: types.OCRData{Frames: []types.OCRFrame{
			{Time: 1, Texts: []types.TextElement{{Text: "BIG SALE today", BBox: types.BBox{X: 0.2, Y: 0.1, W: 0.6, H: 0.15}, SizeClass: "XL"}}},
			{Time: 2, Texts: []types.TextElement{{Text: "why wait?", BBox: types.BBox{X: 0.2, Y: 0.4, W: 0.4, H: 0.1}, SizeClass: "M"}}},
			{Time: 9, Texts: []types.TextElement{{Text: "follow me", BBox: types.BBox{X: 0.2, Y: 0.8, W: 0.4, H: 0.1}, Category: "cta"}}},
		}}},
		types.ModelHuman: {Success: true, Data: types.HumanData{Frames: []types.HumanFrame{
			{Time: 9.2, Gesture: &types.GestureObs{Label: "pointing", Confidence: 0.8}},
		}}},
	})

	bundle := computeVisualOverlay(ua, config.DefaultWeights())
	assert.Equal(t, 3, bundle["unique_text_count"])
	assert.InDelta(t, 1.0, bundle["time_to_first_text"].(float64), 1e-9)

	groups := bundle["text_semantic_groups"].(map[string][]string)
	assert.Len(t, groups["product_mentions"], 1)
	assert.Len(t, groups["questions"], 1)

	reinforce := bundle["cta_reinforcement_matrix"].(map[string]int)
	assert.Equal(t, 1, reinforce["cta_count"])
	assert.Equal(t, 1, reinforce["with_gesture"])
}

func TestVisualOverlayMissingOCR(t *testing.T) {
	ua := buildAnalysis(t, 10, map[string]types.MLAnalysisResult{
		types.ModelSpeech: {Success: true, Data: types.SpeechData{
			Segments: []types.SpeechSegment{{Start: 1, End: 3, Text: "hello"}},
		}},
	})

	bundle := computeVisualOverlay(ua, config.DefaultWeights())
	assert.Equal(t, 0.0, bundle["avg_texts_per_second"])
	assert.Equal(t, 0, bundle["unique_text_count"])
	assert.Less(t, bundle["data_completeness"].(float64), 1.0)
}

func TestMetadataAnalysis(t *testing.T) {
	ua := speechOnly(t)

	bundle := computeMetadataAnalysis(ua, config.DefaultWeights())
	assert.Equal(t, 2, bundle["hashtag_count"])
	assert.Equal(t, []string{"#fyp", "#dance"}, bundle["hashtags"])
	assert.Equal(t, "minimal", bundle["hashtag_strategy"])
	// (80+10+5+5)/1000
	assert.InDelta(t, 0.1, bundle["engagement_rate"].(float64), 1e-9)
	assert.Equal(t, 18, bundle["publish_hour"])
	assert.Equal(t, "Sunday", bundle["publish_day_of_week"])
	assert.Equal(t, "hook_payoff", bundle["viral_formula"])

	score := bundle["viral_potential_score"].(float64)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)
}

func TestHashtagStrategyThresholds(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{0, "minimal"}, {2, "minimal"}, {3, "moderate"}, {7, "moderate"},
		{8, "heavy"}, {15, "heavy"}, {16, "spam"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, hashtagStrategy(tt.count), "count=%d", tt.count)
	}
}
