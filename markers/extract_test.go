package markers

import (
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tumilabs/rumiai/timeline"
	"github.com/tumilabs/rumiai/types"
)

func analysisWith(t *testing.T, duration float64, results map[string]types.MLAnalysisResult) *types.UnifiedAnalysis {
	t.Helper()
	ua, err := timeline.Assemble(types.VideoMetadata{
		VideoID:         "vid",
		DurationSeconds: duration,
		OriginalFPS:     30,
	}, results)
	require.NoError(t, err)
	return ua
}

func TestExtractDensityCapped(t *testing.T) {
	// 500 overlays uniformly in [0,5): every second caps at 10.
	frames := make([]types.OCRFrame, 0, 500)
	for i := 0; i < 500; i++ {
		frames = append(frames, types.OCRFrame{
			Time: float64(i%5) + 0.001*float64(i),
			Texts: []types.TextElement{{
				Text:      fmt.Sprintf("overlay %d %s", i, strings.Repeat("x", 50)),
				BBox:      types.BBox{X: 0.1, Y: 0.1, W: 0.5, H: 0.2},
				SizeClass: "L",
			}},
		})
	}
	ua := analysisWith(t, 30, map[string]types.MLAnalysisResult{
		types.ModelOCR: {Success: true, Data: types.OCRData{Frames: frames}},
	})

	tm := Extract(ua)
	require.NotNil(t, tm)
	assert.Equal(t, []int{10, 10, 10, 10, 10}, tm.FirstFiveSeconds.DensityProgression)

	data, err := json.Marshal(tm)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(data), types.MarkersHardLimit)
	assert.LessOrEqual(t, len(tm.FirstFiveSeconds.TextMoments), 8)
}

func TestExtractMinimalVideo(t *testing.T) {
	ua := analysisWith(t, 10, map[string]types.MLAnalysisResult{
		types.ModelSpeech: {Success: true, Data: types.SpeechData{
			Segments: []types.SpeechSegment{{Start: 1, End: 3, Text: "hello world"}},
		}},
	})

	tm := Extract(ua)
	require.NotNil(t, tm)
	assert.Equal(t, []int{0, 1, 0, 0, 0}, tm.FirstFiveSeconds.DensityProgression)
	assert.Equal(t, []string{"neutral", "neutral", "neutral", "neutral", "neutral"}, tm.FirstFiveSeconds.EmotionSequence)
	assert.Equal(t, "vid", tm.Metadata.VideoID)
	assert.Equal(t, 10.0, tm.Metadata.Duration)
}

func TestCTAWindowBounds(t *testing.T) {
	tests := []struct {
		duration  float64
		wantStart float64
		wantEnd   float64
	}{
		{duration: 60, wantStart: 51, wantEnd: 60},     // 15% = 9s
		{duration: 10, wantStart: 7, wantEnd: 10},      // widened to 3s
		{duration: 2, wantStart: 0, wantEnd: 2},        // window larger than video
		{duration: 180, wantStart: 165, wantEnd: 180},  // capped at 15s
	}
	for _, tt := range tests {
		start, end := CTAWindowBounds(tt.duration)
		assert.InDelta(t, tt.wantStart, start, 1e-9, "duration=%v", tt.duration)
		assert.InDelta(t, tt.wantEnd, end, 1e-9, "duration=%v", tt.duration)
	}
}

func TestExtractCTAWindow(t *testing.T) {
	// 60s video; CTA window is [51,60]. A cta overlay at 55 and a gesture
	// at 55.3 (within the 0.5s sync window), plus one far gesture.
	results := map[string]types.MLAnalysisResult{
		types.ModelOCR: {Success: true, Data: types.OCRData{Frames: []types.OCRFrame{
			{Time: 55, Texts: []types.TextElement{{
				Text: "follow for more", BBox: types.BBox{Y: 0.8, W: 0.5, H: 0.1}, Category: "cta",
			}}},
		}}},
		types.ModelHuman: {Success: true, Data: types.HumanData{Frames: []types.HumanFrame{
			{Time: 55.3, Gesture: &types.GestureObs{Label: "pointing", Confidence: 0.9}},
			{Time: 58, Gesture: &types.GestureObs{Label: "wave", Confidence: 0.9}},
		}}},
		types.ModelObjectTracking: {Success: true, Data: types.ObjectData{Tracks: []types.Track{
			{Class: "product", Confidence: 0.8, Frames: []types.TrackFrame{{Time: 56}, {Time: 57}}},
			{Class: "person", Confidence: 0.9, Frames: []types.TrackFrame{{Time: 56}}},
		}}},
	}
	ua := analysisWith(t, 60, results)

	tm := Extract(ua)
	require.Len(t, tm.CTAWindow.CTAAppearances, 1)
	assert.Equal(t, "text_overlay", tm.CTAWindow.CTAAppearances[0].Source)
	assert.True(t, tm.CTAWindow.GestureSync["pointing"])
	assert.False(t, tm.CTAWindow.GestureSync["wave"])
	// product appears twice, person once.
	require.NotEmpty(t, tm.CTAWindow.ObjectFocus)
	assert.Equal(t, "product", tm.CTAWindow.ObjectFocus[0])
}

func TestExtractLexiconCTA(t *testing.T) {
	// Overlay not categorized as cta but matching the lexicon.
	results := map[string]types.MLAnalysisResult{
		types.ModelOCR: {Success: true, Data: types.OCRData{Frames: []types.OCRFrame{
			{Time: 9, Texts: []types.TextElement{{
				Text: "LINK IN BIO", BBox: types.BBox{Y: 0.8, W: 0.5, H: 0.1},
			}}},
		}}},
	}
	ua := analysisWith(t, 10, results)

	tm := Extract(ua)
	require.Len(t, tm.CTAWindow.CTAAppearances, 1)
	assert.Equal(t, "lexicon", tm.CTAWindow.CTAAppearances[0].Source)
}

func TestExtractObjectNovelty(t *testing.T) {
	results := map[string]types.MLAnalysisResult{
		types.ModelObjectTracking: {Success: true, Data: types.ObjectData{Tracks: []types.Track{
			{Class: "dog", Confidence: 0.9, Frames: []types.TrackFrame{{Time: 0.5}, {Time: 1.5}}},
		}}},
	}
	ua := analysisWith(t, 10, results)

	tm := Extract(ua)
	require.Len(t, tm.FirstFiveSeconds.ObjectAppearances, 2)
	assert.True(t, tm.FirstFiveSeconds.ObjectAppearances[0].Novel)
	assert.False(t, tm.FirstFiveSeconds.ObjectAppearances[1].Novel)
}

func TestExtractNeverNil(t *testing.T) {
	// A timeline with an entry whose payload type is unexpected must not
	// bring extraction down.
	ua := analysisWith(t, 10, nil)
	ua.Timeline.Insert(types.TimelineEntry{Modality: types.ModalityTextOverlay, Payload: "not a struct"})
	tm := Extract(ua)
	require.NotNil(t, tm)
	assert.Len(t, tm.FirstFiveSeconds.DensityProgression, 5)
}
