package prompts

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tumilabs/rumiai/config"
	"github.com/tumilabs/rumiai/precompute"
	"github.com/tumilabs/rumiai/timeline"
	"github.com/tumilabs/rumiai/types"
)

func TestRegistryCoversAllAnalyses(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)

	for _, analysis := range precompute.AnalysisOrder {
		p, err := r.Load(analysis)
		require.NoError(t, err, analysis)
		assert.Equal(t, analysis, p.Analysis)
		assert.Contains(t, p.Text, "CoreMetrics")
		assert.Contains(t, p.Text, "confidence")
	}

	_, err = r.Load("bogus")
	assert.Error(t, err)
}

func testAnalysis(t *testing.T, overlayCount int) *types.UnifiedAnalysis {
	t.Helper()
	frames := make([]types.OCRFrame, overlayCount)
	for i := range frames {
		frames[i] = types.OCRFrame{
			Time: float64(i % 60),
			Texts: []types.TextElement{{
				Text: strings.Repeat("overlay text ", 20),
				BBox: types.BBox{W: 0.3, H: 0.1},
			}},
		}
	}
	ua, err := timeline.Assemble(types.VideoMetadata{
		VideoID:         "vid",
		DurationSeconds: 60,
		OriginalFPS:     30,
		Description:     strings.Repeat("long description ", 50),
	}, map[string]types.MLAnalysisResult{
		types.ModelOCR: {Success: true, Data: types.OCRData{Frames: frames}},
	})
	require.NoError(t, err)
	return ua
}

func TestBuildContextUncompressed(t *testing.T) {
	ua := testAnalysis(t, 10)
	bundle := types.FeatureBundle{"avg_texts_per_second": 0.17}

	pc, err := BuildContext(precompute.AnalysisVisualOverlay, ua, bundle, false)
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, pc.CompressionLevel)
	assert.Len(t, pc.Timelines["text_overlay"], 10)
	assert.NotEmpty(t, pc.Metadata.Description)

	data, err := json.Marshal(pc)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(data), ContextSizeLimit)
}

func TestBuildContextCompresses(t *testing.T) {
	// Enough long overlays to blow the 200 KB budget uncompressed.
	ua := testAnalysis(t, 2000)
	bundle := types.FeatureBundle{}

	pc, err := BuildContext(precompute.AnalysisVisualOverlay, ua, bundle, false)
	require.NoError(t, err)
	assert.Greater(t, pc.CompressionLevel, CompressionNone)

	data, err := json.Marshal(pc)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(data), ContextSizeLimit)

	if pc.CompressionLevel >= CompressionCapped && pc.Timelines != nil {
		assert.LessOrEqual(t, len(pc.Timelines["text_overlay"]), cappedEntriesPerModality)
	}
	if pc.CompressionLevel >= CompressionNoDescription {
		assert.Empty(t, pc.Metadata.Description)
	}
}

func TestBuildContextPersonFramingDownsample(t *testing.T) {
	// 100 object entries downsample to at most 30 for person framing.
	tracks := []types.Track{{Class: "person", Confidence: 0.9}}
	for i := 0; i < 100; i++ {
		tracks[0].Frames = append(tracks[0].Frames, types.TrackFrame{Time: float64(i) * 0.5})
	}
	ua, err := timeline.Assemble(types.VideoMetadata{
		VideoID:         "vid",
		DurationSeconds: 60,
		OriginalFPS:     30,
	}, map[string]types.MLAnalysisResult{
		types.ModelObjectTracking: {Success: true, Data: types.ObjectData{Tracks: tracks}},
	})
	require.NoError(t, err)

	pc, errBuild := BuildContext(precompute.AnalysisPersonFraming, ua, types.FeatureBundle{}, false)
	require.NoError(t, errBuild)
	assert.LessOrEqual(t, len(pc.Timelines["object"]), 30)
}

func TestBuildContextMetadataHasNoTimelines(t *testing.T) {
	ua := testAnalysis(t, 5)
	engine := precompute.NewEngine(config.DefaultWeights())
	bundle := engine.Compute(precompute.AnalysisMetadata, ua)

	pc, err := BuildContext(precompute.AnalysisMetadata, ua, bundle, false)
	require.NoError(t, err)
	assert.Empty(t, pc.Timelines)
}
