package precompute

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tumilabs/rumiai/config"
	"github.com/tumilabs/rumiai/types"
)

func TestEngineRunProducesAllBundles(t *testing.T) {
	ua := speechOnly(t)
	engine := NewEngine(config.DefaultWeights())

	bundles := engine.Run(context.Background(), ua)
	require.Len(t, bundles, len(AnalysisOrder))
	for _, name := range AnalysisOrder {
		bundle, ok := bundles[name]
		require.True(t, ok, "missing bundle for %s", name)
		assert.False(t, bundle.IsFallback(), "unexpected fallback for %s", name)
		assert.Contains(t, bundle, "confidence")
	}
}

func TestEngineRecoverFromPanic(t *testing.T) {
	ua := speechOnly(t)

	// A timeline entry with a payload the extractors do not expect must not
	// bring the engine down; the worst case is a fallback bundle.
	ua.Timeline.Insert(types.TimelineEntry{
		Modality: types.ModalityExpression,
		Payload:  "not a struct",
	})

	engine := NewEngine(config.DefaultWeights())
	bundles := engine.Run(context.Background(), ua)
	require.Len(t, bundles, len(AnalysisOrder))
}

func TestEngineCancelledContext(t *testing.T) {
	ua := speechOnly(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := NewEngine(config.DefaultWeights())
	bundles := engine.Run(ctx, ua)

	// Every analysis still gets a bundle; cancelled slots fall back.
	require.Len(t, bundles, len(AnalysisOrder))
}

func TestComputeUnknownAnalysis(t *testing.T) {
	engine := NewEngine(config.DefaultWeights())
	bundle := engine.Compute("nonexistent", speechOnly(t))
	assert.True(t, bundle.IsFallback())
}
