package timestamp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  float64
		ok    bool
	}{
		{name: "real number", input: 2.5, want: 2.5, ok: true},
		{name: "integer", input: 7, want: 7, ok: true},
		{name: "seconds suffix", input: "2s", want: 2, ok: true},
		{name: "range bucket uses start", input: "0-1s", want: 0, ok: true},
		{name: "fractional range", input: "1.5-2s", want: 1.5, ok: true},
		{name: "MM:SS", input: "0:03", want: 3, ok: true},
		{name: "MM:SS over a minute", input: "1:30", want: 90, ok: true},
		{name: "HH:MM:SS", input: "01:02:03", want: 3723, ok: true},
		{name: "numeric string", input: "4.25", want: 4.25, ok: true},
		{name: "empty string", input: "", ok: false},
		{name: "garbage", input: "bad", ok: false},
		{name: "negative number", input: -1.0, ok: false},
		{name: "negative string", input: "-3", ok: false},
		{name: "nil", input: nil, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.input)
			require.Equal(t, tt.ok, ok)
			if ok {
				assert.InDelta(t, tt.want, got.Seconds(), 1e-9)
			}
		})
	}
}

func TestFrameSecondsRoundTrip(t *testing.T) {
	for _, fps := range []float64{23.976, 24, 29.97, 30, 60} {
		for frame := 0; frame <= 5400; frame += 7 {
			got := SecondsToFrame(FrameToSeconds(frame, fps), fps)
			require.Equal(t, frame, got, "fps=%v frame=%d", fps, frame)
		}
	}
}

func TestClamp(t *testing.T) {
	ts := MustFromSeconds(100)
	assert.Equal(t, 10.0, ts.Clamp(10).Seconds())
	assert.Equal(t, 5.0, MustFromSeconds(5).Clamp(10).Seconds())
}

func TestRegistryWriteOnce(t *testing.T) {
	r := NewRegistry()

	ctx := FPSContext{Original: 30, Extraction: 2, Aggregation: 1}
	require.NoError(t, r.Register("vid1", ctx))

	// Re-registering the identical context is idempotent.
	require.NoError(t, r.Register("vid1", ctx))

	// A different context is rejected.
	assert.Error(t, r.Register("vid1", FPSContext{Original: 60, Aggregation: 1}))

	// Zero original FPS is invalid.
	assert.Error(t, r.Register("vid2", FPSContext{Original: 0}))
}

func TestRegistryLookupDefaults(t *testing.T) {
	r := NewRegistry()

	ctx := r.Lookup("unknown")
	assert.Equal(t, DefaultOriginalFPS, ctx.Original)
	assert.Equal(t, DefaultExtractionFPS, ctx.Extraction)
}

func TestFrameToTimestampUsesOriginalFPS(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("vid", FPSContext{Original: 25, Extraction: 5}))

	ts, ok := r.FrameToTimestamp("vid", 50)
	require.True(t, ok)
	// 50 frames at the original 25 fps, not the 5 fps extraction rate.
	assert.InDelta(t, 2.0, ts.Seconds(), 1e-9)
}
