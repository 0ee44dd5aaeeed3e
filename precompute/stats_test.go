package precompute

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeanVarianceStdDev(t *testing.T) {
	xs := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 5.0, mean(xs), 1e-9)
	assert.InDelta(t, 4.0, variance(xs), 1e-9)
	assert.InDelta(t, 2.0, stdDev(xs), 1e-9)

	assert.Equal(t, 0.0, mean(nil))
	assert.Equal(t, 0.0, stdDev(nil))
}

func TestSlope(t *testing.T) {
	assert.InDelta(t, 2.0, slope([]float64{1, 3, 5, 7}), 1e-9)
	assert.InDelta(t, 0.0, slope([]float64{4, 4, 4}), 1e-9)
	assert.InDelta(t, -1.0, slope([]float64{3, 2, 1}), 1e-9)
	assert.Equal(t, 0.0, slope([]float64{1}))
}

func TestQuadraticCoefficient(t *testing.T) {
	// y = x^2 over x = 0..4
	ys := []float64{0, 1, 4, 9, 16}
	assert.InDelta(t, 1.0, quadraticCoefficient(ys), 1e-6)

	// Linear series has no curvature.
	assert.InDelta(t, 0.0, quadraticCoefficient([]float64{0, 1, 2, 3}), 1e-6)
}

func TestIntervals(t *testing.T) {
	assert.Equal(t, []float64{1, 2, 3}, intervals([]float64{0, 1, 3, 6}))
	assert.Nil(t, intervals([]float64{5}))
}

func TestTransitionCounts(t *testing.T) {
	counts := transitionCounts([]string{"a", "a", "b", "a"})
	assert.Equal(t, 1, counts["a"]["a"])
	assert.Equal(t, 1, counts["a"]["b"])
	assert.Equal(t, 1, counts["b"]["a"])
}

func TestWindowCount(t *testing.T) {
	assert.Equal(t, 3, windowCount(25, 10))
	assert.Equal(t, 1, windowCount(5, 10))
	assert.Equal(t, 0, windowCount(0, 10))
}

func TestSafeDivAndClamp(t *testing.T) {
	assert.Equal(t, 0.0, safeDiv(5, 0))
	assert.Equal(t, 2.5, safeDiv(5, 2))
	assert.Equal(t, 1.0, clamp01(1.5))
	assert.Equal(t, 0.0, clamp01(-0.5))
}
