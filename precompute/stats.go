// Package precompute derives the seven per-analysis feature bundles from the
// unified timeline. Extractors are pure functions over the read-only
// analysis; a shared statistical toolkit covers per-second counts, window
// aggregates, peaks, intervals, and first-order transitions.
package precompute

import (
	"math"
	"sort"
)

// mean returns the arithmetic mean of xs, or 0 for an empty slice.
func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// variance returns the population variance of xs.
func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var sum float64
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return sum / float64(len(xs))
}

// stdDev returns the population standard deviation of xs.
func stdDev(xs []float64) float64 {
	return math.Sqrt(variance(xs))
}

// minMax returns the minimum and maximum of xs, or zeros for an empty slice.
func minMax(xs []float64) (float64, float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	lo, hi := xs[0], xs[0]
	for _, x := range xs[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return lo, hi
}

// slope fits ys = a + b*x by least squares over x = 0..len-1 and returns b.
func slope(ys []float64) float64 {
	n := float64(len(ys))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

// quadraticCoefficient fits ys = a + b*x + c*x^2 over x = 0..len-1 and
// returns c. Used for trajectory shape detection (u-shaped curves).
func quadraticCoefficient(ys []float64) float64 {
	n := len(ys)
	if n < 3 {
		return 0
	}
	// Normal equations for a 3-parameter least-squares fit.
	var s0, s1, s2, s3, s4 float64
	var t0, t1, t2 float64
	for i, y := range ys {
		x := float64(i)
		x2 := x * x
		s0++
		s1 += x
		s2 += x2
		s3 += x2 * x
		s4 += x2 * x2
		t0 += y
		t1 += x * y
		t2 += x2 * y
	}
	// Solve the symmetric 3x3 system via Cramer's rule.
	det := det3(
		s0, s1, s2,
		s1, s2, s3,
		s2, s3, s4,
	)
	if det == 0 {
		return 0
	}
	detC := det3(
		s0, s1, t0,
		s1, s2, t1,
		s2, s3, t2,
	)
	return detC / det
}

// det3 computes the determinant of a 3x3 matrix given row-major.
func det3(a, b, c, d, e, f, g, h, i float64) float64 {
	return a*(e*i-f*h) - b*(d*i-f*g) + c*(d*h-e*g)
}

// topKIndices returns the indices of the k largest values of xs by
// magnitude of score(x), stable on ties, in ascending index order.
func topKIndices(xs []float64, k int, score func(float64) float64) []int {
	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return score(xs[idx[a]]) > score(xs[idx[b]])
	})
	if len(idx) > k {
		idx = idx[:k]
	}
	sort.Ints(idx)
	return idx
}

// intervals returns the consecutive differences of a sorted series.
func intervals(times []float64) []float64 {
	if len(times) < 2 {
		return nil
	}
	out := make([]float64, 0, len(times)-1)
	for i := 1; i < len(times); i++ {
		out = append(out, times[i]-times[i-1])
	}
	return out
}

// windowCount returns how many full-or-partial windows of the given width
// cover [0, duration).
func windowCount(duration, width float64) int {
	if duration <= 0 || width <= 0 {
		return 0
	}
	return int(math.Ceil(duration / width))
}

// transitionCounts builds first-order transition counts over a label
// sequence: counts[from][to]++ for each adjacent pair.
func transitionCounts(seq []string) map[string]map[string]int {
	out := map[string]map[string]int{}
	for i := 1; i < len(seq); i++ {
		from, to := seq[i-1], seq[i]
		if out[from] == nil {
			out[from] = map[string]int{}
		}
		out[from][to]++
	}
	return out
}

// round2 rounds to two decimal places for stable serialized metrics.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// round3 rounds to three decimal places.
func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}

// safeDiv returns a/b, or 0 when b is zero.
func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

// clamp01 limits x to [0,1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// intsToFloats converts an int slice for the float-based helpers.
func intsToFloats(xs []int) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = float64(x)
	}
	return out
}
