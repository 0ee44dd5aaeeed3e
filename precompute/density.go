package precompute

import (
	"github.com/tumilabs/rumiai/config"
	"github.com/tumilabs/rumiai/types"
)

// Modalities that count as creative elements for density purposes.
var densityModalities = []types.Modality{
	types.ModalityTextOverlay,
	types.ModalitySticker,
	types.ModalitySceneChange,
	types.ModalityObject,
	types.ModalityGesture,
}

// Density classification thresholds in elements per second.
const (
	densityMinimalMax = 0.5
	densityMediumMax  = 1.5
)

// computeCreativeDensity derives per-second element density metrics:
// aggregates, the dominant-modality curve, volatility, acceleration shape,
// multi-modal peaks, and structural pattern flags.
func computeCreativeDensity(ua *types.UnifiedAnalysis, _ config.Weights) types.FeatureBundle {
	duration := ua.Metadata.DurationSeconds
	seconds := windowCount(duration, 1)

	// Per-second counts, per modality and total.
	perModality := make(map[types.Modality][]int, len(densityModalities))
	for _, m := range densityModalities {
		perModality[m] = make([]int, seconds)
	}
	total := make([]int, seconds)

	for _, e := range ua.Timeline.Entries() {
		counts, ok := perModality[e.Modality]
		if !ok {
			continue
		}
		i := int(e.Start.Seconds())
		if i >= seconds {
			i = seconds - 1
		}
		counts[i]++
		total[i]++
	}

	totals := intsToFloats(total)
	avg := mean(totals)
	lo, hi := minMax(totals)
	std := stdDev(totals)

	// Dominant modality per second.
	curve := make([]map[string]any, seconds)
	emptySeconds := 0
	multiModalPeaks := []float64{}
	for i := 0; i < seconds; i++ {
		dominant := ""
		best := 0
		active := 0
		for _, m := range densityModalities {
			c := perModality[m][i]
			if c > 0 {
				active++
			}
			if c > best {
				best = c
				dominant = string(m)
			}
		}
		if total[i] == 0 {
			emptySeconds++
			dominant = "none"
		}
		if active >= 3 {
			multiModalPeaks = append(multiModalPeaks, float64(i))
		}
		curve[i] = map[string]any{
			"second":   i,
			"count":    total[i],
			"dominant": dominant,
		}
	}

	elementsPerSecond := safeDiv(float64(sumInts(total)), duration)

	bundle := types.FeatureBundle{
		"total_elements":         sumInts(total),
		"avg_density":            round3(avg),
		"max_density":            hi,
		"min_density":            lo,
		"std_density":            round3(std),
		"density_curve":          curve,
		"volatility":             round3(safeDiv(std, avg)),
		"acceleration_pattern":   accelerationPattern(totals),
		"multi_modal_peaks":      multiModalPeaks,
		"empty_seconds":          emptySeconds,
		"density_classification": densityClassification(elementsPerSecond),
		"structural_patterns":    structuralPatterns(totals),
		"confidence":             clamp01(ua.DataCompleteness()),
		"data_completeness":      round3(ua.DataCompleteness()),
	}
	return bundle
}

func sumInts(xs []int) int {
	var sum int
	for _, x := range xs {
		sum += x
	}
	return sum
}

func densityClassification(elementsPerSecond float64) string {
	switch {
	case elementsPerSecond < densityMinimalMax:
		return "minimal"
	case elementsPerSecond <= densityMediumMax:
		return "medium"
	default:
		return "heavy"
	}
}

// accelerationPattern compares the first and last thirds of the density
// series: front_loaded, back_loaded, even, or oscillating.
func accelerationPattern(totals []float64) string {
	n := len(totals)
	if n < 3 {
		return "even"
	}
	third := n / 3
	first := mean(totals[:third])
	last := mean(totals[n-third:])
	overall := mean(totals)

	// High variance relative to the mean with no directional skew reads
	// as oscillation.
	if overall > 0 {
		ratio := stdDev(totals) / overall
		if ratio > 1.0 && first > 0 && last > 0 && absDiffRatio(first, last) < 0.25 {
			return "oscillating"
		}
	}

	switch {
	case first > last*1.5:
		return "front_loaded"
	case last > first*1.5:
		return "back_loaded"
	default:
		return "even"
	}
}

func absDiffRatio(a, b float64) float64 {
	hi := a
	if b > hi {
		hi = b
	}
	if hi == 0 {
		return 0
	}
	d := a - b
	if d < 0 {
		d = -d
	}
	return d / hi
}

func structuralPatterns(totals []float64) map[string]bool {
	n := len(totals)

	strongOpeningHook := false
	for i := 0; i < n && i < 3; i++ {
		if totals[i] >= 4 {
			strongOpeningHook = true
			break
		}
	}

	// Crescendo: a monotone non-decreasing run of at least 5 buckets with a
	// strict overall rise.
	crescendo := false
	runStart := 0
	for i := 1; i <= n; i++ {
		if i == n || totals[i] < totals[i-1] {
			if i-runStart >= 5 && totals[i-1] > totals[runStart] {
				crescendo = true
			}
			runStart = i
		}
	}

	frontLoaded := false
	if n >= 3 {
		third := n / 3
		firstThird := 0.0
		for _, v := range totals[:third] {
			firstThird += v
		}
		all := 0.0
		for _, v := range totals {
			all += v
		}
		frontLoaded = all > 0 && firstThird/all >= 0.5
	}

	return map[string]bool{
		"strong_opening_hook": strongOpeningHook,
		"crescendo":           crescendo,
		"front_loaded":        frontLoaded,
	}
}
