package precompute

import (
	"math"
	"sort"

	"github.com/tumilabs/rumiai/config"
	"github.com/tumilabs/rumiai/types"
)

const (
	emotionWindow = 5.0 // seconds per emotion window

	// gestureAlignTolerance is the +-window for emotion-peak/gesture
	// alignment.
	gestureAlignTolerance = 1.0
)

// computeEmotionalJourney derives the emotion sequence, variability,
// transition structure, peak rhythm, gesture alignment, and the fitted
// trajectory shape.
func computeEmotionalJourney(ua *types.UnifiedAnalysis, _ config.Weights) types.FeatureBundle {
	duration := ua.Metadata.DurationSeconds
	windows := windowCount(duration, emotionWindow)

	expressions := ua.Timeline.ByModality(types.ModalityExpression)
	gestures := ua.Timeline.ByModality(types.ModalityGesture)

	// Dominant emotion and mean valence per window.
	sequence := make([]string, windows)
	valenceCurve := make([]float64, windows)
	for w := 0; w < windows; w++ {
		from := float64(w) * emotionWindow
		to := from + emotionWindow
		counts := map[string]int{}
		var valences []float64
		for _, e := range expressions {
			s := e.Start.Seconds()
			if s < from || (s >= to && !(w == windows-1 && s <= duration)) {
				continue
			}
			p, ok := e.Payload.(types.ExpressionPayload)
			if !ok {
				continue
			}
			counts[p.Emotion]++
			valences = append(valences, p.Valence)
		}
		sequence[w] = dominantLabel(counts, "neutral")
		valenceCurve[w] = round3(mean(valences))
	}

	transitions := 0
	for i := 1; i < len(sequence); i++ {
		if sequence[i] != sequence[i-1] {
			transitions++
		}
	}

	positive, negative, neutral := emotionRatios(expressions)

	// Top-5 |valence| windows are the emotional peaks.
	peakIdx := topKIndices(valenceCurve, 5, math.Abs)
	peaks := make([]map[string]any, 0, len(peakIdx))
	var peakTimes []float64
	for _, i := range peakIdx {
		if valenceCurve[i] == 0 {
			continue
		}
		t := float64(i) * emotionWindow
		peakTimes = append(peakTimes, t)
		peaks = append(peaks, map[string]any{
			"window_start": t,
			"emotion":      sequence[i],
			"valence":      valenceCurve[i],
		})
	}

	alignment := emotionGestureAlignment(peakTimes, gestures)

	bundle := types.FeatureBundle{
		"emotion_sequence":          sequence,
		"emotion_variability":       round3(stdDev(valenceCurve)),
		"emotion_change_rate":       round3(safeDiv(float64(transitions), float64(windows))),
		"positive_ratio":            round3(positive),
		"negative_ratio":            round3(negative),
		"neutral_ratio":             round3(neutral),
		"emotion_valence_curve":     valenceCurve,
		"emotional_peaks":           peaks,
		"emotion_transition_matrix": transitionCounts(sequence),
		"peak_rhythm":               peakRhythm(peakTimes),
		"emotion_gesture_alignment": round3(alignment),
		"emotional_trajectory":      emotionalTrajectory(valenceCurve),
		"confidence":                clamp01(ua.DataCompleteness()),
		"data_completeness":         round3(ua.DataCompleteness()),
	}
	return bundle
}

func dominantLabel(counts map[string]int, fallback string) string {
	best, bestCount := fallback, 0
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}

func emotionRatios(expressions []types.TimelineEntry) (positive, negative, neutral float64) {
	if len(expressions) == 0 {
		return 0, 0, 1
	}
	var pos, neg, neu int
	for _, e := range expressions {
		p, ok := e.Payload.(types.ExpressionPayload)
		if !ok {
			continue
		}
		switch {
		case p.Valence > 0.1:
			pos++
		case p.Valence < -0.1:
			neg++
		default:
			neu++
		}
	}
	n := float64(pos + neg + neu)
	if n == 0 {
		return 0, 0, 1
	}
	return float64(pos) / n, float64(neg) / n, float64(neu) / n
}

// peakRhythm summarizes inter-peak spacing: mean, variance, and a
// regularity score in [0,1] (1 = perfectly even spacing).
func peakRhythm(peakTimes []float64) map[string]any {
	spacing := intervals(peakTimes)
	if len(spacing) == 0 {
		return map[string]any{
			"mean_spacing": 0.0,
			"variance":     0.0,
			"regularity":   0.0,
		}
	}
	m := mean(spacing)
	v := variance(spacing)
	regularity := 0.0
	if m > 0 {
		regularity = clamp01(1 - stdDev(spacing)/m)
	}
	return map[string]any{
		"mean_spacing": round3(m),
		"variance":     round3(v),
		"regularity":   round3(regularity),
	}
}

// emotionGestureAlignment is the fraction of emotion peaks with a gesture
// within +-1 s.
func emotionGestureAlignment(peakTimes []float64, gestures []types.TimelineEntry) float64 {
	if len(peakTimes) == 0 {
		return 0
	}
	aligned := 0
	for _, t := range peakTimes {
		for _, g := range gestures {
			if math.Abs(g.Start.Seconds()-t) <= gestureAlignTolerance {
				aligned++
				break
			}
		}
	}
	return float64(aligned) / float64(len(peakTimes))
}

// emotionalTrajectory classifies the valence curve as ascending, descending,
// u-shaped, or flat from linear and quadratic fits.
func emotionalTrajectory(valenceCurve []float64) string {
	if len(valenceCurve) < 2 {
		return "flat"
	}

	linear := slope(valenceCurve)
	quadratic := quadraticCoefficient(valenceCurve)

	// A strong positive curvature with a weak linear component is a valley.
	if math.Abs(quadratic) > 0.01 && math.Abs(quadratic)*float64(len(valenceCurve)) > math.Abs(linear) {
		if quadratic > 0 {
			return "u-shaped"
		}
	}

	switch {
	case linear > 0.02:
		return "ascending"
	case linear < -0.02:
		return "descending"
	default:
		return "flat"
	}
}
