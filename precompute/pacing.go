package precompute

import (
	"github.com/tumilabs/rumiai/config"
	"github.com/tumilabs/rumiai/types"
)

// Pacing classification thresholds over average shot duration in seconds.
const (
	pacingRapidMax    = 2.0
	pacingFastMax     = 4.0
	pacingModerateMax = 8.0
)

const (
	pacingCurveWindow = 10.0 // seconds per cuts-per-window bucket
	montageShotMax    = 1.5  // avg shot duration marking montage windows
)

// computeScenePacing derives shot statistics, the pacing classification,
// rhythm consistency, acceleration, and cut-density structure from the
// scene_change entries.
func computeScenePacing(ua *types.UnifiedAnalysis, _ config.Weights) types.FeatureBundle {
	duration := ua.Metadata.DurationSeconds
	scenes := ua.Timeline.ByModality(types.ModalitySceneChange)

	var durations []float64
	var starts []float64
	for _, e := range scenes {
		start := e.Start.Seconds()
		starts = append(starts, start)
		end := duration
		if e.End != nil {
			end = e.End.Seconds()
		}
		if end > start {
			durations = append(durations, end-start)
		}
	}

	totalShots := len(scenes)
	avgShot := mean(durations)
	minShot, maxShot := minMax(durations)

	// Cuts per 10-second window.
	windows := windowCount(duration, pacingCurveWindow)
	pacingCurve := make([]int, windows)
	for _, s := range starts {
		i := int(s / pacingCurveWindow)
		if i >= windows {
			i = windows - 1
		}
		pacingCurve[i]++
	}

	curveFloats := intsToFloats(pacingCurve)
	curveMean := mean(curveFloats)
	curveStd := stdDev(curveFloats)

	var cutDensityZones []int
	for i, c := range curveFloats {
		if c >= curveMean+curveStd && c > 0 {
			cutDensityZones = append(cutDensityZones, i)
		}
	}

	bundle := types.FeatureBundle{
		"total_shots":            totalShots,
		"avg_shot_duration":      round3(avgShot),
		"min_shot_duration":      round3(minShot),
		"max_shot_duration":      round3(maxShot),
		"shot_duration_variance": round3(variance(durations)),
		"shots_per_minute":       round2(safeDiv(float64(totalShots)*60, duration)),
		"pacing_classification":  pacingClassification(avgShot, totalShots),
		"rhythm_consistency":     rhythmConsistency(durations),
		"acceleration_score":     round3(slope(curveFloats)),
		"pacing_curve":           pacingCurve,
		"cut_density_zones":      cutDensityZones,
		"montage_segments":       montageSegments(starts, duration),
		"confidence":             clamp01(ua.DataCompleteness()),
		"data_completeness":      round3(ua.DataCompleteness()),
	}
	return bundle
}

func pacingClassification(avgShotDuration float64, totalShots int) string {
	if totalShots == 0 {
		return "static"
	}
	switch {
	case avgShotDuration < pacingRapidMax:
		return "rapid"
	case avgShotDuration < pacingFastMax:
		return "fast"
	case avgShotDuration < pacingModerateMax:
		return "moderate"
	default:
		return "slow"
	}
}

// rhythmConsistency buckets shot-duration variance relative to the mean.
func rhythmConsistency(durations []float64) string {
	if len(durations) < 2 {
		return "uniform"
	}
	m := mean(durations)
	if m == 0 {
		return "uniform"
	}
	cv := stdDev(durations) / m
	switch {
	case cv < 0.3:
		return "consistent"
	case cv < 0.7:
		return "varied"
	default:
		return "erratic"
	}
}

// montageSegments finds contiguous 10-second windows whose average shot
// duration is under montageShotMax, reported as [start, end] second pairs.
func montageSegments(cutStarts []float64, duration float64) [][]float64 {
	windows := windowCount(duration, pacingCurveWindow)
	var segments [][]float64
	segStart := -1.0

	for w := 0; w < windows; w++ {
		from := float64(w) * pacingCurveWindow
		to := from + pacingCurveWindow
		if to > duration {
			to = duration
		}
		cuts := 0
		for _, s := range cutStarts {
			if s >= from && s < to {
				cuts++
			}
		}
		isMontage := cuts > 0 && (to-from)/float64(cuts) < montageShotMax

		if isMontage && segStart < 0 {
			segStart = from
		}
		if !isMontage && segStart >= 0 {
			segments = append(segments, []float64{segStart, from})
			segStart = -1
		}
	}
	if segStart >= 0 {
		segments = append(segments, []float64{segStart, duration})
	}
	return segments
}
