package precompute

import (
	"github.com/tumilabs/rumiai/config"
	"github.com/tumilabs/rumiai/types"
)

// Shot-type thresholds over normalized face/person bbox area.
const (
	closeShotArea  = 0.35
	mediumShotArea = 0.1
)

// computePersonFraming derives face/person screen time, shot-type
// distribution, framing volatility, absence runs, gaze steadiness, and the
// temporal framing evolution.
func computePersonFraming(ua *types.UnifiedAnalysis, _ config.Weights) types.FeatureBundle {
	duration := ua.Metadata.DurationSeconds
	seconds := windowCount(duration, 1)

	faceSeconds := make([]bool, seconds)
	personSeconds := make([]bool, seconds)
	shotTypeBySecond := make([]string, seconds)
	var gazeXs, gazeYs []float64

	bucket := func(s float64) int {
		i := int(s)
		if i >= seconds {
			i = seconds - 1
		}
		return i
	}

	for _, e := range ua.Timeline.ByModality(types.ModalityPose) {
		p, ok := e.Payload.(types.PosePayload)
		if !ok || !p.FacePresent {
			continue
		}
		i := bucket(e.Start.Seconds())
		faceSeconds[i] = true
		if p.FaceBBox != nil {
			shotTypeBySecond[i] = shotType(p.FaceBBox.Area())
		}
		gazeXs = append(gazeXs, p.GazeX)
		gazeYs = append(gazeYs, p.GazeY)
	}

	for _, e := range ua.Timeline.ByModality(types.ModalityObject) {
		p, ok := e.Payload.(types.ObjectPayload)
		if !ok || p.Class != "person" {
			continue
		}
		i := bucket(e.Start.Seconds())
		personSeconds[i] = true
		if shotTypeBySecond[i] == "" && p.BBox != nil {
			shotTypeBySecond[i] = shotType(p.BBox.Area())
		}
	}

	faceCount, personCount := 0, 0
	shotDistribution := map[string]int{"close": 0, "medium": 0, "far": 0}
	framingTransitions := 0
	prevShot := ""
	absences := 0
	longestAbsence := 0
	currentAbsence := 0

	for i := 0; i < seconds; i++ {
		if faceSeconds[i] {
			faceCount++
		}
		if personSeconds[i] {
			personCount++
		}
		if st := shotTypeBySecond[i]; st != "" {
			shotDistribution[st]++
			if prevShot != "" && st != prevShot {
				framingTransitions++
			}
			prevShot = st
		}

		present := faceSeconds[i] || personSeconds[i]
		if !present {
			currentAbsence++
			if currentAbsence > longestAbsence {
				longestAbsence = currentAbsence
			}
		} else {
			if currentAbsence > 0 {
				absences++
			}
			currentAbsence = 0
		}
	}
	if currentAbsence > 0 {
		absences++
	}

	bundle := types.FeatureBundle{
		"face_screen_time_ratio":   round3(safeDiv(float64(faceCount), float64(seconds))),
		"person_screen_time_ratio": round3(safeDiv(float64(personCount), float64(seconds))),
		"shot_type_distribution":   shotDistribution,
		"framing_volatility":       round3(safeDiv(float64(framingTransitions), float64(seconds))),
		"subject_absence_count":    absences,
		"longest_absence_duration": longestAbsence,
		"gaze_steadiness":          gazeSteadiness(gazeXs, gazeYs),
		"temporal_evolution":       temporalEvolution(shotTypeBySecond, personSeconds),
		"confidence":               clamp01(ua.DataCompleteness()),
		"data_completeness":        round3(ua.DataCompleteness()),
	}
	return bundle
}

func shotType(area float64) string {
	switch {
	case area > closeShotArea:
		return "close"
	case area >= mediumShotArea:
		return "medium"
	default:
		return "far"
	}
}

// gazeSteadiness buckets combined gaze variance into steady/moderate/wandering.
func gazeSteadiness(gazeXs, gazeYs []float64) string {
	if len(gazeXs) == 0 {
		return "unknown"
	}
	v := variance(gazeXs) + variance(gazeYs)
	switch {
	case v < 0.01:
		return "steady"
	case v < 0.05:
		return "moderate"
	default:
		return "wandering"
	}
}

// temporalEvolution compares the first and last thirds of the shot-type
// series to classify the framing arc.
func temporalEvolution(shotTypeBySecond []string, personSeconds []bool) string {
	n := len(shotTypeBySecond)
	if n < 3 {
		return "consistent_approach"
	}
	third := n / 3

	firstIntimacy := intimacyScore(shotTypeBySecond[:third])
	lastIntimacy := intimacyScore(shotTypeBySecond[n-third:])
	firstPresence := presenceRatio(personSeconds[:third])
	lastPresence := presenceRatio(personSeconds[n-third:])
	midPresence := presenceRatio(personSeconds[third : n-third])

	switch {
	case firstPresence > 0.5 && lastPresence > 0.5 && midPresence < 0.25:
		return "bookend_pattern"
	case firstPresence < 0.25 && lastPresence > 0.5:
		return "product_to_person"
	case firstPresence > 0.5 && lastPresence < 0.25:
		return "person_to_product"
	case lastIntimacy > firstIntimacy+0.5:
		return "increasing_intimacy"
	case firstIntimacy > lastIntimacy+0.5:
		return "decreasing_intimacy"
	default:
		return "consistent_approach"
	}
}

// intimacyScore averages shot closeness: close=2, medium=1, far=0.
func intimacyScore(shots []string) float64 {
	var sum float64
	var count int
	for _, s := range shots {
		switch s {
		case "close":
			sum += 2
			count++
		case "medium":
			sum += 1
			count++
		case "far":
			count++
		}
	}
	return safeDiv(sum, float64(count))
}

func presenceRatio(present []bool) float64 {
	if len(present) == 0 {
		return 0
	}
	count := 0
	for _, p := range present {
		if p {
			count++
		}
	}
	return float64(count) / float64(len(present))
}
