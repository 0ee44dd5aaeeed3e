package precompute

import (
	"math"
	"strings"

	"github.com/tumilabs/rumiai/config"
	"github.com/tumilabs/rumiai/lexicons"
	"github.com/tumilabs/rumiai/types"
)

const (
	clutterWindow      = 5.0 // seconds per clutter bucket
	burstWindow        = 2.0 // seconds defining an overlay burst
	burstMinCount      = 3
	ctaReinforceWindow = 0.5 // +-seconds for CTA reinforcement co-occurrence
	speechAlignWindow  = 1.0 // +-seconds for text/speech alignment
)

// computeVisualOverlay derives on-screen text statistics: rate, rhythm,
// clutter, readability, position/size structure, CTA reinforcement, semantic
// grouping, and speech alignment.
func computeVisualOverlay(ua *types.UnifiedAnalysis, w config.Weights) types.FeatureBundle {
	duration := ua.Metadata.DurationSeconds
	overlays := ua.Timeline.ByModality(types.ModalityTextOverlay)
	stickers := ua.Timeline.ByModality(types.ModalitySticker)
	gestures := ua.Timeline.ByModality(types.ModalityGesture)
	speech := ua.Timeline.ByModality(types.ModalitySpeech)

	uniqueTexts := map[string]bool{}
	var times []float64
	var areas []float64
	var sizeRanks []float64
	positions := map[string]int{}
	groups := map[string][]string{
		"product_mentions": {},
		"urgency_phrases":  {},
		"social_proof":     {},
		"questions":        {},
		"other":            {},
	}

	timeToFirst := -1.0
	for _, e := range overlays {
		p, ok := e.Payload.(types.TextOverlayPayload)
		if !ok {
			continue
		}
		t := e.Start.Seconds()
		times = append(times, t)
		if timeToFirst < 0 {
			timeToFirst = t
		}
		uniqueTexts[strings.ToLower(p.Text)] = true
		areas = append(areas, p.BBox.Area())
		sizeRanks = append(sizeRanks, float64(types.SizeRank(p.SizeClass)))
		positions[p.Position]++

		group := semanticGroup(p.Text)
		groups[group] = append(groups[group], p.Text)
	}
	if timeToFirst < 0 {
		timeToFirst = 0
	}

	// Per-5s clutter counts.
	clutterWindows := windowCount(duration, clutterWindow)
	clutter := make([]int, clutterWindows)
	for _, t := range times {
		i := int(t / clutterWindow)
		if i >= clutterWindows {
			i = clutterWindows - 1
		}
		clutter[i]++
	}

	bundle := types.FeatureBundle{
		"avg_texts_per_second":       round3(safeDiv(float64(len(times)), duration)),
		"unique_text_count":          len(uniqueTexts),
		"time_to_first_text":         round3(timeToFirst),
		"avg_text_display_duration":  round3(avgDisplayDuration(overlays)),
		"overlay_rhythm":             overlayRhythm(times, ua.Timeline, duration),
		"clutter_timeline":           clutter,
		"readability_components":     readabilityComponents(areas, positions, w),
		"text_position_distribution": positions,
		"text_size_variance":         round3(variance(sizeRanks)),
		"cta_reinforcement_matrix":   ctaReinforcement(overlays, gestures, stickers),
		"text_semantic_groups":       groups,
		"text_speech_alignment":      round3(textSpeechAlignment(overlays, speech)),
		"confidence":                 clamp01(ua.DataCompleteness()),
		"data_completeness":          round3(ua.DataCompleteness()),
	}
	return bundle
}

// avgDisplayDuration averages overlay spans where an end is present.
func avgDisplayDuration(overlays []types.TimelineEntry) float64 {
	var durations []float64
	for _, e := range overlays {
		if e.End != nil {
			durations = append(durations, e.End.Seconds()-e.Start.Seconds())
		}
	}
	return mean(durations)
}

func overlayRhythm(times []float64, tl *types.Timeline, duration float64) map[string]any {
	gaps := intervals(times)

	// Burst windows: any 2-second stretch holding at least 3 appearances.
	var burstStarts []float64
	for i := range times {
		count := 1
		for j := i + 1; j < len(times) && times[j]-times[i] <= burstWindow; j++ {
			count++
		}
		if count >= burstMinCount {
			burstStarts = append(burstStarts, times[i])
		}
	}

	counts := tl.PerSecondCounts(duration)
	empty := 0
	for _, c := range counts {
		if c == 0 {
			empty++
		}
	}

	return map[string]any{
		"mean_interval":        round3(mean(gaps)),
		"interval_variance":    round3(variance(gaps)),
		"burst_windows":        burstStarts,
		"breathing_room_ratio": round3(safeDiv(float64(empty), duration)),
	}
}

// readabilityComponents approximates readability from bbox area and position
// (contrast is unavailable from the OCR contract and reported as neutral).
func readabilityComponents(areas []float64, positions map[string]int, w config.Weights) map[string]any {
	// Area score peaks for comfortably large text (~5-15% of frame).
	areaScore := 0.0
	if len(areas) > 0 {
		m := mean(areas)
		switch {
		case m >= 0.05 && m <= 0.15:
			areaScore = 1.0
		case m > 0.15:
			areaScore = 0.7
		case m >= 0.02:
			areaScore = 0.6
		default:
			areaScore = 0.3
		}
	}

	// Position score favors conventional caption zones.
	positionScore := 0.0
	total := 0
	for pos, c := range positions {
		total += c
		switch pos {
		case "bottom-center", "middle-center", "top-center":
			positionScore += float64(c)
		default:
			positionScore += 0.5 * float64(c)
		}
	}
	if total > 0 {
		positionScore /= float64(total)
	}

	const contrastScore = 0.5 // unknown contrast reported as neutral

	score := w.ReadabilityArea*areaScore +
		w.ReadabilityPosition*positionScore +
		w.ReadabilityContrast*contrastScore

	return map[string]any{
		"area_score":        round3(areaScore),
		"position_score":    round3(positionScore),
		"contrast_score":    contrastScore,
		"readability_score": round3(score),
	}
}

// ctaReinforcement counts co-occurrence of gestures and stickers within
// +-0.5 s of each CTA overlay.
func ctaReinforcement(overlays, gestures, stickers []types.TimelineEntry) map[string]int {
	out := map[string]int{
		"cta_count":    0,
		"with_gesture": 0,
		"with_sticker": 0,
		"with_both":    0,
	}
	for _, e := range overlays {
		p, ok := e.Payload.(types.TextOverlayPayload)
		if !ok {
			continue
		}
		if p.Category != types.TextCategoryCTA && !lexicons.MatchAny(p.Text, lexicons.CTA) {
			continue
		}
		out["cta_count"]++
		t := e.Start.Seconds()
		g := anyWithin(gestures, t, ctaReinforceWindow)
		s := anyWithin(stickers, t, ctaReinforceWindow)
		if g {
			out["with_gesture"]++
		}
		if s {
			out["with_sticker"]++
		}
		if g && s {
			out["with_both"]++
		}
	}
	return out
}

func anyWithin(entries []types.TimelineEntry, t, window float64) bool {
	for _, e := range entries {
		if math.Abs(e.Start.Seconds()-t) <= window {
			return true
		}
	}
	return false
}

func semanticGroup(text string) string {
	switch {
	case strings.Contains(text, "?"):
		return "questions"
	case lexicons.MatchAny(text, lexicons.ProductMentions):
		return "product_mentions"
	case lexicons.MatchAny(text, lexicons.UrgencyPhrases):
		return "urgency_phrases"
	case lexicons.MatchAny(text, lexicons.SocialProof):
		return "social_proof"
	default:
		return "other"
	}
}

// textSpeechAlignment is the fraction of overlays whose text shares a word
// of 4+ characters with transcript text within +-1 s.
func textSpeechAlignment(overlays, speech []types.TimelineEntry) float64 {
	if len(overlays) == 0 {
		return 0
	}

	aligned := 0
	for _, e := range overlays {
		p, ok := e.Payload.(types.TextOverlayPayload)
		if !ok {
			continue
		}
		t := e.Start.Seconds()
		if overlayMatchesSpeech(p.Text, t, speech) {
			aligned++
		}
	}
	return float64(aligned) / float64(len(overlays))
}

func overlayMatchesSpeech(text string, t float64, speech []types.TimelineEntry) bool {
	overlayWords := significantWords(text)
	if len(overlayWords) == 0 {
		return false
	}

	for _, e := range speech {
		p, ok := e.Payload.(types.SpeechPayload)
		if !ok {
			continue
		}
		start := e.Start.Seconds()
		end := start
		if e.End != nil {
			end = e.End.Seconds()
		}
		if t < start-speechAlignWindow || t > end+speechAlignWindow {
			continue
		}
		for w := range significantWords(p.Text) {
			if overlayWords[w] {
				return true
			}
		}
	}
	return false
}

func significantWords(text string) map[string]bool {
	out := map[string]bool{}
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,!?#@")
		if len(w) >= 4 {
			out[w] = true
		}
	}
	return out
}
