package precompute

import (
	"math"
	"sort"
	"strings"

	"github.com/tumilabs/rumiai/config"
	"github.com/tumilabs/rumiai/lexicons"
	"github.com/tumilabs/rumiai/types"
)

// Pause classification bounds in seconds.
const (
	pauseFloor     = 0.3
	breathPauseMax = 1.0
	strategicMax   = 2.0
)

const (
	wpmWindow = 10.0 // seconds per wpm bucket

	hookWindowEnd      = 10.0 // seconds of the opening scanned for hooks
	ctaTailFraction    = 0.3  // final fraction scanned for CTA phrases
	gestureSyncWindow  = 0.3  // +-seconds for stressed-word/gesture sync
	stressedWordMinLen = 7    // length heuristic marking stressed words
)

// computeSpeechAnalysis derives transcript statistics: rate, coverage,
// pauses, lexicon matches, repetition, bursts, and gesture synchronization.
func computeSpeechAnalysis(ua *types.UnifiedAnalysis, _ config.Weights) types.FeatureBundle {
	duration := ua.Metadata.DurationSeconds
	segments := ua.Timeline.ByModality(types.ModalitySpeech)
	gestures := ua.Timeline.ByModality(types.ModalityGesture)

	wordCount := 0
	speechSeconds := 0.0
	var allWords []string
	var timedWords []types.Word
	var spans [][2]float64

	for _, e := range segments {
		p, ok := e.Payload.(types.SpeechPayload)
		if !ok {
			continue
		}
		words := strings.Fields(p.Text)
		wordCount += len(words)
		allWords = append(allWords, words...)

		start := e.Start.Seconds()
		end := start
		if e.End != nil {
			end = e.End.Seconds()
		}
		spans = append(spans, [2]float64{start, end})
		speechSeconds += end - start

		if len(p.Words) > 0 {
			timedWords = append(timedWords, p.Words...)
		} else {
			// Distribute untimed words evenly across the segment.
			for i, w := range words {
				t := start
				if len(words) > 1 {
					t += (end - start) * float64(i) / float64(len(words)-1)
				}
				timedWords = append(timedWords, types.Word{Word: w, Start: t, End: t})
			}
		}
	}

	wpmCurve := wpmBySegment(timedWords, duration)
	wpmMean := mean(wpmCurve)
	wpmStd := stdDev(wpmCurve)

	var bursts []int
	energy := make([]string, len(wpmCurve))
	for i, wpm := range wpmCurve {
		if wpm >= wpmMean+wpmStd && wpm > 0 {
			bursts = append(bursts, i)
		}
		energy[i] = energyLevel(wpm)
	}

	bundle := types.FeatureBundle{
		"word_count":           wordCount,
		"speech_density":       round3(safeDiv(float64(wordCount), speechSeconds)),
		"speech_coverage":      round3(safeDiv(speechSeconds, duration)),
		"speech_rate_wpm":      round2(safeDiv(float64(wordCount)*60, speechSeconds)),
		"wpm_by_segment":       roundAll(wpmCurve),
		"pause_analysis":       pauseAnalysis(spans),
		"filler_word_ratio":    round3(fillerRatio(allWords)),
		"hook_phrases":         phraseMatches(segments, 0, hookWindowEnd, lexicons.Hook),
		"cta_phrases":          phraseMatches(segments, duration*(1-ctaTailFraction), duration, lexicons.CTA),
		"repetition_patterns":  repetitionPatterns(allWords),
		"speech_bursts":        bursts,
		"energy_level_windows": energy,
		"gesture_sync_ratio":   round3(gestureSyncRatio(timedWords, gestures)),
		"confidence":           clamp01(ua.DataCompleteness()),
		"data_completeness":    round3(ua.DataCompleteness()),
	}
	return bundle
}

func roundAll(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		out[i] = round2(x)
	}
	return out
}

// wpmBySegment buckets word starts into 10-second windows and scales each
// count to words per minute.
func wpmBySegment(words []types.Word, duration float64) []float64 {
	windows := windowCount(duration, wpmWindow)
	counts := make([]float64, windows)
	for _, w := range words {
		i := int(w.Start / wpmWindow)
		if i < 0 {
			continue
		}
		if i >= windows {
			i = windows - 1
		}
		counts[i]++
	}
	for i := range counts {
		width := wpmWindow
		if last := duration - float64(i)*wpmWindow; last < width {
			width = last
		}
		counts[i] = safeDiv(counts[i]*60, width)
	}
	return counts
}

func energyLevel(wpm float64) string {
	switch {
	case wpm >= 160:
		return "high"
	case wpm >= 110:
		return "medium"
	case wpm > 0:
		return "low"
	default:
		return "silent"
	}
}

// pauseAnalysis classifies inter-segment gaps above the 0.3 s floor:
// dramatic >2 s, strategic 1-2 s, breath 0.5-1 s.
func pauseAnalysis(spans [][2]float64) map[string]any {
	sort.Slice(spans, func(i, j int) bool { return spans[i][0] < spans[j][0] })

	total, dramatic, strategic, breath := 0, 0, 0, 0
	var gaps []float64
	for i := 1; i < len(spans); i++ {
		gap := spans[i][0] - spans[i-1][1]
		if gap <= pauseFloor {
			continue
		}
		total++
		gaps = append(gaps, round3(gap))
		switch {
		case gap > strategicMax:
			dramatic++
		case gap >= breathPauseMax:
			strategic++
		case gap >= 0.5:
			breath++
		}
	}

	return map[string]any{
		"total_pauses":     total,
		"dramatic_pauses":  dramatic,
		"strategic_pauses": strategic,
		"breath_pauses":    breath,
		"gap_durations":    gaps,
	}
}

func fillerRatio(words []string) float64 {
	if len(words) == 0 {
		return 0
	}
	fillers := 0
	for _, w := range words {
		cleaned := strings.ToLower(strings.Trim(w, ".,!?"))
		for _, f := range lexicons.Filler {
			if cleaned == f {
				fillers++
				break
			}
		}
	}
	return float64(fillers) / float64(len(words))
}

// phraseMatches finds lexicon phrases inside segments whose start lies in
// [from, to], reported as {time, phrase} records.
func phraseMatches(segments []types.TimelineEntry, from, to float64, lexicon []string) []map[string]any {
	out := []map[string]any{}
	for _, e := range segments {
		s := e.Start.Seconds()
		if s < from || s > to {
			continue
		}
		p, ok := e.Payload.(types.SpeechPayload)
		if !ok {
			continue
		}
		for _, phrase := range lexicons.Matches(p.Text, lexicon) {
			out = append(out, map[string]any{"time": s, "phrase": phrase})
		}
	}
	return out
}

// repetitionPatterns finds 2-5 word phrases repeated at least twice.
func repetitionPatterns(words []string) []map[string]any {
	normalized := make([]string, len(words))
	for i, w := range words {
		normalized[i] = strings.ToLower(strings.Trim(w, ".,!?"))
	}

	counts := map[string]int{}
	for n := 2; n <= 5; n++ {
		for i := 0; i+n <= len(normalized); i++ {
			phrase := strings.Join(normalized[i:i+n], " ")
			counts[phrase]++
		}
	}

	phrases := make([]string, 0, len(counts))
	for phrase, c := range counts {
		if c >= 2 {
			phrases = append(phrases, phrase)
		}
	}
	// Longest first, then lexicographic, so subphrases of a reported phrase
	// are easy to spot.
	sort.Slice(phrases, func(i, j int) bool {
		li, lj := len(strings.Fields(phrases[i])), len(strings.Fields(phrases[j]))
		if li != lj {
			return li > lj
		}
		return phrases[i] < phrases[j]
	})

	out := []map[string]any{}
	for _, phrase := range phrases {
		out = append(out, map[string]any{"phrase": phrase, "count": counts[phrase]})
	}
	return out
}

// gestureSyncRatio is the fraction of stressed words with a gesture within
// +-0.3 s. The transcript carries no prosody, so stressed words are
// approximated as words with trailing emphasis punctuation or of at least
// seven characters.
func gestureSyncRatio(words []types.Word, gestures []types.TimelineEntry) float64 {
	var stressed []types.Word
	for _, w := range words {
		if isStressed(w.Word) {
			stressed = append(stressed, w)
		}
	}
	if len(stressed) == 0 {
		return 0
	}

	synced := 0
	for _, w := range stressed {
		for _, g := range gestures {
			if math.Abs(g.Start.Seconds()-w.Start) <= gestureSyncWindow {
				synced++
				break
			}
		}
	}
	return float64(synced) / float64(len(stressed))
}

func isStressed(word string) bool {
	if strings.HasSuffix(word, "!") || strings.HasSuffix(word, "?") {
		return true
	}
	return len(strings.Trim(word, ".,!?")) >= stressedWordMinLen
}
