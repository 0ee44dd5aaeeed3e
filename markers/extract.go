// Package markers derives the bounded early/late-video temporal markers used
// to prime the LLM analyses.
//
// Extraction never fails: panics are recovered, overflow is handled by
// halving the per-list cap, and the worst case emits the canonical empty
// structure carrying only the video id and duration.
package markers

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/tumilabs/rumiai/lexicons"
	"github.com/tumilabs/rumiai/logger"
	"github.com/tumilabs/rumiai/metrics"
	"github.com/tumilabs/rumiai/types"
)

const (
	// initialTopK is the starting per-list cap, halved under size pressure.
	initialTopK = 8

	// CTA window bounds: final 15% of the duration, widened to at least
	// minCTAWindow and capped at maxCTAWindow.
	ctaWindowFraction = 0.15
	minCTAWindow      = 3.0
	maxCTAWindow      = 15.0

	// gestureSyncTolerance is the +-window for gesture/CTA co-occurrence.
	gestureSyncTolerance = 0.5
)

// Extract builds TemporalMarkers from a unified analysis. It never panics
// and never returns nil; on any internal failure the canonical empty
// structure is returned.
func Extract(ua *types.UnifiedAnalysis) (tm *types.TemporalMarkers) {
	now := time.Now().UTC()

	defer func() {
		if r := recover(); r != nil {
			metrics.Recovery(metrics.KindPrecomputeFailure)
			logger.Error("temporal marker extraction failed",
				"video_id", ua.VideoID, "panic", fmt.Sprint(r))
			tm = types.EmptyTemporalMarkers(ua.VideoID, ua.Metadata.DurationSeconds, now)
		}
	}()

	for k := initialTopK; k >= 1; k /= 2 {
		candidate := extractWithCap(ua, k, now)

		size, err := serializedSize(candidate)
		if err != nil {
			break
		}
		if size <= types.MarkersHardLimit {
			if size > types.MarkersSoftLimit && k > 1 {
				metrics.Recovery(metrics.KindSizeOverflow)
				logger.Warn("temporal markers above soft limit, halving list cap",
					"video_id", ua.VideoID, "size", size, "k", k)
				continue
			}
			return candidate
		}

		metrics.Recovery(metrics.KindSizeOverflow)
		logger.Warn("temporal markers exceed hard limit, halving list cap",
			"video_id", ua.VideoID, "size", size, "k", k)
	}

	metrics.Recovery(metrics.KindSizeOverflow)
	logger.Error("temporal markers overflow persisted, emitting empty structure",
		"video_id", ua.VideoID)
	return types.EmptyTemporalMarkers(ua.VideoID, ua.Metadata.DurationSeconds, now)
}

func extractWithCap(ua *types.UnifiedAnalysis, topK int, now time.Time) *types.TemporalMarkers {
	duration := ua.Metadata.DurationSeconds

	return &types.TemporalMarkers{
		FirstFiveSeconds: types.FirstFiveSeconds{
			DensityProgression: densityProgression(ua),
			TextMoments:        textMoments(ua, topK),
			EmotionSequence:    emotionSequence(ua),
			GestureMoments:     gestureMoments(ua, topK),
			ObjectAppearances:  objectAppearances(ua, topK),
		},
		CTAWindow: ctaWindow(ua),
		Metadata: types.MarkersMetadata{
			VideoID:     ua.VideoID,
			Duration:    duration,
			GeneratedAt: now,
		},
	}
}

// densityProgression counts timeline entries per second over the first five
// seconds, each value capped at DensityCap.
func densityProgression(ua *types.UnifiedAnalysis) []int {
	out := make([]int, 5)
	for _, e := range ua.Timeline.Range(0, 5) {
		i := int(e.Start.Seconds())
		if i >= 0 && i < 5 {
			out[i]++
		}
	}
	for i, v := range out {
		if v > types.DensityCap {
			out[i] = types.DensityCap
		}
	}
	return out
}

// textMoments ranks first-five-second overlays by size class then confidence.
func textMoments(ua *types.UnifiedAnalysis, topK int) []types.TextMoment {
	var moments []types.TextMoment
	for _, e := range ua.Timeline.Range(0, 5) {
		if e.Modality != types.ModalityTextOverlay {
			continue
		}
		p, ok := e.Payload.(types.TextOverlayPayload)
		if !ok {
			continue
		}
		moments = append(moments, types.TextMoment{
			Time:       e.Start.Seconds(),
			Text:       p.Text,
			SizeClass:  p.SizeClass,
			Position:   p.Position,
			Confidence: p.Confidence,
		})
	}

	sort.SliceStable(moments, func(i, j int) bool {
		ri, rj := types.SizeRank(moments[i].SizeClass), types.SizeRank(moments[j].SizeClass)
		if ri != rj {
			return ri > rj
		}
		return moments[i].Confidence > moments[j].Confidence
	})

	return truncate(moments, topK)
}

// emotionSequence is the dominant emotion per second over the first five
// seconds; seconds without expression entries report "neutral".
func emotionSequence(ua *types.UnifiedAnalysis) []string {
	out := make([]string, 5)
	for i := range out {
		counts := map[string]int{}
		for _, e := range ua.Timeline.Range(float64(i), float64(i+1)) {
			if e.Modality != types.ModalityExpression {
				continue
			}
			if p, ok := e.Payload.(types.ExpressionPayload); ok {
				counts[p.Emotion]++
			}
		}
		out[i] = dominantEmotion(counts)
	}
	return out
}

func dominantEmotion(counts map[string]int) string {
	best, bestCount := "neutral", 0
	// Deterministic on ties: lexicographic order.
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

func gestureMoments(ua *types.UnifiedAnalysis, topK int) []types.GestureMoment {
	var moments []types.GestureMoment
	for _, e := range ua.Timeline.Range(0, 5) {
		if e.Modality != types.ModalityGesture {
			continue
		}
		p, ok := e.Payload.(types.GesturePayload)
		if !ok {
			continue
		}
		moments = append(moments, types.GestureMoment{
			Time:       e.Start.Seconds(),
			Label:      p.Label,
			Target:     p.Target,
			Confidence: p.Confidence,
		})
	}

	sort.SliceStable(moments, func(i, j int) bool {
		return moments[i].Confidence > moments[j].Confidence
	})

	return truncate(moments, topK)
}

// objectAppearances ranks by confidence with a novelty boost: the first
// appearance of a class outranks repeats at equal confidence.
func objectAppearances(ua *types.UnifiedAnalysis, topK int) []types.ObjectAppearance {
	seen := map[string]bool{}
	var apps []types.ObjectAppearance
	for _, e := range ua.Timeline.Range(0, 5) {
		if e.Modality != types.ModalityObject {
			continue
		}
		p, ok := e.Payload.(types.ObjectPayload)
		if !ok {
			continue
		}
		app := types.ObjectAppearance{
			Time:       e.Start.Seconds(),
			Class:      p.Class,
			Confidence: p.Confidence,
			Novel:      !seen[p.Class],
		}
		seen[p.Class] = true
		apps = append(apps, app)
	}

	sort.SliceStable(apps, func(i, j int) bool {
		if apps[i].Confidence != apps[j].Confidence {
			return apps[i].Confidence > apps[j].Confidence
		}
		return apps[i].Novel && !apps[j].Novel
	})

	return truncate(apps, topK)
}

// CTAWindowBounds returns the [start, end] of the CTA window for a duration:
// the final 15%, widened to at least 3 s and capped at 15 s.
func CTAWindowBounds(duration float64) (float64, float64) {
	width := duration * ctaWindowFraction
	if width < minCTAWindow {
		width = minCTAWindow
	}
	if width > maxCTAWindow {
		width = maxCTAWindow
	}
	start := duration - width
	if start < 0 {
		start = 0
	}
	return start, duration
}

func ctaWindow(ua *types.UnifiedAnalysis) types.CTAWindow {
	duration := ua.Metadata.DurationSeconds
	start, end := CTAWindowBounds(duration)

	window := types.CTAWindow{
		TimeRange:      fmt.Sprintf("%.1f-%.1fs", start, end),
		CTAAppearances: []types.CTAAppearance{},
		GestureSync:    map[string]bool{},
		ObjectFocus:    []string{},
	}

	// Closed interval: entries clamped to the exact duration belong to the
	// window too.
	var entries []types.TimelineEntry
	for _, e := range ua.Timeline.Entries() {
		s := e.Start.Seconds()
		if s >= start && s <= end {
			entries = append(entries, e)
		}
	}

	var gestures []struct {
		time  float64
		label string
	}
	objectCounts := map[string]int{}

	for _, e := range entries {
		switch e.Modality {
		case types.ModalityTextOverlay:
			p, ok := e.Payload.(types.TextOverlayPayload)
			if !ok {
				continue
			}
			if p.Category == types.TextCategoryCTA {
				window.CTAAppearances = append(window.CTAAppearances, types.CTAAppearance{
					Time: e.Start.Seconds(), Text: p.Text, Source: "text_overlay", Confidence: 1,
				})
			} else if lexicons.MatchAny(p.Text, lexicons.CTA) {
				window.CTAAppearances = append(window.CTAAppearances, types.CTAAppearance{
					Time: e.Start.Seconds(), Text: p.Text, Source: "lexicon", Confidence: 0.8,
				})
			}
		case types.ModalityGesture:
			if p, ok := e.Payload.(types.GesturePayload); ok {
				gestures = append(gestures, struct {
					time  float64
					label string
				}{e.Start.Seconds(), p.Label})
			}
		case types.ModalityObject:
			if p, ok := e.Payload.(types.ObjectPayload); ok {
				objectCounts[p.Class]++
			}
		}
	}

	for _, g := range gestures {
		synced := false
		for _, cta := range window.CTAAppearances {
			if math.Abs(g.time-cta.Time) <= gestureSyncTolerance {
				synced = true
				break
			}
		}
		window.GestureSync[g.label] = synced
	}

	classes := make([]string, 0, len(objectCounts))
	for class := range objectCounts {
		classes = append(classes, class)
	}
	sort.Slice(classes, func(i, j int) bool {
		if objectCounts[classes[i]] != objectCounts[classes[j]] {
			return objectCounts[classes[i]] > objectCounts[classes[j]]
		}
		return classes[i] < classes[j]
	})
	window.ObjectFocus = classes

	return window
}

func truncate[T any](s []T, k int) []T {
	if s == nil {
		return []T{}
	}
	if len(s) > k {
		return s[:k]
	}
	return s
}

func serializedSize(tm *types.TemporalMarkers) (int, error) {
	data, err := json.Marshal(tm)
	if err != nil {
		return 0, err
	}
	return len(data), nil
}
