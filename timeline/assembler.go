// Package timeline assembles the unified, time-ordered event sequence from
// the normalized analyzer results.
//
// Each modality has its own builder. Builders are independent and isolated:
// a panic or bad payload in one yields a logged error and zero entries from
// that modality, never a pipeline failure. Builders run in a fixed order so
// that entries with equal start times sort deterministically:
// scene_change, object, pose, expression, gesture, text_overlay, sticker,
// speech.
package timeline

import (
	"fmt"
	"time"

	"github.com/tumilabs/rumiai/logger"
	"github.com/tumilabs/rumiai/metrics"
	"github.com/tumilabs/rumiai/timestamp"
	"github.com/tumilabs/rumiai/types"
)

// Assemble builds a UnifiedAnalysis from the video metadata and the adapter
// results. The metadata must already be validated (positive duration).
func Assemble(meta types.VideoMetadata, results map[string]types.MLAnalysisResult) (*types.UnifiedAnalysis, error) {
	if err := meta.Validate(); err != nil {
		return nil, err
	}

	ua := &types.UnifiedAnalysis{
		VideoID:   meta.VideoID,
		Metadata:  meta,
		Timeline:  types.NewTimeline(),
		MLResults: results,
		CreatedAt: time.Now().UTC(),
	}

	for _, missing := range ua.MissingModalities() {
		metrics.Recovery(metrics.KindMissingModality)
		logger.Warn("analyzer output missing or failed", "video_id", meta.VideoID, "model", missing)
	}

	// Fixed cross-modality insertion order; see package comment.
	runBuilder(ua, "scene_change", buildSceneEntries)
	runBuilder(ua, "object", buildObjectEntries)
	runBuilder(ua, "pose", buildPoseEntries)
	runBuilder(ua, "expression", buildExpressionEntries)
	runBuilder(ua, "gesture", buildGestureEntries)
	runBuilder(ua, "text_overlay", buildTextOverlayEntries)
	runBuilder(ua, "sticker", buildStickerEntries)
	runBuilder(ua, "speech", buildSpeechEntries)

	return ua, nil
}

// runBuilder executes one modality builder with panic isolation.
func runBuilder(ua *types.UnifiedAnalysis, name string, build func(*types.UnifiedAnalysis)) {
	defer func() {
		if r := recover(); r != nil {
			metrics.Recovery(metrics.KindInputShape)
			logger.Error("timeline builder failed", "builder", name, "video_id", ua.VideoID, "panic", fmt.Sprint(r))
		}
	}()
	build(ua)
}

// insert normalizes and inserts one entry. Negative starts are dropped,
// starts past the duration are clamped, and inverted spans are corrected by
// swapping. Every correction is counted and logged.
func insert(ua *types.UnifiedAnalysis, startSeconds float64, endSeconds *float64, m types.Modality, payload any) {
	duration := ua.Metadata.DurationSeconds

	end := endSeconds
	if end != nil && *end < startSeconds {
		metrics.Recovery(metrics.KindClamp)
		logger.Warn("correcting inverted span by swapping",
			"video_id", ua.VideoID, "modality", m, "start", startSeconds, "end", *end)
		swapped := startSeconds
		startSeconds = *end
		end = &swapped
	}

	if startSeconds < 0 {
		metrics.Recovery(metrics.KindTimestampParse)
		logger.Warn("dropping entry with negative start",
			"video_id", ua.VideoID, "modality", m, "start", startSeconds)
		return
	}

	if startSeconds > duration {
		metrics.Recovery(metrics.KindClamp)
		logger.Warn("clamping entry start to duration",
			"video_id", ua.VideoID, "modality", m, "start", startSeconds, "duration", duration)
		startSeconds = duration
	}

	entry := types.TimelineEntry{
		Start:    timestamp.MustFromSeconds(startSeconds),
		Modality: m,
		Payload:  payload,
	}

	if end != nil {
		e := *end
		if e > duration {
			metrics.Recovery(metrics.KindClamp)
			logger.Warn("clamping entry end to duration",
				"video_id", ua.VideoID, "modality", m, "end", e, "duration", duration)
			e = duration
		}
		ts := timestamp.MustFromSeconds(e)
		entry.End = &ts
	}

	ua.Timeline.Insert(entry)
}

func objectData(ua *types.UnifiedAnalysis) (types.ObjectData, bool) {
	r, ok := ua.MLResults[types.ModelObjectTracking]
	if !ok || !r.Success {
		return types.ObjectData{}, false
	}
	d, ok := r.Data.(types.ObjectData)
	return d, ok
}

func buildObjectEntries(ua *types.UnifiedAnalysis) {
	data, ok := objectData(ua)
	if !ok {
		return
	}
	for _, track := range data.Tracks {
		for _, frame := range track.Frames {
			insert(ua, frame.Time, nil, types.ModalityObject, types.ObjectPayload{
				Class:      track.Class,
				Confidence: track.Confidence,
				BBox:       frame.BBox,
				TrackID:    track.TrackID,
			})
		}
	}
}

func buildSpeechEntries(ua *types.UnifiedAnalysis) {
	r, ok := ua.MLResults[types.ModelSpeech]
	if !ok || !r.Success {
		return
	}
	data, ok := r.Data.(types.SpeechData)
	if !ok {
		return
	}
	for _, seg := range data.Segments {
		end := seg.End
		insert(ua, seg.Start, &end, types.ModalitySpeech, types.SpeechPayload{
			Text:       seg.Text,
			Language:   data.Language,
			Confidence: seg.Confidence,
			Words:      seg.Words,
		})
	}
}

func humanData(ua *types.UnifiedAnalysis) (types.HumanData, bool) {
	r, ok := ua.MLResults[types.ModelHuman]
	if !ok || !r.Success {
		return types.HumanData{}, false
	}
	d, ok := r.Data.(types.HumanData)
	return d, ok
}

func buildPoseEntries(ua *types.UnifiedAnalysis) {
	data, ok := humanData(ua)
	if !ok {
		return
	}
	for _, frame := range data.Frames {
		if frame.Pose == nil && frame.Face == nil {
			continue
		}
		payload := types.PosePayload{}
		if frame.Pose != nil {
			payload.Label = frame.Pose.Label
			payload.Confidence = frame.Pose.Confidence
		}
		if frame.Face != nil {
			payload.FacePresent = true
			payload.FaceBBox = frame.Face.BBox
			payload.GazeX = frame.Face.GazeX
			payload.GazeY = frame.Face.GazeY
		}
		insert(ua, frame.Time, nil, types.ModalityPose, payload)
	}
}

func buildExpressionEntries(ua *types.UnifiedAnalysis) {
	data, ok := humanData(ua)
	if !ok {
		return
	}
	for _, frame := range data.Frames {
		if frame.Face == nil || frame.Face.Emotion == "" {
			continue
		}
		insert(ua, frame.Time, nil, types.ModalityExpression, types.ExpressionPayload{
			Emotion:   frame.Face.Emotion,
			Valence:   frame.Face.Valence,
			Intensity: frame.Face.Intensity,
		})
	}
}

func buildGestureEntries(ua *types.UnifiedAnalysis) {
	data, ok := humanData(ua)
	if !ok {
		return
	}
	for _, frame := range data.Frames {
		if frame.Gesture == nil {
			continue
		}
		insert(ua, frame.Time, nil, types.ModalityGesture, types.GesturePayload{
			Label:      frame.Gesture.Label,
			Target:     frame.Gesture.Target,
			Confidence: frame.Gesture.Confidence,
		})
	}
}

func ocrData(ua *types.UnifiedAnalysis) (types.OCRData, bool) {
	r, ok := ua.MLResults[types.ModelOCR]
	if !ok || !r.Success {
		return types.OCRData{}, false
	}
	d, ok := r.Data.(types.OCRData)
	return d, ok
}

func buildTextOverlayEntries(ua *types.UnifiedAnalysis) {
	data, ok := ocrData(ua)
	if !ok {
		return
	}
	for _, frame := range data.Frames {
		for _, el := range frame.Texts {
			if el.Sticker {
				continue
			}
			sizeClass := normalizeSizeClass(el.SizeClass)
			if el.SizeClass == "" {
				sizeClass = SizeClassFromArea(el.BBox.Area())
			}
			insert(ua, frame.Time, nil, types.ModalityTextOverlay, types.TextOverlayPayload{
				Text:       el.Text,
				BBox:       el.BBox,
				SizeClass:  sizeClass,
				Position:   normalizePosition(el.Position, el.BBox),
				Category:   normalizeCategory(el.Category),
				Confidence: el.Confidence,
			})
		}
	}
}

func buildStickerEntries(ua *types.UnifiedAnalysis) {
	data, ok := ocrData(ua)
	if !ok {
		return
	}
	for _, frame := range data.Frames {
		for _, el := range frame.Texts {
			if !el.Sticker {
				continue
			}
			insert(ua, frame.Time, nil, types.ModalitySticker, types.StickerPayload{
				Kind: el.Text,
				BBox: el.BBox,
			})
		}
	}
}

func buildSceneEntries(ua *types.UnifiedAnalysis) {
	r, ok := ua.MLResults[types.ModelSceneDetection]
	if !ok || !r.Success {
		return
	}
	data, ok := r.Data.(types.SceneData)
	if !ok {
		return
	}
	for i, shot := range data.Shots {
		end := shot.EndTime
		insert(ua, shot.StartTime, &end, types.ModalitySceneChange, types.SceneChangePayload{
			Kind:   types.SceneCut,
			ShotID: i,
		})
	}
}
