package adapters

import (
	"fmt"

	"github.com/tumilabs/rumiai/timestamp"
	"github.com/tumilabs/rumiai/types"
)

// AdaptObjectTracker normalizes object tracker output. The tracker has
// shipped its annotation list under objectAnnotations, detections, and
// results; all three are accepted. Frame times prefer an explicit timestamp
// field and fall back to frame_index converted under the original FPS.
func AdaptObjectTracker(raw []byte, originalFPS float64) types.MLAnalysisResult {
	m, ok := unmarshalObject(raw)
	if !ok {
		return inputShapeFailure(types.ModelObjectTracking, "not a JSON object")
	}

	annotations, ok := firstSlice(m, "objectAnnotations", "detections", "results")
	if !ok {
		return inputShapeFailure(types.ModelObjectTracking, "no objectAnnotations/detections/results key")
	}

	data := types.ObjectData{Tracks: make([]types.Track, 0, len(annotations))}
	for _, rawTrack := range annotations {
		tm, ok := asMap(rawTrack)
		if !ok {
			continue
		}

		track := types.Track{
			Class:   getString(tm, "class", "entity", "label"),
			TrackID: getString(tm, "track_id", "trackId", "id"),
		}
		if track.Class == "" {
			continue
		}
		track.Confidence, _ = getFloat(tm, "confidence", "score")

		frames, _ := firstSlice(tm, "frames", "timestampedObjects")
		for _, rawFrame := range frames {
			fm, ok := asMap(rawFrame)
			if !ok {
				continue
			}

			frame := types.TrackFrame{}
			frame.FrameIndex, _ = getInt(fm, "frame_index", "frame")

			if ts, ok := timestamp.Parse(fm["timestamp"]); ok {
				frame.Time = ts.Seconds()
			} else {
				frame.Time = timestamp.FrameToSeconds(frame.FrameIndex, originalFPS)
			}

			if bbox, ok := getBBox(fm["bbox"]); ok {
				frame.BBox = bbox
			} else if bbox, ok := getBBox(fm["normalizedBoundingBox"]); ok {
				frame.BBox = bbox
			}

			track.Frames = append(track.Frames, frame)
		}

		data.Tracks = append(data.Tracks, track)
	}

	return types.MLAnalysisResult{
		ModelName:    types.ModelObjectTracking,
		ModelVersion: getString(m, "model_version", "modelVersion"),
		Success:      true,
		Data:         data,
	}
}

// AdaptScene normalizes scene detector output: {shots: [{start_time,
// end_time, start_frame, end_frame}]}, with scenes accepted as an alias.
func AdaptScene(raw []byte, originalFPS float64) types.MLAnalysisResult {
	m, ok := unmarshalObject(raw)
	if !ok {
		return inputShapeFailure(types.ModelSceneDetection, "not a JSON object")
	}

	shots, ok := firstSlice(m, "shots", "scenes")
	if !ok {
		return inputShapeFailure(types.ModelSceneDetection, "no shots key")
	}

	data := types.SceneData{Shots: make([]types.Shot, 0, len(shots))}
	for _, rawShot := range shots {
		sm, ok := asMap(rawShot)
		if !ok {
			continue
		}

		shot := types.Shot{}
		shot.StartFrame, _ = getInt(sm, "start_frame", "startFrame")
		shot.EndFrame, _ = getInt(sm, "end_frame", "endFrame")

		if ts, ok := timestamp.Parse(sm["start_time"]); ok {
			shot.StartTime = ts.Seconds()
		} else if ts, ok := timestamp.Parse(sm["startTime"]); ok {
			shot.StartTime = ts.Seconds()
		} else {
			shot.StartTime = timestamp.FrameToSeconds(shot.StartFrame, originalFPS)
		}

		if ts, ok := timestamp.Parse(sm["end_time"]); ok {
			shot.EndTime = ts.Seconds()
		} else if ts, ok := timestamp.Parse(sm["endTime"]); ok {
			shot.EndTime = ts.Seconds()
		} else {
			shot.EndTime = timestamp.FrameToSeconds(shot.EndFrame, originalFPS)
		}

		if shot.EndTime < shot.StartTime {
			return inputShapeFailure(types.ModelSceneDetection,
				fmt.Sprintf("shot with end_time %v before start_time %v", shot.EndTime, shot.StartTime))
		}

		data.Shots = append(data.Shots, shot)
	}

	return types.MLAnalysisResult{
		ModelName:    types.ModelSceneDetection,
		ModelVersion: getString(m, "model_version", "modelVersion"),
		Success:      true,
		Data:         data,
	}
}
