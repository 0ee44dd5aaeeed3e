package adapters

import (
	"github.com/tumilabs/rumiai/timestamp"
	"github.com/tumilabs/rumiai/types"
)

// AdaptHuman normalizes the human analyzer's per-frame records carrying
// face, pose, gesture, and expression fields. Both "frames" and "records"
// top keys are accepted. Frames without a parseable time are dropped;
// frame_index is the fallback under the original FPS.
func AdaptHuman(raw []byte, originalFPS float64) types.MLAnalysisResult {
	m, ok := unmarshalObject(raw)
	if !ok {
		return inputShapeFailure(types.ModelHuman, "not a JSON object")
	}

	frames, ok := firstSlice(m, "frames", "records")
	if !ok {
		return inputShapeFailure(types.ModelHuman, "no frames key")
	}

	data := types.HumanData{Frames: make([]types.HumanFrame, 0, len(frames))}
	for _, rawFrame := range frames {
		fm, ok := asMap(rawFrame)
		if !ok {
			continue
		}

		frame := types.HumanFrame{}
		if ts, ok := timestamp.Parse(fm["timestamp"]); ok {
			frame.Time = ts.Seconds()
		} else if ts, ok := timestamp.Parse(fm["time"]); ok {
			frame.Time = ts.Seconds()
		} else if idx, ok := getInt(fm, "frame_index", "frame"); ok {
			frame.Time = timestamp.FrameToSeconds(idx, originalFPS)
		} else {
			dropUnparseable(types.ModelHuman, fm["timestamp"])
			continue
		}

		if faceRaw, ok := asMap(fm["face"]); ok {
			face := &types.FaceObs{Emotion: getString(faceRaw, "emotion", "expression")}
			face.Valence, _ = getFloat(faceRaw, "valence")
			face.Intensity, _ = getFloat(faceRaw, "intensity")
			face.GazeX, _ = getFloat(faceRaw, "gaze_x", "gazeX")
			face.GazeY, _ = getFloat(faceRaw, "gaze_y", "gazeY")
			if bbox, ok := getBBox(faceRaw["bbox"]); ok {
				face.BBox = bbox
			}
			frame.Face = face
		}

		if poseRaw, ok := asMap(fm["pose"]); ok {
			pose := &types.PoseObs{Label: getString(poseRaw, "label", "pose")}
			pose.Confidence, _ = getFloat(poseRaw, "confidence")
			frame.Pose = pose
		}

		if gestureRaw, ok := asMap(fm["gesture"]); ok {
			if label := getString(gestureRaw, "label", "gesture"); label != "" {
				gesture := &types.GestureObs{
					Label:  label,
					Target: getString(gestureRaw, "target"),
				}
				gesture.Confidence, _ = getFloat(gestureRaw, "confidence")
				frame.Gesture = gesture
			}
		}

		data.Frames = append(data.Frames, frame)
	}

	return types.MLAnalysisResult{
		ModelName:    types.ModelHuman,
		ModelVersion: getString(m, "model_version", "modelVersion"),
		Success:      true,
		Data:         data,
	}
}
