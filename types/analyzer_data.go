package types

// Typed Data carried by MLAnalysisResult for each analyzer, produced by the
// adapters and consumed by the timeline builders. All times are seconds on
// the canonical axis (frame indices already converted via the original FPS).

// TrackFrame is one observation of a tracked object.
type TrackFrame struct {
	FrameIndex int     `json:"frame_index,omitempty"`
	Time       float64 `json:"time"`
	BBox       *BBox   `json:"bbox,omitempty"`
}

// Track is one object track across frames.
type Track struct {
	Class      string       `json:"class"`
	Confidence float64      `json:"confidence"`
	TrackID    string       `json:"track_id,omitempty"`
	Frames     []TrackFrame `json:"frames"`
}

// ObjectData is the normalized object-tracker output.
type ObjectData struct {
	Tracks []Track `json:"tracks"`
}

// SpeechSegment is one transcript segment.
type SpeechSegment struct {
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Words      []Word  `json:"words,omitempty"`
}

// SpeechData is the normalized transcription output.
type SpeechData struct {
	Language string          `json:"language,omitempty"`
	Segments []SpeechSegment `json:"segments"`
}

// FaceObs is a per-frame face observation.
type FaceObs struct {
	BBox      *BBox   `json:"bbox,omitempty"`
	Emotion   string  `json:"emotion,omitempty"`
	Valence   float64 `json:"valence"`
	Intensity float64 `json:"intensity"`
	GazeX     float64 `json:"gaze_x,omitempty"`
	GazeY     float64 `json:"gaze_y,omitempty"`
}

// PoseObs is a per-frame body-pose observation.
type PoseObs struct {
	Label      string  `json:"label,omitempty"`
	Confidence float64 `json:"confidence"`
}

// GestureObs is a per-frame gesture observation.
type GestureObs struct {
	Label      string  `json:"label"`
	Target     string  `json:"target,omitempty"`
	Confidence float64 `json:"confidence"`
}

// HumanFrame is one frame of the human analyzer output.
type HumanFrame struct {
	Time    float64     `json:"time"`
	Face    *FaceObs    `json:"face,omitempty"`
	Pose    *PoseObs    `json:"pose,omitempty"`
	Gesture *GestureObs `json:"gesture,omitempty"`
}

// HumanData is the normalized human-analyzer output.
type HumanData struct {
	Frames []HumanFrame `json:"frames"`
}

// TextElement is one on-screen text detection.
type TextElement struct {
	Text       string  `json:"text"`
	BBox       BBox    `json:"bbox"`
	SizeClass  string  `json:"size_class,omitempty"`
	Position   string  `json:"position,omitempty"`
	Category   string  `json:"category,omitempty"`
	Confidence float64 `json:"confidence"`
	Sticker    bool    `json:"sticker,omitempty"`
}

// OCRFrame is one frame of OCR output.
type OCRFrame struct {
	Time  float64       `json:"time"`
	Texts []TextElement `json:"texts"`
}

// OCRData is the normalized OCR output.
type OCRData struct {
	Frames []OCRFrame `json:"frames"`
}

// Shot is one detected shot with frame and second bounds.
type Shot struct {
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	StartFrame int     `json:"start_frame,omitempty"`
	EndFrame   int     `json:"end_frame,omitempty"`
}

// SceneData is the normalized scene-detector output.
type SceneData struct {
	Shots []Shot `json:"shots"`
}
