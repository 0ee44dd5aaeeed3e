// Package types defines the shared data model of the fusion engine: video
// metadata, the unified timeline and its modality payloads, analyzer results,
// temporal markers, and per-analysis feature bundles.
package types

import (
	"errors"
	"time"
)

// ErrZeroDuration marks a video whose metadata reports no playable duration.
// It is one of the few unrecoverable conditions in the pipeline.
var ErrZeroDuration = errors.New("video duration must be positive")

// Stats holds the engagement counters scraped with the video.
type Stats struct {
	Views    int64 `json:"views"`
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
	Shares   int64 `json:"shares"`
	Saves    int64 `json:"saves"`
}

// VideoMetadata describes the ingested video. DurationSeconds must be
// positive; OriginalFPS must be positive when present (zero means unknown).
type VideoMetadata struct {
	VideoID         string    `json:"video_id"`
	URL             string    `json:"url,omitempty"`
	DurationSeconds float64   `json:"duration_seconds"`
	OriginalFPS     float64   `json:"original_fps,omitempty"`
	FrameCount      int       `json:"frame_count,omitempty"`
	Width           int       `json:"width,omitempty"`
	Height          int       `json:"height,omitempty"`
	Description     string    `json:"description,omitempty"`
	Author          string    `json:"author,omitempty"`
	Stats           Stats     `json:"stats"`
	CreatedAt       time.Time `json:"created_at"`
}

// Validate checks the metadata invariants.
func (m VideoMetadata) Validate() error {
	if m.DurationSeconds <= 0 {
		return ErrZeroDuration
	}
	if m.OriginalFPS < 0 {
		return errors.New("original fps must not be negative")
	}
	return nil
}
