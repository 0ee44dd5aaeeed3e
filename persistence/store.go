// Package persistence provides the atomic JSON store for unified analyses,
// temporal marker snapshots, and per-analysis LLM results.
//
// All writes serialize to a sibling temporary file in the destination
// directory, fsync it, and rename it over the destination. Concurrent
// writers to the same destination are not supported; the orchestrator
// serializes callers.
package persistence

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tumilabs/rumiai/providers"
	"github.com/tumilabs/rumiai/types"
)

// On-disk layout directories under the store root.
const (
	unifiedAnalysisDir = "unified_analysis"
	temporalMarkersDir = "temporal_markers"
	insightsDir        = "insights"
	analyzerOutputsDir = "analyzer_outputs"
)

// InsightResult is the persisted record of one LLM analysis.
type InsightResult struct {
	Success       bool                      `json:"success"`
	BlocksPresent []string                  `json:"blocks_present"`
	BlocksMissing []string                  `json:"blocks_missing"`
	Data          map[string]map[string]any `json:"data"`
	Usage         *providers.Usage          `json:"usage,omitempty"`
	Error         string                    `json:"error,omitempty"`
	PromptVersion string                    `json:"prompt_version,omitempty"`
	// MarkersIncluded records the rollout decision: whether temporal
	// markers were part of the prompt context, and why not if absent.
	MarkersIncluded bool   `json:"markers_included"`
	MarkersReason   string `json:"markers_reason,omitempty"`
}

// Store writes pipeline artifacts beneath a root directory.
type Store struct {
	root string
}

// NewStore creates a store rooted at dir.
func NewStore(dir string) *Store {
	return &Store{root: dir}
}

// UnifiedAnalysisPath returns the destination for a unified analysis.
func (s *Store) UnifiedAnalysisPath(videoID string) string {
	return filepath.Join(s.root, unifiedAnalysisDir, videoID+".json")
}

// InsightPath returns the destination for one analysis result.
func (s *Store) InsightPath(videoID, analysis string) string {
	return filepath.Join(s.root, insightsDir, videoID, analysis, analysis+"_result.json")
}

// WriteUnifiedAnalysis persists the full unified analysis.
func (s *Store) WriteUnifiedAnalysis(ua *types.UnifiedAnalysis) error {
	return s.writeJSON(s.UnifiedAnalysisPath(ua.VideoID), ua)
}

// WriteTemporalMarkers persists a timestamped marker snapshot and returns
// its path.
func (s *Store) WriteTemporalMarkers(tm *types.TemporalMarkers) (string, error) {
	name := fmt.Sprintf("%s_%s.json", tm.Metadata.VideoID, tm.Metadata.GeneratedAt.UTC().Format("20060102T150405"))
	path := filepath.Join(s.root, temporalMarkersDir, name)
	return path, s.writeJSON(path, tm)
}

// WriteInsight persists one analysis result.
func (s *Store) WriteInsight(videoID, analysis string, result *InsightResult) error {
	return s.writeJSON(s.InsightPath(videoID, analysis), result)
}

// ReadInsight loads a persisted analysis result.
func (s *Store) ReadInsight(videoID, analysis string) (*InsightResult, error) {
	data, err := os.ReadFile(s.InsightPath(videoID, analysis))
	if err != nil {
		return nil, err
	}
	var result InsightResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to parse insight result: %w", err)
	}
	return &result, nil
}

// writeJSON performs the atomic write: temp file in the destination
// directory, fsync, rename.
func (s *Store) writeJSON(path string, v any) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("failed to fsync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to rename %s over %s: %w", tmpName, path, err)
	}
	return nil
}

// AnalyzerOutputPath returns the legacy-mode location of one analyzer's raw
// output: analyzer_outputs/<video_id>/<model>.json.
func (s *Store) AnalyzerOutputPath(videoID, model string) string {
	return filepath.Join(s.root, analyzerOutputsDir, videoID, model+".json")
}

// ReadAnalyzerOutput loads one analyzer's raw bytes for legacy mode.
// A missing file returns os.ErrNotExist for the caller to treat as a
// missing modality.
func (s *Store) ReadAnalyzerOutput(videoID, model string) ([]byte, error) {
	return os.ReadFile(s.AnalyzerOutputPath(videoID, model))
}

// ReadVideoMetadata loads legacy-mode video metadata from
// analyzer_outputs/<video_id>/metadata.json.
func (s *Store) ReadVideoMetadata(videoID string) (types.VideoMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.root, analyzerOutputsDir, videoID, "metadata.json"))
	if err != nil {
		return types.VideoMetadata{}, err
	}
	var meta types.VideoMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return types.VideoMetadata{}, fmt.Errorf("failed to parse video metadata: %w", err)
	}
	return meta, nil
}
