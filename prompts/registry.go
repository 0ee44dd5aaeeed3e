// Package prompts manages the per-analysis prompt templates and builds the
// bounded context objects sent with them.
//
// The registry is keyed by analysis type; templates are versioned so the
// persisted results can be traced back to the prompt that produced them.
package prompts

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/tumilabs/rumiai/precompute"
)

// promptVersion tags every assembled prompt.
const promptVersion = "2.1"

// AssembledPrompt is a prompt ready for the LLM capability.
type AssembledPrompt struct {
	Analysis string `json:"analysis"`
	Version  string `json:"version"`
	Text     string `json:"text"`
}

// promptSpec describes one analysis prompt.
type promptSpec struct {
	goal  string
	focus string
}

var promptSpecs = map[string]promptSpec{
	precompute.AnalysisCreativeDensity: {
		goal:  "Analyze the creative element density of this short-form video",
		focus: "per-second element counts, pacing of visual additions, density peaks and dead zones, and structural patterns such as strong opening hooks or crescendos",
	},
	precompute.AnalysisEmotionalJourney: {
		goal:  "Analyze the emotional journey of this short-form video",
		focus: "the emotion sequence, valence trajectory, emotional peaks and their rhythm, transitions between emotional states, and alignment between emotion and gesture",
	},
	precompute.AnalysisPersonFraming: {
		goal:  "Analyze the person framing and subject presence of this short-form video",
		focus: "face and person screen time, shot-type distribution, framing volatility, subject absences, gaze steadiness, and how framing evolves over the video",
	},
	precompute.AnalysisScenePacing: {
		goal:  "Analyze the scene pacing and editing rhythm of this short-form video",
		focus: "shot counts and durations, cuts per minute, pacing classification, rhythm consistency, acceleration, cut-density zones, and montage segments",
	},
	precompute.AnalysisSpeech: {
		goal:  "Analyze the speech patterns of this short-form video",
		focus: "speech rate and coverage, pause structure, hook and call-to-action phrases, filler words, repetition, speech bursts, and gesture synchronization",
	},
	precompute.AnalysisVisualOverlay: {
		goal:  "Analyze the visual text overlay strategy of this short-form video",
		focus: "overlay frequency and rhythm, clutter, readability, text positioning and sizing, CTA reinforcement, semantic grouping, and text-speech alignment",
	},
	precompute.AnalysisMetadata: {
		goal:  "Analyze the metadata and packaging of this short-form video",
		focus: "caption style and length, hashtag strategy, engagement rate, publish timing, urgency signals, and the overall viral formula",
	},
}

var promptTemplate = template.Must(template.New("analysis").Parse(
	`{{.Goal}}.

Focus on {{.Focus}}.

You receive precomputed metrics, projected event timelines, and video metadata as JSON context.
Ground every claim in that data; do not invent events that are not present.

Respond with a single JSON object containing exactly these six blocks:
{{.Blocks}}

Each block must be a JSON object and must include a "confidence" number between 0 and 1.
Respond with JSON only, no surrounding prose.`))

// Registry resolves analysis types to assembled prompts.
type Registry struct {
	prompts map[string]AssembledPrompt
}

// NewRegistry builds the registry for all seven analyses.
func NewRegistry() (*Registry, error) {
	blocks := strings.Join([]string{
		"CoreMetrics", "Dynamics", "Interactions", "KeyEvents", "Patterns", "Quality",
	}, ", ")

	r := &Registry{prompts: make(map[string]AssembledPrompt, len(promptSpecs))}
	for analysis, spec := range promptSpecs {
		var b strings.Builder
		err := promptTemplate.Execute(&b, map[string]string{
			"Goal":   spec.goal,
			"Focus":  spec.focus,
			"Blocks": blocks,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to assemble prompt for %s: %w", analysis, err)
		}
		r.prompts[analysis] = AssembledPrompt{
			Analysis: analysis,
			Version:  promptVersion,
			Text:     b.String(),
		}
	}
	return r, nil
}

// Load returns the assembled prompt for an analysis type.
func (r *Registry) Load(analysis string) (AssembledPrompt, error) {
	p, ok := r.prompts[analysis]
	if !ok {
		return AssembledPrompt{}, fmt.Errorf("unknown analysis type: %s", analysis)
	}
	return p, nil
}
