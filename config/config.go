// Package config provides the explicit Settings value threaded through the
// pipeline. Settings are populated from the environment and may be overridden
// by an optional rumiai.yaml file; there is no process-wide mutable
// configuration state.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Output format versions accepted by OUTPUT_FORMAT_VERSION.
const (
	FormatV1 = "v1"
	FormatV2 = "v2"
)

// Defaults for settings not present in the environment.
const (
	DefaultPromptDelay      = 5 * time.Second
	DefaultAnalysisTimeout  = 60 * time.Second
	DefaultMaxVideoDuration = 180.0
	DefaultOutputDir        = "."
)

// Weights holds the calibrated scoring constants referenced by the metadata
// and visual-overlay extractors. The exact values are calibration choices,
// not derived quantities, so they stay configurable.
type Weights struct {
	ViralEngagement float64
	ViralHook       float64
	ViralHashtag    float64

	ReadabilityArea     float64
	ReadabilityPosition float64
	ReadabilityContrast float64
}

// DefaultWeights returns the calibrated default scoring weights.
func DefaultWeights() Weights {
	return Weights{
		ViralEngagement:     0.5,
		ViralHook:           0.3,
		ViralHashtag:        0.2,
		ReadabilityArea:     0.4,
		ReadabilityPosition: 0.35,
		ReadabilityContrast: 0.25,
	}
}

// Settings carries every knob the pipeline consumes. It is built once at
// startup and passed by value; components never read the environment directly.
type Settings struct {
	ClaudeAPIKey  string
	ApifyAPIToken string

	UseMLPrecompute bool
	UseClaudeSonnet bool
	OutputFormat    string

	PromptDelay      time.Duration
	AnalysisTimeout  time.Duration
	MaxVideoDuration float64

	// StrictMode elevates InputShape and SchemaViolation to fatal.
	StrictMode bool

	// OutputDir is the root under which unified_analysis/, temporal_markers/
	// and insights/ are written.
	OutputDir string

	Weights Weights
}

// FromEnv builds Settings from the process environment, applying defaults
// for anything unset.
func FromEnv() Settings {
	s := Settings{
		ClaudeAPIKey:     os.Getenv("CLAUDE_API_KEY"),
		ApifyAPIToken:    os.Getenv("APIFY_API_TOKEN"),
		UseMLPrecompute:  envBool("USE_ML_PRECOMPUTE", true),
		UseClaudeSonnet:  envBool("USE_CLAUDE_SONNET", false),
		OutputFormat:     os.Getenv("OUTPUT_FORMAT_VERSION"),
		PromptDelay:      envSeconds("PROMPT_DELAY", DefaultPromptDelay),
		AnalysisTimeout:  DefaultAnalysisTimeout,
		MaxVideoDuration: envFloat("MAX_VIDEO_DURATION", DefaultMaxVideoDuration),
		StrictMode:       envBool("RUMIAI_STRICT_MODE", false),
		OutputDir:        DefaultOutputDir,
		Weights:          DefaultWeights(),
	}
	if s.ClaudeAPIKey == "" {
		s.ClaudeAPIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if s.OutputFormat == "" {
		s.OutputFormat = FormatV2
	}
	return s
}

// fileOverrides mirrors Settings for the YAML override file. Durations are
// expressed in seconds; nil means "leave the environment value alone".
type fileOverrides struct {
	UseMLPrecompute  *bool    `yaml:"use_ml_precompute"`
	UseClaudeSonnet  *bool    `yaml:"use_claude_sonnet"`
	OutputFormat     *string  `yaml:"output_format_version"`
	PromptDelay      *float64 `yaml:"prompt_delay"`
	AnalysisTimeout  *float64 `yaml:"analysis_timeout"`
	MaxVideoDuration *float64 `yaml:"max_video_duration"`
	StrictMode       *bool    `yaml:"strict_mode"`
	OutputDir        *string  `yaml:"output_dir"`
	Weights          *struct {
		ViralEngagement     *float64 `yaml:"viral_engagement"`
		ViralHook           *float64 `yaml:"viral_hook"`
		ViralHashtag        *float64 `yaml:"viral_hashtag"`
		ReadabilityArea     *float64 `yaml:"readability_area"`
		ReadabilityPosition *float64 `yaml:"readability_position"`
		ReadabilityContrast *float64 `yaml:"readability_contrast"`
	} `yaml:"weights"`
}

// LoadOverrides applies overrides from a YAML file on top of s. A missing
// file is not an error; a malformed file is.
func (s *Settings) LoadOverrides(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var o fileOverrides
	if err := yaml.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if o.UseMLPrecompute != nil {
		s.UseMLPrecompute = *o.UseMLPrecompute
	}
	if o.UseClaudeSonnet != nil {
		s.UseClaudeSonnet = *o.UseClaudeSonnet
	}
	if o.OutputFormat != nil {
		s.OutputFormat = *o.OutputFormat
	}
	if o.PromptDelay != nil {
		s.PromptDelay = time.Duration(*o.PromptDelay * float64(time.Second))
	}
	if o.AnalysisTimeout != nil {
		s.AnalysisTimeout = time.Duration(*o.AnalysisTimeout * float64(time.Second))
	}
	if o.MaxVideoDuration != nil {
		s.MaxVideoDuration = *o.MaxVideoDuration
	}
	if o.StrictMode != nil {
		s.StrictMode = *o.StrictMode
	}
	if o.OutputDir != nil {
		s.OutputDir = *o.OutputDir
	}
	if o.Weights != nil {
		applyWeight(o.Weights.ViralEngagement, &s.Weights.ViralEngagement)
		applyWeight(o.Weights.ViralHook, &s.Weights.ViralHook)
		applyWeight(o.Weights.ViralHashtag, &s.Weights.ViralHashtag)
		applyWeight(o.Weights.ReadabilityArea, &s.Weights.ReadabilityArea)
		applyWeight(o.Weights.ReadabilityPosition, &s.Weights.ReadabilityPosition)
		applyWeight(o.Weights.ReadabilityContrast, &s.Weights.ReadabilityContrast)
	}
	return nil
}

func applyWeight(src *float64, dst *float64) {
	if src != nil {
		*dst = *src
	}
}

// Validate checks for conditions the pipeline cannot run under.
func (s Settings) Validate() error {
	if s.OutputFormat != FormatV1 && s.OutputFormat != FormatV2 {
		return fmt.Errorf("invalid OUTPUT_FORMAT_VERSION %q: want %s or %s", s.OutputFormat, FormatV1, FormatV2)
	}
	if s.PromptDelay < 0 {
		return fmt.Errorf("invalid PROMPT_DELAY: must be non-negative, got %v", s.PromptDelay)
	}
	if s.MaxVideoDuration <= 0 {
		return fmt.Errorf("invalid MAX_VIDEO_DURATION: must be positive, got %v", s.MaxVideoDuration)
	}
	return nil
}

// ClaudeModel returns the Claude model id selected by UseClaudeSonnet.
func (s Settings) ClaudeModel() string {
	if s.UseClaudeSonnet {
		return "claude-3-5-sonnet-20241022"
	}
	return "claude-3-5-haiku-20241022"
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envSeconds(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f < 0 {
		return fallback
	}
	return time.Duration(f * float64(time.Second))
}
