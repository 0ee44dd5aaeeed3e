package precompute

import (
	"strings"

	"github.com/tumilabs/rumiai/config"
	"github.com/tumilabs/rumiai/lexicons"
	"github.com/tumilabs/rumiai/types"
)

// Hashtag strategy thresholds.
const (
	hashtagMinimalMax  = 2
	hashtagModerateMax = 7
	hashtagHeavyMax    = 15
)

// computeMetadataAnalysis derives caption, hashtag, engagement, and publish
// timing features plus the configurable viral-potential score.
func computeMetadataAnalysis(ua *types.UnifiedAnalysis, w config.Weights) types.FeatureBundle {
	meta := ua.Metadata
	caption := meta.Description

	hashtags := extractTagged(caption, '#')
	mentions := extractTagged(caption, '@')
	emojiCount := countEmoji(caption)
	words := strings.Fields(caption)

	engagement := engagementRate(meta.Stats)
	hookStrength := hookStrength(ua)
	hashtagRelevance := hashtagRelevance(hashtags, caption)

	viralScore := w.ViralEngagement*clamp01(engagement*10) +
		w.ViralHook*hookStrength +
		w.ViralHashtag*hashtagRelevance

	bundle := types.FeatureBundle{
		"caption_length":        len(caption),
		"caption_word_count":    len(words),
		"hashtag_count":         len(hashtags),
		"hashtags":              hashtags,
		"mention_count":         len(mentions),
		"mentions":              mentions,
		"emoji_count":           emojiCount,
		"engagement_rate":       round3(engagement),
		"publish_hour":          meta.CreatedAt.Hour(),
		"publish_day_of_week":   meta.CreatedAt.Weekday().String(),
		"hashtag_strategy":      hashtagStrategy(len(hashtags)),
		"caption_style":         captionStyle(caption),
		"urgency_level":         lexicons.UrgencyLevel(caption),
		"viral_formula":         viralFormula(caption, ua),
		"viral_potential_score": round3(clamp01(viralScore)),
		"confidence":            clamp01(ua.DataCompleteness()),
		"data_completeness":     round3(ua.DataCompleteness()),
	}
	return bundle
}

func engagementRate(s types.Stats) float64 {
	if s.Views == 0 {
		return 0
	}
	return float64(s.Likes+s.Comments+s.Shares+s.Saves) / float64(s.Views)
}

func extractTagged(caption string, marker byte) []string {
	out := []string{}
	for _, field := range strings.Fields(caption) {
		if len(field) > 1 && field[0] == marker {
			out = append(out, strings.TrimRight(field, ".,!?"))
		}
	}
	return out
}

func countEmoji(s string) int {
	count := 0
	for _, r := range s {
		if (r >= 0x1F300 && r <= 0x1FAFF) || (r >= 0x2600 && r <= 0x27BF) {
			count++
		}
	}
	return count
}

func hashtagStrategy(count int) string {
	switch {
	case count <= hashtagMinimalMax:
		return "minimal"
	case count <= hashtagModerateMax:
		return "moderate"
	case count <= hashtagHeavyMax:
		return "heavy"
	default:
		return "spam"
	}
}

// captionStyle classifies a caption by sentence count and punctuation.
func captionStyle(caption string) string {
	trimmed := strings.TrimSpace(caption)
	if trimmed == "" || len(strings.Fields(trimmed)) <= 3 {
		return "minimal"
	}

	sentences := 0
	for _, r := range trimmed {
		if r == '.' || r == '!' || r == '?' {
			sentences++
		}
	}

	switch {
	case strings.Contains(trimmed, "?"):
		return "question"
	case strings.Count(trimmed, "\n") >= 2 || strings.Contains(trimmed, "1.") || strings.Contains(trimmed, "2."):
		return "list"
	case sentences >= 3:
		return "storytelling"
	default:
		return "direct"
	}
}

// hookStrength blends a lexicon hook in the caption with the opening
// density of the timeline.
func hookStrength(ua *types.UnifiedAnalysis) float64 {
	score := 0.0
	if lexicons.MatchAny(ua.Metadata.Description, lexicons.Hook) {
		score += 0.5
	}

	opening := ua.Timeline.Range(0, 3)
	if len(opening) >= 4 {
		score += 0.5
	} else if len(opening) > 0 {
		score += 0.25
	}
	return clamp01(score)
}

// hashtagRelevance is the fraction of hashtags whose stem also occurs in
// the caption body.
func hashtagRelevance(hashtags []string, caption string) float64 {
	if len(hashtags) == 0 {
		return 0
	}
	body := strings.ToLower(caption)
	relevant := 0
	for _, h := range hashtags {
		stem := strings.ToLower(strings.TrimPrefix(h, "#"))
		if len(stem) >= 3 && strings.Count(body, stem) > 1 {
			relevant++
		}
	}
	return float64(relevant) / float64(len(hashtags))
}

// viralFormula classifies the video's overall shape from the caption alone:
// hook lexicon, tutorial/challenge/reaction keywords, then caption style.
// The timeline is not consulted; ua is unused.
func viralFormula(caption string, ua *types.UnifiedAnalysis) string {
	lower := strings.ToLower(caption)

	switch {
	case lexicons.MatchAny(lower, lexicons.Hook):
		return "hook_payoff"
	case strings.Contains(lower, "how to") || strings.Contains(lower, "tutorial") || strings.Contains(lower, "step"):
		return "tutorial"
	case strings.Contains(lower, "challenge"):
		return "challenge"
	case strings.Contains(lower, "reaction") || strings.Contains(lower, "react"):
		return "reaction"
	case captionStyle(caption) == "storytelling":
		return "story_arc"
	default:
		return "other"
	}
}
