// Package lexicons holds the fixed phrase lists used to classify speech and
// on-screen text. The lists are fixed but extensible; matching is
// case-insensitive substring search.
package lexicons

import "strings"

// CTA phrases that mark a call to action.
var CTA = []string{
	"follow", "like", "comment", "share", "subscribe", "tap", "click",
	"swipe", "hit the", "don't forget to", "make sure to", "check out",
	"link in bio", "dm me", "tag",
}

// Hook phrases that mark an attention hook in the opening seconds.
var Hook = []string{
	"wait for it", "watch this", "you won't believe", "check this out",
	"stay tuned", "here's what happened", "this is crazy", "no way",
}

// Filler words counted for the filler-word ratio.
var Filler = []string{
	"um", "uh", "like", "you know", "basically", "literally", "so",
}

// Urgency phrase tiers.
var (
	UrgencyHigh   = []string{"now", "today", "last chance", "ends soon"}
	UrgencyMedium = []string{"limited", "don't miss", "hurry"}
	UrgencyLow    = []string{"soon", "coming"}
)

// Text-semantic group lexicons for overlay classification.
var (
	ProductMentions = []string{"buy", "shop", "product", "order", "get yours", "price", "sale", "discount"}
	UrgencyPhrases  = []string{"now", "today", "last chance", "ends soon", "limited", "hurry", "don't miss"}
	SocialProof     = []string{"viral", "trending", "everyone", "5 star", "reviews", "sold out", "best seller"}
)

// MatchAny reports whether any phrase in the lexicon occurs in s.
func MatchAny(s string, lexicon []string) bool {
	lower := strings.ToLower(s)
	for _, phrase := range lexicon {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// Matches returns the lexicon phrases occurring in s.
func Matches(s string, lexicon []string) []string {
	lower := strings.ToLower(s)
	var out []string
	for _, phrase := range lexicon {
		if strings.Contains(lower, phrase) {
			out = append(out, phrase)
		}
	}
	return out
}

// UrgencyLevel classifies s as "high", "medium", "low", or "none".
func UrgencyLevel(s string) string {
	switch {
	case MatchAny(s, UrgencyHigh):
		return "high"
	case MatchAny(s, UrgencyMedium):
		return "medium"
	case MatchAny(s, UrgencyLow):
		return "low"
	default:
		return "none"
	}
}
