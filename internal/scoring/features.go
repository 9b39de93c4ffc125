// Package scoring implements the social-text heuristic scorer and its
// online-learning feedback loop (§4.4). The heuristic catalog is expressed
// as data, not control flow, so the learning loop can rewrite weights and
// new features can be registered without touching the scorer itself.
package scoring

import (
	"strings"
	"unicode"

	"github.com/quakewatch/quakewatch/internal/models"
)

// Context carries everything a feature predicate needs to evaluate a single
// piece of candidate social text.
type Context struct {
	Text             string
	Coords           models.Coords
	RelevantKeywords []string
	KnownHandles     []string
	SpamWords        []string
	GeolocatedLang   string
	DetectedLang     string
	LangKnown        bool
}

// Feature is one entry of the heuristic catalog: a name, a weight, and a
// predicate that decides whether the weight applies to a given text.
type Feature struct {
	Name        string
	Weight      float64
	Description string
	Predicate   func(Context) bool
}

func contains(s, sub string) bool { return strings.Contains(strings.ToLower(s), sub) }

func letterRatio(s string) float64 {
	if s == "" {
		return 0
	}
	letters := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return float64(letters) / float64(len([]rune(s)))
}

func upperRatio(s string) float64 {
	letters, upper := 0, 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(upper) / float64(letters)
}

func hashtagCount(s string) int {
	return strings.Count(s, "#")
}

// bz2DensityEstimate approximates "bytes after bz2 compression" with a
// cheap proxy: raw byte length discounted by a fixed compressibility
// factor for natural-language text. Exact bz2 output is not required by
// the feature, only a monotone proxy for "how much text is really here".
func bz2DensityEstimate(s string) float64 {
	return float64(len(s)) * 0.62
}

// DefaultCatalog is the ~25-feature table driving SocialTextScorer. Weights
// are the starting point for online learning; Learner.Adjust mutates a
// scorer's private copy, never this shared default slice.
var DefaultCatalog = []Feature{
	{
		Name: "density_very_brief", Weight: 0.16,
		Description: "compressed length under 75 bytes reads as a brief, urgent report",
		Predicate:   func(c Context) bool { return bz2DensityEstimate(c.Text) < 75 },
	},
	{
		Name: "density_brief", Weight: 0.08,
		Description: "compressed length under 90 bytes",
		Predicate:   func(c Context) bool { return bz2DensityEstimate(c.Text) < 90 },
	},
	{
		Name: "density_long", Weight: -0.08,
		Description: "compressed length over 100 bytes reads as elaboration, not a flash report",
		Predicate:   func(c Context) bool { return bz2DensityEstimate(c.Text) > 100 },
	},
	{
		Name: "question_mark", Weight: -0.05,
		Predicate: func(c Context) bool { return strings.Contains(c.Text, "?") },
	},
	{
		Name: "double_question_mark", Weight: 0.08,
		Predicate: func(c Context) bool { return strings.Contains(c.Text, "??") },
	},
	{
		Name: "exclamation_mark", Weight: 0.05,
		Predicate: func(c Context) bool { return strings.Contains(c.Text, "!") },
	},
	{
		Name: "double_exclamation_mark", Weight: 0.03,
		Predicate: func(c Context) bool { return strings.Contains(c.Text, "!!") },
	},
	{
		Name: "ellipsis", Weight: -0.02,
		Predicate: func(c Context) bool { return strings.Contains(c.Text, "...") || strings.Contains(c.Text, "…") },
	},
	{
		Name: "mentions", Weight: -0.10,
		Predicate: func(c Context) bool { return strings.Contains(c.Text, "@") },
	},
	{
		Name: "multiple_hashtags", Weight: 0.03,
		Predicate: func(c Context) bool { return hashtagCount(c.Text) > 1 },
	},
	{
		Name: "relevant_hashtag", Weight: 0.05,
		Predicate: func(c Context) bool {
			for _, k := range c.RelevantKeywords {
				if contains(c.Text, "#"+strings.ToLower(k)) {
					return true
				}
			}
			return false
		},
	},
	{
		Name: "known_alerter_handle", Weight: -0.05,
		Predicate: func(c Context) bool {
			for _, h := range c.KnownHandles {
				if contains(c.Text, strings.ToLower(h)) {
					return true
				}
			}
			return false
		},
	},
	{
		Name: "ends_in_period", Weight: -0.04,
		Predicate: func(c Context) bool { return strings.HasSuffix(strings.TrimSpace(c.Text), ".") },
	},
	{
		Name: "low_letter_ratio", Weight: -0.10,
		Predicate: func(c Context) bool { return letterRatio(c.Text) < 0.40 },
	},
	{
		Name: "mostly_uppercase", Weight: 0.25,
		Predicate: func(c Context) bool { return upperRatio(c.Text) > 0.80 },
	},
	{
		Name: "no_spaces", Weight: 0.10,
		Predicate: func(c Context) bool {
			return !strings.Contains(strings.TrimSpace(c.Text), " ") && c.Text != ""
		},
	},
	{
		Name: "contains_digits", Weight: -0.03,
		Predicate: func(c Context) bool {
			for _, r := range c.Text {
				if unicode.IsDigit(r) {
					return true
				}
			}
			return false
		},
	},
	{
		Name: "worry_emoji", Weight: 0.13,
		Predicate: func(c Context) bool { return containsAny(c.Text, worryEmoji) },
	},
	{
		Name: "shindo_mention", Weight: 0.20,
		Predicate: func(c Context) bool {
			return contains(c.Text, "震度") && !contains(c.Text, "震度0") && !contains(c.Text, "震度1")
		},
	},
	{
		Name: "shindo_zero_or_one", Weight: -0.20,
		Predicate: func(c Context) bool {
			return contains(c.Text, "震度0") || contains(c.Text, "震度1")
		},
	},
	{
		Name: "early_warning_token", Weight: 0.20,
		Predicate: func(c Context) bool { return contains(c.Text, "緊急地震速報") },
	},
	{
		Name: "no_relevance_keyword", Weight: -0.30,
		Predicate: func(c Context) bool { return !containsAny(c.Text, c.RelevantKeywords) },
	},
	{
		Name: "intensifier_keyword", Weight: 0.15,
		Predicate: func(c Context) bool { return contains(c.Text, "strong") || contains(c.Text, "very strong") },
	},
	{
		Name: "laughter_keyword", Weight: -0.08,
		Predicate: func(c Context) bool { return containsAny(c.Text, laughterWords) },
	},
	{
		Name: "simulation_keyword", Weight: -0.50,
		Predicate: func(c Context) bool { return containsAny(c.Text, simulationWords) },
	},
	{
		Name: "language_mismatch", Weight: -0.20,
		Predicate: func(c Context) bool {
			return c.LangKnown && c.GeolocatedLang != "" && c.DetectedLang != "" && c.GeolocatedLang != c.DetectedLang
		},
	},
	{
		Name: "spam_word", Weight: -0.30,
		Predicate: func(c Context) bool { return containsAny(c.Text, c.SpamWords) },
	},
}

var worryEmoji = []string{"😱", "😨", "😰", "🙀"}
var laughterWords = []string{"lol", "lmao", "haha", "www", "w"}
var simulationWords = []string{"drill", "simulation", "test alert", "exercise"}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if w == "" {
			continue
		}
		if contains(s, strings.ToLower(w)) {
			return true
		}
	}
	return false
}
