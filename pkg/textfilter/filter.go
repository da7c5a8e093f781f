package textfilter

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/quest-weaver/pkg/prompts"
)

// Family-friendly stand-ins, keyed by lowercase word.
var replacements = map[string]string{
	"fuck":         "fudge",
	"fucking":      "fudging",
	"motherfucker": "mother-trucker",
	"shit":         "shoot",
	"bullshit":     "baloney",
	"horseshit":    "nonsense",
	"dipshit":      "dummy",
	"shithead":     "jerk",
	"damn":         "dang",
	"goddamn":      "gosh-dang",
	"hell":         "heck",
	"ass":          "butt",
	"asshole":      "jerk",
	"dumbass":      "dummy",
	"jackass":      "jerk",
	"bitch":        "jerk",
	"bastard":      "jerk",
	"crap":         "crud",
	"piss":         "ticked",
	"dick":         "jerk",
	"dickhead":     "jerk",
	"prick":        "jerk",
	"douchebag":    "jerk",
	"cock":         "[censored]",
	"whore":        "[censored]",
	"slut":         "[censored]",
}

var titleCaser = cases.Title(language.English)

// ProfanityFilter swaps profanity for milder words, keeping the original casing.
type ProfanityFilter struct {
	pattern *regexp.Regexp
}

// NewProfanityFilter compiles all words into one case-insensitive pattern.
func NewProfanityFilter() *ProfanityFilter {
	words := make([]string, 0, len(replacements))
	for w := range replacements {
		words = append(words, regexp.QuoteMeta(w))
	}
	// Longest first so "asshole" wins over "ass".
	sort.Slice(words, func(i, j int) bool {
		if len(words[i]) != len(words[j]) {
			return len(words[i]) > len(words[j])
		}
		return words[i] < words[j]
	})
	return &ProfanityFilter{
		pattern: regexp.MustCompile(`(?i)\b(?:` + strings.Join(words, "|") + `)\b`),
	}
}

// FilterText replaces profanity in text.
func (pf *ProfanityFilter) FilterText(text string) string {
	return pf.pattern.ReplaceAllStringFunc(text, func(match string) string {
		return matchCase(match, replacements[strings.ToLower(match)])
	})
}

func matchCase(original, replacement string) string {
	switch {
	case strings.ToUpper(original) == original:
		return strings.ToUpper(replacement)
	case titleCaser.String(strings.ToLower(original)) == original:
		return titleCaser.String(replacement)
	default:
		return replacement
	}
}

// ShouldFilterContent reports whether narration at rating needs filtering.
func ShouldFilterContent(rating string) bool {
	return prompts.NormalizeRating(rating) != prompts.RatingR
}
