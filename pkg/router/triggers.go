package router

import "strings"

// implicitTriggers are tokens that signal an indirect entity reference
// ("it", "him", "that movie", plus Hindi deictics from the original
// user base).
var implicitTriggers = map[string]struct{}{
	"jo":   {},
	"us":   {},
	"usi":  {},
	"that": {},
	"it":   {},
	"him":  {},
	"her":  {},
	"woh":  {},
}

var implicitTriggerPhrases = []string{"that movie", "that film"}

// entertainmentKeywords bias the trace lookup toward the entertainment
// domain when the query is clearly about screen media.
var entertainmentKeywords = []string{"movie", "film", "cinema", "actor", "show"}

func hasImplicitTrigger(query string) bool {
	lower := strings.ToLower(query)
	for _, word := range strings.Fields(lower) {
		if _, ok := implicitTriggers[strings.Trim(word, ".,!?")]; ok {
			return true
		}
	}
	for _, phrase := range implicitTriggerPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// inferDomainFilter guesses the domain an indirect reference points
// into. Empty means no preference.
func inferDomainFilter(query string) string {
	lower := strings.ToLower(query)
	for _, kw := range entertainmentKeywords {
		if strings.Contains(lower, kw) {
			return "entertainment"
		}
	}
	return ""
}
