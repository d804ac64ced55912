package intent

import "strings"

const (
	// UnknownKey is the sentinel signature when extraction fails entirely.
	UnknownKey = "unknown_intent"

	DefaultDomain = "general"
)

// Signature is the canonical 3-level identity of a query: what broad
// area it is in, what the user wants done, and to what. Key is the sole
// cache key; two differently phrased queries with the same triple are
// the same cached intent.
type Signature struct {
	Domain string `json:"domain"`
	Task   string `json:"task"`
	Object string `json:"object"`
	Key    string `json:"intent_signature"`
}

// CanonicalKey derives the cache key: domain|task|object, lower-cased,
// spaces to underscores.
func CanonicalKey(domain, task, object string) string {
	return sanitize(domain) + "|" + sanitize(task) + "|" + sanitize(object)
}

func sanitize(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

// Known reports whether the signature's object carries real meaning, as
// opposed to the unknown sentinel or nothing at all.
func (s Signature) Known() bool {
	return s.Object != "" && s.Key != UnknownKey
}
