// Package intent turns free-text queries into routing decisions and
// canonical cache signatures by delegating to a generation backend
// under strict structured-output contracts, with safe defaults when the
// backend returns something unparseable.
package intent

import (
	"encoding/json"
	"strings"
)

// MalformedError reports structured output that failed to decode. The
// raw text is retained for logging; callers substitute their own safe
// default instead of propagating this.
type MalformedError struct {
	Raw string
	Err error
}

func (e *MalformedError) Error() string {
	return "malformed structured output: " + e.Err.Error()
}

func (e *MalformedError) Unwrap() error { return e.Err }

// decodeJSON strips markdown code fences and unmarshals into v. This is
// the single decode step for all capability output; nothing assumes
// shape without it.
func decodeJSON(raw string, v interface{}) error {
	cleaned := stripCodeFence(raw)
	if err := json.Unmarshal([]byte(cleaned), v); err != nil {
		return &MalformedError{Raw: raw, Err: err}
	}
	return nil
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
