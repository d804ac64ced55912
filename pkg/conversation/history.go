// Package conversation holds the short-term state of one dialogue: the
// bounded turn log fed to classification and generation, and the
// recency trace used to resolve pronouns and skip-back references.
package conversation

import "strings"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one utterance. Immutable once appended.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// History is a sliding window over the most recent turns. A "turn" in
// the cap is a user/assistant pair, so the window holds 2*maxTurns
// entries.
type History struct {
	turns    []Turn
	maxTurns int
}

func NewHistory(maxTurns int) *History {
	if maxTurns <= 0 {
		maxTurns = 10
	}
	return &History{maxTurns: maxTurns}
}

// Append records a turn, dropping the oldest entries once the window
// exceeds 2*maxTurns.
func (h *History) Append(role, content string) {
	h.turns = append(h.turns, Turn{Role: role, Content: content})
	if limit := h.maxTurns * 2; len(h.turns) > limit {
		h.turns = h.turns[len(h.turns)-limit:]
	}
}

// Format renders the window as prompt context, one line per turn with
// the role normalized to USER/AI. The output is never parsed back.
func (h *History) Format() string {
	var sb strings.Builder
	for _, turn := range h.turns {
		if turn.Role == RoleAssistant {
			sb.WriteString("AI: ")
		} else {
			sb.WriteString("USER: ")
		}
		sb.WriteString(turn.Content)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Turns returns a copy of the current window.
func (h *History) Turns() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

func (h *History) Len() int { return len(h.turns) }

func (h *History) Clear() { h.turns = nil }
