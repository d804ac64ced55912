package intent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"intentrouter/pkg/providers"
)

const matcherInstructions = "You are a semantic equivalency classifier."

const noneSentinel = "None"

// Matcher finds a semantically equivalent existing signature when an
// exact key lookup misses.
type Matcher struct {
	gen providers.Generator
	log *zap.Logger
}

func NewMatcher(gen providers.Generator, log *zap.Logger) *Matcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Matcher{gen: gen, log: log.Named("matcher")}
}

// FindEquivalent asks the backend whether any candidate names the exact
// same task as newKey. The returned value is only trusted if it is a
// verbatim member of candidates; anything else (including a
// hallucinated plausible key) is treated as no match.
func (m *Matcher) FindEquivalent(ctx context.Context, newKey string, candidates []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}

	var list strings.Builder
	for _, c := range candidates {
		list.WriteString(" - ")
		list.WriteString(c)
		list.WriteByte('\n')
	}

	prompt := fmt.Sprintf(`NEW INTENT SIGNATURE: %q

EXISTING CANDIDATES:
%s
Identify whether ANY candidate represents the EXACT SAME TASK as the new
intent, just named differently.

Rules:
1. "parity_check" == "check_odd_even" (SAME)
2. "python_code" != "cpp_code" (DIFFERENT)
3. Only match intents belonging to the SAME domain.
4. Return the exact candidate string if a strong match exists.
5. Return %q otherwise.

Return ONLY the candidate string or %q.`, newKey, list.String(), noneSentinel, noneSentinel)

	raw := providers.SafeGenerate(ctx, m.gen, prompt, matcherInstructions)
	if providers.IsErrorText(raw) {
		m.log.Warn("semantic match backend failed", zap.String("result", raw))
		return "", false
	}

	match := strings.Trim(strings.TrimSpace(stripCodeFence(raw)), `"`)
	if match == "" || strings.EqualFold(match, noneSentinel) {
		return "", false
	}
	for _, c := range candidates {
		if match == c {
			return match, true
		}
	}
	m.log.Warn("semantic match returned non-candidate, discarding", zap.String("match", match))
	return "", false
}
