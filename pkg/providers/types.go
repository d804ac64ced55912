// Package providers implements the interchangeable text-generation
// backends the router fans out to, plus the error-tagging contract that
// keeps a failing backend from ever propagating a fault upstream.
package providers

import (
	"context"
	"fmt"
	"strings"
)

// Generator is a single text-generation backend.
//
// Generate may return an error; callers inside the routing path must go
// through SafeGenerate, which converts any failure into an error-tagged
// text result so one backend can never abort a fan-out.
type Generator interface {
	Name() string
	Generate(ctx context.Context, prompt, instructions string) (string, error)
}

// errorPrefix is the fixed marker downstream consumers (the judge's
// invalid-response filter in particular) screen on.
const errorPrefix = "Error"

// SafeGenerate runs g and never fails: any error becomes an
// error-tagged text value recognizable by IsErrorText.
func SafeGenerate(ctx context.Context, g Generator, prompt, instructions string) string {
	out, err := g.Generate(ctx, prompt, instructions)
	if err != nil {
		return ErrorText(g.Name(), err)
	}
	return out
}

// ErrorText renders a provider failure as screenable text.
func ErrorText(provider string, err error) string {
	return fmt.Sprintf("%s %s: %v", errorPrefix, provider, err)
}

// IsErrorText reports whether a generation result is an error-tagged or
// empty value that must be excluded from synthesis.
func IsErrorText(s string) bool {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return true
	}
	return strings.HasPrefix(trimmed, errorPrefix)
}
