package intent

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"intentrouter/pkg/providers"
)

const extractorInstructions = `You are an INTENT EXTRACTION system.
Reduce a user query into a stable 3-LEVEL STRUCTURE.

STRUCTURE:
1. DOMAIN: broad category (e.g. programming, sports, movies).
2. TASK: the action being performed (e.g. code_generation, explanation, retrieval, comparison).
3. OBJECT: the specific subject entity (e.g. python_loop, sachin_tendulkar, godfather_movie).

Rules:
1. Use snake_case for all fields.
2. The OBJECT must be specific enough to differentiate similar requests ("sachin" vs "kohli").
3. Ignore politeness.

Examples:
- "write python code for bubblesort" -> {"domain": "programming", "task": "code_generation", "object": "bubblesort_algorithm"}
- "who is sachin tendulkar" -> {"domain": "sports", "task": "explanation", "object": "sachin_tendulkar"}
- "compare groq and openai" -> {"domain": "technology", "task": "comparison", "object": "groq_vs_openai"}
- "top 5 movies" -> {"domain": "entertainment", "task": "ranking_retrieval", "object": "top_movies_all_time"}

Return ONLY a JSON object: {"domain": "...", "task": "...", "object": "..."}`

// Extractor derives the canonical signature for a query, trying a fast
// primary backend first and failing over to a secondary one.
type Extractor struct {
	primary   providers.Generator
	secondary providers.Generator
	log       *zap.Logger
}

func NewExtractor(primary, secondary providers.Generator, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{primary: primary, secondary: secondary, log: log.Named("extractor")}
}

// Extract never fails: total parse failure degrades to the unknown
// sentinel signature in the general domain.
func (e *Extractor) Extract(ctx context.Context, query string) Signature {
	raw := providers.SafeGenerate(ctx, e.primary, query, extractorInstructions)
	if providers.IsErrorText(raw) && e.secondary != nil {
		e.log.Debug("primary extraction failed, trying fallback",
			zap.String("primary", e.primary.Name()),
			zap.String("fallback", e.secondary.Name()))
		raw = providers.SafeGenerate(ctx, e.secondary, query, extractorInstructions)
	}
	if providers.IsErrorText(raw) {
		e.log.Warn("intent extraction backends unavailable", zap.String("result", raw))
		return unknownSignature()
	}

	var sig Signature
	if err := decodeJSON(raw, &sig); err != nil {
		e.log.Warn("intent extraction output malformed", zap.Error(err))
		return unknownSignature()
	}

	if strings.TrimSpace(sig.Domain) == "" {
		sig.Domain = DefaultDomain
	}
	if strings.TrimSpace(sig.Key) == "" || sig.Key == UnknownKey {
		task := sig.Task
		if strings.TrimSpace(task) == "" {
			task = "task"
		}
		object := sig.Object
		if strings.TrimSpace(object) == "" {
			object = "object"
		}
		sig.Key = CanonicalKey(sig.Domain, task, object)
	}
	return sig
}

func unknownSignature() Signature {
	return Signature{Domain: DefaultDomain, Key: UnknownKey}
}
