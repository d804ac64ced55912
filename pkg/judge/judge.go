// Package judge evaluates, synthesizes, adapts and revises candidate
// answers. It consumes one generation backend and enforces the
// invalid-response screening contract on whatever that backend returns.
package judge

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"intentrouter/pkg/providers"
)

// Score is the judge's per-provider evaluation (0-10 each axis).
type Score struct {
	Accuracy     float64 `json:"accuracy"`
	Clarity      float64 `json:"clarity"`
	Completeness float64 `json:"completeness"`
	Comment      string  `json:"comment"`
}

// Verdict is the outcome of synthesizing the fan-out results.
type Verdict struct {
	BestProvider    string           `json:"best_provider"`
	Rationale       string           `json:"rationale"`
	CorrectedAnswer string           `json:"corrected_answer"`
	Scores          map[string]Score `json:"scores"`
}

// NoneProvider marks a verdict where no response survived screening or
// evaluation itself failed.
const NoneProvider = "none"

const judgeInstructions = "You are an expert AI judge. You evaluate responses to a user query strictly against that query, select the best one, or synthesize a better answer from them. You never invent facts absent from the inputs."

// Judge wraps the evaluation backend.
type Judge struct {
	gen providers.Generator
	log *zap.Logger
}

func New(gen providers.Generator, log *zap.Logger) *Judge {
	if log == nil {
		log = zap.NewNop()
	}
	return &Judge{gen: gen, log: log.Named("judge")}
}

// Name identifies the backing provider; recorded in saved memory records.
func (j *Judge) Name() string { return j.gen.Name() + "_judge" }

// Synthesize screens the fan-out results and produces a corrected
// answer with per-provider scores. It never fails: an unusable backend
// or malformed verdict degrades to an explicit evaluation-failure
// verdict rather than a crash.
func (j *Judge) Synthesize(ctx context.Context, query string, responses map[string]string) Verdict {
	names := make([]string, 0, len(responses))
	for name := range responses {
		names = append(names, name)
	}
	sort.Strings(names)

	var listing strings.Builder
	for i, name := range names {
		fmt.Fprintf(&listing, "%d. %s: %s\n\n", i+1, name, responses[name])
	}

	prompt := fmt.Sprintf(`You are judging responses from a multi-LLM system.

Evaluate strictly against the USER QUERY as given. Do not expand scope
or add perspectives the query did not ask for.

USER QUERY:
%q

PROVIDER RESPONSES:
%s
STEP 1 - INVALID RESPONSE FILTER:
Mark a response INVALID if it starts with "Error", mentions a missing
API key or credential, or is empty/irrelevant. Invalid responses score
0 on every axis and are excluded from synthesis.

STEP 2 - EVALUATION:
For each VALID response, judge correctness, clarity and relevance
against the query only.

STEP 3 - SYNTHESIS:
Produce a corrected_answer using ONLY information present in the valid
responses: remove irrelevant content, correct mistakes, stay aligned to
the query. Do NOT introduce new facts. If every response is invalid,
say so in corrected_answer instead of inventing content, and set
best_provider to %q.

STEP 4 - SCORING:
Score each provider 0-10 on accuracy, clarity and completeness.

OUTPUT (STRICT JSON ONLY):
{"best_provider": "<provider name or %q>", "rationale": "...", "corrected_answer": "...", "scores": {%s}}`,
		query, listing.String(), NoneProvider, NoneProvider, scoresTemplate(names))

	raw := providers.SafeGenerate(ctx, j.gen, prompt, judgeInstructions)
	if providers.IsErrorText(raw) {
		j.log.Warn("judge backend failed", zap.String("result", raw))
		return failureVerdict(names, "judge backend unavailable")
	}

	var verdict Verdict
	cleaned := stripCodeFence(raw)
	if err := json.Unmarshal([]byte(cleaned), &verdict); err != nil {
		j.log.Warn("judge verdict malformed", zap.Error(err), zap.String("raw", truncate(raw, 300)))
		return failureVerdict(names, "judge produced unparseable evaluation")
	}

	j.enforceScreening(&verdict, responses)
	return verdict
}

// enforceScreening guarantees the invalid-response contract regardless
// of how well the remote judge followed instructions: error-tagged
// inputs get zero scores, and a best_provider pick that was itself
// invalid is demoted.
func (j *Judge) enforceScreening(v *Verdict, responses map[string]string) {
	if v.Scores == nil {
		v.Scores = make(map[string]Score, len(responses))
	}
	for name, response := range responses {
		if providers.IsErrorText(response) {
			score := v.Scores[name]
			v.Scores[name] = Score{Comment: firstNonEmpty(score.Comment, "invalid response excluded from synthesis")}
		} else if _, ok := v.Scores[name]; !ok {
			v.Scores[name] = Score{}
		}
	}
	if best, ok := responses[v.BestProvider]; ok && providers.IsErrorText(best) {
		v.BestProvider = NoneProvider
	}
}

// Adapt fits a trusted memorized answer to the current phrasing without
// altering facts. The result may be error-tagged if the backend is down.
func (j *Judge) Adapt(ctx context.Context, query, storedAnswer string) string {
	prompt := fmt.Sprintf(`The user has asked: %q

We have a TRUSTED, MEMORIZED answer for this intent:
%q

Adapt the memorized answer to fit the current query if needed (tone,
minor formatting). If it is already perfect, return it as is. Do NOT
change the core meaning or facts. Do NOT add new information. Only
adjust wording or formatting.`, query, storedAnswer)

	return providers.SafeGenerate(ctx, j.gen, prompt, "You are a helpful assistant delivering a verified answer.")
}

// Revise incorporates user feedback into a draft.
func (j *Judge) Revise(ctx context.Context, query, draft, feedback string) string {
	prompt := fmt.Sprintf(`User query: %q

Previous draft answer:
%q

USER FEEDBACK / CORRECTION:
%q

1. If the user corrects facts, accept the correction as authoritative.
2. If the user asks "why" or for more detail, enrich the answer with that reasoning.
3. If the user asks for a style change (shorter/longer), adapt accordingly.
4. Rewrite the FINAL answer to the original query, improved by this feedback.
5. Return ONLY the new final text.`, query, draft, feedback)

	return providers.SafeGenerate(ctx, j.gen, prompt, "You are an expert editor incorporating user feedback.")
}

func scoresTemplate(names []string) string {
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%q: {\"accuracy\": 0, \"clarity\": 0, \"completeness\": 0, \"comment\": \"\"}", name))
	}
	return strings.Join(parts, ", ")
}

func failureVerdict(names []string, reason string) Verdict {
	scores := make(map[string]Score, len(names))
	for _, name := range names {
		scores[name] = Score{}
	}
	return Verdict{
		BestProvider:    NoneProvider,
		Rationale:       reason,
		CorrectedAnswer: "Error: evaluation failed, no answer available.",
		Scores:          scores,
	}
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
