package intent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"intentrouter/pkg/providers"
)

const (
	RouteFollowUp    = "follow_up"
	RouteNewQuestion = "new_question"

	TargetJudge      = "judge"
	TargetGenerators = "generators"
)

// Decision is the classifier's advisory routing verdict. It carries no
// guarantee of correctness beyond the backend's best effort.
type Decision struct {
	Route     string `json:"query_type"`
	Target    string `json:"route_to"`
	Reasoning string `json:"reasoning"`
}

const classifierInstructions = `You are an intent continuity and routing classifier for a multi-LLM system.

Decide whether the current user input is:
1. A FOLLOW-UP to the previous response, OR
2. A NEW, INDEPENDENT question requiring fresh generation

You do NOT answer the user. You ONLY classify.

You are given the current user input, the previous intent signature, and
the full conversation history. Use the history to determine whether the
user refers back to an earlier topic.

FOLLOW-UP only if ALL hold:
- The topic is the SAME as the previous intent
- The input refines, corrects, converts, or asks about the previous answer
  (e.g. "give it in python", "explain this part", "make it shorter")

NEW QUESTION if ANY hold:
- The topic changes significantly
- The domain changes (e.g. programming -> sports)
- The question can be answered independently

CRITICAL: if the topic or domain differs from the previous intent, you
MUST classify as NEW QUESTION, even directly after feedback.

INDIRECT REFERENCE & SKIP-BACK RULE (PRIORITY):
If the user refers to an entity indirectly ("that movie", "him", "the
first one") or asks about an entity from 2-3 turns ago, check whether
the reference maps to ANY entity in the conversation history. If yes,
classify as FOLLOW-UP. Context continuity supersedes broad topic shifts.

When in doubt, choose NEW QUESTION.

ROUTING: FOLLOW-UP -> judge. NEW QUESTION -> generators.

OUTPUT (STRICT JSON ONLY):
{"query_type": "follow_up | new_question", "route_to": "judge | generators", "reasoning": "brief explanation"}`

// Classifier decides follow-up vs new-topic.
type Classifier struct {
	gen providers.Generator
	log *zap.Logger
}

func NewClassifier(gen providers.Generator, log *zap.Logger) *Classifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Classifier{gen: gen, log: log.Named("classifier")}
}

// Classify never fails: a backend or parse failure is logged and
// degrades to the safe default {new_question, generators}.
func (c *Classifier) Classify(ctx context.Context, query, historyText, lastSignature string) Decision {
	prompt := fmt.Sprintf("PREVIOUS INTENT SIGNATURE: %s\n\nCONVERSATION HISTORY:\n%s\n\nCURRENT USER INPUT: %s",
		lastSignature, historyText, query)

	raw := providers.SafeGenerate(ctx, c.gen, prompt, classifierInstructions)

	var decision Decision
	if providers.IsErrorText(raw) {
		c.log.Warn("classification backend failed", zap.String("result", raw))
		return defaultDecision()
	}
	if err := decodeJSON(raw, &decision); err != nil {
		c.log.Warn("classification output malformed", zap.Error(err))
		return defaultDecision()
	}

	switch strings.TrimSpace(decision.Route) {
	case RouteFollowUp:
		decision.Route = RouteFollowUp
		decision.Target = TargetJudge
	case RouteNewQuestion:
		decision.Route = RouteNewQuestion
		decision.Target = TargetGenerators
	default:
		c.log.Warn("classification route unrecognized", zap.String("route", decision.Route))
		return defaultDecision()
	}
	return decision
}

func defaultDecision() Decision {
	return Decision{Route: RouteNewQuestion, Target: TargetGenerators, Reasoning: "classification unavailable, defaulting to fresh generation"}
}
