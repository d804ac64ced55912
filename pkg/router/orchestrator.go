package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"intentrouter/pkg/conversation"
	"intentrouter/pkg/intent"
	"intentrouter/pkg/judge"
	"intentrouter/pkg/memory"
	"intentrouter/pkg/providers"
)

const generatorInstructions = `You are a general-purpose AI assistant.

Understand the user's question, identify the underlying intent, and
respond in the most appropriate format for that intent:
- factual -> clear, direct answer
- technical -> step-by-step or code-based guidance
- comparative or historical -> context only where relevant
- creative -> ideas with practical clarity

Constraints:
- Do NOT assume historical analysis unless the question implies it
- Be concise first, expand only when useful
- Accuracy over verbosity, clarity over complexity
- Stay neutral and topic-agnostic

Do not explain your internal reasoning.`

const (
	approvedConfidence = 0.95
	autoSaveConfidence = 0.85
)

// Options wires the orchestrator's collaborators.
type Options struct {
	Classifier *intent.Classifier
	Extractor  *intent.Extractor
	Matcher    *intent.Matcher
	Judge      *judge.Judge
	Generators []providers.Generator
	Store      memory.Store
	Feedback   FeedbackPort
	// FanoutTimeout bounds each parallel generation call; an expired
	// call degrades to an error-tagged result instead of aborting the
	// join.
	FanoutTimeout time.Duration
	Log           *zap.Logger
}

// Orchestrator drives one query through reference resolution,
// classification, the cache, generation and the feedback loop.
type Orchestrator struct {
	classifier    *intent.Classifier
	extractor     *intent.Extractor
	matcher       *intent.Matcher
	judge         *judge.Judge
	generators    []providers.Generator
	store         memory.Store
	feedback      FeedbackPort
	fanoutTimeout time.Duration
	log           *zap.Logger
}

func New(opts Options) (*Orchestrator, error) {
	if opts.Classifier == nil || opts.Extractor == nil || opts.Matcher == nil || opts.Judge == nil {
		return nil, errors.New("router: classifier, extractor, matcher and judge are required")
	}
	if opts.Store == nil {
		return nil, errors.New("router: memory store is required")
	}
	if opts.Feedback == nil {
		opts.Feedback = AutoApprove{}
	}
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		classifier:    opts.Classifier,
		extractor:     opts.Extractor,
		matcher:       opts.Matcher,
		judge:         opts.Judge,
		generators:    opts.Generators,
		store:         opts.Store,
		feedback:      opts.Feedback,
		fanoutTimeout: opts.FanoutTimeout,
		log:           log.Named("router"),
	}, nil
}

// Process runs the workflow for one query. Topic-switch feedback does
// not recurse: the abandoned draft is auto-saved and the feedback text
// goes onto a pending queue that restarts the loop from the top.
func (o *Orchestrator) Process(ctx context.Context, sess *Session, query string) (*Result, error) {
	pending := []string{query}
	var autoSaved []string
	hops := 0

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		q := pending[0]
		pending = pending[1:]

		result, next, savedSig, err := o.runOnce(ctx, sess, q)
		if err != nil {
			return nil, err
		}
		if savedSig != "" {
			autoSaved = append(autoSaved, savedSig)
		}
		if next != "" {
			hops++
			pending = append(pending, next)
			continue
		}

		result.AutoSaved = autoSaved
		result.TopicHops = hops
		return result, nil
	}
	return nil, errors.New("router: no pending query") // unreachable
}

// runOnce executes a single pass of the state machine. A non-empty next
// value means the user switched topics and the workflow must restart
// with that text as the new query.
func (o *Orchestrator) runOnce(ctx context.Context, sess *Session, query string) (result *Result, next string, autoSavedSig string, err error) {
	// ResolvingReference
	resolvedEntity := ""
	if hasImplicitTrigger(query) {
		domainFilter := inferDomainFilter(query)
		if entity, ok := sess.Trace.Resolve(domainFilter); ok {
			resolvedEntity = entity.Name
			query = fmt.Sprintf("%s (%s)", query, entity.Name)
			o.log.Debug("implicit reference resolved",
				zap.String("entity", entity.Name),
				zap.String("domain_filter", domainFilter))
		}
	}

	// Classifying
	decision := o.classifier.Classify(ctx, query, sess.History.Format(), sess.LastSignature)
	o.log.Info("query classified",
		zap.String("session", sess.ID),
		zap.String("route", decision.Route),
		zap.String("reasoning", decision.Reasoning))

	// Refining: the follow-up path is a lightweight augmentation of the
	// previous answer. No memory write, no history append.
	if decision.Route == intent.RouteFollowUp {
		refined := o.judge.Revise(ctx, query, sess.LastAnswer, query)
		sess.LastAnswer = refined
		return &Result{
			FinalAnswer:    refined,
			Route:          intent.RouteFollowUp,
			Reasoning:      decision.Reasoning,
			Signature:      sess.LastSignature,
			ResolvedEntity: resolvedEntity,
		}, "", "", nil
	}

	// ExtractingIntent
	sig := o.extractor.Extract(ctx, query)
	sess.LastQuery = query
	sess.LastSignature = sig.Key
	if sig.Known() {
		sess.Trace.Add(sig.Object, "entity", sig.Domain)
	}
	o.log.Info("intent extracted", zap.String("signature", sig.Key), zap.String("domain", sig.Domain))

	// CheckingMemory, with the semantic fallback on a miss.
	workingKey := sig.Key
	semanticMatch := ""
	rec, err := o.store.Get(workingKey)
	if errors.Is(err, memory.ErrNotFound) {
		// CheckingSemanticFallback
		candidates, lerr := o.store.SignaturesInDomain(sig.Domain)
		if lerr != nil {
			return nil, "", "", lerr
		}
		if match, ok := o.matcher.FindEquivalent(ctx, sig.Key, candidates); ok {
			// The alias is deliberately not persisted: repeats of this
			// phrasing re-invoke the matcher. Logged so the cost shows up.
			o.log.Info("semantic fallback matched", zap.String("from", sig.Key), zap.String("to", match))
			semanticMatch = match
			workingKey = match
			rec, err = o.store.Get(workingKey)
		}
	}

	var draft string
	var verdict judge.Verdict
	generatedBy := []string{}
	fromMemory := false

	switch {
	case err == nil:
		// AdaptingFromMemory
		fromMemory = true
		draft = o.judge.Adapt(ctx, query, rec.ApprovedAnswer)
		generatedBy = append(generatedBy, rec.Source.GeneratedBy...)
		o.log.Info("cache hit, adapting stored answer", zap.String("signature", workingKey))
	case errors.Is(err, memory.ErrNotFound):
		// GeneratingCandidates + Judging
		prompt := fmt.Sprintf("PAST HISTORY:\n%s\n\nCURRENT QUERY:\n%s", sess.History.Format(), query)
		responses := providers.GenerateAll(ctx, o.generators, prompt, generatorInstructions, o.fanoutTimeout)
		for _, g := range o.generators {
			generatedBy = append(generatedBy, g.Name())
		}
		verdict = o.judge.Synthesize(ctx, query, responses)
		draft = verdict.CorrectedAnswer
		o.log.Info("candidates judged",
			zap.String("signature", sig.Key),
			zap.String("best_provider", verdict.BestProvider))
	default:
		return nil, "", "", fmt.Errorf("memory lookup: %w", err)
	}

	// AwaitingFeedback
	revisions := 0
	for {
		feedback, ferr := o.feedback.Present(Draft{
			Query:      query,
			Answer:     draft,
			Domain:     sig.Domain,
			Signature:  workingKey,
			FromMemory: fromMemory,
		})
		if ferr != nil {
			return nil, "", "", fmt.Errorf("read feedback: %w", ferr)
		}
		feedback = strings.TrimSpace(feedback)

		if feedback == "" {
			// Persisting
			if serr := o.store.Save(sig, draft, generatedBy, o.judge.Name(), approvedConfidence, false); serr != nil {
				return nil, "", "", fmt.Errorf("save approved answer: %w", serr)
			}
			sess.History.Append(conversation.RoleUser, sess.LastQuery)
			sess.History.Append(conversation.RoleAssistant, draft)
			sess.LastAnswer = draft
			return &Result{
				FinalAnswer:    draft,
				Route:          intent.RouteNewQuestion,
				Reasoning:      decision.Reasoning,
				Signature:      sig.Key,
				ResolvedEntity: resolvedEntity,
				FromMemory:     fromMemory,
				SemanticMatch:  semanticMatch,
				BestProvider:   verdict.BestProvider,
				Scores:         verdict.Scores,
				Verified:       true,
				Revisions:      revisions,
			}, "", "", nil
		}

		// The feedback itself is classified: correction vs topic switch.
		// The draft stands in for history, the current signature for the
		// last signature.
		fbDecision := o.classifier.Classify(ctx, feedback, draft, sig.Key)
		if fbDecision.Route == intent.RouteFollowUp {
			o.log.Info("feedback is a correction, revising", zap.String("reasoning", fbDecision.Reasoning))
			draft = o.judge.Revise(ctx, query, draft, feedback)
			revisions++
			continue
		}

		// Topic switch: preserve the abandoned-but-plausible draft as an
		// unverified record, then restart with the feedback as the query.
		o.log.Info("feedback is a new question, auto-saving draft",
			zap.String("abandoned_signature", sig.Key),
			zap.String("reasoning", fbDecision.Reasoning))
		if serr := o.store.Save(sig, draft, generatedBy, o.judge.Name(), autoSaveConfidence, true); serr != nil {
			return nil, "", "", fmt.Errorf("auto-save abandoned draft: %w", serr)
		}
		return nil, feedback, sig.Key, nil
	}
}
