package router

import "intentrouter/pkg/judge"

// Result is the workflow outcome plus the routing metadata callers need
// for observability: how the query was classified, where the answer
// came from, and what got persisted along the way.
type Result struct {
	FinalAnswer string

	Route     string // follow_up | new_question
	Reasoning string
	Signature string

	ResolvedEntity string // entity appended by reference resolution, if any
	FromMemory     bool
	SemanticMatch  string // signature the matcher redirected to, if any

	BestProvider string
	Scores       map[string]judge.Score

	Verified   bool     // human approved with empty feedback
	AutoSaved  []string // signatures auto-saved on topic switches during the run
	Revisions  int      // feedback-driven revision cycles
	TopicHops  int      // topic switches before this answer
}
