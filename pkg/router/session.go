// Package router composes classification, extraction, memory and the
// judge into the end-to-end query workflow and its human-feedback loop.
package router

import (
	"github.com/google/uuid"

	"intentrouter/pkg/conversation"
)

// Session is the explicit per-conversation state threaded through every
// workflow run. Nothing in the orchestrator is global, so independent
// conversations just use independent sessions.
type Session struct {
	ID            string
	LastQuery     string
	LastSignature string
	LastAnswer    string
	History       *conversation.History
	Trace         *conversation.EntityTrace
}

func NewSession(maxTurns, traceSize int) *Session {
	return &Session{
		ID:      uuid.NewString(),
		History: conversation.NewHistory(maxTurns),
		Trace:   conversation.NewEntityTrace(traceSize),
	}
}
