// Package testutil holds deterministic stand-ins for wall-clock and
// human interaction in tests.
package testutil

import (
	"sync"
	"time"
)

// Day pins tests to a fixed calendar date (UTC midnight).
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ScriptedPrompt replays a fixed sequence of prompt answers.
//
// Each call consumes the next response in order. A response with
// ok=false models the user declining. Calling past the end of the
// script panics; tests should script exactly the prompts they expect.
type ScriptedPrompt struct {
	mu        sync.Mutex
	responses []PromptResponse
	idx       int
}

// PromptResponse is one scripted answer.
type PromptResponse struct {
	Value string
	OK    bool
}

// NewScriptedPrompt builds a prompt replaying the given responses.
func NewScriptedPrompt(responses ...PromptResponse) *ScriptedPrompt {
	return &ScriptedPrompt{responses: responses}
}

// Func returns the PromptFunc-shaped callable.
func (p *ScriptedPrompt) Func() func(expected string) (string, bool) {
	return func(string) (string, bool) {
		p.mu.Lock()
		defer p.mu.Unlock()
		if p.idx >= len(p.responses) {
			panic("scripted prompt exhausted")
		}
		r := p.responses[p.idx]
		p.idx++
		return r.Value, r.OK
	}
}

// Calls reports how many prompts have been consumed.
func (p *ScriptedPrompt) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.idx
}
