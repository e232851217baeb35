// Package verify checks recorded facts against observed reality.
//
// A Source knows how to answer some family of source identifiers
// (prefix:argument strings) and returns a drift verdict. Sources are
// fail-soft by contract: a missing tool, an unset variable, a timeout
// or a transport error is an Unverifiable verdict, never an error.
// Inability to check must not be confused with confirmed drift.
//
// The Registry dispatches a fact's ordered source identifier list to
// the first registered source that claims each identifier. Registration
// order is load-bearing: local sources should be registered before
// network sources for the same identifier family.
package verify

import (
	"context"
	"os"
	"strings"
)

// Verdict classifies one verification attempt.
type Verdict string

const (
	// VerdictMatch means observed reality agrees with the recorded value.
	VerdictMatch Verdict = "match"
	// VerdictContradiction means reality disagrees with the recorded value.
	VerdictContradiction Verdict = "contradiction"
	// VerdictUnverifiable means the check could not be performed.
	VerdictUnverifiable Verdict = "unverifiable"
)

// Result is the immutable outcome of one verification attempt. Actual
// is empty for unverifiable results and for matches established without
// an independent observation.
type Result struct {
	Verdict  Verdict
	Expected string
	Actual   string
	Evidence string
}

// match / contradiction / unverifiable are shorthand constructors used
// by every source implementation.

func match(expected, actual, evidence string) Result {
	return Result{Verdict: VerdictMatch, Expected: expected, Actual: actual, Evidence: evidence}
}

func contradiction(expected, actual, evidence string) Result {
	return Result{Verdict: VerdictContradiction, Expected: expected, Actual: actual, Evidence: evidence}
}

func unverifiable(expected, evidence string) Result {
	return Result{Verdict: VerdictUnverifiable, Expected: expected, Evidence: evidence}
}

// Source is one pluggable verification backend.
type Source interface {
	// CanCheck reports whether this source claims the identifier.
	CanCheck(sourceID string) bool
	// Check verifies the expected value against reality. It must not
	// return errors; failures are Unverifiable results.
	Check(ctx context.Context, sourceID, expected string) Result
}

// splitSourceID splits "prefix:argument" on the first colon. ok is
// false for bare identifiers with no argument.
func splitSourceID(sourceID string) (prefix, arg string, ok bool) {
	return strings.Cut(sourceID, ":")
}

// prefixOf returns the identifier's prefix (the whole identifier when
// it carries no argument).
func prefixOf(sourceID string) string {
	prefix, _, _ := splitSourceID(sourceID)
	return prefix
}

// Env is an explicit snapshot of environment variables. All environment
// reads go through a snapshot passed down from the caller; sources
// never consult process-global state, which keeps dispatch behavior
// reproducible and testable.
type Env map[string]string

// CaptureEnv snapshots the current process environment.
func CaptureEnv() Env {
	env := Env{}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

// Get looks up a variable in the snapshot.
func (e Env) Get(key string) (string, bool) {
	v, ok := e[key]
	return v, ok
}

// Registry is an ordered set of verification sources.
type Registry struct {
	sources []Source
}

// NewRegistry builds a registry that tries sources in the given order.
func NewRegistry(sources ...Source) *Registry {
	return &Registry{sources: sources}
}

// Register appends a source after all existing ones.
func (r *Registry) Register(s Source) {
	r.sources = append(r.sources, s)
}

// Dispatch tries each source identifier in order. For each identifier
// the first registered source whose CanCheck claims it produces the
// result, and that result ends the dispatch even when inconclusive.
//
// ok is false when no registered source claims any identifier (or the
// list is empty): the fact is simply uncheckable, which is distinct
// from an Unverifiable verdict.
func (r *Registry) Dispatch(ctx context.Context, sourceIDs []string, expected string) (Result, bool) {
	for _, id := range sourceIDs {
		for _, s := range r.sources {
			if s.CanCheck(id) {
				return s.Check(ctx, id, expected), true
			}
		}
	}
	return Result{}, false
}
