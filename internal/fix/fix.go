// Package fix is the reconciliation state machine: it converts a drift
// verdict into a concrete mutation of a fact.
//
// The action taken depends on the verdict and on the fact's provenance.
// This is the system's trust boundary: only provenance the system
// itself produced (tool, inferred) may be silently corrected; facts a
// human or a document asserted (user, doc) are only ever flagged as
// suspect and their recorded value is preserved for review.
package fix

import (
	"fmt"
	"time"

	"github.com/roach88/driftwatch/internal/memory"
	"github.com/roach88/driftwatch/internal/verify"
)

// Action identifies the remediation applied to a fact.
type Action string

const (
	// ActionAlreadyCorrect: reality matches; only last_verified moves.
	ActionAlreadyCorrect Action = "already_correct"
	// ActionAutoUpdated: trusted provenance, value replaced by reality.
	ActionAutoUpdated Action = "auto_updated"
	// ActionMarkedSuspect: human provenance, flagged but untouched.
	ActionMarkedSuspect Action = "marked_suspect"
	// ActionNoAction: verdict was unverifiable, fact untouched entirely.
	ActionNoAction Action = "no_action"
)

// Result records one applied remediation. OldValue and NewValue are nil
// when the action did not involve that side of the change.
type Result struct {
	Fact     *memory.Fact
	Action   Action
	OldValue *string
	NewValue *string
	Detail   string
}

// Apply mutates the fact according to the verdict and returns what was
// done. today stamps last_verified; it is passed in rather than read
// from the wall clock so the decision is a pure function of its inputs.
func Apply(f *memory.Fact, drift verify.Result, today time.Time) Result {
	switch drift.Verdict {
	case verify.VerdictMatch:
		f.LastVerified = memory.VerifiedOn(today)
		return Result{
			Fact:   f,
			Action: ActionAlreadyCorrect,
			Detail: "value matches reality; refreshed last_verified",
		}

	case verify.VerdictUnverifiable:
		return Result{
			Fact:   f,
			Action: ActionNoAction,
			Detail: fmt.Sprintf("cannot verify: %s", drift.Evidence),
		}
	}

	// Contradiction: trusted provenance self-heals, human provenance is
	// flagged for review with its value intact.
	if f.Src.Trusted() {
		old, observed := f.Value, drift.Actual
		f.Value = observed
		f.LastVerified = memory.VerifiedOn(today)
		f.Status = memory.StatusActive
		return Result{
			Fact:     f,
			Action:   ActionAutoUpdated,
			OldValue: &old,
			NewValue: &observed,
			Detail:   fmt.Sprintf("auto-updated from %q to %q", old, observed),
		}
	}

	old := f.Value
	f.Status = memory.StatusSuspect
	return Result{
		Fact:     f,
		Action:   ActionMarkedSuspect,
		OldValue: &old,
		Detail:   fmt.Sprintf("marked suspect: expected %q, reality is %q", f.Value, drift.Actual),
	}
}
