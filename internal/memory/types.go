// Package memory defines the record types tracked by the drift store:
// a Fact is one declarative key/value assertion with enough metadata
// (provenance, staleness, verification mode) to decide how and when it
// should be reconciled against observed reality.
package memory

import (
	"fmt"
	"time"
)

// Type categorizes what kind of assertion a fact makes.
type Type string

const (
	TypePref     Type = "pref"
	TypeFact     Type = "fact"
	TypePolicy   Type = "policy"
	TypeEnv      Type = "env"
	TypeWorkflow Type = "workflow"
)

// ParseType validates and returns a fact type.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypePref, TypeFact, TypePolicy, TypeEnv, TypeWorkflow:
		return t, nil
	}
	return "", fmt.Errorf("unknown type %q", s)
}

// Source is the trust-relevant origin of a fact's value.
//
// Only machine-derived provenance (tool, inferred) may be silently
// corrected during reconciliation; human-asserted provenance (user, doc)
// is only ever flagged for review.
type Source string

const (
	SourceUser     Source = "user"
	SourceTool     Source = "tool"
	SourceInferred Source = "inferred"
	SourceDoc      Source = "doc"
)

// ParseSource validates and returns a provenance source.
func ParseSource(s string) (Source, error) {
	switch src := Source(s); src {
	case SourceUser, SourceTool, SourceInferred, SourceDoc:
		return src, nil
	}
	return "", fmt.Errorf("unknown src %q", s)
}

// Trusted reports whether the system may auto-correct facts with this
// provenance when they contradict observed reality.
func (s Source) Trusted() bool {
	return s == SourceTool || s == SourceInferred
}

// Status is the lifecycle state of a fact.
type Status string

const (
	StatusActive     Status = "active"
	StatusSuspect    Status = "suspect"
	StatusDeprecated Status = "deprecated"
)

// ParseStatus validates and returns a status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusActive, StatusSuspect, StatusDeprecated:
		return st, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// VerifyMode governs how expensive a fact is to verify.
type VerifyMode string

const (
	VerifyAuto     VerifyMode = "auto"
	VerifyHuman    VerifyMode = "human"
	VerifyExternal VerifyMode = "external"
)

// ParseVerifyMode validates and returns a verify mode.
func ParseVerifyMode(s string) (VerifyMode, error) {
	switch m := VerifyMode(s); m {
	case VerifyAuto, VerifyHuman, VerifyExternal:
		return m, nil
	}
	return "", fmt.Errorf("unknown verify_mode %q", s)
}

// Impact weights a fact's remediation priority.
type Impact string

const (
	ImpactLow  Impact = "low"
	ImpactMed  Impact = "med"
	ImpactHigh Impact = "high"
)

// ParseImpact validates and returns an impact level.
func ParseImpact(s string) (Impact, error) {
	switch i := Impact(s); i {
	case ImpactLow, ImpactMed, ImpactHigh:
		return i, nil
	}
	return "", fmt.Errorf("unknown impact %q", s)
}

// neverSentinel is the only non-date form last_verified may take.
const neverSentinel = "never"

// dateLayout is the on-disk calendar date format.
const dateLayout = "2006-01-02"

// Verified is a fact's last verification timestamp: either a calendar
// date or the "never" sentinel. The zero value is "never".
type Verified struct {
	date  time.Time
	never bool
}

// NeverVerified returns the "never" sentinel.
func NeverVerified() Verified {
	return Verified{never: true}
}

// VerifiedOn returns a Verified pinned to the calendar date of t (UTC).
func VerifiedOn(t time.Time) Verified {
	y, m, d := t.UTC().Date()
	return Verified{date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseVerified parses a last_verified field. Only an ISO calendar date
// or exactly "never" are valid.
func ParseVerified(s string) (Verified, error) {
	if s == neverSentinel {
		return NeverVerified(), nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Verified{}, fmt.Errorf("invalid last_verified %q", s)
	}
	return Verified{date: t}, nil
}

// Never reports whether the fact has never been verified.
func (v Verified) Never() bool {
	return v.never || v.date.IsZero()
}

// Date returns the verification date. Only meaningful when !Never().
func (v Verified) Date() time.Time {
	return v.date
}

// String renders the canonical on-disk form.
func (v Verified) String() string {
	if v.Never() {
		return neverSentinel
	}
	return v.date.Format(dateLayout)
}

// Fact is one asserted statement tracked by the store.
type Fact struct {
	ID           string
	Type         Type
	Scope        Scope
	Key          string
	Value        string
	Src          Source
	Status       Status
	LastVerified Verified
	TTLDays      int
	VerifyMode   VerifyMode
	Impact       Impact

	// Ref is an optional cross-document pointer of the form
	// "file[#anchor]" where anchor is another fact's id or key.
	// Empty means absent.
	Ref string
}
