package memory

import "strings"

// Scope is a tagged value describing where a fact applies: everywhere
// (global), on one machine (machine:hostname), or in one repository
// (repo:path).
//
// The qualifier is split from the kind on the FIRST colon only; the
// qualifier itself may contain further colons and is preserved verbatim
// through parse/render cycles. Kind names are constrained by the record
// grammar to never contain a colon, so the split is unambiguous.
type Scope struct {
	Kind      string
	Qualifier string

	// Qualified distinguishes "machine:" (empty qualifier) from a bare
	// kind with no qualifier at all.
	Qualified bool
}

// GlobalScope is the scope of facts that apply everywhere.
func GlobalScope() Scope {
	return Scope{Kind: "global"}
}

// ParseScope splits a scope string on the first colon.
func ParseScope(s string) Scope {
	if kind, qual, ok := strings.Cut(s, ":"); ok {
		return Scope{Kind: kind, Qualifier: qual, Qualified: true}
	}
	return Scope{Kind: s}
}

// String renders the canonical kind[:qualifier] form.
func (s Scope) String() string {
	if s.Qualified {
		return s.Kind + ":" + s.Qualifier
	}
	return s.Kind
}
