package memory

import (
	"encoding/base32"
	"regexp"

	"golang.org/x/crypto/blake2s"
	"golang.org/x/text/unicode/norm"
)

// IDPrefix starts every fact identifier.
const IDPrefix = "mem_"

// IDPattern matches a well-formed fact identifier: the prefix followed
// by 8 characters of unpadded uppercase base32.
var IDPattern = regexp.MustCompile(`^mem_[A-Z2-7]{8}$`)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// FactID derives the deterministic identifier for a (type, scope, key)
// triple:
//
//	"mem_" + base32(blake2s("v1|{type}|{scope}|{key}")[:16])[:8]
//
// The payload is NFC-normalized before hashing so visually identical
// keys hash identically. The hash is not security-critical; it only has
// to be deterministic and collision-resistant enough that distinct
// (scope, key) pairs never collide in practice.
//
// Re-deriving from unchanged inputs always yields the same id; changing
// any of the three inputs changes the id.
func FactID(typ, scopeStr, key string) string {
	payload := norm.NFC.String("v1|" + typ + "|" + scopeStr + "|" + key)
	sum := blake2s.Sum256([]byte(payload))
	return IDPrefix + b32.EncodeToString(sum[:16])[:8]
}

// DerivedID is FactID applied to a fact's own fields, for lint checks.
func (f *Fact) DerivedID() string {
	return FactID(string(f.Type), f.Scope.String(), f.Key)
}
