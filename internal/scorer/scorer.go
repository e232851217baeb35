// Package scorer decides verification order: which facts are stale,
// what verifying them costs, and how to rank them under a budget.
package scorer

import (
	"sort"
	"time"

	"github.com/roach88/driftwatch/internal/memory"
)

// NeverVerifiedDays is the age assigned to facts that have never been
// verified: old enough (~10 years) to outrank anything actually dated.
const NeverVerifiedDays = 3650

// Verification cost weights per mode. These are budget units, not
// wall-clock time: auto checks are near free, external checks consume
// real quota, and a human answering a prompt is the scarcest resource.
const (
	CostAuto     = 0.1
	CostExternal = 50.0
	CostHuman    = 100.0
)

// Impact weights. Higher impact levels dominate the priority product.
const (
	WeightLow  = 1.0
	WeightMed  = 5.0
	WeightHigh = 10.0
)

// AgeDays returns whole days since the fact was last verified, or
// NeverVerifiedDays for the "never" sentinel.
func AgeDays(f *memory.Fact, today time.Time) int {
	if f.LastVerified.Never() {
		return NeverVerifiedDays
	}
	return int(today.Sub(f.LastVerified.Date()).Hours() / 24)
}

// IsStale reports whether a fact's age exceeds its TTL. A TTL of zero
// means the fact never becomes stale by age.
func IsStale(f *memory.Fact, today time.Time) bool {
	if f.TTLDays == 0 {
		return false
	}
	return AgeDays(f, today) > f.TTLDays
}

// VerifyCost returns the budget cost of one verification in the given
// mode.
func VerifyCost(mode memory.VerifyMode) float64 {
	switch mode {
	case memory.VerifyHuman:
		return CostHuman
	case memory.VerifyExternal:
		return CostExternal
	default:
		return CostAuto
	}
}

// ImpactWeight returns the priority weight of an impact level.
func ImpactWeight(i memory.Impact) float64 {
	switch i {
	case memory.ImpactHigh:
		return WeightHigh
	case memory.ImpactMed:
		return WeightMed
	default:
		return WeightLow
	}
}

// Priority scores a fact for verification ordering:
//
//	impact_weight * age_days / (1 + verify_cost)
//
// Old, high-impact, cheap-to-check facts score highest.
func Priority(f *memory.Fact, today time.Time) float64 {
	return ImpactWeight(f.Impact) * float64(AgeDays(f, today)) / (1 + VerifyCost(f.VerifyMode))
}

// Rank returns the facts ordered by descending priority. The sort is
// stable by contract: facts with equal priority keep their input order.
// The input slice is not mutated.
func Rank(facts []*memory.Fact, today time.Time) []*memory.Fact {
	ranked := make([]*memory.Fact, len(facts))
	copy(ranked, facts)
	sort.SliceStable(ranked, func(i, j int) bool {
		return Priority(ranked[i], today) > Priority(ranked[j], today)
	})
	return ranked
}
