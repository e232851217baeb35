package fix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/driftwatch/internal/memory"
	"github.com/roach88/driftwatch/internal/testutil"
	"github.com/roach88/driftwatch/internal/verify"
)

func testFact(src memory.Source) *memory.Fact {
	return &memory.Fact{
		ID:           "mem_ABCDEFGH",
		Type:         memory.TypeEnv,
		Key:          "env.editor",
		Value:        "vim",
		Src:          src,
		Status:       memory.StatusActive,
		LastVerified: memory.VerifiedOn(testutil.Day(2025, 1, 1)),
		TTLDays:      30,
		VerifyMode:   memory.VerifyAuto,
		Impact:       memory.ImpactMed,
	}
}

func TestApply_Match(t *testing.T) {
	today := testutil.Day(2025, 2, 1)
	f := testFact(memory.SourceUser)

	res := Apply(f, verify.Result{Verdict: verify.VerdictMatch, Expected: "vim", Actual: "vim"}, today)

	assert.Equal(t, ActionAlreadyCorrect, res.Action)
	assert.Equal(t, "vim", f.Value, "a match must not touch the value")
	assert.Equal(t, memory.StatusActive, f.Status)
	assert.Equal(t, "2025-02-01", f.LastVerified.String())
	assert.Nil(t, res.OldValue)
	assert.Nil(t, res.NewValue)
}

func TestApply_Unverifiable(t *testing.T) {
	today := testutil.Day(2025, 2, 1)
	f := testFact(memory.SourceUser)

	res := Apply(f, verify.Result{Verdict: verify.VerdictUnverifiable, Expected: "vim", Evidence: "git missing"}, today)

	assert.Equal(t, ActionNoAction, res.Action)
	assert.Equal(t, "vim", f.Value)
	assert.Equal(t, "2025-01-01", f.LastVerified.String(), "unverifiable must not refresh last_verified")
	assert.Contains(t, res.Detail, "git missing")
}

func TestApply_ContradictionTrustedAutoUpdates(t *testing.T) {
	today := testutil.Day(2025, 2, 1)

	for _, src := range []memory.Source{memory.SourceTool, memory.SourceInferred} {
		f := testFact(src)
		f.Status = memory.StatusSuspect

		res := Apply(f, verify.Result{Verdict: verify.VerdictContradiction, Expected: "vim", Actual: "nvim"}, today)

		assert.Equal(t, ActionAutoUpdated, res.Action, "src=%s", src)
		assert.Equal(t, "nvim", f.Value)
		assert.Equal(t, memory.StatusActive, f.Status, "auto-update reinstates active status")
		assert.Equal(t, "2025-02-01", f.LastVerified.String())
		require.NotNil(t, res.OldValue)
		require.NotNil(t, res.NewValue)
		assert.Equal(t, "vim", *res.OldValue)
		assert.Equal(t, "nvim", *res.NewValue)
	}
}

func TestApply_ContradictionHumanMarksSuspect(t *testing.T) {
	today := testutil.Day(2025, 2, 1)

	for _, src := range []memory.Source{memory.SourceUser, memory.SourceDoc} {
		f := testFact(src)

		res := Apply(f, verify.Result{Verdict: verify.VerdictContradiction, Expected: "vim", Actual: "nvim"}, today)

		assert.Equal(t, ActionMarkedSuspect, res.Action, "src=%s", src)
		assert.Equal(t, "vim", f.Value, "human-asserted values are preserved for review")
		assert.Equal(t, memory.StatusSuspect, f.Status)
		assert.Equal(t, "2025-01-01", f.LastVerified.String(), "a suspect fact is not considered verified")
		require.NotNil(t, res.OldValue)
		assert.Equal(t, "vim", *res.OldValue)
		assert.Nil(t, res.NewValue)
	}
}

func TestApply_ResultValuesDoNotAliasFact(t *testing.T) {
	today := testutil.Day(2025, 2, 1)
	f := testFact(memory.SourceTool)

	res := Apply(f, verify.Result{Verdict: verify.VerdictContradiction, Expected: "vim", Actual: "nvim"}, today)

	f.Value = "mutated-later"
	assert.Equal(t, "vim", *res.OldValue)
	assert.Equal(t, "nvim", *res.NewValue)
}
