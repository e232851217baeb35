package codec

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/driftwatch/internal/memory"
)

// TestRender_Golden pins the canonical serialization byte-for-byte.
// Regenerate with: go test ./internal/codec -update
func TestRender_Golden(t *testing.T) {
	facts := []memory.Fact{
		{
			ID:           "mem_ABCDEFGH",
			Type:         memory.TypeEnv,
			Scope:        memory.GlobalScope(),
			Key:          "env.editor",
			Value:        "vim",
			Src:          memory.SourceUser,
			Status:       memory.StatusActive,
			LastVerified: mustVerified(t, "2025-01-15"),
			TTLDays:      30,
			VerifyMode:   memory.VerifyAuto,
			Impact:       memory.ImpactMed,
		},
		{
			ID:           "mem_AAAA2222",
			Type:         memory.TypeFact,
			Scope:        memory.ParseScope("repo:C:/dev/proj"),
			Key:          "repo.main_branch",
			Value:        "main",
			Src:          memory.SourceTool,
			Status:       memory.StatusSuspect,
			LastVerified: memory.NeverVerified(),
			TTLDays:      0,
			VerifyMode:   memory.VerifyExternal,
			Impact:       memory.ImpactHigh,
			Ref:          "git.md#mem_AAAA2222",
		},
		{
			ID:           "mem_ZZZZ7777",
			Type:         memory.TypeWorkflow,
			Scope:        memory.ParseScope("machine:build-01"),
			Key:          "workflow.deploy",
			Value:        "make deploy && make verify",
			Src:          memory.SourceInferred,
			Status:       memory.StatusDeprecated,
			LastVerified: mustVerified(t, "2024-12-31"),
			TTLDays:      365,
			VerifyMode:   memory.VerifyHuman,
			Impact:       memory.ImpactLow,
		},
	}

	rendered, err := Render(nil, facts)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "document", []byte(rendered))
}

func mustVerified(t *testing.T, s string) memory.Verified {
	t.Helper()
	v, err := memory.ParseVerified(s)
	require.NoError(t, err)
	return v
}
