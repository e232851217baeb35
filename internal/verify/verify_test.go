package verify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubSource claims one prefix and returns a fixed result.
type stubSource struct {
	prefix string
	result Result
	calls  int
}

func (s *stubSource) CanCheck(sourceID string) bool {
	return prefixOf(sourceID) == s.prefix
}

func (s *stubSource) Check(_ context.Context, _, _ string) Result {
	s.calls++
	return s.result
}

func TestDispatch_FirstClaimingSourceWins(t *testing.T) {
	first := &stubSource{prefix: "env_var", result: match("x", "x", "first")}
	second := &stubSource{prefix: "env_var", result: contradiction("x", "y", "second")}
	reg := NewRegistry(first, second)

	res, ok := reg.Dispatch(context.Background(), []string{"env_var:EDITOR"}, "x")
	require.True(t, ok)
	assert.Equal(t, VerdictMatch, res.Verdict)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 0, second.calls, "a later source must not see a claimed identifier")
}

func TestDispatch_TriesIdentifiersInOrder(t *testing.T) {
	local := &stubSource{prefix: "env_var", result: match("x", "x", "env")}
	reg := NewRegistry(local)

	// The first identifier is unclaimed; dispatch moves to the second.
	res, ok := reg.Dispatch(context.Background(), []string{"github_repo:a/b", "env_var:EDITOR"}, "x")
	require.True(t, ok)
	assert.Equal(t, "env", res.Evidence)
}

func TestDispatch_UnverifiableStillEndsDispatch(t *testing.T) {
	// A source claiming an identifier answers for it even when the
	// answer is inconclusive; dispatch must not fall through to later
	// identifiers.
	inconclusive := &stubSource{prefix: "env_var", result: unverifiable("x", "unset")}
	fallback := &stubSource{prefix: "path_exists", result: match("x", "x", "fallback")}
	reg := NewRegistry(inconclusive, fallback)

	res, ok := reg.Dispatch(context.Background(), []string{"env_var:EDITOR", "path_exists:/tmp"}, "x")
	require.True(t, ok)
	assert.Equal(t, VerdictUnverifiable, res.Verdict)
	assert.Equal(t, 0, fallback.calls)
}

func TestDispatch_NoClaimingSource(t *testing.T) {
	reg := NewRegistry(&stubSource{prefix: "env_var"})

	_, ok := reg.Dispatch(context.Background(), []string{"github_repo:a/b"}, "x")
	assert.False(t, ok)

	_, ok = reg.Dispatch(context.Background(), nil, "x")
	assert.False(t, ok, "an empty identifier list is uncheckable")
}

func TestRegister_AppendsAfterExisting(t *testing.T) {
	first := &stubSource{prefix: "env_var", result: match("x", "x", "first")}
	reg := NewRegistry(first)
	reg.Register(&stubSource{prefix: "env_var", result: contradiction("x", "y", "late")})

	res, ok := reg.Dispatch(context.Background(), []string{"env_var:EDITOR"}, "x")
	require.True(t, ok)
	assert.Equal(t, "first", res.Evidence)
}

func TestEnv_Get(t *testing.T) {
	env := Env{"EDITOR": "vim"}

	v, ok := env.Get("EDITOR")
	assert.True(t, ok)
	assert.Equal(t, "vim", v)

	_, ok = env.Get("MISSING")
	assert.False(t, ok)
}

func TestSplitSourceID(t *testing.T) {
	prefix, arg, ok := splitSourceID("env_var:EDITOR")
	require.True(t, ok)
	assert.Equal(t, "env_var", prefix)
	assert.Equal(t, "EDITOR", arg)

	// Only the first colon splits; the argument keeps the rest.
	_, arg, ok = splitSourceID("http_status:https://example.com")
	require.True(t, ok)
	assert.Equal(t, "https://example.com", arg)

	_, _, ok = splitSourceID("user_confirm")
	assert.False(t, ok)
}
