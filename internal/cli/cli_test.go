package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/driftwatch/internal/memory"
	"github.com/roach88/driftwatch/internal/pending"
	"github.com/roach88/driftwatch/internal/store"
	"github.com/roach88/driftwatch/internal/testutil"
)

func writeMemory(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "MEMORY.md")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// testCommand wraps a RunE so output lands in a buffer.
func testCommand(runE func(cmd *cobra.Command, args []string) error) (*cobra.Command, *bytes.Buffer) {
	out := &bytes.Buffer{}
	cmd := &cobra.Command{RunE: runE}
	cmd.SetOut(out)
	cmd.SetErr(out)
	return cmd, out
}

func TestRunIDs_NormalizesWrongIDs(t *testing.T) {
	dir := t.TempDir()
	path := writeMemory(t, dir, "---\nversion: 1\n---\n"+
		"mem_WRONGID2 | env | scope=global | key=env.editor | value=vim | src=user | status=active | last_verified=never | ttl_days=30 | verify_mode=auto | impact=low\n")

	opts := &RootOptions{MemoryPath: path, NoBackup: true}
	cmd, out := testCommand(func(cmd *cobra.Command, _ []string) error {
		return runIDs(opts, cmd, false)
	})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "mem_WRONGID2 ->")

	doc, err := store.ReadDocument(path)
	require.NoError(t, err)
	assert.Equal(t, doc.Facts[0].DerivedID(), doc.Facts[0].ID)
}

func TestRunIDs_NoChanges(t *testing.T) {
	dir := t.TempDir()
	id := memory.FactID("env", "global", "env.editor")
	path := writeMemory(t, dir, "---\nversion: 1\n---\n"+
		id+" | env | scope=global | key=env.editor | value=vim | src=user | status=active | last_verified=never | ttl_days=30 | verify_mode=auto | impact=low\n")

	opts := &RootOptions{MemoryPath: path, NoBackup: true}
	cmd, out := testCommand(func(cmd *cobra.Command, _ []string) error {
		return runIDs(opts, cmd, false)
	})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "All ids are correct.")
}

func TestLintErrors_ReportsFindings(t *testing.T) {
	dir := t.TempDir()
	path := writeMemory(t, dir, "---\nversion: 1\n---\n"+
		"mem_WRONGID2 | env | scope=global | key=env.editor | value=vim | src=user | status=active | last_verified=never | ttl_days=30 | verify_mode=auto | impact=low\n")

	opts := &RootOptions{MemoryPath: path}
	errs, err := LintErrors(opts, false)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "D101")
}

func TestRunAdd_AppendsAndRejectsDuplicates(t *testing.T) {
	dir := t.TempDir()
	opts := &RootOptions{MemoryPath: filepath.Join(dir, "MEMORY.md"), NoBackup: true}
	flags := &addFlags{
		key: "env.editor", value: "vim",
		memType: "env", scopeStr: "global", src: "user",
		ttlDays: 30, verifyMode: "auto", impact: "low",
	}

	cmd, out := testCommand(func(cmd *cobra.Command, _ []string) error {
		return runAdd(opts, cmd, flags)
	})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Added mem_")

	doc, err := store.ReadDocument(opts.MemoryPath)
	require.NoError(t, err)
	require.Len(t, doc.Facts, 1)
	assert.Equal(t, doc.Facts[0].DerivedID(), doc.Facts[0].ID)

	cmd, _ = testCommand(func(cmd *cobra.Command, _ []string) error {
		return runAdd(opts, cmd, flags)
	})
	err = cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestRunVerifyPending_ConfirmAndDecline(t *testing.T) {
	dir := t.TempDir()
	id := memory.FactID("env", "global", "env.editor")
	id2 := memory.FactID("env", "global", "env.shell")
	path := writeMemory(t, dir, "---\nversion: 1\n---\n"+
		id+" | env | scope=global | key=env.editor | value=vim | src=user | status=active | last_verified=never | ttl_days=30 | verify_mode=human | impact=low\n"+
		id2+" | env | scope=global | key=env.shell | value=bash | src=user | status=active | last_verified=never | ttl_days=30 | verify_mode=human | impact=low\n")

	queuePath := filepath.Join(dir, "pending.json")
	queue := pending.NewQueue(queuePath)
	for _, e := range []pending.Entry{
		{ItemID: id, Key: "env.editor", CurrentValue: "vim", VerifyMode: "human"},
		{ItemID: id2, Key: "env.shell", CurrentValue: "bash", VerifyMode: "human"},
	} {
		_, err := queue.Add(e)
		require.NoError(t, err)
	}

	// Confirm the first fact, decline the second.
	prompt := testutil.NewScriptedPrompt(
		testutil.PromptResponse{Value: "vim", OK: true},
		testutil.PromptResponse{OK: false},
	)

	opts := &RootOptions{MemoryPath: path, NoBackup: true}
	cmd, out := testCommand(func(cmd *cobra.Command, _ []string) error {
		return runVerifyPending(opts, cmd, queuePath, prompt.Func())
	})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Resolved 1 pending fact(s).")
	assert.Equal(t, 2, prompt.Calls())

	// The declined fact stays queued; the confirmed one is gone.
	entries, err := queue.Read()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, id2, entries[0].ItemID)

	doc, err := store.ReadDocument(path)
	require.NoError(t, err)
	assert.False(t, doc.Facts[0].LastVerified.Never(), "confirmed fact gets a fresh last_verified")
	assert.True(t, doc.Facts[1].LastVerified.Never())
}

func TestRunVerifyPending_DropsMissingFacts(t *testing.T) {
	dir := t.TempDir()
	path := writeMemory(t, dir, "---\nversion: 1\n---\n")

	queuePath := filepath.Join(dir, "pending.json")
	queue := pending.NewQueue(queuePath)
	_, err := queue.Add(pending.Entry{ItemID: "mem_GONE2222", Key: "env.editor", CurrentValue: "vim"})
	require.NoError(t, err)

	prompt := testutil.NewScriptedPrompt() // must never be asked

	opts := &RootOptions{MemoryPath: path, NoBackup: true}
	cmd, out := testCommand(func(cmd *cobra.Command, _ []string) error {
		return runVerifyPending(opts, cmd, queuePath, prompt.Func())
	})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "removing from queue")
	assert.Equal(t, 0, prompt.Calls())

	entries, err := queue.Read()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRunOptimize_ArchivesColdFacts(t *testing.T) {
	dir := t.TempDir()
	id := memory.FactID("fact", "global", "legacy.note")
	keep := memory.FactID("env", "global", "env.editor")
	path := writeMemory(t, dir, "---\nversion: 1\n---\n"+
		id+" | fact | scope=global | key=legacy.note | value=x | src=user | status=active | last_verified=2020-01-01 | ttl_days=0 | verify_mode=auto | impact=low\n"+
		keep+" | env | scope=global | key=env.editor | value=vim | src=user | status=active | last_verified=2020-01-01 | ttl_days=30 | verify_mode=auto | impact=med\n")

	opts := &RootOptions{MemoryPath: path, NoBackup: true}
	cmd, out := testCommand(func(cmd *cobra.Command, _ []string) error {
		return runOptimize(opts, cmd, "archive.md", false)
	})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Archived: legacy.note")

	st, err := store.ReadStore(path)
	require.NoError(t, err)
	require.Len(t, st.Root.Facts, 1)
	assert.Equal(t, "env.editor", st.Root.Facts[0].Key)
	assert.Equal(t, []string{"archive.md"}, st.Root.Includes())
	require.Len(t, st.Topics, 1)
	require.Len(t, st.Topics[0].Doc.Facts, 1)
	assert.Equal(t, "legacy.note", st.Topics[0].Doc.Facts[0].Key)
}
