package validate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/driftwatch/internal/memory"
	"github.com/roach88/driftwatch/internal/schema"
	"github.com/roach88/driftwatch/internal/store"
)

func goodFact(key string) memory.Fact {
	f := memory.Fact{
		Type:   memory.TypeEnv,
		Scope:  memory.GlobalScope(),
		Key:    key,
		Value:  "x",
		Src:    memory.SourceUser,
		Status: memory.StatusActive,

		LastVerified: memory.NeverVerified(),
		VerifyMode:   memory.VerifyAuto,
		Impact:       memory.ImpactLow,
	}
	f.ID = f.DerivedID()
	return f
}

func TestCheckIDs(t *testing.T) {
	doc := &store.Document{Facts: []memory.Fact{goodFact("env.editor")}}
	assert.Empty(t, CheckIDs(doc))

	doc.Facts[0].ID = "mem_WRONGID2"
	errs := CheckIDs(doc)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrWrongID, errs[0].Code)
	assert.Equal(t, "env.editor", errs[0].Field)
	assert.Contains(t, errs[0].Message, "mem_WRONGID2")
}

func TestCheckDuplicateKeys(t *testing.T) {
	doc := &store.Document{Facts: []memory.Fact{
		goodFact("env.editor"),
		goodFact("repo.main_branch"),
		goodFact("env.editor"),
	}}

	errs := CheckDuplicateKeys(doc)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateKey, errs[0].Code)
	assert.Equal(t, "env.editor", errs[0].Field)
}

func TestCheckDuplicateKeys_SameKeyDifferentScope(t *testing.T) {
	a := goodFact("env.editor")
	b := goodFact("env.editor")
	b.Scope = memory.ParseScope("machine:laptop")
	b.ID = b.DerivedID()

	doc := &store.Document{Facts: []memory.Fact{a, b}}
	assert.Empty(t, CheckDuplicateKeys(doc), "scopes partition the key namespace")
}

func TestCheckSchemaKeys(t *testing.T) {
	sch := schema.New(map[string]schema.KeyDef{
		"env.editor": {Aliases: []string{"editor"}},
	})

	known := goodFact("env.editor")
	aliased := goodFact("editor")
	unknown := goodFact("env.shell")
	doc := &store.Document{Facts: []memory.Fact{known, aliased, unknown}}

	errs := CheckSchemaKeys(doc, sch)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnknownKey, errs[0].Code)
	assert.Equal(t, "env.shell", errs[0].Field)
}

func TestCheckRefs(t *testing.T) {
	dir := t.TempDir()
	target := goodFact("repo.main_branch")
	targetDoc := &store.Document{
		Facts: []memory.Fact{target},
		Path:  filepath.Join(dir, "topics", "git.md"),
	}
	require.NoError(t, os.MkdirAll(filepath.Dir(targetDoc.Path), 0o755))
	require.NoError(t, targetDoc.Write(false))

	cases := []struct {
		name string
		ref  string
		code string
	}{
		{"file only", "topics/git.md", ""},
		{"anchor by id", "topics/git.md#" + target.ID, ""},
		{"anchor by key", "topics/git.md#repo.main_branch", ""},
		{"missing file", "topics/absent.md", ErrRefTargetMissing},
		{"missing anchor", "topics/git.md#no.such.key", ErrRefAnchorMissing},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := goodFact("env.editor")
			f.Ref = tc.ref
			doc := &store.Document{Facts: []memory.Fact{f}}

			errs := CheckRefs(doc, dir)
			if tc.code == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Equal(t, tc.code, errs[0].Code)
			assert.Equal(t, "env.editor", errs[0].Field)
		})
	}
}

func TestCheckCrossFileIDs(t *testing.T) {
	shared := goodFact("env.editor")
	st := &store.Store{
		Root: &store.Document{
			Facts: []memory.Fact{shared},
			Path:  "MEMORY.md",
		},
		Topics: []store.Topic{{
			Rel: "topics/git.md",
			Doc: &store.Document{
				Facts: []memory.Fact{shared},
				Path:  "topics/git.md",
			},
		}},
	}

	errs := CheckCrossFileIDs(st)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDuplicateID, errs[0].Code)
	assert.Contains(t, errs[0].Message, shared.ID)
	assert.Contains(t, errs[0].Message, "topics/git.md")
	assert.Contains(t, errs[0].Message, "first seen in")
}

func TestCheckLength(t *testing.T) {
	dir := t.TempDir()

	short := filepath.Join(dir, "short.md")
	require.NoError(t, os.WriteFile(short, []byte("one\ntwo\n"), 0o644))
	assert.Empty(t, CheckLength(short))

	long := filepath.Join(dir, "long.md")
	content := strings.Repeat("line\n", MaxDocumentLines+1)
	require.NoError(t, os.WriteFile(long, []byte(content), 0o644))

	errs := CheckLength(long)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrFileTooLong, errs[0].Code)
}

func TestError_Format(t *testing.T) {
	withField := Error{Field: "env.editor", Message: "bad", Code: ErrWrongID}
	assert.Equal(t, "[D101] env.editor: bad", withField.Error())

	bare := Error{Message: "too long", Code: ErrFileTooLong}
	assert.Equal(t, "[D107] too long", bare.Error())
}
