// Package codec translates between the line-oriented memory file format
// and structured facts. Parsing and rendering are pure text transforms;
// file I/O lives in the store package.
//
// A memory file is an optional YAML frontmatter block fenced by "---"
// lines, followed by one record per line:
//
//	mem_XXXXXXXX | type | scope=... | key=... | value=... | src=... |
//	status=... | last_verified=... | ttl_days=... | verify_mode=... |
//	impact=... [| ref=...]
//
// Rendering is canonical (fixed field order, " | " separators, ref
// omitted when absent) so that parse → render → parse is the identity
// on every field.
package codec

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/driftwatch/internal/memory"
)

// recordPattern is the fixed field grammar for one record line.
// value= is non-greedy so values may contain spaces and most
// punctuation, but never an unescaped pipe.
var recordPattern = regexp.MustCompile(
	`^(mem_[A-Z2-7]{8})\s*\|\s*(\w+)\s*\|\s*scope=(\S+)\s*\|\s*key=(\S+)` +
		`\s*\|\s*value=(.+?)\s*\|\s*src=(\w+)\s*\|\s*status=(\w+)` +
		`\s*\|\s*last_verified=(\S+)\s*\|\s*ttl_days=(\d+)` +
		`\s*\|\s*verify_mode=(\w+)\s*\|\s*impact=(\w+)` +
		`(?:\s*\|\s*ref=(\S+))?\s*$`,
)

const (
	frontmatterFence = "---"
	commentMarker    = "#"
)

// ParseError is a structural parse failure. Line is 1-based within the
// body (or frontmatter context) where the failure occurred; 0 when no
// line applies.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	}
	return e.Message
}

// SplitFrontmatter splits a document into its metadata block and body.
// A frontmatter block exists only when the first line is the fence and
// a later fence line closes it; otherwise the whole text is body and
// the metadata is nil.
func SplitFrontmatter(text string) (map[string]any, string, error) {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != frontmatterFence {
		return nil, text, nil
	}

	end := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontmatterFence {
			end = i
			break
		}
	}
	if end < 0 {
		return nil, text, nil
	}

	meta := map[string]any{}
	fm := strings.Join(lines[1:end], "\n")
	if err := yaml.Unmarshal([]byte(fm), &meta); err != nil {
		return nil, "", &ParseError{Message: fmt.Sprintf("invalid frontmatter: %v", err)}
	}
	return meta, strings.Join(lines[end+1:], "\n"), nil
}

// ParseBody parses the record lines of a document body. Blank lines and
// comment lines are skipped. Any line that does not match the record
// grammar, or whose enum fields are unrecognized, fails with a
// ParseError carrying the 1-based line number.
func ParseBody(body string) ([]memory.Fact, error) {
	var facts []memory.Fact
	for i, line := range strings.Split(body, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped == "" || strings.HasPrefix(stripped, commentMarker) {
			continue
		}
		f, err := parseRecord(stripped, i+1)
		if err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, nil
}

func parseRecord(line string, lineno int) (memory.Fact, error) {
	m := recordPattern.FindStringSubmatch(line)
	if m == nil {
		return memory.Fact{}, &ParseError{Line: lineno, Message: fmt.Sprintf("invalid record: %q", line)}
	}

	fail := func(err error) (memory.Fact, error) {
		return memory.Fact{}, &ParseError{Line: lineno, Message: err.Error()}
	}

	typ, err := memory.ParseType(m[2])
	if err != nil {
		return fail(err)
	}
	src, err := memory.ParseSource(m[6])
	if err != nil {
		return fail(err)
	}
	status, err := memory.ParseStatus(m[7])
	if err != nil {
		return fail(err)
	}
	verified, err := memory.ParseVerified(m[8])
	if err != nil {
		return fail(err)
	}
	ttl, err := strconv.Atoi(m[9])
	if err != nil {
		return fail(fmt.Errorf("invalid ttl_days %q", m[9]))
	}
	mode, err := memory.ParseVerifyMode(m[10])
	if err != nil {
		return fail(err)
	}
	impact, err := memory.ParseImpact(m[11])
	if err != nil {
		return fail(err)
	}

	return memory.Fact{
		ID:           m[1],
		Type:         typ,
		Scope:        memory.ParseScope(m[3]),
		Key:          m[4],
		Value:        m[5],
		Src:          src,
		Status:       status,
		LastVerified: verified,
		TTLDays:      ttl,
		VerifyMode:   mode,
		Impact:       impact,
		Ref:          m[12],
	}, nil
}

// RenderRecord serializes one fact in canonical form.
func RenderRecord(f *memory.Fact) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s | %s | scope=%s | key=%s | value=%s | src=%s | status=%s",
		f.ID, f.Type, f.Scope, f.Key, f.Value, f.Src, f.Status)
	fmt.Fprintf(&b, " | last_verified=%s | ttl_days=%d | verify_mode=%s | impact=%s",
		f.LastVerified, f.TTLDays, f.VerifyMode, f.Impact)
	if f.Ref != "" {
		fmt.Fprintf(&b, " | ref=%s", f.Ref)
	}
	return b.String()
}

// Render serializes a whole document: deterministic frontmatter (when
// present) followed by one canonical record line per fact and a
// trailing newline.
func Render(meta map[string]any, facts []memory.Fact) (string, error) {
	var parts []string
	if len(meta) > 0 {
		fm, err := yaml.Marshal(meta)
		if err != nil {
			return "", fmt.Errorf("render frontmatter: %w", err)
		}
		parts = append(parts, frontmatterFence, strings.TrimRight(string(fm), "\n"), frontmatterFence, "")
	}
	for i := range facts {
		parts = append(parts, RenderRecord(&facts[i]))
	}
	parts = append(parts, "")
	return strings.Join(parts, "\n"), nil
}
