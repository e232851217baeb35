// Package audit is the append-only remediation trail: one compact,
// self-describing JSON line per action taken, in the order the actions
// were applied.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/driftwatch/internal/fix"
)

// Entry is one persisted remediation record.
type Entry struct {
	Timestamp  string  `json:"timestamp"`
	RunID      string  `json:"run_id"`
	ItemID     string  `json:"item_id"`
	Key        string  `json:"key"`
	Action     string  `json:"action"`
	OldValue   *string `json:"old_value"`
	NewValue   *string `json:"new_value"`
	Detail     string  `json:"detail"`
	Src        string  `json:"src"`
	Scope      string  `json:"scope"`
	Type       string  `json:"type"`
	MemoryFile string  `json:"memory_file"`
}

// NewRunID returns a time-sortable UUIDv7 token identifying one scan
// pass. Every entry the pass appends carries the same token, so the
// log can be grouped back into runs.
func NewRunID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// FormatEntry flattens a fix result into a persistable entry.
func FormatEntry(r fix.Result, memoryFile, runID string, now time.Time) Entry {
	f := r.Fact
	return Entry{
		Timestamp:  now.UTC().Format(time.RFC3339),
		RunID:      runID,
		ItemID:     f.ID,
		Key:        f.Key,
		Action:     string(r.Action),
		OldValue:   r.OldValue,
		NewValue:   r.NewValue,
		Detail:     r.Detail,
		Src:        string(f.Src),
		Scope:      f.Scope.String(),
		Type:       string(f.Type),
		MemoryFile: memoryFile,
	}
}

// WriteEntries appends one JSON line per result, in order. An empty
// result list performs no I/O and creates no file. Returns the number
// of lines appended.
func WriteEntries(results []fix.Result, path, memoryFile, runID string) (int, error) {
	if len(results) == 0 {
		return 0, nil
	}

	now := time.Now()
	out := make([]byte, 0, 256*len(results))
	for _, r := range results {
		line, err := json.Marshal(FormatEntry(r, memoryFile, runID, now))
		if err != nil {
			return 0, fmt.Errorf("audit entry: %w", err)
		}
		out = append(out, line...)
		out = append(out, '\n')
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, fmt.Errorf("open audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(out); err != nil {
		return 0, fmt.Errorf("append audit log: %w", err)
	}
	return len(results), nil
}
