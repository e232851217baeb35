// Package pending is the deferred-verification queue: a deduplicated,
// file-backed holding area for facts no automatic source could check,
// awaiting a later human pass.
package pending

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Entry is one queued fact awaiting deferred verification.
type Entry struct {
	ItemID       string `json:"item_id"`
	Key          string `json:"key"`
	CurrentValue string `json:"current_value"`
	VerifyMode   string `json:"verify_mode"`
	SourceFile   string `json:"source_file"`
	QueuedAt     string `json:"queued_at"`
	Evidence     string `json:"evidence"`
}

// Queue is a JSON-array file of entries, deduplicated by fact id.
type Queue struct {
	Path string

	// now is injectable for deterministic timestamps in tests.
	now func() time.Time
}

// NewQueue opens a queue at the given path. The file need not exist.
func NewQueue(path string) *Queue {
	return &Queue{Path: path, now: time.Now}
}

// Read loads the whole queue. An absent or empty file is an empty
// queue.
func (q *Queue) Read() ([]Entry, error) {
	raw, err := os.ReadFile(q.Path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read pending queue: %w", err)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	var entries []Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("read pending queue %s: %w", q.Path, err)
	}
	return entries, nil
}

// Write replaces the whole queue.
func (q *Queue) Write(entries []Entry) error {
	if entries == nil {
		entries = []Entry{}
	}
	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("write pending queue: %w", err)
	}
	if err := os.WriteFile(q.Path, append(raw, '\n'), 0o644); err != nil {
		return fmt.Errorf("write pending queue: %w", err)
	}
	return nil
}

// Add enqueues an entry with a fresh timestamp. The first enqueue for a
// fact id wins: adding an id that is already queued is a no-op, and the
// original evidence is retained. Returns whether the entry was added.
func (q *Queue) Add(e Entry) (bool, error) {
	entries, err := q.Read()
	if err != nil {
		return false, err
	}
	for _, existing := range entries {
		if existing.ItemID == e.ItemID {
			return false, nil
		}
	}
	e.QueuedAt = q.now().UTC().Format(time.RFC3339)
	if err := q.Write(append(entries, e)); err != nil {
		return false, err
	}
	return true, nil
}

// Remove deletes the entry with the given fact id, reporting whether
// anything was removed.
func (q *Queue) Remove(itemID string) (bool, error) {
	entries, err := q.Read()
	if err != nil {
		return false, err
	}
	kept := entries[:0]
	for _, e := range entries {
		if e.ItemID != itemID {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(entries) {
		return false, nil
	}
	if err := q.Write(kept); err != nil {
		return false, err
	}
	return true, nil
}
