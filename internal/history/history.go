// Package history maintains a queryable sqlite index over the JSONL
// audit log. The log itself stays the source of truth; the index is
// rebuilt idempotently from it, so deleting the database loses nothing.
package history

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/driftwatch/internal/audit"
)

// schemaSQL creates the remediations table. The unique key mirrors what
// makes an audit line distinct: one action on one fact in one run at
// one instant.
const schemaSQL = `
CREATE TABLE IF NOT EXISTS remediations (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	item_id     TEXT NOT NULL,
	key         TEXT NOT NULL,
	action      TEXT NOT NULL,
	old_value   TEXT,
	new_value   TEXT,
	detail      TEXT NOT NULL DEFAULT '',
	src         TEXT NOT NULL DEFAULT '',
	scope       TEXT NOT NULL DEFAULT '',
	type        TEXT NOT NULL DEFAULT '',
	memory_file TEXT NOT NULL DEFAULT '',
	timestamp   TEXT NOT NULL,
	UNIQUE(run_id, item_id, timestamp, action)
);
CREATE INDEX IF NOT EXISTS idx_remediations_item ON remediations(item_id);
CREATE INDEX IF NOT EXISTS idx_remediations_key ON remediations(key);
`

// Index is a sqlite-backed view of the audit log.
type Index struct {
	db *sql.DB
}

// Open opens (creating if needed) the index database and applies the
// schema.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history index: %w", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate history index: %w", err)
	}
	return &Index{db: db}, nil
}

// Close releases the database handle.
func (ix *Index) Close() error {
	return ix.db.Close()
}

// Ingest reads JSONL audit entries and inserts them. Inserts are
// idempotent (ON CONFLICT DO NOTHING on the unique key), so re-ingesting
// the full log after each scan only adds the new lines. Returns the
// number of rows actually inserted.
func (ix *Index) Ingest(ctx context.Context, r io.Reader) (int, error) {
	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("ingest audit log: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	inserted := 0
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineno := 0
	for scanner.Scan() {
		lineno++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e audit.Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return 0, fmt.Errorf("ingest audit log: line %d: %w", lineno, err)
		}

		result, err := tx.ExecContext(ctx, `
			INSERT INTO remediations
			(run_id, item_id, key, action, old_value, new_value, detail, src, scope, type, memory_file, timestamp)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_id, item_id, timestamp, action) DO NOTHING
		`,
			e.RunID, e.ItemID, e.Key, e.Action, e.OldValue, e.NewValue,
			e.Detail, e.Src, e.Scope, e.Type, e.MemoryFile, e.Timestamp,
		)
		if err != nil {
			return 0, fmt.Errorf("ingest audit log: line %d: %w", lineno, err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("ingest audit log: rows affected: %w", err)
		}
		inserted += int(n)
	}
	if err := scanner.Err(); err != nil {
		return 0, fmt.Errorf("ingest audit log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("ingest audit log: commit: %w", err)
	}
	return inserted, nil
}

// Filter narrows a history query. Zero values match everything.
type Filter struct {
	ItemID string
	Key    string
	Action string
	Limit  int
}

// Query returns matching remediations, newest first.
func (ix *Index) Query(ctx context.Context, f Filter) ([]audit.Entry, error) {
	query := `
		SELECT run_id, item_id, key, action, old_value, new_value, detail, src, scope, type, memory_file, timestamp
		FROM remediations WHERE 1=1`
	var args []any
	if f.ItemID != "" {
		query += " AND item_id = ?"
		args = append(args, f.ItemID)
	}
	if f.Key != "" {
		query += " AND key = ?"
		args = append(args, f.Key)
	}
	if f.Action != "" {
		query += " AND action = ?"
		args = append(args, f.Action)
	}
	query += " ORDER BY timestamp DESC, id DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := ix.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var e audit.Entry
		if err := rows.Scan(
			&e.RunID, &e.ItemID, &e.Key, &e.Action, &e.OldValue, &e.NewValue,
			&e.Detail, &e.Src, &e.Scope, &e.Type, &e.MemoryFile, &e.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("query history: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return entries, nil
}
