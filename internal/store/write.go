package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/driftwatch/internal/codec"
)

// BackupSuffix is appended to the original path when a pre-write backup
// is taken. Each write replaces the previous backup; backups never
// accumulate.
const BackupSuffix = ".bak"

// Write renders the document and persists it atomically to its path.
//
// The content is written to a temporary file in the destination
// directory and renamed into place, so a crash mid-write either leaves
// the original untouched (temp abandoned and removed) or completes the
// rename atomically. There is no partially-written destination state.
//
// When backup is true and the destination already exists, its current
// content is first copied to <path>.bak.
func (d *Document) Write(backup bool) error {
	if d.Path == "" {
		return fmt.Errorf("write document: no path")
	}

	content, err := codec.Render(d.Meta, d.Facts)
	if err != nil {
		return fmt.Errorf("write document %s: %w", d.Path, err)
	}

	if backup {
		if err := backupFile(d.Path); err != nil {
			return err
		}
	}

	return writeAtomic(d.Path, []byte(content))
}

// WriteTo persists the document to a new path, re-pointing it there.
func (d *Document) WriteTo(path string, backup bool) error {
	d.Path = path
	return d.Write(backup)
}

// backupFile copies path to path.bak, replacing any previous backup.
// A missing destination skips the backup: there is nothing to preserve.
func backupFile(path string) error {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("backup %s: %w", path, err)
	}
	if err := os.WriteFile(path+BackupSuffix, raw, 0o644); err != nil {
		return fmt.Errorf("backup %s: %w", path, err)
	}
	return nil
}

// writeAtomic writes content via a temp file in the same directory
// followed by a rename. On any failure the temp file is removed and the
// destination is left untouched.
func writeAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".driftwatch-*.tmp")
	if err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	tmpPath := tmp.Name()

	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}

	if _, err := tmp.Write(content); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
