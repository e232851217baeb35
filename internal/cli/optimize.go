package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/driftwatch/internal/memory"
	"github.com/roach88/driftwatch/internal/scorer"
	"github.com/roach88/driftwatch/internal/store"
)

// coldAgeDays is how long an unremarkable fact must go unverified
// before it is considered cold and eligible for archival.
const coldAgeDays = 180

// NewOptimizeCommand creates the optimize command: move cold facts out
// of the root memory file into an archive topic, appending the archive
// to the inclusion list.
func NewOptimizeCommand(opts *RootOptions) *cobra.Command {
	var archive string
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "optimize",
		Short: "Move cold facts to an archive file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOptimize(opts, cmd, archive, dryRun)
		},
	}

	cmd.Flags().StringVar(&archive, "archive", "archive.md", "archive file path (relative to the memory file)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show cold facts without moving them")
	return cmd
}

func runOptimize(opts *RootOptions, cmd *cobra.Command, archive string, dryRun bool) error {
	out := cmd.OutOrStdout()

	doc, err := store.ReadDocument(opts.MemoryPath)
	if err != nil {
		return err
	}

	today := time.Now()
	var cold, kept []memory.Fact
	for _, f := range doc.Facts {
		if isCold(&f, today) {
			cold = append(cold, f)
		} else {
			kept = append(kept, f)
		}
	}

	if len(cold) == 0 {
		fmt.Fprintln(out, "No cold facts found.")
		return nil
	}

	if dryRun {
		fmt.Fprintln(out, "Cold facts (would be archived):")
		for i := range cold {
			fmt.Fprintf(out, "  %s (last verified: %s)\n", cold[i].Key, cold[i].LastVerified)
		}
		return nil
	}

	baseDir := filepath.Dir(opts.MemoryPath)
	archivePath := filepath.Join(baseDir, archive)

	var archiveDoc *store.Document
	if _, err := os.Stat(archivePath); err == nil {
		archiveDoc, err = store.ReadDocument(archivePath)
		if err != nil {
			return err
		}
	} else {
		archiveDoc = &store.Document{
			Meta: map[string]any{"version": 1, "role": "archive"},
			Path: archivePath,
		}
	}

	// Archival appends: cold facts keep their relative order at the end
	// of the archive.
	archiveDoc.Facts = append(archiveDoc.Facts, cold...)
	doc.Facts = kept
	doc.AddInclude(archive)
	for i := range cold {
		fmt.Fprintf(out, "  Archived: %s\n", cold[i].Key)
	}

	// Archive first: if its write fails, the root still references the
	// facts it holds.
	if err := archiveDoc.Write(opts.Backup()); err != nil {
		return err
	}
	if err := doc.Write(opts.Backup()); err != nil {
		return err
	}
	fmt.Fprintf(out, "Moved %d fact(s) to %s.\n", len(cold), archive)
	return nil
}

// isCold reports whether a fact is eligible for archival: low-impact
// plain facts whose verification is older than coldAgeDays. Facts never
// verified are kept; they have not earned archival yet.
func isCold(f *memory.Fact, today time.Time) bool {
	if f.Impact != memory.ImpactLow || f.Type != memory.TypeFact {
		return false
	}
	if f.LastVerified.Never() {
		return false
	}
	return scorer.AgeDays(f, today) > coldAgeDays
}
