package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/driftwatch/internal/fix"
	"github.com/roach88/driftwatch/internal/memory"
	"github.com/roach88/driftwatch/internal/pending"
	"github.com/roach88/driftwatch/internal/store"
	"github.com/roach88/driftwatch/internal/verify"
)

// NewVerifyPendingCommand creates the verify-pending command: walk the
// deferred queue, interactively verify each queued fact that still
// exists, and drop entries whose facts are gone.
func NewVerifyPendingCommand(opts *RootOptions) *cobra.Command {
	var queuePath string

	cmd := &cobra.Command{
		Use:   "verify-pending",
		Short: "Interactively verify facts from the pending queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerifyPending(opts, cmd, queuePath, nil)
		},
	}

	cmd.Flags().StringVar(&queuePath, "queue", DefaultPendingFile, "path to pending verification queue")
	return cmd
}

// runVerifyPending takes the prompt function as a parameter so tests
// can script the interaction.
func runVerifyPending(opts *RootOptions, cmd *cobra.Command, queuePath string, prompt verify.PromptFunc) error {
	out := cmd.OutOrStdout()

	queue := pending.NewQueue(queuePath)
	entries, err := queue.Read()
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No pending verifications.")
		return nil
	}

	doc, err := store.ReadDocument(opts.MemoryPath)
	if err != nil {
		return err
	}

	user := verify.NewUserSource(prompt)
	today := time.Now()
	resolved := 0

	for _, entry := range entries {
		var fact *memory.Fact
		for i := range doc.Facts {
			if doc.Facts[i].ID == entry.ItemID {
				fact = &doc.Facts[i]
				break
			}
		}

		// A fact removed since it was queued has nothing left to
		// verify; its queue entry is dropped.
		if fact == nil {
			fmt.Fprintf(out, "  %s: fact %s not found in memory file, removing from queue\n", entry.Key, entry.ItemID)
			if _, err := queue.Remove(entry.ItemID); err != nil {
				return err
			}
			continue
		}

		fmt.Fprintf(out, "  Verifying: %s = %s\n", entry.Key, entry.CurrentValue)
		drift := user.Check(cmd.Context(), verify.UserConfirmID, entry.CurrentValue)
		result := fix.Apply(fact, drift, today)
		fmt.Fprintf(out, "    %s: %s\n", strings.ReplaceAll(string(result.Action), "_", " "), result.Detail)

		// Declined prompts stay queued for a later pass.
		if drift.Verdict == verify.VerdictUnverifiable {
			continue
		}
		if _, err := queue.Remove(entry.ItemID); err != nil {
			return err
		}
		resolved++
	}

	if resolved == 0 {
		fmt.Fprintln(out, "No facts resolved.")
		return nil
	}
	if err := doc.Write(opts.Backup()); err != nil {
		return err
	}
	fmt.Fprintf(out, "Resolved %d pending fact(s).\n", resolved)
	return nil
}
