package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/driftwatch/internal/history"
)

type historyFlags struct {
	itemID string
	key    string
	action string
	limit  int
	db     string
	audit  string
}

// NewHistoryCommand creates the history command: ingest the JSONL audit
// log into its sqlite index and query past remediations.
func NewHistoryCommand(opts *RootOptions) *cobra.Command {
	flags := &historyFlags{}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Query past remediations from the audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.itemID, "id", "", "filter by fact id")
	cmd.Flags().StringVar(&flags.key, "key", "", "filter by fact key")
	cmd.Flags().StringVar(&flags.action, "action", "", "filter by remediation action")
	cmd.Flags().IntVar(&flags.limit, "limit", 20, "max entries to show (0 = unlimited)")
	cmd.Flags().StringVar(&flags.audit, "audit-log", DefaultAuditLog, "path to JSON-lines audit log")
	cmd.Flags().StringVar(&flags.db, "db", "", "path to index database (default <audit-log>.db)")
	return cmd
}

func runHistory(cmd *cobra.Command, flags *historyFlags) error {
	out := cmd.OutOrStdout()

	dbPath := flags.db
	if dbPath == "" {
		dbPath = flags.audit + ".db"
	}

	ix, err := history.Open(dbPath)
	if err != nil {
		return err
	}
	defer ix.Close()

	// Re-ingest the whole log; inserts are idempotent so only new
	// lines land.
	if f, err := os.Open(flags.audit); err == nil {
		_, ingestErr := ix.Ingest(cmd.Context(), f)
		f.Close()
		if ingestErr != nil {
			return ingestErr
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("open audit log: %w", err)
	}

	entries, err := ix.Query(cmd.Context(), history.Filter{
		ItemID: flags.itemID,
		Key:    flags.key,
		Action: flags.action,
		Limit:  flags.limit,
	})
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintln(out, "No matching remediations.")
		return nil
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %s  %s  %s", e.Timestamp, e.ItemID, e.Key, e.Action)
		if e.OldValue != nil && e.NewValue != nil {
			line += fmt.Sprintf("  %q -> %q", *e.OldValue, *e.NewValue)
		}
		fmt.Fprintln(out, line)
	}
	return nil
}
