package cli

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/driftwatch/internal/audit"
	"github.com/roach88/driftwatch/internal/engine"
	"github.com/roach88/driftwatch/internal/memory"
	"github.com/roach88/driftwatch/internal/pending"
	"github.com/roach88/driftwatch/internal/schema"
	"github.com/roach88/driftwatch/internal/secrets"
	"github.com/roach88/driftwatch/internal/store"
	"github.com/roach88/driftwatch/internal/verify"
)

type scanFlags struct {
	dryRun       bool
	interactive  bool
	limit        int
	maxCost      float64
	auditLog     string
	noAudit      bool
	deep         bool
	pendingQueue string
}

// NewScanCommand creates the scan command: one ranked pass over the
// store, verifying facts against reality and applying remediations.
func NewScanCommand(opts *RootOptions) *cobra.Command {
	flags := &scanFlags{}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan facts for drift and apply fixes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(opts, cmd, flags)
		},
	}

	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "show what would change without writing")
	cmd.Flags().BoolVar(&flags.interactive, "interactive", false, "enable interactive prompts for verification")
	cmd.Flags().IntVar(&flags.limit, "limit", 0, "max facts to check (0 = unlimited)")
	cmd.Flags().Float64Var(&flags.maxCost, "max-cost", 0, "max total verification cost (0 = unlimited)")
	cmd.Flags().StringVar(&flags.auditLog, "audit-log", DefaultAuditLog, "path to JSON-lines audit log")
	cmd.Flags().BoolVar(&flags.noAudit, "no-audit", false, "disable audit log writing")
	cmd.Flags().BoolVar(&flags.deep, "deep", false, "scan all included files")
	cmd.Flags().StringVar(&flags.pendingQueue, "pending-queue", "", "path to pending verification queue")
	return cmd
}

func runScan(opts *RootOptions, cmd *cobra.Command, flags *scanFlags) error {
	out := cmd.OutOrStdout()
	log := opts.Logger()

	// Load either the root document alone or the whole store.
	var st *store.Store
	var doc *store.Document
	var facts []*memory.Fact
	var err error
	if flags.deep {
		st, err = store.ReadStore(opts.MemoryPath)
		if err != nil {
			return err
		}
		facts = st.AllFacts()
	} else {
		doc, err = store.ReadDocument(opts.MemoryPath)
		if err != nil {
			return err
		}
		for i := range doc.Facts {
			facts = append(facts, &doc.Facts[i])
		}
	}

	var sch *schema.Schema
	if _, err := os.Stat(opts.SchemaPath); err == nil {
		sch, err = schema.Load(opts.SchemaPath)
		if err != nil {
			return err
		}
	}

	registry, err := buildRegistry(opts, flags.interactive)
	if err != nil {
		return err
	}

	var queue *pending.Queue
	if flags.pendingQueue != "" {
		queue = pending.NewQueue(flags.pendingQueue)
	}

	scanner := &engine.Scanner{
		Registry: registry,
		Schema:   sch,
		Pending:  queue,
		Log:      log,
	}

	today := time.Now()
	report, err := scanner.Scan(cmd.Context(), facts, today, engine.Options{
		Interactive: flags.interactive,
		MemoryFile:  opts.MemoryPath,
		Budget: engine.Budget{
			MaxItems: flags.limit,
			MaxCost:  flags.maxCost,
		},
	})
	if err != nil {
		return err
	}

	for _, r := range report.Results {
		fmt.Fprintf(out, "  %s: %s (%s)\n", r.Fact.Key, strings.ReplaceAll(string(r.Action), "_", " "), r.Detail)
	}
	for _, key := range report.Queued {
		fmt.Fprintf(out, "  %s: queued for pending verification\n", key)
	}
	for _, key := range report.Skipped {
		fmt.Fprintf(out, "  %s: no checkable source, skipping\n", key)
	}
	if report.Stopped != engine.StopNone {
		fmt.Fprintf(out, "  %s, stopping.\n", report.Stopped)
	}

	switch {
	case flags.dryRun:
		fmt.Fprintln(out, "Dry run: no changes written.")
	case len(report.Results) > 0:
		if flags.deep {
			err = st.Write(opts.Backup())
		} else {
			err = doc.Write(opts.Backup())
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Wrote %d update(s) to %s.\n", len(report.Results), opts.MemoryPath)

		if !flags.noAudit {
			count, err := audit.WriteEntries(report.Results, flags.auditLog, opts.MemoryPath, audit.NewRunID())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Appended %d entry/entries to %s.\n", count, flags.auditLog)
		}
	default:
		fmt.Fprintln(out, "No facts to check.")
	}
	return nil
}

// buildRegistry assembles verification sources in dispatch order: local
// first, network sources only when enabled, the interactive source
// last. The environment snapshot is captured once here; dotenv secrets
// are merged into it (never into the process environment) before any
// network source can read them.
func buildRegistry(opts *RootOptions, interactive bool) (*verify.Registry, error) {
	env := verify.CaptureEnv()

	registry := verify.NewRegistry(verify.NewLocalSource(env))

	if opts.Network {
		envFile := opts.EnvFile
		if envFile == "" {
			envFile = DefaultEnvFile
		}
		vars, err := secrets.LoadDotenv(envFile)
		if err != nil {
			return nil, err
		}
		secrets.Merge(env, vars)

		registry.Register(verify.NewExternalSource(0))
		registry.Register(verify.NewGitHubSource(env, 0))
	}

	if interactive {
		registry.Register(verify.NewUserSource(nil))
	}

	return registry, nil
}
