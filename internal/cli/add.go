package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/driftwatch/internal/memory"
	"github.com/roach88/driftwatch/internal/store"
)

type addFlags struct {
	key        string
	value      string
	memType    string
	scopeStr   string
	src        string
	ttlDays    int
	verifyMode string
	impact     string
}

// NewAddCommand creates the add command: append one new fact with a
// derived id, refusing duplicates of an existing (scope, key).
func NewAddCommand(opts *RootOptions) *cobra.Command {
	flags := &addFlags{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a new fact to the memory file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, cmd, flags)
		},
	}

	cmd.Flags().StringVar(&flags.key, "key", "", "fact key (e.g. env.editor)")
	cmd.Flags().StringVar(&flags.value, "value", "", "fact value")
	cmd.Flags().StringVar(&flags.memType, "type", "env", "fact type")
	cmd.Flags().StringVar(&flags.scopeStr, "scope", "global", "scope (e.g. global, machine:host)")
	cmd.Flags().StringVar(&flags.src, "src", "user", "provenance (user, tool, inferred, doc)")
	cmd.Flags().IntVar(&flags.ttlDays, "ttl", 30, "TTL in days (0 = never stale)")
	cmd.Flags().StringVar(&flags.verifyMode, "verify-mode", "auto", "verification mode")
	cmd.Flags().StringVar(&flags.impact, "impact", "low", "impact level")
	cmd.MarkFlagRequired("key")
	cmd.MarkFlagRequired("value")
	return cmd
}

func runAdd(opts *RootOptions, cmd *cobra.Command, flags *addFlags) error {
	typ, err := memory.ParseType(flags.memType)
	if err != nil {
		return err
	}
	src, err := memory.ParseSource(flags.src)
	if err != nil {
		return err
	}
	mode, err := memory.ParseVerifyMode(flags.verifyMode)
	if err != nil {
		return err
	}
	impact, err := memory.ParseImpact(flags.impact)
	if err != nil {
		return err
	}

	fact := memory.Fact{
		ID:           memory.FactID(flags.memType, flags.scopeStr, flags.key),
		Type:         typ,
		Scope:        memory.ParseScope(flags.scopeStr),
		Key:          flags.key,
		Value:        flags.value,
		Src:          src,
		Status:       memory.StatusActive,
		LastVerified: memory.VerifiedOn(time.Now()),
		TTLDays:      flags.ttlDays,
		VerifyMode:   mode,
		Impact:       impact,
	}

	var doc *store.Document
	if _, err := os.Stat(opts.MemoryPath); err == nil {
		doc, err = store.ReadDocument(opts.MemoryPath)
		if err != nil {
			return err
		}
	} else {
		doc = &store.Document{
			Meta: map[string]any{"version": 1},
			Path: opts.MemoryPath,
		}
	}

	for i := range doc.Facts {
		existing := &doc.Facts[i]
		if existing.Key == flags.key && existing.Scope.String() == flags.scopeStr {
			return fmt.Errorf("duplicate: %s already exists in scope %s (id %s)", flags.key, flags.scopeStr, existing.ID)
		}
	}

	doc.Facts = append(doc.Facts, fact)
	if err := doc.Write(opts.Backup()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s (%s = %s)\n", fact.ID, fact.Key, fact.Value)
	return nil
}
