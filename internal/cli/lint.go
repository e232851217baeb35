package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/driftwatch/internal/schema"
	"github.com/roach88/driftwatch/internal/store"
	"github.com/roach88/driftwatch/internal/validate"
)

// NewLintCommand creates the lint command: read-only format, identity
// and schema checks. All findings are collected and reported together;
// any finding exits non-zero and nothing is written.
func NewLintCommand(opts *RootOptions) *cobra.Command {
	var deep bool

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Read-only format and schema checks on the memory file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLint(opts, cmd, deep)
		},
	}

	cmd.Flags().BoolVar(&deep, "deep", false, "also check included files and cross-file ids")
	return cmd
}

func runLint(opts *RootOptions, cmd *cobra.Command, deep bool) error {
	errs, err := LintErrors(opts, deep)
	if err != nil {
		return err
	}
	if len(errs) > 0 {
		reportErrors(cmd, errs)
		return fmt.Errorf("lint failed")
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Lint passed. No issues found.")
	return nil
}

// LintErrors runs every lint check and returns the collected findings.
// The error return is reserved for structural failures (unreadable or
// unparseable files), which abort the lint outright.
func LintErrors(opts *RootOptions, deep bool) ([]string, error) {
	var findings []validate.Error

	findings = append(findings, validate.CheckLength(opts.MemoryPath)...)

	doc, err := store.ReadDocument(opts.MemoryPath)
	if err != nil {
		return nil, err
	}

	findings = append(findings, validate.CheckIDs(doc)...)
	findings = append(findings, validate.CheckDuplicateKeys(doc)...)

	if _, err := os.Stat(opts.SchemaPath); err == nil {
		sch, err := schema.Load(opts.SchemaPath)
		if err != nil {
			return nil, err
		}
		findings = append(findings, validate.CheckSchemaKeys(doc, sch)...)
	}

	findings = append(findings, validate.CheckRefs(doc, filepath.Dir(opts.MemoryPath))...)

	if deep {
		st, err := store.ReadStore(opts.MemoryPath)
		if err != nil {
			return nil, err
		}
		findings = append(findings, validate.CheckCrossFileIDs(st)...)
		for _, t := range st.Topics {
			findings = append(findings, validate.CheckIDs(t.Doc)...)
			findings = append(findings, validate.CheckDuplicateKeys(t.Doc)...)
		}
	}

	errs := make([]string, 0, len(findings))
	for _, f := range findings {
		errs = append(errs, f.Error())
	}
	return errs, nil
}
