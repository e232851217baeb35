package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/driftwatch/internal/store"
)

// NewIDsCommand creates the ids command: re-derive every fact's id from
// its (type, scope, key) and rewrite the file when any differ.
func NewIDsCommand(opts *RootOptions) *cobra.Command {
	var deep bool

	cmd := &cobra.Command{
		Use:   "ids",
		Short: "Assign or normalize deterministic fact ids",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIDs(opts, cmd, deep)
		},
	}

	cmd.Flags().BoolVar(&deep, "deep", false, "normalize ids across all included files")
	return cmd
}

func runIDs(opts *RootOptions, cmd *cobra.Command, deep bool) error {
	out := cmd.OutOrStdout()

	if deep {
		st, err := store.ReadStore(opts.MemoryPath)
		if err != nil {
			return err
		}
		changed := 0
		for _, f := range st.AllFacts() {
			if derived := f.DerivedID(); f.ID != derived {
				fmt.Fprintf(out, "  %s -> %s  (%s)\n", f.ID, derived, f.Key)
				f.ID = derived
				changed++
			}
		}
		if changed == 0 {
			fmt.Fprintln(out, "All ids are correct.")
			return nil
		}
		if err := st.Write(opts.Backup()); err != nil {
			return err
		}
		fmt.Fprintf(out, "Updated %d id(s) across all files.\n", changed)
		return nil
	}

	doc, err := store.ReadDocument(opts.MemoryPath)
	if err != nil {
		return err
	}
	changed := 0
	for i := range doc.Facts {
		f := &doc.Facts[i]
		if derived := f.DerivedID(); f.ID != derived {
			fmt.Fprintf(out, "  %s -> %s  (%s)\n", f.ID, derived, f.Key)
			f.ID = derived
			changed++
		}
	}
	if changed == 0 {
		fmt.Fprintln(out, "All ids are correct.")
		return nil
	}
	if err := doc.Write(opts.Backup()); err != nil {
		return err
	}
	fmt.Fprintf(out, "Updated %d id(s).\n", changed)
	return nil
}
