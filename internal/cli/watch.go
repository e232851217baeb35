package cli

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewWatchCommand creates the watch command: re-lint the memory file on
// every write until interrupted. The watch is on the file's directory,
// not the file itself, because editors typically replace files by
// rename and a direct watch would be lost on the first save.
func NewWatchCommand(opts *RootOptions) *cobra.Command {
	var deep bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch the memory file and re-lint on change",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd, deep)
		},
	}

	cmd.Flags().BoolVar(&deep, "deep", false, "also check included files and cross-file ids")
	return cmd
}

func runWatch(opts *RootOptions, cmd *cobra.Command, deep bool) error {
	out := cmd.OutOrStdout()
	log := opts.Logger()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(opts.MemoryPath)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	target := filepath.Clean(opts.MemoryPath)
	fmt.Fprintf(out, "Watching %s (ctrl-c to stop)\n", target)
	lintOnce(opts, cmd, deep)

	for {
		select {
		case <-ctx.Done():
			fmt.Fprintln(out, "Stopped.")
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			log.Debug("memory file changed", zap.String("op", event.Op.String()))
			lintOnce(opts, cmd, deep)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(err))
		}
	}
}

func lintOnce(opts *RootOptions, cmd *cobra.Command, deep bool) {
	out := cmd.OutOrStdout()
	errs, err := LintErrors(opts, deep)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "  ERROR: %v\n", err)
		return
	}
	if len(errs) > 0 {
		reportErrors(cmd, errs)
		return
	}
	fmt.Fprintln(out, "Lint passed. No issues found.")
}
