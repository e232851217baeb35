// Package cli wires the driftwatch commands to the core packages. The
// commands themselves are thin dispatchers: flags in, core calls out,
// human-readable lines on stdout, diagnostics on stderr.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Default file locations, relative to the working directory.
const (
	DefaultMemoryFile  = "MEMORY.md"
	DefaultSchemaFile  = "schema.yaml"
	DefaultPendingFile = "pending_verifications.json"
	DefaultAuditLog    = "audit.jsonl"
	DefaultEnvFile     = ".env"
)

// RootOptions holds global flags shared by all commands.
type RootOptions struct {
	MemoryPath string
	SchemaPath string
	NoBackup   bool
	Network    bool
	EnvFile    string
	Verbose    bool

	logger *zap.Logger
}

// Logger returns the process logger, building it on first use.
// Verbose raises the level to Debug.
func (o *RootOptions) Logger() *zap.Logger {
	if o.logger == nil {
		config := zap.NewProductionConfig()
		if o.Verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err := config.Build()
		if err != nil {
			logger = zap.NewNop()
		}
		o.logger = logger
	}
	return o.logger
}

// Backup reports whether pre-write backups are enabled.
func (o *RootOptions) Backup() bool {
	return !o.NoBackup
}

// NewRootCommand creates the driftwatch root command.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "driftwatch",
		Short:         "Drift detection and remediation for declarative memory files",
		Long:          "driftwatch reconciles a curated store of key/value facts against observed reality,\nrepairing machine-derived facts that drifted and flagging human-asserted ones for review.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.MemoryPath, "memory", DefaultMemoryFile, "path to memory file")
	cmd.PersistentFlags().StringVar(&opts.SchemaPath, "schema", DefaultSchemaFile, "path to schema file")
	cmd.PersistentFlags().BoolVar(&opts.NoBackup, "no-backup", false, "disable .bak backup before writing")
	cmd.PersistentFlags().BoolVar(&opts.Network, "network", false, "enable network-based verification sources")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", "path to .env file for secrets")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewIDsCommand(opts))
	cmd.AddCommand(NewLintCommand(opts))
	cmd.AddCommand(NewScanCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewOptimizeCommand(opts))
	cmd.AddCommand(NewVerifyPendingCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewWatchCommand(opts))

	return cmd
}

// reportErrors prints a collected error list to stderr in the shape
// every command shares.
func reportErrors(cmd *cobra.Command, errs []string) {
	for _, e := range errs {
		fmt.Fprintf(cmd.ErrOrStderr(), "  ERROR: %s\n", e)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "%d error(s) found.\n", len(errs))
}
