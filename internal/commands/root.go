package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/txengine/internal/buildinfo"
)

// NewRootCommand creates the txengine command. It takes a single transactions
// CSV path and writes the account snapshot to stdout.
func NewRootCommand() *cobra.Command {
	var opts processOptions

	rootCmd := &cobra.Command{
		Use:     "txengine <transactions.csv>",
		Short:   "Replay a transaction CSV and print client balances",
		Version: buildinfo.String(),
		Args:    cobra.ExactArgs(1),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.input = args[0]
			opts.logLevelSet = cmd.Flags().Changed("log-level")
			return runProcess(cmd, opts)
		},
	}

	rootCmd.Flags().StringVar(&opts.configPath, "config", "", "YAML config file")
	rootCmd.Flags().StringVar(&opts.auditPath, "audit", "", "write ignored and skipped records to this CSV file")
	rootCmd.Flags().StringVar(&opts.snapshotDB, "snapshot-db", "", "also export the final snapshot to this SQLite database")
	rootCmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error, disabled")

	return rootCmd
}
