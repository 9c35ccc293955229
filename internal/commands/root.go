package commands

import (
	"github.com/spf13/cobra"

	"github.com/coinledger/bnc/internal/buildinfo"
	"github.com/coinledger/bnc/internal/config"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand(info buildinfo.Info) *cobra.Command {
	app := &App{Info: info}

	rootCmd := &cobra.Command{
		Use:     info.Name,
		Short:   "Reconcile Binance.US distribution exports",
		Version: info.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "print progress and per-asset balances")
	rootCmd.PersistentFlags().StringVar(&app.configPath, "config", config.DefaultPath, "config file (missing file means defaults)")

	rootCmd.AddCommand(newFillCommand(app))
	rootCmd.AddCommand(newReportCommand(app))
	rootCmd.AddCommand(newConsolidateCommand(app))

	return rootCmd
}
