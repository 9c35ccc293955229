package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/coinledger/bnc/internal/inputs"
	"github.com/coinledger/bnc/internal/ledger"
	"github.com/coinledger/bnc/internal/pipeline"
	"github.com/coinledger/bnc/internal/report"
)

func newReportCommand(app *App) *cobra.Command {
	var opts report.Options
	var balancesOut string

	cmd := &cobra.Command{
		Use:     "report <input>...",
		Aliases: []string{"process", "pdf"},
		Short:   "Classify filled distribution files and print statistics",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, app, args, opts, balancesOut)
		},
	}

	cmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "render the report for the terminal")
	cmd.Flags().IntVar(&opts.Width, "width", report.DefaultWidth, "word wrap width with --pretty")
	cmd.Flags().StringVar(&balancesOut, "balances-out", "", "write per-asset balances valued today to this CSV file")

	return cmd
}

func runReport(cmd *cobra.Command, app *App, args []string, opts report.Options, balancesOut string) error {
	files, err := inputs.Expand(args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	runner := app.newRunner(cmd)
	res, err := runner.Process(ctx, files)
	if err != nil {
		return err
	}
	c := res.Classifier

	in := report.Process{Stats: &c.Stats, Others: c.Others}
	if app.verbose || balancesOut != "" {
		runner.ValueToday(ctx, c.Balances)
	}
	if app.verbose {
		in.Balances = c.Balances
	}

	if err := printReport(cmd.OutOrStdout(), report.ProcessMarkdown(in), opts); err != nil {
		return err
	}

	if balancesOut != "" {
		err := pipeline.WriteFile(balancesOut, func(w io.Writer) error {
			return ledger.WriteBalances(w, c.Balances)
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d balances to %s\n", c.Balances.Len(), balancesOut)
	}

	app.record("report", files, balancesOut, res.Records,
		fmt.Sprintf("fees %s", c.Stats.FeesUSD().StringFixed(2)))
	return nil
}
