package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/coinledger/bnc/internal/inputs"
	"github.com/coinledger/bnc/internal/pipeline"
	"github.com/coinledger/bnc/internal/report"
)

func newConsolidateCommand(app *App) *cobra.Command {
	var out string
	var opts report.Options

	cmd := &cobra.Command{
		Use:     "consolidate <input>... --out <file>",
		Aliases: []string{"cdf"},
		Short:   "Merge adjacent reward records per asset and write one sorted file",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsolidate(cmd, app, args, out, opts)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output CSV file (required)")
	_ = cmd.MarkFlagRequired("out")
	cmd.Flags().BoolVar(&opts.Pretty, "pretty", false, "render the summary for the terminal")

	return cmd
}

func runConsolidate(cmd *cobra.Command, app *App, args []string, out string, opts report.Options) error {
	files, err := inputs.Expand(args)
	if err != nil {
		return err
	}

	runner := app.newRunner(cmd)
	var res *pipeline.ConsolidateResult
	err = pipeline.WriteFile(out, func(w io.Writer) error {
		var err error
		res, err = runner.Consolidate(cmd.Context(), files, w)
		return err
	})
	if err != nil {
		return err
	}

	if err := printReport(cmd.OutOrStdout(), report.ConsolidateMarkdown(res.Summaries), opts); err != nil {
		return err
	}

	app.record("consolidate", files, out, res.Written,
		fmt.Sprintf("consolidated %d to %d records", res.Records, res.Written))
	return nil
}
