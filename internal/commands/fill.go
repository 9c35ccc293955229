package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/coinledger/bnc/internal/inputs"
	"github.com/coinledger/bnc/internal/pipeline"
)

func newFillCommand(app *App) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:     "fill <input>... --out <file>",
		Aliases: []string{"udf"},
		Short:   "Fill in missing USD values and write a new distribution file",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFill(cmd, app, args, out)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "output CSV file (required)")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

func runFill(cmd *cobra.Command, app *App, args []string, out string) error {
	files, err := inputs.Expand(args)
	if err != nil {
		return err
	}

	runner := app.newRunner(cmd)
	var res pipeline.FillResult
	err = pipeline.WriteFile(out, func(w io.Writer) error {
		var err error
		res, err = runner.Fill(cmd.Context(), files, w)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Filled %d records into %s (%d price lookups)\n", res.Records, out, res.Lookups)
	app.record("fill", files, out, res.Records, fmt.Sprintf("%d price lookups", res.Lookups))
	return nil
}
