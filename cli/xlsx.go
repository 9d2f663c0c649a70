package cli

import (
	"fmt"
	"go-price-converter/workbook"

	"github.com/spf13/cobra"
)

func newXLSXCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "xlsx <input.xlsx> <output.xlsx>",
		Short: "Convert the prices in every text cell of a spreadsheet",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			wb, err := workbook.Open(args[0])
			if err != nil {
				return err
			}
			defer wb.Close()

			spans, err := wb.Spans()
			if err != nil {
				return err
			}

			table, err := a.rates(cmd.Context())
			if err != nil {
				return err
			}

			report := a.service().ScanAndConvert(spans, table, a.cfg.Preferences)
			if err := wb.Apply(report.Replacements, a.cfg.Preferences.EmphasisColor); err != nil {
				return err
			}
			if err := wb.SaveAs(args[1]); err != nil {
				return err
			}

			fmt.Fprintln(cmd.ErrOrStderr(), summary(report))
			return nil
		},
	}
}
