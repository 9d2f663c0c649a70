package cli

import (
	"fmt"
	"go-price-converter/domain"
	"go-price-converter/rates"
	"go-price-converter/registry"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newQuoteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "quote <from> <to>",
		Short: `Print the exchange rate between two currencies, e.g. "1 USD = 0.9200 EUR"`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := a.rates(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), rates.Quote(domain.Currency(args[0]), domain.Currency(args[1]), table))
			return err
		},
	}
}

func newCurrenciesCommand(_ *app) *cobra.Command {
	return &cobra.Command{
		Use:   "currencies",
		Short: "List the recognized currencies and their symbols",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := registry.Default()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, code := range reg.Codes() {
				d, _ := reg.Descriptor(code)
				fmt.Fprintf(w, "%v\t%v\t%v\n", d.Code, d.Symbol, d.Name)
			}
			return w.Flush()
		},
	}
}
