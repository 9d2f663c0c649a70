// Package cli implements the pricecvt command line.
package cli

import (
	"context"
	"fmt"
	"go-price-converter/config"
	"go-price-converter/convert"
	"go-price-converter/domain"
	"go-price-converter/logging"
	"go-price-converter/ratesource"
	"go-price-converter/registry"
	"os"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/spf13/cobra"
)

// app state shared by the commands
type app struct {
	configFile string
	verbose    bool

	// ratesFile replaces the rate source when set
	ratesFile string

	// preference flags, applied over the configuration when given
	from         string
	to           string
	locale       string
	showOriginal bool

	cfg    config.Config
	logger log.Logger
}

// NewRootCommand builds the pricecvt command tree
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "pricecvt",
		Short: "Convert the prices written in text and spreadsheets to another currency",
		Long: `pricecvt finds prices such as "$1,234.56", "1.234,56 EUR" or "¥500" in free-form
text, converts them with current exchange rates and writes the text back with the
converted amounts next to (or instead of) the originals.

Example Usage:
  pricecvt convert notes.txt --to GBP        # convert every price in a file
  echo 'Only $5' | pricecvt convert          # read from stdin
  pricecvt xlsx prices.xlsx converted.xlsx   # convert spreadsheet cells
  pricecvt quote USD JPY                     # show one exchange rate`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "Path to a YAML configuration file")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	flags.StringVar(&a.ratesFile, "rates", "", "Read exchange rates from a JSON or YAML file instead of the rate API")
	flags.StringVar(&a.from, "from", "", `Source currency of the prices, or "auto" to detect it`)
	flags.StringVar(&a.to, "to", "", "Target currency")
	flags.StringVar(&a.locale, "locale", "", "Locale used to format converted amounts")
	flags.BoolVar(&a.showOriginal, "show-original", true, "Keep the original amount before the converted one")

	root.AddCommand(
		newConvertCommand(a),
		newXLSXCommand(a),
		newQuoteCommand(a),
		newCurrenciesCommand(a),
	)
	return root
}

// Execute runs the command line and exits on failure
func Execute() {
	if err := NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setup loads the configuration and the logger
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configFile, ".env")
	if err != nil {
		return err
	}

	if a.verbose {
		cfg.LogLevel = "debug"
	}
	logger, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if a.from != "" {
		cfg.Preferences.Source = domain.Currency(a.from)
	}
	if a.to != "" {
		cfg.Preferences.Target = domain.Currency(a.to)
	}
	if a.locale != "" {
		cfg.Preferences.Locale = a.locale
	}
	if flags.Changed("show-original") {
		cfg.Preferences.ShowOriginal = a.showOriginal
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	return nil
}

// service a conversion session logging at debug level
func (a *app) service() convert.Service {
	s := convert.NewService(registry.Default(), a.cfg.Locator)
	return convert.NewLoggingService(level.Debug(log.With(a.logger, "component", "convert")), s)
}

// rates loads the table from the rates file, or else from the configured rate API
func (a *app) rates(ctx context.Context) (domain.Rates, error) {
	if a.ratesFile != "" {
		return ratesource.LoadFile(a.ratesFile, a.cfg.Rates.Base)
	}

	var rs ratesource.Service
	rs = ratesource.NewService(a.cfg.Rates.Base, a.cfg.Rates.Timeout, a.cfg.Rates.URLs...)
	rs = ratesource.NewLoggingService(level.Debug(log.With(a.logger, "component", "ratesource")), rs)
	return rs.Rates(ctx)
}

// summary one line describing a report, e.g. "converted 2 of 3 prices in 2 of 5 spans"
func summary(report domain.Report) string {
	s := fmt.Sprintf("converted %d of %d prices in %d of %d spans",
		report.ConvertedPrices, report.Located, report.ConvertedSpans, report.Spans)
	for _, reason := range []domain.SkipReason{
		domain.SkipRateUnavailable,
		domain.SkipSameCurrency,
		domain.SkipUnknownCurrency,
		domain.SkipUnparsable,
	} {
		if n := report.Skipped[reason]; n > 0 {
			s += fmt.Sprintf(", %d %v", n, reason)
		}
	}
	return s
}
