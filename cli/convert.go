package cli

import (
	"fmt"
	"go-price-converter/domain"
	"go-price-converter/format"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newConvertCommand(a *app) *cobra.Command {
	var markup, quiet bool

	cmd := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert the prices in a text file, or stdin, line by line",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				in = f
			}

			data, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			table, err := a.rates(cmd.Context())
			if err != nil {
				return err
			}

			lines := strings.Split(string(data), "\n")
			spans := make([]domain.Span, len(lines))
			for i, line := range lines {
				spans[i] = domain.Span{ID: lineID(i), Text: line}
			}

			report := a.service().ScanAndConvert(spans, table, a.cfg.Preferences)

			replaced := map[domain.SpanID]domain.Replacement{}
			for _, r := range report.Replacements {
				replaced[r.SpanID] = r
			}
			for i, line := range lines {
				r, ok := replaced[lineID(i)]
				if !ok {
					r = domain.Replacement{Original: line, Text: line}
				}
				if markup {
					lines[i] = format.MarkupSpan(r)
				} else {
					lines[i] = r.Text
				}
			}

			if _, err := io.WriteString(cmd.OutOrStdout(), strings.Join(lines, "\n")); err != nil {
				return err
			}
			if !quiet {
				fmt.Fprintln(cmd.ErrOrStderr(), summary(report))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&markup, "markup", false, "Write HTML with the converted amounts emphasized")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print the conversion summary")
	return cmd
}

func lineID(i int) domain.SpanID {
	return domain.SpanID(strconv.Itoa(i + 1))
}
