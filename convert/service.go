// Package convert runs conversion sessions over the spans of one document.
package convert

import (
	"errors"
	"fmt"
	"go-price-converter/domain"
	"go-price-converter/format"
	"go-price-converter/ledger"
	"go-price-converter/locate"
	"go-price-converter/normalize"
	"go-price-converter/rates"
	"go-price-converter/registry"
	"strings"

	"github.com/shopspring/decimal"
)

// Service converts the prices found in the spans of a single document and keeps track of
// what it changed so the spans can be restored.
// A Service is not safe for concurrent use; callers serialize access per document.
type Service interface {
	// ScanAndConvert converts every price found in spans to prefs.Target using table.
	// Match-level failures are counted in the report and never abort the batch. A target
	// missing from the registry skips every price as unknown_currency.
	// Only the spans in the batch are touched: live conversions of other spans are kept,
	// and RestoreAll is the wholesale clear.
	ScanAndConvert(spans []domain.Span, table domain.Rates, prefs domain.Preferences) domain.Report

	// Convert a single amount, outside any span. Currencies missing from the registry
	// fail with domain.ErrUnknownCurrency.
	Convert(amount domain.Amount, from domain.Currency, to domain.Currency, table domain.Rates, style domain.Style) (domain.ConversionResult, error)

	// Restore returns the original text of a converted span.
	// The error wraps domain.ErrNotFound when the span carries no conversion.
	Restore(id domain.SpanID) (string, error)

	// RestoreAll returns the original text of every converted span and forgets them all.
	RestoreAll() []domain.Restored

	// LiveConversionCount the number of spans currently converted
	LiveConversionCount() int
}

// service one document session
type service struct {
	registry   *registry.Registry
	locator    *locate.Locator
	normalizer *normalize.Normalizer
	formatter  *format.Formatter
	ledger     *ledger.Ledger
}

// NewService constructs a Service for one document
func NewService(reg *registry.Registry, config locate.Config) Service {
	return &service{
		registry:   reg,
		locator:    locate.New(reg, config),
		normalizer: normalize.New(reg),
		formatter:  format.New(reg),
		ledger:     ledger.New(),
	}
}

// Factory creates the Service of a new document session
type Factory func() Service

// NewFactory returns a Factory sharing one registry and locator configuration
func NewFactory(reg *registry.Registry, config locate.Config) Factory {
	return func() Service {
		return NewService(reg, config)
	}
}

func (s *service) ScanAndConvert(spans []domain.Span, table domain.Rates, prefs domain.Preferences) domain.Report {
	prefs = prefs.WithDefaults()
	target := prefs.Target.Upper()
	style := prefs.Style()

	report := domain.Report{
		Spans:        len(spans),
		Skipped:      map[domain.SkipReason]int{},
		Replacements: []domain.Replacement{},
	}

	for _, span := range spans {
		original := span.Text
		prior, live := s.ledger.Lookup(span.ID)
		if live && (span.Text == prior.Text || span.Text == prior.Original) {
			// converting again starts from the text before the previous conversion
			original = prior.Original
		}

		replacement := domain.Replacement{
			SpanID:   span.ID,
			Original: original,
			Text:     original,
		}

		for _, match := range s.locator.Locate(original) {
			report.Located++

			result, err := s.convertMatch(match, prefs.Source, target, table, style, &report)
			if err != nil {
				continue
			}

			fragment := s.formatter.Fragment(match, result, style)
			result.Rendered = fragment.Text()
			replacement.Fragments = append(replacement.Fragments, fragment)
			replacement.Results = append(replacement.Results, result)
		}

		switch {
		case replacement.Converted():
			replacement.Text = splice(original, replacement.Fragments)
			s.ledger.Apply(replacement)
			report.ConvertedSpans++
			report.ConvertedPrices += len(replacement.Fragments)
			report.Replacements = append(report.Replacements, replacement)
		case live:
			// nothing converts any more, the span goes back to its original text
			_, _ = s.ledger.Restore(span.ID)
			report.Replacements = append(report.Replacements, replacement)
		}
	}

	return report
}

var errSkipped = errors.New("skipped")

// convertMatch converts one located price, counting the reason when it is skipped
func (s *service) convertMatch(match domain.PriceMatch, source domain.Currency, target domain.Currency, table domain.Rates, style domain.Style, report *domain.Report) (domain.ConversionResult, error) {
	if !s.registry.Known(target) {
		report.Skip(domain.SkipUnknownCurrency)
		return domain.ConversionResult{}, fmt.Errorf("target %v: %w", target, domain.ErrUnknownCurrency)
	}

	parsed, err := s.normalizer.Normalize(match, source)
	switch {
	case errors.Is(err, domain.ErrUnparsableAmount):
		report.Skip(domain.SkipUnparsable)
		return domain.ConversionResult{}, err
	case err != nil:
		report.Skip(domain.SkipUnknownCurrency)
		return domain.ConversionResult{}, err
	}

	if parsed.Ambiguous {
		report.Ambiguous++
	}
	if parsed.Currency == target {
		report.Skip(domain.SkipSameCurrency)
		return domain.ConversionResult{}, errSkipped
	}

	result, err := convert(parsed.Value, parsed.Currency, target, table)
	if err != nil {
		report.Skip(domain.SkipRateUnavailable)
		return domain.ConversionResult{}, err
	}
	result.Text = match.Text
	return result, nil
}

func (s *service) Convert(amount domain.Amount, from domain.Currency, to domain.Currency, table domain.Rates, style domain.Style) (domain.ConversionResult, error) {
	for _, code := range []domain.Currency{from, to} {
		if !s.registry.Known(code) {
			return domain.ConversionResult{}, fmt.Errorf("convert [%v]: %w", code, domain.ErrUnknownCurrency)
		}
	}

	result, err := convert(amount, from.Upper(), to.Upper(), table)
	if err != nil {
		return domain.ConversionResult{}, fmt.Errorf("convert from [%v]: %w", from, err)
	}
	result.Rendered = s.formatter.Format(result, style)
	return result, nil
}

func (s *service) Restore(id domain.SpanID) (string, error) {
	return s.ledger.Restore(id)
}

func (s *service) RestoreAll() []domain.Restored {
	return s.ledger.RestoreAll()
}

func (s *service) LiveConversionCount() int {
	return s.ledger.Count()
}

// convert an amount at the current rate, rounded to cents
func convert(amount domain.Amount, from domain.Currency, to domain.Currency, table domain.Rates) (domain.ConversionResult, error) {
	rate, err := rates.Rate(from, to, table)
	if err != nil {
		return domain.ConversionResult{}, err
	}

	return domain.ConversionResult{
		Original:  amount,
		From:      from,
		Converted: Round(amount, rate),
		To:        to,
		Rate:      rate,
	}, nil
}

// Round multiplies amount by rate and rounds half away from zero to two decimals.
func Round(amount domain.Amount, rate domain.Rate) domain.Amount {
	v := decimal.NewFromFloat(float64(amount)).
		Mul(decimal.NewFromFloat(float64(rate))).
		Round(2)
	return domain.Amount(v.InexactFloat64())
}

// splice replaces each fragment's match in text. Fragments are ordered and never overlap.
func splice(text string, fragments []domain.Fragment) string {
	var b strings.Builder
	last := 0
	for _, f := range fragments {
		b.WriteString(text[last:f.Start])
		b.WriteString(f.Text())
		last = f.End
	}
	b.WriteString(text[last:])
	return b.String()
}
