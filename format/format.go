// Package format renders conversion results as replacement text.
package format

import (
	"go-price-converter/domain"
	"go-price-converter/registry"
	"html"
	"regexp"
	"strings"

	"github.com/leekchan/accounting"
)

// Formatter renders amounts using the symbols of a currency registry
type Formatter struct {
	registry *registry.Registry
}

// New constructs a Formatter
func New(reg *registry.Registry) *Formatter {
	return &Formatter{
		registry: reg,
	}
}

// Money renders an amount with two fractional digits and the currency symbol placed the
// way the currency writes it. Currencies without a registered symbol fall back to the
// textual form "1,135.80 AED".
func (f *Formatter) Money(value domain.Amount, code domain.Currency, locale string) string {
	sep := separatorsFor(locale)
	ac := accounting.Accounting{
		Symbol:    string(code.Upper()),
		Precision: 2,
		Thousand:  sep.thousand,
		Decimal:   sep.decimal,
		Format:    "%v %s",
	}

	if d, ok := f.registry.Descriptor(code); ok && d.Symbol != "" {
		ac.Symbol = d.Symbol
		if !d.SymbolAfter() {
			ac.Format = "%s%v"
		}
	}
	ac.FormatNegative = "-" + ac.Format
	ac.FormatZero = ac.Format

	return ac.FormatMoneyFloat64(float64(value))
}

// Fragment renders the replacement for one converted match.
func (f *Formatter) Fragment(match domain.PriceMatch, result domain.ConversionResult, style domain.Style) domain.Fragment {
	fragment := domain.Fragment{
		Start:     match.Start,
		End:       match.End,
		Converted: f.Money(result.Converted, result.To, style.Locale),
		Color:     style.EmphasisColor,
	}
	if style.ShowOriginal {
		fragment.Original = match.Text
		if fragment.Original == "" {
			fragment.Original = f.Money(result.Original, result.From, style.Locale)
		}
	}
	return fragment
}

// Format renders a conversion result as plain text, e.g. "$1,234.56 → €1,135.80".
// The original amount is the matched text when known, otherwise it is formatted.
func (f *Formatter) Format(result domain.ConversionResult, style domain.Style) string {
	return f.Fragment(domain.PriceMatch{Text: result.Text}, result, style).Text()
}

var safeColor = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|[a-zA-Z]+|rgba?\([0-9., %]+\))$`)

// Markup renders a fragment as HTML with the converted part emphasized.
// Colors that are not plain CSS color values are dropped.
func Markup(fragment domain.Fragment) string {
	var b strings.Builder
	if fragment.Original != "" {
		b.WriteString(html.EscapeString(fragment.Original))
		b.WriteString(" ")
	}

	b.WriteString(`<span class="converted-price" style="`)
	if safeColor.MatchString(fragment.Color) {
		b.WriteString("color: ")
		b.WriteString(fragment.Color)
		b.WriteString("; ")
	}
	b.WriteString(`font-weight: bold">`)
	if fragment.Original != "" {
		b.WriteString(strings.TrimSpace(domain.Arrow))
		b.WriteString(" ")
	}
	b.WriteString(html.EscapeString(fragment.Converted))
	b.WriteString("</span>")

	return b.String()
}

// MarkupSpan renders the whole replacement text of a span as HTML.
func MarkupSpan(replacement domain.Replacement) string {
	var b strings.Builder
	last := 0
	for _, fragment := range replacement.Fragments {
		b.WriteString(html.EscapeString(replacement.Original[last:fragment.Start]))
		b.WriteString(Markup(fragment))
		last = fragment.End
	}
	b.WriteString(html.EscapeString(replacement.Original[last:]))
	return b.String()
}
