package domain

import "strings"

// Currency a currency code
type Currency string

const (
	// Unknown currency of an amount that could not be attributed to any currency.
	Unknown Currency = ""

	// Auto asks for the source currency to be detected from the matched symbol or code.
	Auto Currency = "auto"
)

// IsAuto reports whether c asks for detection rather than naming a currency.
func (c Currency) IsAuto() bool {
	return c == Unknown || strings.EqualFold(string(c), string(Auto))
}

// Upper the canonical upper case spelling of c
func (c Currency) Upper() Currency {
	return Currency(strings.ToUpper(string(c)))
}

// Amount a monetary amount
type Amount float64

// Rate an exchange rate
type Rate float64

// Rates maps a currency to its value relative to a single base currency.
// The base currency has rate 1. Rates are snapshots and are never mutated.
type Rates map[Currency]Rate

// SpanID identifies a span, assigned by whoever owns the text.
type SpanID string

// Span a contiguous run of text within a larger document
type Span struct {
	ID   SpanID `json:"id"`
	Text string `json:"text"`
}

// PriceMatch a price-like substring of a span. Start and End are byte offsets.
type PriceMatch struct {
	Start int
	End   int

	// Text the matched substring, symbol or code included
	Text string

	// Number the numeric portion of Text
	Number string

	// Token the currency symbol or code found next to Number
	Token string
}

// ParsedAmount a normalized price
type ParsedAmount struct {
	Value    Amount
	Currency Currency

	// Ambiguous is set when Currency is a registry default for a shared symbol
	Ambiguous bool
}

// Known reports whether the amount can proceed to conversion.
func (p ParsedAmount) Known() bool {
	return p.Currency != Unknown
}

// ConversionResult the outcome of converting one price
type ConversionResult struct {
	Original  Amount   `json:"original"`
	From      Currency `json:"from"`
	Converted Amount   `json:"converted"`
	To        Currency `json:"to"`
	Rate      Rate     `json:"rate"`

	// Text the original matched text, when the result came from a scan
	Text string `json:"text,omitempty"`

	// Rendered the replacement string
	Rendered string `json:"rendered"`
}

// Style how a conversion is rendered
type Style struct {
	ShowOriginal  bool
	EmphasisColor string
	Locale        string
}

// Preferences supplied by the user for a conversion session
type Preferences struct {
	Source        Currency `json:"sourceCurrency" yaml:"source_currency"`
	Target        Currency `json:"targetCurrency" yaml:"target_currency"`
	ShowOriginal  bool     `json:"showOriginal" yaml:"show_original"`
	EmphasisColor string   `json:"emphasisColor" yaml:"emphasis_color"`
	Locale        string   `json:"locale" yaml:"locale"`
}

// DefaultPreferences auto-detects the source currency and shows EUR next to the original amount.
func DefaultPreferences() Preferences {
	return Preferences{
		Source:        Auto,
		Target:        "EUR",
		ShowOriginal:  true,
		EmphasisColor: "#00ff88",
		Locale:        "en",
	}
}

// WithDefaults fills the currencies left empty with the defaults.
func (p Preferences) WithDefaults() Preferences {
	d := DefaultPreferences()
	if p.Source == Unknown {
		p.Source = d.Source
	}
	if p.Target == Unknown {
		p.Target = d.Target
	}
	return p
}

// AutoDetect reports whether the source currency is detected per match.
func (p Preferences) AutoDetect() bool {
	return p.Source.IsAuto()
}

// Style the rendering part of the preferences
func (p Preferences) Style() Style {
	return Style{
		ShowOriginal:  p.ShowOriginal,
		EmphasisColor: p.EmphasisColor,
		Locale:        p.Locale,
	}
}

// Arrow separates the original amount from the converted one.
const Arrow = " → "

// Fragment the replacement of a single price inside a span
type Fragment struct {
	// Start and End locate the replaced match in the original span text
	Start int `json:"start"`
	End   int `json:"end"`

	// Original is empty unless the original amount is shown
	Original string `json:"original,omitempty"`

	// Converted the converted amount, the part that carries the emphasis
	Converted string `json:"converted"`

	Color string `json:"color,omitempty"`
}

// Text the plain text inserted in place of the match
func (f Fragment) Text() string {
	if f.Original == "" {
		return f.Converted
	}
	return f.Original + Arrow + f.Converted
}

// Replacement the new text of a span together with what produced it
type Replacement struct {
	SpanID    SpanID             `json:"spanId"`
	Original  string             `json:"original"`
	Text      string             `json:"text"`
	Fragments []Fragment         `json:"fragments"`
	Results   []ConversionResult `json:"results"`
}

// Converted reports whether the replacement changes the span.
func (r Replacement) Converted() bool {
	return len(r.Fragments) > 0
}

// Restored a span returned to its original text
type Restored struct {
	SpanID   SpanID `json:"spanId"`
	Original string `json:"original"`
}

// SkipReason why a located price was left unconverted
type SkipReason string

const (
	SkipUnparsable      SkipReason = "unparsable_amount"
	SkipUnknownCurrency SkipReason = "unknown_currency"
	SkipRateUnavailable SkipReason = "rate_unavailable"
	SkipSameCurrency    SkipReason = "same_currency"
)

// Report aggregate outcome of one batch
type Report struct {
	Spans           int                `json:"spans"`
	ConvertedSpans  int                `json:"convertedSpans"`
	Located         int                `json:"located"`
	ConvertedPrices int                `json:"convertedPrices"`
	Ambiguous       int                `json:"ambiguous"`
	Skipped         map[SkipReason]int `json:"skipped"`

	// Replacements holds one entry per span whose text must change, including spans
	// that revert to their original text because nothing in them converts any more.
	Replacements []Replacement `json:"replacements"`
}

// Skip counts a price left unconverted.
func (r *Report) Skip(reason SkipReason) {
	if r.Skipped == nil {
		r.Skipped = map[SkipReason]int{}
	}
	r.Skipped[reason]++
}
