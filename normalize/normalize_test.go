package normalize

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-price-converter/domain"
	"go-price-converter/registry"
	"testing"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		input string
		want  domain.Amount
	}{
		// both separators, the last one is the decimal point
		{"1,234.56", 1234.56},
		{"1.234,56", 1234.56},
		{"1,000,000.00", 1000000},
		{"1.000.000,00", 1000000},
		// comma only
		{"12,50", 12.5},
		{"0,99", 0.99},
		{"1,234", 1234},
		{"1,234,567", 1234567},
		{"12,5", 125},
		// dot only
		{"12.99", 12.99},
		{"1.234", 1.234},
		{"0.5", 0.5},
		// no separator
		{"100", 100},
		// surrounding characters are ignored
		{"$1,234.56", 1234.56},
		{"1.234,56 EUR", 1234.56},
		{" 45,23 ", 45.23},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseNumber(tc.input)
			require.NoError(t, err)
			assert.InDelta(t, float64(tc.want), float64(got), 1e-9)
		})
	}
}

func TestParseNumber_Invalid(t *testing.T) {
	for _, input := range []string{"", "abc", ",", ".", "1.234.567", "1..2"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParseNumber(input)
			assert.ErrorIs(t, err, domain.ErrUnparsableAmount)
		})
	}
}

func TestNormalizer_Normalize(t *testing.T) {
	n := New(registry.Default())

	type args struct {
		match  domain.PriceMatch
		source domain.Currency
	}
	tests := []struct {
		name    string
		args    args
		want    domain.ParsedAmount
		wantErr error
	}{
		{
			"dollar defaults to usd",
			args{domain.PriceMatch{Text: "$1,234.56", Number: "1,234.56", Token: "$"}, domain.Auto},
			domain.ParsedAmount{Value: 1234.56, Currency: "USD", Ambiguous: true},
			nil,
		},
		{
			"declared source settles a shared symbol",
			args{domain.PriceMatch{Text: "$20", Number: "20", Token: "$"}, "cad"},
			domain.ParsedAmount{Value: 20, Currency: "CAD"},
			nil,
		},
		{
			"specific symbol beats declared source",
			args{domain.PriceMatch{Text: "€20", Number: "20", Token: "€"}, "USD"},
			domain.ParsedAmount{Value: 20, Currency: "EUR"},
			nil,
		},
		{
			"european grouping with code",
			args{domain.PriceMatch{Text: "1.234,56 EUR", Number: "1.234,56", Token: "EUR"}, "EUR"},
			domain.ParsedAmount{Value: 1234.56, Currency: "EUR"},
			nil,
		},
		{
			"compound symbol",
			args{domain.PriceMatch{Text: "NZ$20", Number: "20", Token: "NZ$"}, domain.Auto},
			domain.ParsedAmount{Value: 20, Currency: "NZD"},
			nil,
		},
		{
			"unknown token falls back to declared source",
			args{domain.PriceMatch{Text: "20 XYZ", Number: "20", Token: "XYZ"}, "GBP"},
			domain.ParsedAmount{Value: 20, Currency: "GBP"},
			nil,
		},
		{
			"unregistered declared source is ignored",
			args{domain.PriceMatch{Text: "20 XYZ", Number: "20", Token: "XYZ"}, "ABC"},
			domain.ParsedAmount{Value: 20},
			domain.ErrUnknownCurrency,
		},
		{
			"unregistered declared source leaves the shared symbol default",
			args{domain.PriceMatch{Text: "$20", Number: "20", Token: "$"}, "xyz"},
			domain.ParsedAmount{Value: 20, Currency: "USD", Ambiguous: true},
			nil,
		},
		{
			"unknown token with auto detection",
			args{domain.PriceMatch{Text: "20 XYZ", Number: "20", Token: "XYZ"}, domain.Auto},
			domain.ParsedAmount{Value: 20},
			domain.ErrUnknownCurrency,
		},
		{
			"empty source means auto",
			args{domain.PriceMatch{Text: "20 XYZ", Number: "20", Token: "XYZ"}, ""},
			domain.ParsedAmount{Value: 20},
			domain.ErrUnknownCurrency,
		},
		{
			"unparsable number",
			args{domain.PriceMatch{Text: "€1.234.567", Number: "1.234.567", Token: "€"}, domain.Auto},
			domain.ParsedAmount{},
			domain.ErrUnparsableAmount,
		},
		{
			"number taken from text when not split out",
			args{domain.PriceMatch{Text: "£7,50", Token: "£"}, domain.Auto},
			domain.ParsedAmount{Value: 7.5, Currency: "GBP"},
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := n.Normalize(tt.args.match, tt.args.source)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.False(t, got.Known())
			} else {
				require.NoError(t, err)
				assert.True(t, got.Known())
			}
			assert.Equal(t, tt.want.Currency, got.Currency)
			assert.Equal(t, tt.want.Ambiguous, got.Ambiguous)
			assert.InDelta(t, float64(tt.want.Value), float64(got.Value), 1e-9)
		})
	}
}
