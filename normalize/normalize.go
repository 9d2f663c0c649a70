// Package normalize turns located price text into a currency and a numeric value.
// It resolves the decimal/thousands separator ambiguity between regional notations
// (1,234.56 vs 1.234,56).
package normalize

import (
	"fmt"
	"go-price-converter/domain"
	"go-price-converter/registry"
	"strconv"
	"strings"
	"unicode"
)

// Normalizer resolves located prices against a currency registry
type Normalizer struct {
	registry *registry.Registry
}

// New constructs a Normalizer
func New(reg *registry.Registry) *Normalizer {
	return &Normalizer{
		registry: reg,
	}
}

// Normalize parses the amount and currency of a match.
// source is the user's declared source currency, or domain.Auto. A source missing from
// the registry is ignored.
// On failure the returned amount has an Unknown currency and the error is
// domain.ErrUnparsableAmount or domain.ErrUnknownCurrency.
func (n *Normalizer) Normalize(match domain.PriceMatch, source domain.Currency) (domain.ParsedAmount, error) {
	raw := match.Number
	if raw == "" {
		raw = match.Text
	}

	value, err := ParseNumber(raw)
	if err != nil {
		return domain.ParsedAmount{}, err
	}

	source = source.Upper()
	// a declared source outside the registry never stands in for a token
	explicit := !source.IsAuto() && n.registry.Known(source)

	res, ok := n.registry.Lookup(match.Token)
	switch {
	case ok && !res.Ambiguous:
		return domain.ParsedAmount{Value: value, Currency: res.Code}, nil
	case ok && explicit:
		// the user's declared currency settles a shared symbol
		return domain.ParsedAmount{Value: value, Currency: source}, nil
	case ok:
		return domain.ParsedAmount{Value: value, Currency: res.Code, Ambiguous: true}, nil
	case explicit:
		return domain.ParsedAmount{Value: value, Currency: source}, nil
	}

	return domain.ParsedAmount{Value: value}, fmt.Errorf("token %q: %w", match.Token, domain.ErrUnknownCurrency)
}

// ParseNumber parses a number written with ',' and '.' separators in either regional
// convention. Characters other than digits and separators are ignored.
//
//   - both separators present: the one appearing last is the decimal separator
//   - only ',': decimal separator when exactly two digits follow the last one,
//     thousands separator otherwise
//   - only '.': plain decimal notation
func ParseNumber(raw string) (domain.Amount, error) {
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == ',' || r == '.' {
			return r
		}
		return -1
	}, raw)

	if strings.IndexFunc(cleaned, unicode.IsDigit) < 0 {
		return 0, fmt.Errorf("%q: %w", raw, domain.ErrUnparsableAmount)
	}

	comma := strings.LastIndex(cleaned, ",")
	dot := strings.LastIndex(cleaned, ".")

	switch {
	case comma >= 0 && dot >= 0:
		decimal, thousands := ".", ","
		if comma > dot {
			decimal, thousands = ",", "."
		}
		cleaned = strings.ReplaceAll(cleaned, thousands, "")
		if i := strings.LastIndex(cleaned, decimal); i >= 0 {
			cleaned = strings.ReplaceAll(cleaned[:i], decimal, "") + "." + cleaned[i+1:]
		}
	case comma >= 0:
		if len(cleaned)-comma-1 == 2 {
			cleaned = strings.ReplaceAll(cleaned[:comma], ",", "") + "." + cleaned[comma+1:]
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", raw, domain.ErrUnparsableAmount)
	}
	return domain.Amount(value), nil
}
