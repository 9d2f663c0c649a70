// Package rates computes conversion factors from a rate table.
package rates

import (
	"fmt"
	"go-price-converter/domain"
	"math"
)

// Rate returns the factor converting an amount in from into to:
// table[to] / table[from]. Identical currencies convert at 1 whatever the table holds.
// No rounding is performed.
func Rate(from domain.Currency, to domain.Currency, table domain.Rates) (domain.Rate, error) {
	from, to = from.Upper(), to.Upper()
	if from == to {
		return 1, nil
	}

	fromRate, ok := lookup(table, from)
	if !ok {
		return 0, fmt.Errorf("'from' currency %v: %w", from, domain.ErrRateUnavailable)
	}
	toRate, ok := lookup(table, to)
	if !ok {
		return 0, fmt.Errorf("'to' currency %v: %w", to, domain.ErrRateUnavailable)
	}

	return toRate / fromRate, nil
}

// Quote renders the rate of one unit of from, e.g. "1 USD = 0.9200 EUR".
// Identical currencies read "1 USD = 1.00 USD" and an unavailable rate is rendered as a dash.
func Quote(from domain.Currency, to domain.Currency, table domain.Rates) string {
	from, to = from.Upper(), to.Upper()
	if from == to {
		return fmt.Sprintf("1 %v = 1.00 %v", from, to)
	}
	rate, err := Rate(from, to, table)
	if err != nil {
		return fmt.Sprintf("1 %v = — %v", from, to)
	}
	return fmt.Sprintf("1 %v = %.4f %v", from, float64(rate), to)
}

// Base returns the base currency of a table, the one with rate 1.
func Base(table domain.Rates) (domain.Currency, bool) {
	var base domain.Currency
	for currency, rate := range table {
		if rate == 1 && (base == domain.Unknown || currency < base) {
			base = currency
		}
	}
	return base, base != domain.Unknown
}

// lookup a usable rate: present, positive and finite
func lookup(table domain.Rates, currency domain.Currency) (domain.Rate, bool) {
	rate, ok := table[currency]
	if !ok || rate <= 0 || math.IsInf(float64(rate), 0) || math.IsNaN(float64(rate)) {
		return 0, false
	}
	return rate, true
}
