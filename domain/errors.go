package domain

import "errors"

var (
	ErrRateUnavailable  = errors.New("exchange rate unavailable")
	ErrNotFound         = errors.New("no live conversion for span")
	ErrUnknownCurrency  = errors.New("unknown currency")
	ErrUnparsableAmount = errors.New("unparsable amount")
)
