package convert

import (
	"github.com/go-kit/log"
	"go-price-converter/domain"
	"time"
)

// loggingService decorates a convert.Service with logging
type loggingService struct {
	logger log.Logger
	next   Service
}

// NewLoggingService returns a new instance of a logging Service
func NewLoggingService(logger log.Logger, s Service) Service {
	return &loggingService{
		next:   s,
		logger: logger,
	}
}

func (s *loggingService) ScanAndConvert(spans []domain.Span, table domain.Rates, prefs domain.Preferences) (report domain.Report) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "scan_and_convert",
			"spans", len(spans),
			"source", prefs.Source,
			"target", prefs.Target,
			"located", report.Located,
			"converted_prices", report.ConvertedPrices,
			"converted_spans", report.ConvertedSpans,
			"ambiguous", report.Ambiguous,
			"skipped", skipped(report),
			"took", time.Since(begin),
		)
	}(time.Now())
	return s.next.ScanAndConvert(spans, table, prefs)
}

func (s *loggingService) Convert(amount domain.Amount, from domain.Currency, to domain.Currency, table domain.Rates, style domain.Style) (result domain.ConversionResult, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "convert",
			"amount", amount,
			"from", from,
			"to", to,
			"rate", result.Rate,
			"converted_amount", result.Converted,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Convert(amount, from, to, table, style)
}

func (s *loggingService) Restore(id domain.SpanID) (original string, err error) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "restore",
			"span", id,
			"took", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.Restore(id)
}

func (s *loggingService) RestoreAll() (restored []domain.Restored) {
	defer func(begin time.Time) {
		s.logger.Log(
			"method", "restore_all",
			"restored", len(restored),
			"took", time.Since(begin),
		)
	}(time.Now())
	return s.next.RestoreAll()
}

func (s *loggingService) LiveConversionCount() int {
	return s.next.LiveConversionCount()
}

// skipped total number of prices left unconverted
func skipped(report domain.Report) int {
	n := 0
	for _, count := range report.Skipped {
		n += count
	}
	return n
}
