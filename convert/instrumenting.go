package convert

import (
	"errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go-price-converter/domain"
	"time"
)

// Metrics shared by every instrumented session
type Metrics struct {
	// Prices counts located prices by outcome: converted or a skip reason
	Prices *prometheus.CounterVec

	// Spans counts converted spans
	Spans prometheus.Counter

	// Restores counts restore requests by result
	Restores *prometheus.CounterVec

	// Duration of each Service method
	Duration *prometheus.HistogramVec
}

// NewMetrics registers the conversion metrics with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Prices: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricecvt_prices_total",
				Help: "Located prices by conversion outcome",
			},
			[]string{"outcome"},
		),
		Spans: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "pricecvt_converted_spans_total",
				Help: "Spans whose text was converted",
			},
		),
		Restores: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricecvt_restores_total",
				Help: "Restore requests by result",
			},
			[]string{"result"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pricecvt_method_duration_seconds",
				Help:    "Conversion service method duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
}

// instrumentingService decorates a convert.Service with prometheus metrics
type instrumentingService struct {
	metrics *Metrics
	next    Service
}

// NewInstrumentingService returns a new instance of an instrumenting Service
func NewInstrumentingService(metrics *Metrics, s Service) Service {
	return &instrumentingService{
		metrics: metrics,
		next:    s,
	}
}

func (s *instrumentingService) observe(method string, begin time.Time) {
	s.metrics.Duration.WithLabelValues(method).Observe(time.Since(begin).Seconds())
}

func (s *instrumentingService) ScanAndConvert(spans []domain.Span, table domain.Rates, prefs domain.Preferences) domain.Report {
	defer s.observe("scan_and_convert", time.Now())

	report := s.next.ScanAndConvert(spans, table, prefs)
	s.metrics.Prices.WithLabelValues("converted").Add(float64(report.ConvertedPrices))
	for reason, count := range report.Skipped {
		s.metrics.Prices.WithLabelValues(string(reason)).Add(float64(count))
	}
	s.metrics.Spans.Add(float64(report.ConvertedSpans))
	return report
}

func (s *instrumentingService) Convert(amount domain.Amount, from domain.Currency, to domain.Currency, table domain.Rates, style domain.Style) (domain.ConversionResult, error) {
	defer s.observe("convert", time.Now())
	return s.next.Convert(amount, from, to, table, style)
}

func (s *instrumentingService) Restore(id domain.SpanID) (string, error) {
	defer s.observe("restore", time.Now())

	original, err := s.next.Restore(id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.metrics.Restores.WithLabelValues("not_found").Inc()
	case err == nil:
		s.metrics.Restores.WithLabelValues("restored").Inc()
	}
	return original, err
}

func (s *instrumentingService) RestoreAll() []domain.Restored {
	defer s.observe("restore_all", time.Now())

	restored := s.next.RestoreAll()
	s.metrics.Restores.WithLabelValues("restored").Add(float64(len(restored)))
	return restored
}

func (s *instrumentingService) LiveConversionCount() int {
	return s.next.LiveConversionCount()
}
