package ratesource

import (
	"context"
	"fmt"
	"github.com/go-kit/log"
	"go-price-converter/domain"
	"sync"
	"time"
)

// cachingService decorates a ratesource.Service with a cached table.
// The table is refreshed on the first read after it expires; nothing runs in the background.
type cachingService struct {
	// next the service being decorated with a cache
	next Service

	// ttl how long a table stays fresh
	ttl time.Duration

	// now the clock, replaced in tests
	now func() time.Time

	// lock synchronizes access to the cached table
	lock sync.Mutex

	rates   domain.Rates
	fetched time.Time

	logger log.Logger
}

// NewCachingService returns a new caching Service. When a refresh fails the expired table
// is served until the source recovers.
func NewCachingService(ttl time.Duration, logger log.Logger, s Service) Service {
	return &cachingService{
		next:   s,
		ttl:    ttl,
		now:    time.Now,
		logger: logger,
	}
}

// Rates returns the cached table, refreshing it when expired
func (s *cachingService) Rates(ctx context.Context) (domain.Rates, error) {
	// held across the refresh so concurrent readers share one request
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.rates != nil && s.now().Sub(s.fetched) < s.ttl {
		return s.rates, nil
	}

	rates, err := s.next.Rates(ctx)
	if err != nil {
		if s.rates != nil {
			s.logger.Log("msg", "refresh failed, serving expired rates", "age", s.now().Sub(s.fetched), "err", err)
			return s.rates, nil
		}
		return nil, fmt.Errorf("refreshing cache: %w", err)
	}

	s.rates = rates
	s.fetched = s.now()
	return rates, nil
}
