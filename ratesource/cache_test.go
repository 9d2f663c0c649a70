package ratesource

import (
	"bytes"
	"context"
	"errors"
	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-price-converter/domain"
	"testing"
	"time"
)

type mock struct {
	count int
	err   error
}

func (m *mock) Rates(_ context.Context) (domain.Rates, error) {
	m.count++
	if m.err != nil {
		return nil, m.err
	}
	return domain.Rates{"USD": 1, "EUR": domain.Rate(0.9 + float64(m.count)/100)}, nil
}

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time {
	return c.now
}

func newCache(ttl time.Duration, next Service) (*cachingService, *clock) {
	c := &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	s := NewCachingService(ttl, log.NewNopLogger(), next).(*cachingService)
	s.now = c.Now
	return s, c
}

func TestCachingService(t *testing.T) {
	ctx := context.Background()
	var underlying mock
	s, c := newCache(30*time.Minute, &underlying)

	first, err := s.Rates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, underlying.count)

	c.now = c.now.Add(29 * time.Minute)
	second, err := s.Rates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, underlying.count)
	assert.Equal(t, first, second)

	c.now = c.now.Add(time.Minute)
	third, err := s.Rates(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, underlying.count)
	assert.NotEqual(t, first["EUR"], third["EUR"])
}

func TestCachingService_ServesExpiredTableWhenRefreshFails(t *testing.T) {
	ctx := context.Background()
	var underlying mock
	s, c := newCache(time.Minute, &underlying)

	first, err := s.Rates(ctx)
	require.NoError(t, err)

	underlying.err = errors.New("unreachable")
	c.now = c.now.Add(time.Hour)

	again, err := s.Rates(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 2, underlying.count)
}

func TestCachingService_NothingCachedYet(t *testing.T) {
	underlying := mock{err: domain.ErrRateUnavailable}
	s, _ := newCache(time.Minute, &underlying)

	_, err := s.Rates(context.Background())
	assert.True(t, errors.Is(err, domain.ErrRateUnavailable))
}

func TestLoggingService(t *testing.T) {
	var buf bytes.Buffer
	s := NewLoggingService(log.NewLogfmtLogger(&buf), &mock{})

	_, err := s.Rates(context.Background())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "method=rates currencies=2")
}
