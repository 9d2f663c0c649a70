// Package ratesource fetches exchange-rate tables for the hosts of the converter.
package ratesource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"go-price-converter/domain"
	"io"
	"math"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// PrimaryURL serves {"base": "USD", "rates": {...}}
	PrimaryURL = "https://api.exchangerate-api.com/v4/latest/USD"

	// BackupURL serves {"base_code": "USD", "rates": {...}}
	BackupURL = "https://open.er-api.com/v6/latest/USD"
)

// Service supplies rate tables
type Service interface {
	Rates(ctx context.Context) (domain.Rates, error)
}

// service loads rate tables over HTTP, trying each url in turn
type service struct {
	// urls tried in order until one answers
	urls []string

	// base currency assumed when a response does not name one
	base domain.Currency

	// client for HTTP requests
	client http.Client
}

// NewService constructs a valid Service. Without urls the public primary and backup APIs are used.
func NewService(base domain.Currency, timeout time.Duration, urls ...string) Service {
	if len(urls) == 0 {
		urls = []string{PrimaryURL, BackupURL}
	}
	return &service{
		urls: urls,
		base: base.Upper(),
		client: http.Client{
			Timeout: timeout,
		},
	}
}

// Rates loads the current table from the first url that answers with one.
func (s *service) Rates(ctx context.Context) (domain.Rates, error) {
	var errs []error
	for _, url := range s.urls {
		rates, err := s.fetch(ctx, url)
		if err == nil {
			return rates, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	return nil, fmt.Errorf("%w: %w", domain.ErrRateUnavailable, errors.Join(errs...))
}

func (s *service) fetch(ctx context.Context, url string) (domain.Rates, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building http request: %w", err)
	}
	httpResponse, err := s.client.Do(request)
	if err != nil {
		return nil, fmt.Errorf("http get: %w", err)
	}
	defer httpResponse.Body.Close()

	if httpResponse.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http get %v: status %v", url, httpResponse.StatusCode)
	}

	return ReadTable(httpResponse.Body, s.base)
}

// ReadTable decodes a JSON rate table. Both API responses carrying a "rates" object and flat
// {"EUR": 0.92} maps are accepted. The base currency, named by the response or else base,
// is always present with rate 1.
func ReadTable(r io.Reader, base domain.Currency) (domain.Rates, error) {
	type Response struct {
		Base     string             `json:"base"`
		BaseCode string             `json:"base_code"`
		Rates    map[string]float64 `json:"rates"`
	}

	bytes, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading json: %w", err)
	}

	var response Response
	if err := json.Unmarshal(bytes, &response); err == nil && len(response.Rates) > 0 {
		switch {
		case response.Base != "":
			base = domain.Currency(response.Base)
		case response.BaseCode != "":
			base = domain.Currency(response.BaseCode)
		}
		return table(response.Rates, base)
	}

	var flat map[string]float64
	if err := json.Unmarshal(bytes, &flat); err != nil {
		return nil, fmt.Errorf("decoding json: %w", err)
	}
	return table(flat, base)
}

// LoadFile reads a rate table from a JSON or YAML (.yaml, .yml) file.
func LoadFile(path string, base domain.Currency) (domain.Rates, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rate table: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var flat map[string]float64
		if err := yaml.NewDecoder(f).Decode(&flat); err != nil {
			return nil, fmt.Errorf("decoding yaml %v: %w", path, err)
		}
		return table(flat, base)
	default:
		rates, err := ReadTable(f, base)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", path, err)
		}
		return rates, nil
	}
}

// table validates raw rates and forces the base currency to 1
func table(raw map[string]float64, base domain.Currency) (domain.Rates, error) {
	rates := domain.Rates{}
	for k, v := range raw {
		if v <= 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			return nil, fmt.Errorf("bad rate value for %v: %v", k, v)
		}
		rates[domain.Currency(k).Upper()] = domain.Rate(v)
	}
	if base != domain.Unknown {
		rates[base.Upper()] = 1
	}
	return rates, nil
}
