package http

import (
	"context"
	"encoding/json"
	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-price-converter/convert"
	"go-price-converter/domain"
	"go-price-converter/locate"
	"go-price-converter/registry"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type mock struct {
	rates domain.Rates
	err   error
}

func (m *mock) Rates(_ context.Context) (domain.Rates, error) {
	return m.rates, m.err
}

func newServer(rs *mock) *Server {
	factory := convert.NewFactory(registry.Default(), locate.DefaultConfig())
	return NewServer(factory, rs, domain.DefaultPreferences(), log.NewNopLogger())
}

func serve(server *Server, method, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(method, target, strings.NewReader(body))
	server.ServeHTTP(w, r)
	return w
}

func TestServer_Convert(t *testing.T) {
	server := newServer(&mock{rates: domain.Rates{"USD": 1, "GBP": 0.5, "JPY": 2}})

	w := serve(server, "POST", "/api/convert", `{"fromCurrency":"GBP", "toCurrency":"JPY","amount":3.0}`)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, `{"exchange":4,"amount":12,"original":3,"rendered":"¥12.00"}`, strings.TrimSpace(w.Body.String()))
}

func TestServer_ConvertFailures(t *testing.T) {
	tests := []struct {
		name string
		rs   *mock
		body string
		code int
		want string
	}{
		{"invalid json", &mock{}, `{`, http.StatusBadRequest, `{"error":"invalid json"}`},
		{"rates unavailable", &mock{err: domain.ErrRateUnavailable}, `{"fromCurrency":"GBP","toCurrency":"EUR","amount":1}`, http.StatusBadGateway, `{"error":"exchange rates unavailable"}`},
		{"rate missing", &mock{rates: domain.Rates{"USD": 1}}, `{"fromCurrency":"GBP","toCurrency":"EUR","amount":1}`, http.StatusBadRequest, `{"error":"failed conversion"}`},
		{"unregistered currency", &mock{rates: domain.Rates{"USD": 1, "GBP": 0.5, "FOO": 2}}, `{"fromCurrency":"GBP","toCurrency":"FOO","amount":1}`, http.StatusBadRequest, `{"error":"failed conversion"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(newServer(tt.rs), "POST", "/api/convert", tt.body)
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.want, strings.TrimSpace(w.Body.String()))
		})
	}
}

type scanResponse struct {
	DocumentID string        `json:"documentId"`
	Report     domain.Report `json:"report"`
	Live       int           `json:"live"`
}

func scan(t *testing.T, server *Server, body string) scanResponse {
	w := serve(server, "POST", "/api/scan", body)
	require.Equal(t, 200, w.Code, w.Body.String())

	var response scanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func TestServer_ScanRestoreLifecycle(t *testing.T) {
	server := newServer(&mock{rates: domain.Rates{"USD": 1, "EUR": 0.92, "GBP": 0.79}})

	first := scan(t, server, `{
		"spans": [
			{"id": "a", "text": "Price: $1,234.56 today"},
			{"id": "b", "text": "£10"},
			{"id": "c", "text": "nothing"}
		]
	}`)
	require.NotEmpty(t, first.DocumentID)
	assert.Equal(t, 2, first.Live)
	assert.Equal(t, 3, first.Report.Spans)
	assert.Equal(t, 2, first.Report.ConvertedSpans)
	require.Len(t, first.Report.Replacements, 2)
	assert.Equal(t, "Price: $1,234.56 → €1,135.80 today", first.Report.Replacements[0].Text)

	second := scan(t, server, `{
		"documentId": "`+first.DocumentID+`",
		"spans": [{"id": "d", "text": "100 USD"}],
		"preferences": {"sourceCurrency": "auto", "targetCurrency": "GBP", "showOriginal": false}
	}`)
	assert.Equal(t, first.DocumentID, second.DocumentID)
	assert.Equal(t, 3, second.Live)
	assert.Equal(t, "£79.00", second.Report.Replacements[0].Text)

	w := serve(server, "GET", "/api/count?documentId="+first.DocumentID, "")
	assert.Equal(t, `{"count":3}`, strings.TrimSpace(w.Body.String()))

	w = serve(server, "POST", "/api/restore", `{"documentId": "`+first.DocumentID+`", "spanId": "b"}`)
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, `{"spanId":"b","original":"£10"}`, strings.TrimSpace(w.Body.String()))

	w = serve(server, "POST", "/api/restore", `{"documentId": "`+first.DocumentID+`", "spanId": "b"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(server, "POST", "/api/restore-all", `{"documentId": "`+first.DocumentID+`"}`)
	assert.Equal(t, 200, w.Code)
	assert.Equal(t,
		`{"restored":[{"spanId":"a","original":"Price: $1,234.56 today"},{"spanId":"d","original":"100 USD"}]}`,
		strings.TrimSpace(w.Body.String()))

	w = serve(server, "GET", "/api/count?documentId="+first.DocumentID, "")
	assert.Equal(t, `{"count":0}`, strings.TrimSpace(w.Body.String()))
	assert.Equal(t, 0, server.sessions.len())
}

func TestServer_ScanPartialPreferences(t *testing.T) {
	server := newServer(&mock{rates: domain.Rates{"USD": 1, "EUR": 0.92, "GBP": 0.79}})

	response := scan(t, server, `{"spans": [{"id": "a", "text": "100 USD"}], "preferences": {"targetCurrency": "GBP"}}`)
	require.Len(t, response.Report.Replacements, 1)
	assert.Equal(t, "100 USD → £79.00", response.Report.Replacements[0].Text)
	require.Len(t, response.Report.Replacements[0].Fragments, 1)
	assert.Equal(t, "#00ff88", response.Report.Replacements[0].Fragments[0].Color)
}

func TestServer_ScanWithSuppliedRates(t *testing.T) {
	server := newServer(&mock{err: domain.ErrRateUnavailable})

	response := scan(t, server, `{"documentId": "doc", "spans": [{"id": "a", "text": "$10"}], "rates": {"USD": 1, "EUR": 0.5}}`)
	assert.Equal(t, "doc", response.DocumentID)
	assert.Equal(t, "$10 → €5.00", response.Report.Replacements[0].Text)
}

func TestServer_ScanWithoutRates(t *testing.T) {
	server := newServer(&mock{err: domain.ErrRateUnavailable})

	response := scan(t, server, `{"spans": [{"id": "a", "text": "$10"}]}`)
	assert.Equal(t, 0, response.Report.ConvertedPrices)
	assert.Equal(t, 1, response.Report.Skipped[domain.SkipRateUnavailable])
	assert.Empty(t, response.Report.Replacements)
}

func TestServer_RestoreUnknownDocument(t *testing.T) {
	server := newServer(&mock{})

	w := serve(server, "POST", "/api/restore", `{"documentId": "nope", "spanId": "a"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, `{"error":"unknown document"}`, strings.TrimSpace(w.Body.String()))

	w = serve(server, "POST", "/api/restore-all", `{"documentId": "nope"}`)
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, `{"restored":[]}`, strings.TrimSpace(w.Body.String()))
}

func TestServer_Quote(t *testing.T) {
	server := newServer(&mock{rates: domain.Rates{"USD": 1, "EUR": 0.92}})

	tests := []struct {
		name   string
		target string
		code   int
		want   string
	}{
		{"available", "/api/quote?from=USD&to=EUR", 200, `{"quote":"1 USD = 0.9200 EUR","rate":0.92}`},
		{"lower case", "/api/quote?from=usd&to=usd", 200, `{"quote":"1 USD = 1.00 USD","rate":1}`},
		{"unavailable", "/api/quote?from=USD&to=JPY", 200, `{"quote":"1 USD = — JPY"}`},
		{"missing currency", "/api/quote?from=USD", 400, `{"error":"from and to are required"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(server, "GET", tt.target, "")
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.want, strings.TrimSpace(w.Body.String()))
		})
	}
}
