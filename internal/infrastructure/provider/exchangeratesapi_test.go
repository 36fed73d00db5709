package provider_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"premium-monitor/internal/domain"
	"premium-monitor/internal/infrastructure/httpx"
	"premium-monitor/internal/infrastructure/provider"

	"github.com/stretchr/testify/require"
)

type roundTripFunc func(*http.Request) *http.Response

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r), nil }

func httpClient(resBody string, code int) *httpx.Client {
	return &httpx.Client{HTTP: &http.Client{
		Timeout: 2 * time.Second,
		Transport: roundTripFunc(func(r *http.Request) *http.Response {
			return &http.Response{
				StatusCode: code,
				Body:       io.NopCloser(strings.NewReader(resBody)),
				Header:     make(http.Header),
				Request:    r,
			}
		}),
	}}
}

const sampleOK = `{
  "success": true,
  "timestamp": 1731240000,
  "base": "EUR",
  "date": "2025-11-08",
  "rates": { "USD": 1.20, "KRW": 1800.00 }
}`

func xr(body string, code int) *provider.ExchangeRatesAPIProvider {
	return &provider.ExchangeRatesAPIProvider{
		BaseURL: "https://api.exchangeratesapi.io",
		APIKey:  "test",
		Client:  httpClient(body, code),
	}
}

func TestGet_USD_KRW_CrossRate(t *testing.T) {
	q, err := xr(sampleOK, 200).Get(context.Background(), "USD/KRW")
	require.NoError(t, err)
	require.InDelta(t, 1500.0, q.Price, 1e-9)
	require.Equal(t, time.Unix(1731240000, 0).UTC(), q.UpdatedAt)
}

func TestGet_EUR_USD(t *testing.T) {
	q, err := xr(sampleOK, 200).Get(context.Background(), "EUR/USD")
	require.NoError(t, err)
	require.InDelta(t, 1.20, q.Price, 0.0001)
}

func TestGet_USD_EUR(t *testing.T) {
	q, err := xr(sampleOK, 200).Get(context.Background(), "USD/EUR")
	require.NoError(t, err)
	require.InDelta(t, 0.8333, q.Price, 0.0001)
}

func TestGet_SendsSymbols(t *testing.T) {
	var got string
	p := &provider.ExchangeRatesAPIProvider{
		BaseURL: "https://api.exchangeratesapi.io",
		APIKey:  "k",
		Client: &httpx.Client{HTTP: &http.Client{Transport: roundTripFunc(func(r *http.Request) *http.Response {
			got = r.URL.Query().Get("symbols")
			return &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(sampleOK)), Header: make(http.Header), Request: r}
		})}},
	}
	_, err := p.Get(context.Background(), "USD/KRW")
	require.NoError(t, err)
	require.Equal(t, "USD,KRW", got)
}

func TestGet_BaseURLPathPrefix(t *testing.T) {
	var got string
	p := &provider.ExchangeRatesAPIProvider{
		BaseURL: "https://gw.example.com/fx",
		APIKey:  "k",
		Client: &httpx.Client{HTTP: &http.Client{Transport: roundTripFunc(func(r *http.Request) *http.Response {
			got = r.URL.Path
			return &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(sampleOK)), Header: make(http.Header), Request: r}
		})}},
	}
	_, err := p.Get(context.Background(), "USD/KRW")
	require.NoError(t, err)
	require.Equal(t, "/fx/v1/latest", got)
}

func TestGet_MissingRate(t *testing.T) {
	_, err := xr(sampleOK, 200).Get(context.Background(), "USD/GBP")
	require.Error(t, err)
}

func TestGet_InvalidPair(t *testing.T) {
	_, err := xr(sampleOK, 200).Get(context.Background(), "BTC-KRW")
	require.ErrorIs(t, err, domain.ErrUnsupportedPair)
}

func TestGet_APIError(t *testing.T) {
	body := `{"success": false, "error": {"code": 104, "info": "quota exceeded"}}`
	_, err := xr(body, 200).Get(context.Background(), "EUR/USD")
	require.ErrorContains(t, err, "quota exceeded")
}

func TestGet_MissingConfig(t *testing.T) {
	p := &provider.ExchangeRatesAPIProvider{}
	_, err := p.Get(context.Background(), "USD/KRW")
	require.Error(t, err)
}

func TestStatic(t *testing.T) {
	q, err := provider.NewStatic(1465).Get(context.Background(), "USD/KRW")
	require.NoError(t, err)
	require.Equal(t, 1465.0, q.Price)
	require.Equal(t, domain.Pair("USD/KRW"), q.Pair)
}
