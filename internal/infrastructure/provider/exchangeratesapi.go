package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"premium-monitor/internal/application"
	"premium-monitor/internal/domain"
	"premium-monitor/internal/infrastructure/httpx"
)

const (
	exchangeRatesLatestPath = "/v1/latest"
)

// ExchangeRatesAPIProvider quotes any fiat pair through the EUR-based latest endpoint.
type ExchangeRatesAPIProvider struct {
	BaseURL string
	APIKey  string
	Client  *httpx.Client
}

var _ application.RateProvider = (*ExchangeRatesAPIProvider)(nil)

type xrLatestResp struct {
	Success   bool               `json:"success"`
	Timestamp int64              `json:"timestamp"`
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	Error     *struct {
		Code int    `json:"code"`
		Info string `json:"info"`
	} `json:"error,omitempty"`
}

func (p *ExchangeRatesAPIProvider) Get(ctx context.Context, pair string) (domain.Quote, error) {
	if p.BaseURL == "" || p.APIKey == "" {
		return domain.Quote{}, errors.New("exchangeratesapi: missing configuration")
	}
	if !domain.ValidateCurrencyPair(pair) {
		return domain.Quote{}, fmt.Errorf("exchangeratesapi: %w: %s", domain.ErrUnsupportedPair, pair)
	}
	baseCur, quoteCur, _ := domain.SplitPair(pair)

	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("exchangeratesapi: invalid base url: %w", err)
	}
	u = u.JoinPath(exchangeRatesLatestPath)
	q := u.Query()
	q.Set("access_key", p.APIKey)
	q.Set("symbols", baseCur+","+quoteCur)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("exchangeratesapi: create request: %w", err)
	}
	client := p.Client
	if client == nil {
		client = &httpx.Client{}
	}
	var body xrLatestResp
	if err := client.DoJSON(ctx, req, &body); err != nil {
		return domain.Quote{}, fmt.Errorf("exchangeratesapi: %w", err)
	}
	if !body.Success {
		if body.Error != nil {
			return domain.Quote{}, fmt.Errorf("exchangeratesapi: %d %s", body.Error.Code, body.Error.Info)
		}
		return domain.Quote{}, errors.New("exchangeratesapi: unsuccessful response")
	}

	// rates are "1 Base = x C"
	perBase := func(c string) (float64, error) {
		if c == body.Base {
			return 1.0, nil
		}
		v, ok := body.Rates[c]
		if !ok || !domain.IsPositivePrice(v) {
			return 0, fmt.Errorf("exchangeratesapi: %w: no rate for %s", application.ErrMalformed, c)
		}
		return v, nil
	}
	toBase, err := perBase(baseCur)
	if err != nil {
		return domain.Quote{}, err
	}
	toQuote, err := perBase(quoteCur)
	if err != nil {
		return domain.Quote{}, err
	}

	updatedAt := time.Now().UTC()
	if body.Timestamp > 0 {
		updatedAt = time.Unix(body.Timestamp, 0).UTC()
	}
	return domain.Quote{
		Pair:      domain.Pair(pair),
		Price:     toQuote / toBase,
		UpdatedAt: updatedAt,
	}, nil
}
