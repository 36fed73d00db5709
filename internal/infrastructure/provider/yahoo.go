package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"premium-monitor/internal/application"
	"premium-monitor/internal/domain"
	"premium-monitor/internal/infrastructure/httpx"
)

const yahooChartPath = "/v8/finance/chart/"

// Yahoo reads FX rates from the public chart endpoint. No key is required.
type Yahoo struct {
	BaseURL string
	Client  *httpx.Client
}

var _ application.RateProvider = (*Yahoo)(nil)

// YahooSymbol maps "USD/KRW" to "KRW=X" and "EUR/KRW" to "EURKRW=X".
func YahooSymbol(pair string) (string, error) {
	if !domain.ValidateCurrencyPair(pair) {
		return "", fmt.Errorf("yahoo: %w: %s", domain.ErrUnsupportedPair, pair)
	}
	base, quote, _ := domain.SplitPair(pair)
	if base == "USD" {
		return quote + "=X", nil
	}
	return base + quote + "=X", nil
}

func (y *Yahoo) Get(ctx context.Context, pair string) (domain.Quote, error) {
	sym, err := YahooSymbol(pair)
	if err != nil {
		return domain.Quote{}, err
	}
	u, err := url.Parse(y.BaseURL)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("yahoo: invalid base url: %w", err)
	}
	u = u.JoinPath(yahooChartPath + sym)
	u.RawQuery = url.Values{"interval": {"1d"}, "range": {"5d"}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("yahoo: create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (premium-monitor)")
	client := y.Client
	if client == nil {
		client = &httpx.Client{}
	}
	body, err := client.Do(ctx, req)
	if err != nil {
		return domain.Quote{}, fmt.Errorf("yahoo: %w", err)
	}
	if !gjson.ValidBytes(body) {
		return domain.Quote{}, fmt.Errorf("yahoo: %w", application.ErrMalformed)
	}
	res := gjson.GetBytes(body, "chart.result.0")
	if !res.Exists() {
		if msg := gjson.GetBytes(body, "chart.error.description").String(); msg != "" {
			return domain.Quote{}, fmt.Errorf("yahoo: %s", msg)
		}
		return domain.Quote{}, fmt.Errorf("yahoo: %w: empty result", application.ErrMalformed)
	}

	price := res.Get("meta.regularMarketPrice").Float()
	if !domain.IsPositivePrice(price) {
		price = lastClose(res.Get("indicators.quote.0.close"))
	}
	if !domain.IsPositivePrice(price) {
		return domain.Quote{}, fmt.Errorf("yahoo: %w: no price for %s", application.ErrMalformed, sym)
	}
	updatedAt := time.Now().UTC()
	if ts := res.Get("meta.regularMarketTime").Int(); ts > 0 {
		updatedAt = time.Unix(ts, 0).UTC()
	}
	return domain.Quote{Pair: domain.Pair(pair), Price: price, UpdatedAt: updatedAt}, nil
}

// lastClose returns the newest non-null close.
func lastClose(closes gjson.Result) float64 {
	arr := closes.Array()
	for i := len(arr) - 1; i >= 0; i-- {
		if arr[i].Type == gjson.Number && domain.IsPositivePrice(arr[i].Num) {
			return arr[i].Num
		}
	}
	return 0
}
