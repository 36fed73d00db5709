package exchange

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"premium-monitor/internal/application"
	"premium-monitor/internal/domain"
	"premium-monitor/internal/infrastructure/httpx"
)

const (
	upbitMarketsPath = "/v1/market/all"
	upbitTickersPath = "/v1/ticker/all"
	upbitWalletPath  = "/v1/status/wallet"
)

// Upbit is the domestic venue. Markets are named QUOTE-BASE, e.g. "KRW-BTC".
type Upbit struct {
	BaseURL string
	Quote   string // quote currency for the batched ticker call
	Client  *httpx.Client
	// Signer authorizes the private wallet-status call. Market data is public.
	Signer httpx.Signer
}

var (
	_ application.MarketSource = (*Upbit)(nil)
	_ application.StatusSource = (*Upbit)(nil)
)

func (u *Upbit) Name() string { return "upbit" }

func (u *Upbit) LoadInstruments(ctx context.Context) ([]domain.Instrument, error) {
	arr, err := getJSON(ctx, u.Client, u.BaseURL, upbitMarketsPath, url.Values{"isDetails": {"false"}})
	if err != nil {
		return nil, fmt.Errorf("upbit: markets: %w", err)
	}
	if !arr.IsArray() {
		return nil, fmt.Errorf("upbit: markets: %w", application.ErrMalformed)
	}
	var out []domain.Instrument
	arr.ForEach(func(_, v gjson.Result) bool {
		market := v.Get("market").String()
		quote, base, ok := strings.Cut(market, "-")
		if !ok || quote == "" || base == "" {
			return true
		}
		out = append(out, domain.Instrument{
			Symbol:        market,
			Base:          base,
			Quote:         quote,
			LocalizedName: v.Get("korean_name").String(),
		})
		return true
	})
	return out, nil
}

func (u *Upbit) FetchAllTickers(ctx context.Context) ([]domain.Ticker, error) {
	quote := u.Quote
	if quote == "" {
		quote = "KRW"
	}
	arr, err := getJSON(ctx, u.Client, u.BaseURL, upbitTickersPath, url.Values{"quote_currencies": {quote}})
	if err != nil {
		return nil, fmt.Errorf("upbit: tickers: %w", err)
	}
	if !arr.IsArray() {
		return nil, fmt.Errorf("upbit: tickers: %w", application.ErrMalformed)
	}
	var out []domain.Ticker
	arr.ForEach(func(_, v gjson.Result) bool {
		out = append(out, domain.Ticker{
			Symbol:    v.Get("market").String(),
			LastPrice: number(v.Get("trade_price")),
		})
		return true
	})
	return out, nil
}

func (u *Upbit) WalletStatuses(ctx context.Context) ([]domain.AssetStatus, error) {
	c := u.Client
	if u.Signer != nil {
		c = c.WithSigner(u.Signer)
	}
	arr, err := getJSON(ctx, c, u.BaseURL, upbitWalletPath, nil)
	if err != nil {
		return nil, fmt.Errorf("upbit: wallet status: %w", err)
	}
	if !arr.IsArray() {
		return nil, fmt.Errorf("upbit: wallet status: %w", application.ErrMalformed)
	}
	var out []domain.AssetStatus
	arr.ForEach(func(_, v gjson.Result) bool {
		sym := v.Get("currency").String()
		if sym == "" {
			return true
		}
		out = append(out, domain.AssetStatus{
			Symbol: sym,
			State:  domain.ParseWalletState(v.Get("wallet_state").String()),
		})
		return true
	})
	return out, nil
}
