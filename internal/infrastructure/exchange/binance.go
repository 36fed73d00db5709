package exchange

import (
	"context"
	"fmt"

	"github.com/tidwall/gjson"

	"premium-monitor/internal/application"
	"premium-monitor/internal/domain"
	"premium-monitor/internal/infrastructure/httpx"
)

const (
	binanceExchangeInfoPath = "/api/v3/exchangeInfo"
	binanceTickerPricePath  = "/api/v3/ticker/price"
)

// Binance is the foreign venue. Only symbols in TRADING status are listed.
type Binance struct {
	BaseURL string
	Client  *httpx.Client
}

var _ application.MarketSource = (*Binance)(nil)

func (b *Binance) Name() string { return "binance" }

func (b *Binance) LoadInstruments(ctx context.Context) ([]domain.Instrument, error) {
	doc, err := getJSON(ctx, b.Client, b.BaseURL, binanceExchangeInfoPath, nil)
	if err != nil {
		return nil, fmt.Errorf("binance: exchange info: %w", err)
	}
	symbols := doc.Get("symbols")
	if !symbols.IsArray() {
		return nil, fmt.Errorf("binance: exchange info: %w", application.ErrMalformed)
	}
	var out []domain.Instrument
	symbols.ForEach(func(_, v gjson.Result) bool {
		if v.Get("status").String() != "TRADING" {
			return true
		}
		sym, base, quote := v.Get("symbol").String(), v.Get("baseAsset").String(), v.Get("quoteAsset").String()
		if sym == "" || base == "" || quote == "" {
			return true
		}
		out = append(out, domain.Instrument{Symbol: sym, Base: base, Quote: quote})
		return true
	})
	return out, nil
}

func (b *Binance) FetchAllTickers(ctx context.Context) ([]domain.Ticker, error) {
	arr, err := getJSON(ctx, b.Client, b.BaseURL, binanceTickerPricePath, nil)
	if err != nil {
		return nil, fmt.Errorf("binance: ticker price: %w", err)
	}
	if !arr.IsArray() {
		return nil, fmt.Errorf("binance: ticker price: %w", application.ErrMalformed)
	}
	var out []domain.Ticker
	arr.ForEach(func(_, v gjson.Result) bool {
		out = append(out, domain.Ticker{
			Symbol:    v.Get("symbol").String(),
			LastPrice: number(v.Get("price")),
		})
		return true
	})
	return out, nil
}
