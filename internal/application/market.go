package application

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"premium-monitor/internal/domain"
)

// MarketSnapshot is one exchange's quotes plus the count of entries that were skipped.
type MarketSnapshot struct {
	Quotes  domain.Quotes
	Dropped int
}

// MarketFetcher turns a MarketSource into per-asset quotes in a single quote currency.
type MarketFetcher struct {
	Role   Source
	Source MarketSource
	Quote  string
	Cache  InstrumentCache
	TTL    time.Duration
	Logger *zap.Logger
}

// FetchSnapshot returns the quotes only.
func (f *MarketFetcher) FetchSnapshot(ctx context.Context) (domain.Quotes, error) {
	s, err := f.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	return s.Quotes, nil
}

// Fetch loads instruments (cached) and one batch of live tickers.
func (f *MarketFetcher) Fetch(ctx context.Context) (MarketSnapshot, error) {
	instruments, err := f.instruments(ctx)
	if err != nil {
		return MarketSnapshot{}, NewSourceError(f.Role, fmt.Errorf("%s: load instruments: %w", f.Source.Name(), err))
	}
	tickers, err := f.Source.FetchAllTickers(ctx)
	if err != nil {
		return MarketSnapshot{}, NewSourceError(f.Role, fmt.Errorf("%s: fetch tickers: %w", f.Source.Name(), err))
	}

	quote := domain.NormalizeSymbol(f.Quote)
	bySymbol := make(map[string]domain.Instrument, len(instruments))
	for _, in := range instruments {
		if p := in.Pair(); p.Quote() != quote || p.Base() == "" {
			continue
		}
		bySymbol[in.Symbol] = in
	}

	out := MarketSnapshot{Quotes: make(domain.Quotes, len(bySymbol))}
	for _, t := range tickers {
		if t.Symbol == "" || math.IsNaN(t.LastPrice) || math.IsInf(t.LastPrice, 0) {
			out.Dropped++
			continue
		}
		in, ok := bySymbol[t.Symbol]
		if !ok {
			// other quote currencies, halted or not-yet-listed markets
			continue
		}
		base := in.Pair().Base()
		out.Quotes[base] = domain.AssetQuote{
			BaseSymbol:  base,
			LastPrice:   t.LastPrice,
			DisplayName: in.LocalizedName,
		}
	}
	f.log().Debug("market.snapshot",
		zap.String("exchange", f.Source.Name()),
		zap.Int("quotes", len(out.Quotes)),
		zap.Int("dropped", out.Dropped))
	return out, nil
}

func (f *MarketFetcher) instruments(ctx context.Context) ([]domain.Instrument, error) {
	name := f.Source.Name()
	if f.Cache != nil {
		cached, ok, err := f.Cache.Get(ctx, name)
		switch {
		case err != nil:
			f.log().Warn("market.cache_get_failed", zap.String("exchange", name), zap.Error(err))
		case ok && len(cached) > 0:
			return cached, nil
		}
	}
	loaded, err := f.Source.LoadInstruments(ctx)
	if err != nil {
		return nil, err
	}
	if f.Cache != nil && len(loaded) > 0 {
		if err := f.Cache.Set(ctx, name, loaded, f.TTL); err != nil {
			f.log().Warn("market.cache_set_failed", zap.String("exchange", name), zap.Error(err))
		}
	}
	return loaded, nil
}

func (f *MarketFetcher) log() *zap.Logger {
	if f.Logger == nil {
		return zap.NewNop()
	}
	return f.Logger
}
