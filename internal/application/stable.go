package application

import (
	"fmt"

	"github.com/shopspring/decimal"

	"premium-monitor/internal/domain"
)

// MinStableOrderKRW is the smallest amount the calculator accepts.
const MinStableOrderKRW = 10000

// StableQuote is the outcome of converting a domestic amount into the stablecoin.
type StableQuote struct {
	AmountKRW     decimal.Decimal
	StablePrice   decimal.Decimal // domestic price of one unit
	Units         decimal.Decimal // units bought, 4 dp
	Rate          decimal.Decimal
	PremiumPct    decimal.Decimal // stablecoin price over the FX rate, 2 dp
	BelowFXRate   bool
	RateIsDefault bool
}

// ConvertToStable reports how many stablecoin units amountKRW buys at stablePrice,
// and how that price compares with the FX rate.
func ConvertToStable(amountKRW, stablePrice float64, rate domain.ExchangeRate) (StableQuote, error) {
	if !domain.IsPositivePrice(amountKRW) || amountKRW < MinStableOrderKRW {
		return StableQuote{}, fmt.Errorf("%w: amount must be at least %d", domain.ErrInvalidAmount, MinStableOrderKRW)
	}
	if !domain.IsPositivePrice(stablePrice) {
		return StableQuote{}, fmt.Errorf("stable: %w", domain.ErrNotFound)
	}
	if !domain.IsPositivePrice(rate.Value) {
		return StableQuote{}, fmt.Errorf("stable: %w", domain.ErrUnsupportedPair)
	}
	amt := decimal.NewFromFloat(amountKRW)
	price := decimal.NewFromFloat(stablePrice)
	fx := decimal.NewFromFloat(rate.Value)
	hundred := decimal.NewFromInt(100)

	return StableQuote{
		AmountKRW:     amt,
		StablePrice:   price,
		Units:         amt.DivRound(price, 4),
		Rate:          fx,
		PremiumPct:    price.Div(fx).Sub(decimal.NewFromInt(1)).Mul(hundred).Round(2),
		BelowFXRate:   price.LessThan(fx),
		RateIsDefault: rate.IsFallback,
	}, nil
}
