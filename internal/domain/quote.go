package domain

import (
	"math"
	"time"
)

// Quote is a raw FX observation returned by a rate source.
type Quote struct {
	Pair      Pair
	Price     float64
	UpdatedAt time.Time
}

// AssetQuote is one asset's state on one exchange at fetch time.
type AssetQuote struct {
	BaseSymbol  string
	LastPrice   float64 // in the exchange's quote currency
	DisplayName string
}

// Active reports whether the quote carries a usable trade price.
func (q AssetQuote) Active() bool {
	return IsPositivePrice(q.LastPrice)
}

// Name returns the localized name, falling back to the symbol.
func (q AssetQuote) Name() string {
	if q.DisplayName != "" {
		return q.DisplayName
	}
	return q.BaseSymbol
}

// Quotes is one exchange snapshot keyed by normalized base symbol.
type Quotes map[string]AssetQuote

// IsPositivePrice reports whether v is a finite, strictly positive number.
func IsPositivePrice(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
