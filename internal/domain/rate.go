package domain

import "time"

// DefaultFallbackRate is the domestic-per-foreign rate substituted when the live
// FX source is unavailable. It is a recent historical USD/KRW level and needs
// periodic review: while it is in use the premium column is only approximately right.
const DefaultFallbackRate = 1465.0

// ExchangeRate is the conversion rate used for one refresh cycle.
// Value is always > 0.
type ExchangeRate struct {
	Value      float64
	AsOf       time.Time
	IsFallback bool
	Source     string
}

// FallbackRate builds the degraded rate for a cycle whose FX fetch failed.
func FallbackRate(value float64, at time.Time) ExchangeRate {
	if !IsPositivePrice(value) {
		value = DefaultFallbackRate
	}
	return ExchangeRate{Value: value, AsOf: at, IsFallback: true, Source: "fallback"}
}
