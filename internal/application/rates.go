package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"premium-monitor/internal/domain"
)

// FallbackRates wraps a RateProvider so that a cycle always gets a usable rate.
type FallbackRates struct {
	Provider RateProvider
	Pair     string
	Fallback float64
	Timeout  time.Duration
	Logger   *zap.Logger
	clock    Clock
}

func NewFallbackRates(p RateProvider, pair string, fallback float64, timeout time.Duration, log *zap.Logger) *FallbackRates {
	if log == nil {
		log = zap.NewNop()
	}
	return &FallbackRates{Provider: p, Pair: pair, Fallback: fallback, Timeout: timeout, Logger: log, clock: realClock{}}
}

// Fetch never fails: any provider error or unusable value yields the fallback rate.
func (r *FallbackRates) Fetch(ctx context.Context) domain.ExchangeRate {
	now := r.now()
	if r.Provider == nil {
		return domain.FallbackRate(r.Fallback, now)
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	q, err := r.Provider.Get(ctx, r.Pair)
	if err != nil {
		r.log().Warn("rate.fallback",
			zap.String("pair", r.Pair),
			zap.String("kind", string(classify(err))),
			zap.Error(err))
		return domain.FallbackRate(r.Fallback, now)
	}
	if !domain.IsPositivePrice(q.Price) {
		r.log().Warn("rate.fallback",
			zap.String("pair", r.Pair),
			zap.String("kind", string(FailureMalformed)),
			zap.Float64("value", q.Price))
		return domain.FallbackRate(r.Fallback, now)
	}
	asOf := q.UpdatedAt
	if asOf.IsZero() {
		asOf = now
	}
	return domain.ExchangeRate{Value: q.Price, AsOf: asOf, Source: "live"}
}

func (r *FallbackRates) now() time.Time {
	if r.clock == nil {
		return time.Now().UTC()
	}
	return r.clock.Now()
}

func (r *FallbackRates) log() *zap.Logger {
	if r.Logger == nil {
		return zap.NewNop()
	}
	return r.Logger
}
