package application

import (
	"context"
	"time"

	"premium-monitor/internal/domain"
)

// MarketSource is an exchange's public market-data API.
type MarketSource interface {
	Name() string
	// LoadInstruments lists tradable markets. LocalizedName is best effort.
	LoadInstruments(ctx context.Context) ([]domain.Instrument, error)
	// FetchAllTickers returns last prices for every market in one call.
	FetchAllTickers(ctx context.Context) ([]domain.Ticker, error)
}

// RateProvider returns the latest FX quote for a pair like "USD/KRW".
type RateProvider interface {
	Get(ctx context.Context, pair string) (domain.Quote, error)
}

// StatusSource reports per-asset deposit/withdraw conditions.
type StatusSource interface {
	WalletStatuses(ctx context.Context) ([]domain.AssetStatus, error)
}

// Notifier delivers an out-of-band message.
type Notifier interface {
	Post(ctx context.Context, message string) error
}

// InstrumentCache holds instrument lists between cycles.
type InstrumentCache interface {
	Get(ctx context.Context, exchange string) ([]domain.Instrument, bool, error)
	Set(ctx context.Context, exchange string, instruments []domain.Instrument, ttl time.Duration) error
}

// ReminderStore gates alert delivery.
type ReminderStore interface {
	// TryReserve returns true if key was absent and is now held for ttl.
	TryReserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// NoopReminders always grants; useful for tests/dev when no store is configured.
type NoopReminders struct{}

func (NoopReminders) TryReserve(context.Context, string, time.Duration) (bool, error) {
	return true, nil
}
func (NoopReminders) Release(context.Context, string) error { return nil }
