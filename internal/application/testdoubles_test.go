package application

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"premium-monitor/internal/domain"
)

var (
	ErrUpstream = errors.New("upstream error")
)

type fakeClock struct{ t time.Time }

func (f fakeClock) Now() time.Time { return f.t }

// steppingClock is advanced manually by tests.
type steppingClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *steppingClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type fixedID string

func (f fixedID) NewID() string { return string(f) }

type fakeMarket struct {
	name        string
	instruments []domain.Instrument
	tickers     []domain.Ticker
	loadErr     error
	tickErr     error
	loads       atomic.Int32
	ticks       atomic.Int32
	block       chan struct{}
	panicOnTick bool
}

func (f *fakeMarket) Name() string { return f.name }

func (f *fakeMarket) LoadInstruments(context.Context) ([]domain.Instrument, error) {
	f.loads.Add(1)
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.instruments, nil
}

func (f *fakeMarket) FetchAllTickers(ctx context.Context) ([]domain.Ticker, error) {
	f.ticks.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.panicOnTick {
		panic("boom")
	}
	if f.tickErr != nil {
		return nil, f.tickErr
	}
	return f.tickers, nil
}

type fakeRateProvider struct {
	out   domain.Quote
	err   error
	calls atomic.Int32
}

func (f *fakeRateProvider) Get(_ context.Context, pair string) (domain.Quote, error) {
	f.calls.Add(1)
	if f.err != nil {
		return domain.Quote{}, f.err
	}
	q := f.out
	q.Pair = domain.Pair(pair)
	return q, nil
}

type fakeStatusSource struct {
	mu       sync.Mutex
	statuses []domain.AssetStatus
	err      error
}

func (f *fakeStatusSource) WalletStatuses(context.Context) ([]domain.AssetStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.AssetStatus(nil), f.statuses...), nil
}

func (f *fakeStatusSource) set(statuses []domain.AssetStatus, err error) {
	f.mu.Lock()
	f.statuses, f.err = statuses, err
	f.mu.Unlock()
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []string
	err  error
}

func (f *fakeNotifier) Post(_ context.Context, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeNotifier) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.msgs...)
}

type fakeCache struct {
	mu     sync.Mutex
	items  map[string][]domain.Instrument
	getErr error
	setErr error
	sets   int
}

func (f *fakeCache) Get(_ context.Context, exchange string) ([]domain.Instrument, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	v, ok := f.items[exchange]
	return v, ok, nil
}

func (f *fakeCache) Set(_ context.Context, exchange string, in []domain.Instrument, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	if f.items == nil {
		f.items = map[string][]domain.Instrument{}
	}
	f.items[exchange] = in
	return nil
}

// fakeReminders holds keys without expiry.
type fakeReminders struct {
	mu   sync.Mutex
	keys map[string]bool
	err  error
}

func (f *fakeReminders) TryReserve(_ context.Context, key string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, f.err
	}
	if f.keys == nil {
		f.keys = map[string]bool{}
	}
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeReminders) Release(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, key)
	return f.err
}

// expiringReminders expires keys against clk. The i-th reservation lands
// lags[i] after the clock reading, like a store written late in a poll.
type expiringReminders struct {
	mu   sync.Mutex
	clk  *steppingClock
	lags []time.Duration
	keys map[string]time.Time
	ttls []time.Duration
}

func (f *expiringReminders) TryReserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys == nil {
		f.keys = map[string]time.Time{}
	}
	now := f.clk.Now()
	if len(f.lags) > 0 {
		now = now.Add(f.lags[0])
		f.lags = f.lags[1:]
	}
	f.ttls = append(f.ttls, ttl)
	if exp, ok := f.keys[key]; ok && now.Before(exp) {
		return false, nil
	}
	f.keys[key] = now.Add(ttl)
	return true, nil
}

func (f *expiringReminders) Release(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, key)
	return nil
}

func upbitMarket(prices map[string]float64) *fakeMarket {
	m := &fakeMarket{name: "upbit"}
	for base, p := range prices {
		sym := "KRW-" + base
		m.instruments = append(m.instruments, domain.Instrument{Symbol: sym, Base: base, Quote: "KRW", LocalizedName: base + "-name"})
		m.tickers = append(m.tickers, domain.Ticker{Symbol: sym, LastPrice: p})
	}
	return m
}

func binanceMarket(prices map[string]float64) *fakeMarket {
	m := &fakeMarket{name: "binance"}
	for base, p := range prices {
		sym := base + "USDT"
		m.instruments = append(m.instruments, domain.Instrument{Symbol: sym, Base: base, Quote: "USDT"})
		m.tickers = append(m.tickers, domain.Ticker{Symbol: sym, LastPrice: p})
	}
	return m
}

func fetcher(role Source, m *fakeMarket, quote string) *MarketFetcher {
	return &MarketFetcher{Role: role, Source: m, Quote: quote}
}
