package application

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"premium-monitor/internal/domain"
)

const defaultCycleTimeout = 20 * time.Second

// PremiumService runs refresh cycles and holds the latest published snapshot.
type PremiumService struct {
	domestic *MarketFetcher
	foreign  *MarketFetcher
	rates    *FallbackRates
	status   *StatusReader

	stableSymbol string
	cycleTimeout time.Duration
	clock        Clock
	idgen        IDGen
	log          *zap.Logger
	hooks        []func(*domain.RankedSnapshot)
	cycleHooks   []func(*domain.RankedSnapshot, error, time.Duration)

	group   singleflight.Group
	current atomic.Pointer[domain.RankedSnapshot]

	mu      sync.Mutex
	outcome RefreshOutcome
}

// RefreshOutcome describes the most recent cycles.
type RefreshOutcome struct {
	LastSuccess time.Time
	LastFailure time.Time
	LastError   string
}

// Failing reports whether the newest cycle failed.
func (o RefreshOutcome) Failing() bool {
	return o.LastError != ""
}

type Option func(*PremiumService)

func WithClock(c Clock) Option        { return func(s *PremiumService) { s.clock = c } }
func WithIDGen(g IDGen) Option        { return func(s *PremiumService) { s.idgen = g } }
func WithLogger(l *zap.Logger) Option { return func(s *PremiumService) { s.log = l } }
func WithStableSymbol(sym string) Option {
	return func(s *PremiumService) { s.stableSymbol = domain.NormalizeSymbol(sym) }
}
func WithCycleTimeout(d time.Duration) Option {
	return func(s *PremiumService) { s.cycleTimeout = d }
}

// WithPublishHook registers fn to be called with every newly published snapshot.
func WithPublishHook(fn func(*domain.RankedSnapshot)) Option {
	return func(s *PremiumService) { s.hooks = append(s.hooks, fn) }
}

// WithCycleHook registers fn to see the outcome and duration of every cycle,
// whichever trigger started it.
func WithCycleHook(fn func(*domain.RankedSnapshot, error, time.Duration)) Option {
	return func(s *PremiumService) { s.cycleHooks = append(s.cycleHooks, fn) }
}

func NewPremiumService(domestic, foreign *MarketFetcher, rates *FallbackRates, status *StatusReader, opts ...Option) *PremiumService {
	s := &PremiumService{
		domestic:     domestic,
		foreign:      foreign,
		rates:        rates,
		status:       status,
		stableSymbol: "USDT",
		cycleTimeout: defaultCycleTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.clock == nil {
		s.clock = realClock{}
	}
	if s.idgen == nil {
		s.idgen = defaultIDGen{}
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.status == nil {
		s.status = &StatusReader{}
	}
	return s
}

// Current returns the last published snapshot.
func (s *PremiumService) Current() (*domain.RankedSnapshot, bool) {
	snap := s.current.Load()
	return snap, snap != nil
}

// Outcome returns success/failure bookkeeping for the latest cycles.
func (s *PremiumService) Outcome() RefreshOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcome
}

// Refresh runs one cycle, or joins the one already in flight. If ctx ends first the
// caller gets ctx.Err() while the shared cycle finishes on its own deadline.
func (s *PremiumService) Refresh(ctx context.Context) (*domain.RankedSnapshot, error) {
	ch := s.group.DoChan("refresh", func() (any, error) {
		return s.cycle(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.RankedSnapshot), nil
	}
}

func (s *PremiumService) cycle(parent context.Context) (snap *domain.RankedSnapshot, err error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(parent, s.cycleTimeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			snap, err = nil, fmt.Errorf("%w: panic: %v", ErrCycleFailed, r)
		}
		s.record(err)
		took := time.Since(start)
		for _, h := range s.cycleHooks {
			h(snap, err, took)
		}
	}()

	var (
		dom, frn   MarketSnapshot
		domErr     error
		frnErr     error
		rate       domain.ExchangeRate
		notes      map[string]domain.RestrictionNote
		statusSeen bool
		g          errgroup.Group
	)
	g.Go(guard(func() error {
		dom, domErr = s.domestic.Fetch(ctx)
		return domErr
	}))
	g.Go(guard(func() error {
		frn, frnErr = s.foreign.Fetch(ctx)
		return frnErr
	}))
	g.Go(guard(func() error {
		rate = s.rates.Fetch(ctx)
		return nil
	}))
	g.Go(guard(func() error {
		notes, statusSeen = s.status.Fetch(ctx)
		return nil
	}))
	if werr := g.Wait(); werr != nil {
		cause := errors.Join(domErr, frnErr)
		if cause == nil {
			cause = werr
		}
		return nil, fmt.Errorf("%w: %w", ErrCycleFailed, cause)
	}

	records, excluded := Rank(Reconcile(dom.Quotes, frn.Quotes), rate)
	records = Annotate(records, notes)

	var stable float64
	if q, ok := dom.Quotes[s.stableSymbol]; ok && q.Active() {
		stable = q.LastPrice
	}
	snap = &domain.RankedSnapshot{
		ID:          s.idgen.NewID(),
		Records:     records,
		Rate:        rate,
		FetchedAt:   s.clock.Now(),
		StablePrice: stable,
		Health: domain.SnapshotHealth{
			RateFallback:    rate.IsFallback,
			StatusAvailable: statusSeen,
			DroppedAssets:   dom.Dropped + frn.Dropped + excluded,
		},
	}
	s.current.Store(snap)
	for _, h := range s.hooks {
		h(snap)
	}
	s.log.Info("refresh.published",
		zap.String("snapshot_id", snap.ID),
		zap.Int("records", len(records)),
		zap.Float64("rate", rate.Value),
		zap.Bool("rate_fallback", rate.IsFallback),
		zap.Bool("status_available", statusSeen),
		zap.Int("dropped", snap.Health.DroppedAssets))
	return snap, nil
}

func (s *PremiumService) record(err error) {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.outcome.LastFailure = now
		s.outcome.LastError = err.Error()
		return
	}
	s.outcome.LastSuccess = now
	s.outcome.LastError = ""
}

// guard turns a panic inside a fetch goroutine into an error.
func guard(fn func() error) func() error {
	return func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic: %v", r)
			}
		}()
		return fn()
	}
}
