package bootstrap

import (
	"context"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"premium-monitor/internal/application"
	"premium-monitor/internal/config"
	"premium-monitor/internal/domain"
	infracfg "premium-monitor/internal/infrastructure/config"
	"premium-monitor/internal/infrastructure/exchange"
	httpserver "premium-monitor/internal/infrastructure/http"
	"premium-monitor/internal/infrastructure/worker"
)

// Core holds the adapters shared by every binary.
type Core struct {
	Config  config.Config
	Log     *zap.Logger
	Upbit   *exchange.Upbit
	Binance *exchange.Binance
	Rates   application.RateProvider
	Stores  Stores
}

// BuildCore wires exchanges, the rate provider and the cache backend.
func BuildCore(ctx context.Context, cfg config.Config, log *zap.Logger) (*Core, func(), error) {
	if log == nil {
		log = zap.NewNop()
	}
	upbit, binance := ProvideExchanges(cfg)
	rp, err := ProvideRateProvider(cfg)
	if err != nil {
		return nil, func() {}, err
	}
	var client *redis.Client
	cleanup := func() {}
	if cfg.CacheBackend == "redis" {
		client, cleanup, err = ProvideRedisClient(ctx, cfg)
		if err != nil {
			return nil, func() {}, err
		}
	}
	log.Info("bootstrap.core_ready",
		zap.String("rate_provider", cfg.RateProvider),
		zap.String("cache_backend", cfg.CacheBackend),
	)
	return &Core{
		Config:  cfg,
		Log:     log,
		Upbit:   upbit,
		Binance: binance,
		Rates:   rp,
		Stores:  ProvideStores(client, cfg),
	}, cleanup, nil
}

func (c *Core) PremiumService(opts ...application.Option) *application.PremiumService {
	return ProvidePremiumService(c.Config, c.Upbit, c.Binance, c.Rates, c.Stores, c.Log, opts...)
}

// API is the HTTP surface plus the interval refresher that feeds it.
type API struct {
	Service   *application.PremiumService
	Hub       *httpserver.Hub
	Handler   http.Handler
	Refresher *worker.Refresher
}

func (c *Core) BuildAPI() *API {
	hub := httpserver.NewHub(c.Log)
	high := c.Config.HighSpreadPct
	svc := c.PremiumService(application.WithPublishHook(func(s *domain.RankedSnapshot) {
		hub.Broadcast(httpserver.SnapshotMessage(s, high))
	}))
	srv := httpserver.NewServer(svc, hub, httpserver.Options{
		HighThreshold: high,
		StaleAfter:    c.Config.StaleAfter,
	})
	return &API{
		Service:   svc,
		Hub:       hub,
		Handler:   httpserver.NewRouter(srv),
		Refresher: &worker.Refresher{Svc: svc, Interval: c.Config.RefreshInterval, Log: c.Log},
	}
}

func (c *Core) BuildAlertPoller() *worker.AlertPoller {
	emitter := ProvideAlertEmitter(c.Config, c.Upbit, ProvideNotifier(c.Config, c.Log), c.Stores, c.Log)
	return &worker.AlertPoller{
		Alerts:   emitter,
		Schedule: c.Config.AlertSchedule,
		Greeting: infracfg.DefaultAlertGreeting,
		Timeout:  c.Config.CycleTimeout,
		Log:      c.Log,
	}
}
