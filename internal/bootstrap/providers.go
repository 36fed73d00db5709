package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"premium-monitor/internal/application"
	"premium-monitor/internal/config"
	infracfg "premium-monitor/internal/infrastructure/config"
	"premium-monitor/internal/infrastructure/exchange"
	"premium-monitor/internal/infrastructure/httpx"
	"premium-monitor/internal/infrastructure/logx"
	"premium-monitor/internal/infrastructure/memory"
	"premium-monitor/internal/infrastructure/metrics"
	"premium-monitor/internal/infrastructure/notify"
	"premium-monitor/internal/infrastructure/provider"
	redisstore "premium-monitor/internal/infrastructure/redis"
)

func ProvideLogger() *zap.Logger { return logx.L() }

func ProvideConfig() (config.Config, error) { return config.Load() }

// provideUpstream returns a client with its own limiter; one per upstream host.
func provideUpstream(cfg config.Config) *httpx.Client {
	return httpx.New(&http.Client{Timeout: cfg.RequestTimeout}, cfg.UpstreamRPS, cfg.UpstreamBurst)
}

// provideUpbitSigner returns nil when no keypair is configured; the wallet
// feed is then requested unsigned.
func provideUpbitSigner(cfg config.Config) httpx.Signer {
	if cfg.UpbitAccessKey == "" {
		return nil
	}
	return &exchange.UpbitSigner{AccessKey: cfg.UpbitAccessKey, SecretKey: cfg.UpbitSecretKey}
}

func ProvideExchanges(cfg config.Config) (*exchange.Upbit, *exchange.Binance) {
	upbit := &exchange.Upbit{
		BaseURL: cfg.UpbitAPIBase,
		Quote:   cfg.DomesticQuote,
		Client:  provideUpstream(cfg),
		Signer:  provideUpbitSigner(cfg),
	}
	binance := &exchange.Binance{
		BaseURL: cfg.BinanceAPIBase,
		Client:  provideUpstream(cfg),
	}
	return upbit, binance
}

func ProvideRateProvider(cfg config.Config) (application.RateProvider, error) {
	switch cfg.RateProvider {
	case "yahoo":
		return &provider.Yahoo{BaseURL: cfg.YahooAPIBase, Client: provideUpstream(cfg)}, nil
	case "exchangeratesapi":
		return &provider.ExchangeRatesAPIProvider{
			BaseURL: cfg.ExchangeAPIBase,
			APIKey:  cfg.ExchangeAPIKey,
			Client:  provideUpstream(cfg),
		}, nil
	case "static":
		return provider.NewStatic(cfg.StaticRate), nil
	default:
		return nil, fmt.Errorf("bootstrap: unknown rate provider %q", cfg.RateProvider)
	}
}

func ProvideRedisClient(ctx context.Context, cfg config.Config) (*redis.Client, func(), error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pctx).Err(); err != nil {
		_ = client.Close()
		return nil, func() {}, fmt.Errorf("bootstrap: redis ping %s: %w", cfg.RedisAddr, err)
	}
	return client, func() { _ = client.Close() }, nil
}

// Stores are the TTL'd keyspaces shared by the binaries.
type Stores struct {
	Instruments application.InstrumentCache
	Reminders   application.ReminderStore
}

func ProvideStores(client *redis.Client, cfg config.Config) Stores {
	if client == nil {
		return Stores{Instruments: memory.NewInstrumentCache(), Reminders: memory.NewReminders()}
	}
	return Stores{
		Instruments: redisstore.NewInstrumentCache(client, cfg.RedisPrefix),
		Reminders:   redisstore.NewReminderStore(client, cfg.RedisPrefix),
	}
}

func ProvideNotifier(cfg config.Config, log *zap.Logger) application.Notifier {
	if cfg.DiscordWebhookURL == "" {
		log.Warn("notify.webhook_missing", zap.String("fallback", "log"))
		return &notify.Log{Logger: log}
	}
	return &notify.Discord{WebhookURL: cfg.DiscordWebhookURL, Client: provideUpstream(cfg)}
}

func ProvideStatusReader(cfg config.Config, upbit *exchange.Upbit, log *zap.Logger) *application.StatusReader {
	return &application.StatusReader{Source: upbit, Timeout: cfg.StatusTimeout, Logger: log}
}

func ProvidePremiumService(
	cfg config.Config,
	upbit *exchange.Upbit,
	binance *exchange.Binance,
	rp application.RateProvider,
	stores Stores,
	log *zap.Logger,
	opts ...application.Option,
) *application.PremiumService {
	domestic := &application.MarketFetcher{
		Role:   application.SourceDomestic,
		Source: upbit,
		Quote:  cfg.DomesticQuote,
		Cache:  stores.Instruments,
		TTL:    cfg.InstrumentTTL,
		Logger: log,
	}
	foreign := &application.MarketFetcher{
		Role:   application.SourceForeign,
		Source: binance,
		Quote:  cfg.ForeignQuote,
		Cache:  stores.Instruments,
		TTL:    cfg.InstrumentTTL,
		Logger: log,
	}
	rates := application.NewFallbackRates(rp, cfg.RatePair, cfg.FallbackRate, cfg.RequestTimeout, log)
	base := []application.Option{
		application.WithLogger(log),
		application.WithStableSymbol(cfg.StableSymbol),
		application.WithCycleTimeout(cfg.CycleTimeout),
		application.WithCycleHook(metrics.RecordCycle),
	}
	return application.NewPremiumService(domestic, foreign, rates, ProvideStatusReader(cfg, upbit, log), append(base, opts...)...)
}

func ProvideAlertEmitter(cfg config.Config, upbit *exchange.Upbit, n application.Notifier, stores Stores, log *zap.Logger) *application.AlertEmitter {
	return &application.AlertEmitter{
		Status:    ProvideStatusReader(cfg, upbit, log),
		Notifier:  n,
		Reminders: stores.Reminders,
		Repeat:    cfg.AlertRepeat,
		DedupeTTL: cfg.AlertDedupeTTL,
		Title:     infracfg.DefaultAlertTitle,
		Logger:    log,
	}
}
