package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"premium-monitor/internal/domain"
)

type Config struct {
	// Common
	Env      string `envconfig:"ENV" default:"local"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// API
	Port          string        `envconfig:"PORT" default:"8080"`
	HighSpreadPct float64       `envconfig:"HIGH_SPREAD_PCT" default:"5"`
	StaleAfter    time.Duration `envconfig:"STALE_AFTER" default:"2m"`
	// Exchanges
	UpbitAPIBase   string `envconfig:"UPBIT_API_BASE" default:"https://api.upbit.com"`
	UpbitAccessKey string `envconfig:"UPBIT_ACCESS_KEY"`
	UpbitSecretKey string `envconfig:"UPBIT_SECRET_KEY"`
	DomesticQuote  string `envconfig:"DOMESTIC_QUOTE" default:"KRW"`
	BinanceAPIBase string `envconfig:"BINANCE_API_BASE" default:"https://api.binance.com"`
	ForeignQuote   string `envconfig:"FOREIGN_QUOTE" default:"USDT"`
	StableSymbol   string `envconfig:"STABLE_SYMBOL" default:"USDT"`
	// Exchange rate
	RateProvider    string  `envconfig:"RATE_PROVIDER" default:"yahoo"`
	RatePair        string  `envconfig:"RATE_PAIR" default:"USD/KRW"`
	YahooAPIBase    string  `envconfig:"YAHOO_API_BASE" default:"https://query1.finance.yahoo.com"`
	ExchangeAPIBase string  `envconfig:"EXCHANGE_API_BASE" default:"https://api.exchangeratesapi.io"`
	ExchangeAPIKey  string  `envconfig:"EXCHANGE_API_KEY"`
	StaticRate      float64 `envconfig:"STATIC_RATE" default:"0"`
	FallbackRate    float64 `envconfig:"FALLBACK_RATE" default:"1465"`
	// Timing
	RequestTimeout  time.Duration `envconfig:"REQUEST_TIMEOUT" default:"5s"`
	StatusTimeout   time.Duration `envconfig:"STATUS_TIMEOUT" default:"3s"`
	CycleTimeout    time.Duration `envconfig:"CYCLE_TIMEOUT" default:"20s"`
	RefreshInterval time.Duration `envconfig:"REFRESH_INTERVAL" default:"10s"`
	InstrumentTTL   time.Duration `envconfig:"INSTRUMENT_TTL" default:"10m"`
	UpstreamRPS     float64       `envconfig:"UPSTREAM_RPS" default:"5"`
	UpstreamBurst   int           `envconfig:"UPSTREAM_BURST" default:"5"`
	// Alerts
	AlertSchedule     string        `envconfig:"ALERT_SCHEDULE" default:"@every 60s"`
	AlertRepeat       time.Duration `envconfig:"ALERT_REPEAT" default:"0s"`
	AlertDedupeTTL    time.Duration `envconfig:"ALERT_DEDUPE_TTL" default:"24h"`
	DiscordWebhookURL string        `envconfig:"DISCORD_WEBHOOK_URL"`
	// Cache / Redis
	CacheBackend  string `envconfig:"CACHE_BACKEND" default:"memory"`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	RedisPrefix   string `envconfig:"REDIS_PREFIX" default:"premium:"`
}

// Load reads environment variables and applies defaults.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	cfg.RateProvider = strings.ToLower(strings.TrimSpace(cfg.RateProvider))
	cfg.CacheBackend = strings.ToLower(strings.TrimSpace(cfg.CacheBackend))
	cfg.RatePair = strings.ToUpper(strings.TrimSpace(cfg.RatePair))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.RateProvider {
	case "yahoo", "exchangeratesapi":
	case "static":
		if c.StaticRate <= 0 {
			return fmt.Errorf("config: STATIC_RATE must be positive with RATE_PROVIDER=static")
		}
	default:
		return fmt.Errorf("config: unknown RATE_PROVIDER %q", c.RateProvider)
	}
	switch c.CacheBackend {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unknown CACHE_BACKEND %q", c.CacheBackend)
	}
	if !domain.ValidateCurrencyPair(c.RatePair) {
		return fmt.Errorf("config: RATE_PAIR %q: %w", c.RatePair, domain.ErrUnsupportedPair)
	}
	if !domain.IsPositivePrice(c.FallbackRate) {
		return fmt.Errorf("config: FALLBACK_RATE must be positive")
	}
	if (c.UpbitAccessKey == "") != (c.UpbitSecretKey == "") {
		return fmt.Errorf("config: UPBIT_ACCESS_KEY and UPBIT_SECRET_KEY must be set together")
	}
	if c.CycleTimeout <= 0 || c.RequestTimeout <= 0 {
		return fmt.Errorf("config: timeouts must be positive")
	}
	return nil
}
