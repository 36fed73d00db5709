package bootstrap

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"premium-monitor/internal/config"
	"premium-monitor/internal/infrastructure/memory"
	"premium-monitor/internal/infrastructure/notify"
	"premium-monitor/internal/infrastructure/provider"
	redisstore "premium-monitor/internal/infrastructure/redis"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestProvideRateProvider(t *testing.T) {
	cfg := testConfig(t)

	rp, err := ProvideRateProvider(cfg)
	require.NoError(t, err)
	require.IsType(t, &provider.Yahoo{}, rp)

	cfg.RateProvider = "exchangeratesapi"
	rp, err = ProvideRateProvider(cfg)
	require.NoError(t, err)
	require.IsType(t, &provider.ExchangeRatesAPIProvider{}, rp)

	cfg.RateProvider = "static"
	cfg.StaticRate = 1400
	rp, err = ProvideRateProvider(cfg)
	require.NoError(t, err)
	q, err := rp.Get(context.Background(), "USD/KRW")
	require.NoError(t, err)
	require.Equal(t, 1400.0, q.Price)

	cfg.RateProvider = "nope"
	_, err = ProvideRateProvider(cfg)
	require.Error(t, err)
}

func TestBuildCore_MemoryBackend(t *testing.T) {
	core, cleanup, err := BuildCore(context.Background(), testConfig(t), nil)
	require.NoError(t, err)
	defer cleanup()
	require.IsType(t, &memory.InstrumentCache{}, core.Stores.Instruments)
	require.IsType(t, &memory.Reminders{}, core.Stores.Reminders)

	api := core.BuildAPI()
	require.NotNil(t, api.Handler)
	require.NotNil(t, api.Refresher)
	_, ok := api.Service.Current()
	require.False(t, ok)
}

func TestBuildCore_RedisBackend(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.CacheBackend = "redis"
	cfg.RedisAddr = mr.Addr()

	core, cleanup, err := BuildCore(context.Background(), cfg, nil)
	require.NoError(t, err)
	defer cleanup()
	require.IsType(t, &redisstore.InstrumentCache{}, core.Stores.Instruments)
	require.IsType(t, &redisstore.ReminderStore{}, core.Stores.Reminders)
}

func TestBuildCore_RedisUnreachable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	cfg := testConfig(t)
	cfg.CacheBackend = "redis"
	cfg.RedisAddr = mr.Addr()
	mr.Close()

	_, _, err = BuildCore(context.Background(), cfg, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "redis ping")
}

func TestProvideNotifier(t *testing.T) {
	cfg := testConfig(t)
	cfg.DiscordWebhookURL = ""
	require.IsType(t, &notify.Log{}, ProvideNotifier(cfg, ProvideLogger()))
	cfg.DiscordWebhookURL = "https://discord.example/webhook"
	require.IsType(t, &notify.Discord{}, ProvideNotifier(cfg, ProvideLogger()))
}

func TestBuildAlertPoller(t *testing.T) {
	core, cleanup, err := BuildCore(context.Background(), testConfig(t), nil)
	require.NoError(t, err)
	defer cleanup()
	p := core.BuildAlertPoller()
	require.Equal(t, "@every 60s", p.Schedule)
	require.NotEmpty(t, p.Greeting)
}
