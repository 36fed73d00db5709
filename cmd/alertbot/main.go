package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"premium-monitor/internal/bootstrap"
	"premium-monitor/internal/config"
	"premium-monitor/internal/infrastructure/logx"
)

func init() { _ = godotenv.Load() }

func main() {
	log := logx.L()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}
	_ = logx.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	core, cleanup, err := bootstrap.BuildCore(ctx, cfg, log)
	if err != nil {
		log.Fatal("bootstrap", zap.Error(err))
	}
	defer cleanup()

	if err := core.BuildAlertPoller().Run(ctx); err != nil {
		log.Fatal("alert poller exited", zap.Error(err))
	}
}
