package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"premium-monitor/internal/bootstrap"
	"premium-monitor/internal/config"
	infracfg "premium-monitor/internal/infrastructure/config"
	"premium-monitor/internal/infrastructure/logx"
)

func init() { _ = godotenv.Load() }

func main() {
	logger := logx.L()
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	_ = logx.SetLevel(cfg.LogLevel)
	addr := ":" + cfg.Port

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	core, cleanup, err := bootstrap.BuildCore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("bootstrap", zap.Error(err))
	}
	defer cleanup()
	api := core.BuildAPI()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		api.Refresher.Start(ctx)
	}()

	server := &http.Server{
		Addr:              addr,
		Handler:           api.Handler,
		ReadHeaderTimeout: infracfg.DefaultReadHeaderTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("server started", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), infracfg.DefaultShutdownTimeout)
	defer cancel()
	api.Hub.Close()
	_ = server.Shutdown(shutdownCtx)
	wg.Wait()
	logger.Info("server stopped")
}
