package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"premium-monitor/internal/application"
	"premium-monitor/internal/bootstrap"
	"premium-monitor/internal/config"
	"premium-monitor/internal/domain"
	infracfg "premium-monitor/internal/infrastructure/config"
	"premium-monitor/internal/infrastructure/console"
	"premium-monitor/internal/infrastructure/logx"
	"premium-monitor/internal/infrastructure/worker"
)

func init() { _ = godotenv.Load() }

func main() {
	var (
		once     = flag.Bool("once", false, "run a single cycle and exit")
		top      = flag.Int("top", infracfg.DefaultScannerTop, "rows to print (0 prints all)")
		currency = flag.String("currency", "KRW", "price column currency: KRW or USD")
		filter   = flag.String("q", "", "only show assets whose symbol or name contains this text")
		interval = flag.Duration("interval", 0, "refresh interval (defaults to REFRESH_INTERVAL)")
	)
	flag.Parse()

	log := logx.L()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("load config", zap.Error(err))
	}
	_ = logx.SetLevel(cfg.LogLevel)
	cur, err := application.ParseCurrency(*currency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -currency %q: use KRW or USD\n", *currency)
		os.Exit(2)
	}
	if *interval > 0 {
		cfg.RefreshInterval = *interval
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	core, cleanup, err := bootstrap.BuildCore(ctx, cfg, log)
	if err != nil {
		log.Fatal("bootstrap", zap.Error(err))
	}
	defer cleanup()

	svc := core.PremiumService()
	printer := &console.Printer{Out: os.Stdout, Color: !color.NoColor}
	opts := application.ViewOptions{Currency: cur, Filter: *filter, Limit: *top, HighThreshold: cfg.HighSpreadPct}

	r := &worker.Refresher{
		Svc:      svc,
		Interval: cfg.RefreshInterval,
		Log:      log,
		After: func(*domain.RankedSnapshot, error) {
			snap, _ := svc.Current()
			_ = printer.Print(application.BuildView(snap, opts), svc.Outcome())
		},
	}
	if *once {
		if _, err := r.Once(ctx); err != nil {
			cleanup()
			os.Exit(1)
		}
		return
	}
	r.Start(ctx)
}
