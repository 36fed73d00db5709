package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"premium-monitor/internal/application"
	"premium-monitor/internal/infrastructure/metrics"
)

var _ application.Worker = (*AlertPoller)(nil)

const DefaultAlertSchedule = "@every 60s"

type AlertSource interface {
	Poll(ctx context.Context) (application.AlertReport, error)
	Announce(ctx context.Context, msg string) error
}

// AlertPoller polls wallet statuses on a cron schedule. A poll still running
// when the next one is due causes that tick to be skipped.
type AlertPoller struct {
	Alerts   AlertSource
	Schedule string
	// Greeting is posted once before the first poll when non-empty.
	Greeting string
	Timeout  time.Duration
	Log      *zap.Logger
}

func (p *AlertPoller) Start(ctx context.Context) {
	if err := p.Run(ctx); err != nil {
		p.log().Error("alerts.poller_failed", zap.Error(err))
	}
}

// Run polls once immediately, then on every scheduled tick until ctx is done.
func (p *AlertPoller) Run(ctx context.Context) error {
	log := p.log()
	spec := p.Schedule
	if spec == "" {
		spec = DefaultAlertSchedule
	}
	clog := cronLogger{log.Sugar()}
	c := cron.New(
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)
	if _, err := c.AddFunc(spec, func() { p.poll(ctx) }); err != nil {
		return fmt.Errorf("alerts: schedule %q: %w", spec, err)
	}

	if p.Greeting != "" {
		if err := p.Alerts.Announce(ctx, p.Greeting); err != nil {
			log.Warn("alerts.announce_failed", zap.Error(err))
		}
	}
	p.poll(ctx)

	c.Start()
	log.Info("alerts.poller_started", zap.String("schedule", spec))
	<-ctx.Done()
	<-c.Stop().Done()
	log.Info("alerts.poller_stopped")
	return nil
}

func (p *AlertPoller) poll(parent context.Context) {
	if parent.Err() != nil {
		return
	}
	ctx := parent
	if p.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, p.Timeout)
		defer cancel()
	}
	rep, err := p.Alerts.Poll(ctx)
	metrics.RecordAlerts(rep, err)
	if err != nil {
		p.log().Warn("alerts.poll_failed", zap.Error(err))
	}
}

func (p *AlertPoller) log() *zap.Logger {
	if p.Log == nil {
		return zap.NewNop()
	}
	return p.Log
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct{ s *zap.SugaredLogger }

func (l cronLogger) Info(msg string, kv ...interface{}) { l.s.Debugw("cron."+msg, kv...) }
func (l cronLogger) Error(err error, msg string, kv ...interface{}) {
	l.s.Errorw("cron."+msg, append(kv, "error", err)...)
}
