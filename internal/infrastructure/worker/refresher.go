package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"premium-monitor/internal/application"
	"premium-monitor/internal/domain"
)

var _ application.Worker = (*Refresher)(nil)

type Refreshable interface {
	Refresh(ctx context.Context) (*domain.RankedSnapshot, error)
}

// Refresher runs refresh cycles back to back with Interval between the end of
// one cycle and the start of the next, so cycles never overlap.
type Refresher struct {
	Svc      Refreshable
	Interval time.Duration
	Log      *zap.Logger
	// After, when set, sees every cycle outcome.
	After func(*domain.RankedSnapshot, error)
}

func (r *Refresher) Start(ctx context.Context) {
	log := r.log()
	if r.Interval <= 0 {
		r.Interval = 10 * time.Second
	}
	log.Info("refresher.started", zap.Duration("interval", r.Interval))
	for {
		_, _ = r.Once(ctx)

		t := time.NewTimer(r.Interval)
		select {
		case <-ctx.Done():
			t.Stop()
			log.Info("refresher.stopped")
			return
		case <-t.C:
		}
	}
}

// Once runs a single cycle and logs its outcome.
func (r *Refresher) Once(ctx context.Context) (*domain.RankedSnapshot, error) {
	start := time.Now()
	snap, err := r.Svc.Refresh(ctx)
	if ctx.Err() != nil {
		return snap, err
	}
	took := time.Since(start)
	if err != nil {
		r.log().Warn("refresh.cycle_failed", zap.Duration("took", took), zap.Error(err))
	} else {
		r.log().Debug("refresh.cycle_done",
			zap.String("snapshot_id", snap.ID),
			zap.Int("records", len(snap.Records)),
			zap.Duration("took", took),
		)
	}
	if r.After != nil {
		r.After(snap, err)
	}
	return snap, err
}

func (r *Refresher) log() *zap.Logger {
	if r.Log == nil {
		return zap.NewNop()
	}
	return r.Log
}
