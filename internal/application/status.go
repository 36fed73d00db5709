package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"premium-monitor/internal/domain"
)

// StatusReader reads the wallet-status side channel on a best-effort basis.
type StatusReader struct {
	Source  StatusSource
	Timeout time.Duration
	Logger  *zap.Logger
}

// Fetch returns restriction notes by symbol. ok is false when the feed could not be read,
// in which case the map is empty and every asset is treated as Normal.
func (r *StatusReader) Fetch(ctx context.Context) (map[string]domain.RestrictionNote, bool) {
	statuses, err := r.read(ctx)
	if err != nil {
		log := r.Logger
		if log == nil {
			log = zap.NewNop()
		}
		se := NewSourceError(SourceStatus, err)
		log.Warn("status.unavailable", zap.String("kind", string(se.Kind)), zap.Error(err))
		return map[string]domain.RestrictionNote{}, false
	}
	return Notes(statuses), true
}

// Statuses returns the raw feed, or a classified error.
func (r *StatusReader) Statuses(ctx context.Context) ([]domain.AssetStatus, error) {
	s, err := r.read(ctx)
	if err != nil {
		return nil, NewSourceError(SourceStatus, err)
	}
	return s, nil
}

func (r *StatusReader) read(ctx context.Context) ([]domain.AssetStatus, error) {
	if r.Source == nil {
		return nil, ErrNotFound
	}
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}
	return r.Source.WalletStatuses(ctx)
}

// Notes maps a status feed to restriction notes keyed by normalized symbol.
// Only restricted assets are present.
func Notes(statuses []domain.AssetStatus) map[string]domain.RestrictionNote {
	out := make(map[string]domain.RestrictionNote, len(statuses))
	for _, s := range statuses {
		sym := domain.NormalizeSymbol(s.Symbol)
		if sym == "" {
			continue
		}
		if note := domain.RestrictionFor(s.State); note.Restricted() {
			out[sym] = note
		}
	}
	return out
}
