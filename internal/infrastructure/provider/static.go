package provider

import (
	"context"
	"time"

	"premium-monitor/internal/application"
	"premium-monitor/internal/domain"
)

var _ application.RateProvider = (*Static)(nil)

// Static returns a fixed price for every pair.
type Static struct {
	price float64
}

func NewStatic(price float64) *Static { return &Static{price: price} }

func (s *Static) Get(_ context.Context, pair string) (domain.Quote, error) {
	return domain.Quote{
		Pair:      domain.Pair(pair),
		Price:     s.price,
		UpdatedAt: time.Now().UTC(),
	}, nil
}
