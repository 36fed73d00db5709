package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"premium-monitor/internal/application"
	"premium-monitor/internal/domain"
)

// InstrumentCache stores instrument lists as JSON under prefix+"instruments:"+exchange.
type InstrumentCache struct {
	Client *redis.Client
	Prefix string
}

var _ application.InstrumentCache = (*InstrumentCache)(nil)

func NewInstrumentCache(client *redis.Client, prefix string) *InstrumentCache {
	return &InstrumentCache{Client: client, Prefix: prefix}
}

type instrumentJSON struct {
	Symbol string `json:"symbol"`
	Base   string `json:"base"`
	Quote  string `json:"quote"`
	Name   string `json:"name,omitempty"`
}

func (c *InstrumentCache) key(exchange string) string {
	return c.Prefix + "instruments:" + exchange
}

func (c *InstrumentCache) Get(ctx context.Context, exchange string) ([]domain.Instrument, bool, error) {
	val, err := c.Client.Get(ctx, c.key(exchange)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis: get instruments: %w", err)
	}
	var rows []instrumentJSON
	if err := json.Unmarshal(val, &rows); err != nil {
		return nil, false, fmt.Errorf("redis: decode instruments: %w", err)
	}
	out := make([]domain.Instrument, len(rows))
	for i, r := range rows {
		out[i] = domain.Instrument{Symbol: r.Symbol, Base: r.Base, Quote: r.Quote, LocalizedName: r.Name}
	}
	return out, true, nil
}

func (c *InstrumentCache) Set(ctx context.Context, exchange string, instruments []domain.Instrument, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	rows := make([]instrumentJSON, len(instruments))
	for i, in := range instruments {
		rows[i] = instrumentJSON{Symbol: in.Symbol, Base: in.Base, Quote: in.Quote, Name: in.LocalizedName}
	}
	data, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("redis: encode instruments: %w", err)
	}
	if err := c.Client.Set(ctx, c.key(exchange), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set instruments: %w", err)
	}
	return nil
}
