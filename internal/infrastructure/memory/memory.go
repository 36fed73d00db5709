// Package memory holds process-local TTL stores used when Redis is not configured.
package memory

import (
	"context"
	"sync"
	"time"

	"premium-monitor/internal/application"
	"premium-monitor/internal/domain"
)

type entry[T any] struct {
	value     T
	expiresAt time.Time
}

// ttlMap is a mutex-guarded map whose entries expire lazily.
type ttlMap[T any] struct {
	mu    sync.Mutex
	items map[string]entry[T]
	now   func() time.Time
}

func newTTLMap[T any]() *ttlMap[T] {
	return &ttlMap[T]{items: map[string]entry[T]{}, now: time.Now}
}

func (m *ttlMap[T]) get(key string) (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[key]
	if !ok || !m.now().Before(e.expiresAt) {
		delete(m.items, key)
		var zero T
		return zero, false
	}
	return e.value, true
}

func (m *ttlMap[T]) set(key string, v T, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = entry[T]{value: v, expiresAt: m.now().Add(ttl)}
}

// setNX stores v only when key is absent or expired.
func (m *ttlMap[T]) setNX(key string, v T, ttl time.Duration) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if e, ok := m.items[key]; ok && now.Before(e.expiresAt) {
		return false
	}
	m.items[key] = entry[T]{value: v, expiresAt: now.Add(ttl)}
	return true
}

func (m *ttlMap[T]) del(key string) {
	m.mu.Lock()
	delete(m.items, key)
	m.mu.Unlock()
}

// InstrumentCache keeps instrument lists per exchange.
type InstrumentCache struct {
	m *ttlMap[[]domain.Instrument]
}

var _ application.InstrumentCache = (*InstrumentCache)(nil)

func NewInstrumentCache() *InstrumentCache {
	return &InstrumentCache{m: newTTLMap[[]domain.Instrument]()}
}

func (c *InstrumentCache) Get(_ context.Context, exchange string) ([]domain.Instrument, bool, error) {
	v, ok := c.m.get(exchange)
	return v, ok, nil
}

func (c *InstrumentCache) Set(_ context.Context, exchange string, instruments []domain.Instrument, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	c.m.set(exchange, append([]domain.Instrument(nil), instruments...), ttl)
	return nil
}

// Reminders is a process-local application.ReminderStore.
type Reminders struct {
	m *ttlMap[struct{}]
}

var _ application.ReminderStore = (*Reminders)(nil)

func NewReminders() *Reminders {
	return &Reminders{m: newTTLMap[struct{}]()}
}

func (r *Reminders) TryReserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	return r.m.setNX(key, struct{}{}, ttl), nil
}

func (r *Reminders) Release(_ context.Context, key string) error {
	r.m.del(key)
	return nil
}
