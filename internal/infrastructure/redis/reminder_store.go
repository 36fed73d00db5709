package redisstore

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"premium-monitor/internal/application"
)

// ReminderStore gates alerts across replicas with SET NX.
type ReminderStore struct {
	Client *redis.Client
	Prefix string
}

var _ application.ReminderStore = (*ReminderStore)(nil)

func NewReminderStore(client *redis.Client, prefix string) *ReminderStore {
	return &ReminderStore{Client: client, Prefix: prefix}
}

func (s *ReminderStore) TryReserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.Client.SetNX(ctx, s.Prefix+key, "1", ttl).Result()
	if err != nil {
		return false, err
	}
	return ok, nil
}

func (s *ReminderStore) Release(ctx context.Context, key string) error {
	return s.Client.Del(ctx, s.Prefix+key).Err()
}
