package storage

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const settledKeyPrefix = "settled:"

// RedisMarkers records fully processed settlements so replays skip the database.
type RedisMarkers struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewRedisMarkers(client *redis.Client, ttl time.Duration) *RedisMarkers {
	return &RedisMarkers{Client: client, TTL: ttl}
}

func (c *RedisMarkers) SettledKey(invoice string) string {
	return settledKeyPrefix + invoice
}

func (c *RedisMarkers) IsSettled(ctx context.Context, invoice string) (bool, error) {
	res, err := c.Client.Exists(ctx, c.SettledKey(invoice)).Result()
	if err != nil {
		return false, err
	}
	return res > 0, nil
}

func (c *RedisMarkers) MarkSettled(ctx context.Context, invoice string) error {
	return c.Client.Set(ctx, c.SettledKey(invoice), "1", c.TTL).Err()
}
