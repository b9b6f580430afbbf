package storage

import (
	"context"

	"github.com/redis/go-redis/v9"
)

// RedisPreferences keeps board preferences in Redis hashes, one per user.
type RedisPreferences struct {
	redis *redis.Client
	key   string
}

// NewRedisPreferences scopes preferences to userID.
func NewRedisPreferences(client *redis.Client, userID string) *RedisPreferences {
	return &RedisPreferences{redis: client, key: "prefs:" + userID}
}

func (p *RedisPreferences) Get(ctx context.Context, key string) (string, error) {
	v, err := p.redis.HGet(ctx, p.key, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return v, err
}

func (p *RedisPreferences) Set(ctx context.Context, key, value string) error {
	return p.redis.HSet(ctx, p.key, key, value).Err()
}
