package settings

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"campus_marketplace/models"

	"github.com/redis/go-redis/v9"
)

const (
	cacheKey = "settings:current"
	cacheTTL = 10 * time.Minute
)

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Load(ctx context.Context) (*models.Setting, error) {
	raw, err := c.client.Get(ctx, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var s models.Setting
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *RedisCache) Store(ctx context.Context, s models.Setting) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, cacheKey, raw, cacheTTL).Err()
}

func (c *RedisCache) Delete(ctx context.Context) error {
	return c.client.Del(ctx, cacheKey).Err()
}
