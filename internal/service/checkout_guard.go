package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	checkoutKeyPrefix = "checkout:"
	checkoutKeyTTL    = 24 * time.Hour
)

// CheckoutGuard stops two checkouts of the same order from running at once.
type CheckoutGuard interface {
	// Acquire reports false when another checkout already holds the order.
	Acquire(ctx context.Context, orderID uuid.UUID) (bool, error)
	Release(ctx context.Context, orderID uuid.UUID) error
}

type RedisCheckoutGuard struct {
	client *redis.Client
}

func NewRedisCheckoutGuard(client *redis.Client) *RedisCheckoutGuard {
	return &RedisCheckoutGuard{client: client}
}

func (g *RedisCheckoutGuard) Acquire(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return g.client.SetNX(ctx, checkoutKeyPrefix+orderID.String(), 1, checkoutKeyTTL).Result()
}

func (g *RedisCheckoutGuard) Release(ctx context.Context, orderID uuid.UUID) error {
	return g.client.Del(ctx, checkoutKeyPrefix+orderID.String()).Err()
}

type noopGuard struct{}

func (noopGuard) Acquire(context.Context, uuid.UUID) (bool, error) { return true, nil }
func (noopGuard) Release(context.Context, uuid.UUID) error         { return nil }
