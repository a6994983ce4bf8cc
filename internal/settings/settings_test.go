package settings

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"campus_marketplace/internal/repository/repotest"
	"campus_marketplace/models"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCache struct {
	mu      sync.Mutex
	value   *models.Setting
	loads   int
	deletes int
	loadErr error
}

func (m *mockCache) Load(ctx context.Context) (*models.Setting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	if m.value == nil {
		return nil, nil
	}
	v := *m.value
	return &v, nil
}

func (m *mockCache) Store(ctx context.Context, s models.Setting) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = &s
	return nil
}

func (m *mockCache) Delete(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.value = nil
	m.deletes++
	return nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestGet_DefaultsWhenUnseeded(t *testing.T) {
	svc := NewService(repotest.New().Settings(), nil)

	s, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, dec("0.05").Equal(s.CommissionRate))
	assert.True(t, dec("0.50").Equal(s.MinCommission))
	assert.False(t, s.RequireListingApproval)
}

func TestGet_ServesFromCache(t *testing.T) {
	store := repotest.New()
	store.SetSetting(models.Setting{ID: 1, CommissionRate: dec("0.10"), MinCommission: dec("1.00")})
	cache := &mockCache{}
	svc := NewService(store.Settings(), cache)

	first, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, dec("0.10").Equal(first.CommissionRate))
	require.NotNil(t, cache.value)

	// A change behind the provider's back stays invisible until invalidated.
	store.SetSetting(models.Setting{ID: 1, CommissionRate: dec("0.20"), MinCommission: dec("1.00")})
	second, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, dec("0.10").Equal(second.CommissionRate))

	require.NoError(t, svc.Invalidate(context.Background()))
	third, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, dec("0.20").Equal(third.CommissionRate))
}

func TestGet_CacheErrorFallsBackToStore(t *testing.T) {
	store := repotest.New()
	store.SetSetting(models.Setting{ID: 1, CommissionRate: dec("0.07"), MinCommission: dec("0.25")})
	svc := NewService(store.Settings(), &mockCache{loadErr: errors.New("connection refused")})

	s, err := svc.Get(context.Background())
	require.NoError(t, err)
	assert.True(t, dec("0.07").Equal(s.CommissionRate))
}

func TestUpdate_InvalidatesCache(t *testing.T) {
	store := repotest.New()
	cache := &mockCache{}
	svc := NewService(store.Settings(), cache)
	ctx := context.Background()

	_, err := svc.Get(ctx)
	require.NoError(t, err)

	rate := dec("0.08")
	approval := true
	updated, err := svc.Update(ctx, Patch{CommissionRate: &rate, RequireListingApproval: &approval})
	require.NoError(t, err)
	assert.True(t, rate.Equal(updated.CommissionRate))
	assert.True(t, dec("0.50").Equal(updated.MinCommission))
	assert.Equal(t, 1, cache.deletes)

	s, err := svc.Get(ctx)
	require.NoError(t, err)
	assert.True(t, s.RequireListingApproval)
	assert.True(t, rate.Equal(s.CommissionRate))
}

func TestUpdate_Validation(t *testing.T) {
	svc := NewService(repotest.New().Settings(), nil)
	ctx := context.Background()

	tooHigh := dec("1.5")
	_, err := svc.Update(ctx, Patch{CommissionRate: &tooHigh})
	assert.ErrorIs(t, err, ErrInvalidCommissionRate)

	negative := dec("-1")
	_, err = svc.Update(ctx, Patch{MinCommission: &negative})
	assert.ErrorIs(t, err, ErrInvalidMinCommission)
}

func TestRedisCache_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	defer client.Close()

	ctx := context.Background()
	cache := NewRedisCache(client)
	require.NoError(t, cache.Delete(ctx))

	miss, err := cache.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, miss)

	require.NoError(t, cache.Store(ctx, models.Setting{CommissionRate: dec("0.05"), MinCommission: dec("0.50")}))
	hit, err := cache.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, hit)
	assert.True(t, dec("0.05").Equal(hit.CommissionRate))

	require.NoError(t, cache.Delete(ctx))
}
