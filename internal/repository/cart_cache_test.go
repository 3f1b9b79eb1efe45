package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*RedisCartCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisCartCache(client), mr
}

func TestRedisCartCache_GetMiss(t *testing.T) {
	cache, _ := setupTestRedis(t)

	items, err := cache.Get(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, items)
}

func TestRedisCartCache_SetGet(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "abc", sampleItems()))
	assert.True(t, mr.Exists("cart:abc"))
	ttl := mr.TTL("cart:abc")
	assert.GreaterOrEqual(t, ttl, cache.baseTTL)

	got, err := cache.Get(ctx, "abc")
	require.NoError(t, err)
	assertSameItems(t, sampleItems(), got)
}

func TestRedisCartCache_Delete(t *testing.T) {
	cache, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "abc", sampleItems()))
	require.NoError(t, cache.Delete(ctx, "abc"))
	assert.False(t, mr.Exists("cart:abc"))
}

func TestRedisCartCache_CorruptValue(t *testing.T) {
	cache, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("cart:abc", "not json"))

	_, err := cache.Get(context.Background(), "abc")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestCachedCartStore_ReadThrough(t *testing.T) {
	cache, mr := setupTestRedis(t)
	next := &MockPersistence{Stored: sampleItems()}
	store := NewCachedCartStore(cache, next, "abc", zap.NewNop())
	ctx := context.Background()

	first, err := store.Load(ctx)
	require.NoError(t, err)
	assertSameItems(t, sampleItems(), first)
	assert.True(t, mr.Exists("cart:abc"))

	second, err := store.Load(ctx)
	require.NoError(t, err)
	assertSameItems(t, sampleItems(), second)
	assert.Equal(t, 1, next.Loads, "second load should be served by the cache")
}

func TestCachedCartStore_SaveInvalidates(t *testing.T) {
	cache, mr := setupTestRedis(t)
	next := &MockPersistence{Stored: sampleItems()}
	store := NewCachedCartStore(cache, next, "abc", zap.NewNop())
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, sampleItems()[:1]))
	assert.False(t, mr.Exists("cart:abc"))

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 2, next.Loads)
}

func TestCachedCartStore_SaveFailureKeepsCache(t *testing.T) {
	cache, mr := setupTestRedis(t)
	next := &MockPersistence{Stored: sampleItems()}
	store := NewCachedCartStore(cache, next, "abc", zap.NewNop())
	ctx := context.Background()

	_, err := store.Load(ctx)
	require.NoError(t, err)

	next.SaveErr = errors.New("mongo down")
	err = store.Save(ctx, nil)
	assert.ErrorIs(t, err, next.SaveErr)
	assert.True(t, mr.Exists("cart:abc"))
}

func TestCachedCartStore_CacheUnavailable(t *testing.T) {
	cache, mr := setupTestRedis(t)
	next := &MockPersistence{Stored: sampleItems()}
	store := NewCachedCartStore(cache, next, "abc", zap.NewNop())
	ctx := context.Background()
	mr.Close()

	got, err := store.Load(ctx)
	require.NoError(t, err)
	assertSameItems(t, sampleItems(), got)

	assert.NoError(t, store.Save(ctx, got))
	assert.Equal(t, 1, next.Saves)
}

func TestCachedCartStore_LoadError(t *testing.T) {
	cache, mr := setupTestRedis(t)
	next := &MockPersistence{LoadErr: errors.New("mongo down")}
	store := NewCachedCartStore(cache, next, "abc", zap.NewNop())

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, next.LoadErr)
	assert.False(t, mr.Exists("cart:abc"))
}
