package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func NewRedisCartCache(client *redis.Client) *RedisCartCache {
	return &RedisCartCache{
		client:  client,
		baseTTL: 15 * time.Minute,
	}
}

type RedisCartCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r *RedisCartCache) Get(ctx context.Context, sessionID string) ([]domain.LineItem, error) {
	data, err := r.client.Get(ctx, cacheKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var items []domain.LineItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	return items, nil
}

func (r *RedisCartCache) Set(ctx context.Context, sessionID string, items []domain.LineItem) error {
	if items == nil {
		items = []domain.LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("marshal cart failed: %w", err)
	}

	jitter := time.Duration(rand.Intn(5)) * time.Minute
	if err := r.client.Set(ctx, cacheKey(sessionID), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisCartCache) Delete(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, cacheKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}

// CartPersistence is what CachedCartStore wraps.
type CartPersistence interface {
	Load(ctx context.Context) ([]domain.LineItem, error)
	Save(ctx context.Context, items []domain.LineItem) error
}

// CachedCartStore reads through Redis and invalidates it after every save.
// Cache failures are logged and never fail the caller.
type CachedCartStore struct {
	cache     *RedisCartCache
	next      CartPersistence
	sessionID string
	log       *zap.Logger
}

func NewCachedCartStore(cache *RedisCartCache, next CartPersistence, sessionID string, log *zap.Logger) *CachedCartStore {
	return &CachedCartStore{
		cache:     cache,
		next:      next,
		sessionID: sessionID,
		log:       log,
	}
}

func (c *CachedCartStore) Load(ctx context.Context) ([]domain.LineItem, error) {
	log := logger.FromContext(ctx, c.log)

	items, err := c.cache.Get(ctx, c.sessionID)
	if err == nil {
		return items, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		log.Warn("cache get error", zap.Error(err))
	}

	items, err = c.next.Load(ctx)
	if err != nil {
		return nil, err
	}

	if errSet := c.cache.Set(ctx, c.sessionID, items); errSet != nil {
		log.Warn("cache set error", zap.Error(errSet))
	}
	return items, nil
}

func (c *CachedCartStore) Save(ctx context.Context, items []domain.LineItem) error {
	if err := c.next.Save(ctx, items); err != nil {
		return err
	}
	c.invalidate(ctx)
	return nil
}

func (c *CachedCartStore) invalidate(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
	defer cancel()
	if err := c.cache.Delete(ctx, c.sessionID); err != nil {
		logger.FromContext(ctx, c.log).Warn("cache invalidate error", zap.Error(err))
	}
}
