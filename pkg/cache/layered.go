package cache

import (
	"context"
	"errors"
	"time"
)

// LayeredCache reads through an in-memory L1 before a slower L2 (Redis).
// Writes go to both; an L2 hit backfills L1.
type LayeredCache struct {
	l1 *MemoryCache
	l2 Service
}

// NewLayeredCache creates a two-tier cache over the given L2.
func NewLayeredCache(l2 Service, opts ...LayeredOption) *LayeredCache {
	cfg := &LayeredConfig{MemoryMaxSize: 500}
	for _, opt := range opts {
		opt(cfg)
	}
	return &LayeredCache{
		l1: NewMemoryCache(WithMemoryMaxSize(cfg.MemoryMaxSize)),
		l2: l2,
	}
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := lc.l1.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	return lc.l2.Set(ctx, key, value, expiration)
}

func (lc *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := lc.l1.Get(ctx, key, dest); err == nil {
		return nil
	} else if !errors.Is(err, ErrCacheMiss) {
		return err
	}
	if err := lc.l2.Get(ctx, key, dest); err != nil {
		return err
	}
	// backfill with a short TTL; L2 remains authoritative
	_ = lc.l1.Set(ctx, key, dest, time.Minute)
	return nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	if err := lc.l1.Delete(ctx, keys...); err != nil {
		return err
	}
	return lc.l2.Delete(ctx, keys...)
}

func (lc *LayeredCache) Exists(ctx context.Context, key string) (bool, error) {
	if ok, err := lc.l1.Exists(ctx, key); err == nil && ok {
		return true, nil
	}
	return lc.l2.Exists(ctx, key)
}

func (lc *LayeredCache) Close() error {
	_ = lc.l1.Close()
	return lc.l2.Close()
}
