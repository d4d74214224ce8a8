package storage

import (
	"context"
	"time"

	"moneylog/internal/cache"
)

type cachedValue struct {
	data []byte
	ok   bool
}

// CachedKV puts a read-through, write-through LRU cache in front of another KV.
// Misses are cached too, so probing legacy keys costs one round trip per TTL.
type CachedKV struct {
	next  KV
	cache *cache.LRUCache[cachedValue]
}

func NewCachedKV(next KV, size int, ttl time.Duration) *CachedKV {
	return &CachedKV{
		next:  next,
		cache: cache.NewLRUCache[cachedValue](size, ttl),
	}
}

// Cache exposes the underlying cache so a cache.Manager can sweep it.
func (c *CachedKV) Cache() *cache.LRUCache[cachedValue] {
	return c.cache
}

func (c *CachedKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if v, hit := c.cache.Get(key); hit {
		return append([]byte(nil), v.data...), v.ok, nil
	}
	data, ok, err := c.next.Get(ctx, key)
	if err != nil {
		return nil, false, err
	}
	c.cache.Set(key, cachedValue{data: append([]byte(nil), data...), ok: ok})
	return data, ok, nil
}

func (c *CachedKV) Set(ctx context.Context, key string, value []byte) error {
	if err := c.next.Set(ctx, key, value); err != nil {
		c.cache.Delete(key)
		return err
	}
	c.cache.Set(key, cachedValue{data: append([]byte(nil), value...), ok: true})
	return nil
}

// SetBatch writes through to the wrapped KV, atomically when it supports that.
// On failure the affected keys are dropped from the cache.
func (c *CachedKV) SetBatch(ctx context.Context, entries []Entry) error {
	if err := SetBatch(ctx, c.next, entries); err != nil {
		for _, e := range entries {
			c.cache.Delete(e.Key)
		}
		return err
	}
	for _, e := range entries {
		c.cache.Set(e.Key, cachedValue{data: append([]byte(nil), e.Value...), ok: true})
	}
	return nil
}

// Invalidate drops every cached value so the next reads go to the wrapped KV.
func (c *CachedKV) Invalidate() {
	c.cache.Clear()
}

func (c *CachedKV) Close() error {
	c.cache.Clear()
	return c.next.Close()
}
