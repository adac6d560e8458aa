// Package cache implements the two-tier cache: a fast in-process TTL
// map backed by a durable PostgreSQL table. The fast tier bounds read
// latency on the hot path; the durable tier only exists so a restart
// does not re-trigger a storm of upstream calls. The tiers are allowed
// to diverge: the fast tier is authoritative for freshness, the
// durable tier for cold starts.
package cache

import (
	"context"
	"log"
	"time"
)

// durableTier is the persistence contract for the fallback tier.
type durableTier interface {
	Upsert(ctx context.Context, row Row) error
	FindByKey(ctx context.Context, key string) (*Row, error)
	Delete(ctx context.Context, key string) error
	DeleteAll(ctx context.Context) error
	DeleteExpired(ctx context.Context) (int64, error)
}

// Cache is the two-tier cache used to avoid redundant upstream calls.
type Cache struct {
	fast    *memoryCache
	durable durableTier
}

// New creates a cache over the given durable tier. The durable tier
// may be nil, in which case only the fast tier is used.
func New(durable durableTier) *Cache {
	return &Cache{fast: newMemoryCache(), durable: durable}
}

// Get returns the cached value for key, checking the fast tier first
// and falling back to the durable tier. A durable hit is written back
// into the fast tier. A durable fault degrades to a miss; it is
// logged, never propagated.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if v, ok := c.fast.get(key); ok {
		return v, true
	}

	if c.durable == nil {
		return nil, false
	}

	row, err := c.durable.FindByKey(ctx, key)
	if err != nil {
		log.Printf("cache: durable lookup %q failed: %v", key, err)
		return nil, false
	}
	if row == nil || time.Now().After(row.ExpiresAt) {
		return nil, false
	}

	c.fast.setUntil(key, row.Data, row.ExpiresAt)
	return row.Data, true
}

// Set writes the value to the fast tier with the given TTL and
// asynchronously upserts it into the durable tier with an absolute
// expiry. A durable fault is logged and does not roll back or fail
// the fast-tier write.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration, category, assetSymbol string) {
	c.fast.set(key, value, ttl)

	if c.durable == nil {
		return
	}

	row := Row{
		Key:         key,
		Data:        value,
		Category:    category,
		AssetSymbol: assetSymbol,
		ExpiresAt:   time.Now().Add(ttl),
	}
	go func() {
		wctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.durable.Upsert(wctx, row); err != nil {
			log.Printf("cache: durable upsert %q failed: %v", key, err)
		}
	}()
}

// Delete removes key from both tiers. A durable fault is logged, not
// propagated.
func (c *Cache) Delete(ctx context.Context, key string) {
	c.fast.invalidate(key)

	if c.durable == nil {
		return
	}
	if err := c.durable.Delete(ctx, key); err != nil {
		log.Printf("cache: durable delete %q failed: %v", key, err)
	}
}

// Clear removes every entry from both tiers.
func (c *Cache) Clear(ctx context.Context) {
	c.fast.flush()

	if c.durable == nil {
		return
	}
	if err := c.durable.DeleteAll(ctx); err != nil {
		log.Printf("cache: durable clear failed: %v", err)
	}
}

// CleanExpired sweeps expired rows from both tiers. Intended to run on
// a coarse periodic cadence supplied by the caller.
func (c *Cache) CleanExpired(ctx context.Context) {
	c.fast.cleanup()

	if c.durable == nil {
		return
	}
	n, err := c.durable.DeleteExpired(ctx)
	if err != nil {
		log.Printf("cache: durable sweep failed: %v", err)
		return
	}
	if n > 0 {
		log.Printf("cache: swept %d expired durable entries", n)
	}
}
