package cache

import (
	"context"
	"time"

	"github.com/matzehuels/layerank/pkg/observability"
)

// Instrumented reports hits, misses and writes of the wrapped cache to the
// registered observability cache hooks.
type Instrumented struct {
	Cache
}

// Instrument wraps c. Wrapping an Instrumented cache returns it unchanged.
func Instrument(c Cache) *Instrumented {
	if ic, ok := c.(*Instrumented); ok {
		return ic
	}
	return &Instrumented{Cache: c}
}

// Get reports a hit or a miss. Backend errors count as misses.
func (c *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, ok, err := c.Cache.Get(ctx, key)
	if ok {
		observability.Cache().OnCacheHit(ctx, keyType(key))
	} else {
		observability.Cache().OnCacheMiss(ctx, keyType(key))
	}
	return data, ok, err
}

// Set reports successful writes with their size.
func (c *Instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if err := c.Cache.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, keyType(key), len(data))
	return nil
}

// Clear forwards to the wrapped cache when it supports clearing.
func (c *Instrumented) Clear(ctx context.Context) (int, error) {
	if cl, ok := c.Cache.(Clearer); ok {
		return cl.Clear(ctx)
	}
	return 0, nil
}
