package regulation

import (
	"context"
	"sync"

	"github.com/assetkit/assetkit/pkg/asset"
	"github.com/ethereum/go-ethereum/common"
	lru "github.com/hashicorp/golang-lru"
)

// Backend is the registry interface wrapped by Cached.
type Backend interface {
	asset.RegulationChecker
	SetMiCA(ctx context.Context, id common.Address, enabled bool) error
	Remove(ctx context.Context, id common.Address) error
	List(ctx context.Context) ([]Entry, error)
}

// Cached is a registry with an LRU cache of MiCA lookups. Writes go through
// to the backend and update the cache. Cache fills and writes are serialized,
// so a lookup racing with a write never caches a stale value.
type Cached struct {
	Backend
	lock  sync.Mutex
	cache *lru.Cache
}

var _ Backend = (*Cached)(nil)

// NewCached wraps b with a cache of the given size. Non-positive size
// returns b itself.
func NewCached(b Backend, size int) Backend {
	if size <= 0 {
		return b
	}
	cache, _ := lru.New(size) // Never errors for positive size.
	return &Cached{Backend: b, cache: cache}
}

// MiCAEnabled implements the asset.RegulationChecker interface.
func (c *Cached) MiCAEnabled(ctx context.Context, id common.Address) (bool, error) {
	if v, ok := c.cache.Get(id); ok {
		cacheHits.Inc()
		return v.(bool), nil
	}
	cacheMisses.Inc()

	c.lock.Lock()
	defer c.lock.Unlock()
	if v, ok := c.cache.Get(id); ok {
		return v.(bool), nil
	}
	enabled, err := c.Backend.MiCAEnabled(ctx, id)
	if err != nil {
		return false, err
	}
	c.cache.Add(id, enabled)
	return enabled, nil
}

// SetMiCA updates the backend and the cache.
func (c *Cached) SetMiCA(ctx context.Context, id common.Address, enabled bool) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.cache.Remove(id)
	if err := c.Backend.SetMiCA(ctx, id, enabled); err != nil {
		return err
	}
	c.cache.Add(id, enabled)
	return nil
}

// Remove deletes the entry from the backend and the cache.
func (c *Cached) Remove(ctx context.Context, id common.Address) error {
	c.lock.Lock()
	defer c.lock.Unlock()
	c.cache.Remove(id)
	return c.Backend.Remove(ctx, id)
}
