package resolver

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/leapstack-labs/dashsql/pkg/core"
	"golang.org/x/sync/singleflight"
)

// DefaultLoadTimeout bounds a shared catalog load.
const DefaultLoadTimeout = 30 * time.Second

// Cache memoizes Column Maps per table for at most ttl. Concurrent misses for
// the same table share one catalog load. Failed loads are not cached.
//
// The shared load is detached from the cancellation of whichever caller
// started it and bounded by loadTimeout instead; each caller still stops
// waiting when its own context ends.
type Cache struct {
	next        ColumnResolver
	ttl         time.Duration
	loadTimeout time.Duration
	now         func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

type cacheEntry struct {
	m       core.ColumnMap
	expires time.Time
}

// NewCache wraps next with a TTL cache. A non-positive ttl disables caching.
func NewCache(next ColumnResolver, ttl time.Duration) *Cache {
	return &Cache{
		next:        next,
		ttl:         ttl,
		loadTimeout: DefaultLoadTimeout,
		now:         time.Now,
		entries:     make(map[string]cacheEntry),
	}
}

// WithLoadTimeout sets the bound on a shared catalog load. A non-positive
// d keeps DefaultLoadTimeout.
func (c *Cache) WithLoadTimeout(d time.Duration) *Cache {
	if d > 0 {
		c.loadTimeout = d
	}
	return c
}

// Resolve returns the cached map for table or loads it through next.
func (c *Cache) Resolve(ctx context.Context, table string) (core.ColumnMap, error) {
	if c.ttl <= 0 {
		return c.next.Resolve(ctx, table)
	}
	if m, ok := c.lookup(table); ok {
		return m, nil
	}

	ch := c.group.DoChan(table, func() (any, error) {
		if m, ok := c.lookup(table); ok {
			return m, nil
		}
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()
		m, err := c.next.Resolve(loadCtx, table)
		if err != nil {
			return nil, err
		}
		c.store(table, m)
		return m, nil
	})

	select {
	case <-ctx.Done():
		return core.ColumnMap{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return core.ColumnMap{}, res.Err
		}
		return clone(res.Val.(core.ColumnMap)), nil
	}
}

// Invalidate drops the cached map for table.
func (c *Cache) Invalidate(table string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, table)
}

// Purge drops every cached map.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.entries)
}

// Len returns the number of cached tables, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) lookup(table string) (core.ColumnMap, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[table]
	if !ok {
		return core.ColumnMap{}, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, table)
		return core.ColumnMap{}, false
	}
	return clone(e.m), true
}

func (c *Cache) store(table string, m core.ColumnMap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[table] = cacheEntry{m: m, expires: c.now().Add(c.ttl)}
}

func clone(m core.ColumnMap) core.ColumnMap {
	m.NumericCols = slices.Clone(m.NumericCols)
	return m
}

var _ ColumnResolver = (*Cache)(nil)
