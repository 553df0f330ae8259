// Package cache implements the async, single-flight, dependency-driven
// cache fabric of §4.8: Index, Segment, BiasFactors and GlobalHistogram
// caches are count-capped LRUs; RawData and RenderedTile caches are
// byte-weighted (weighted.go). Every cache's Get is non-blocking: it
// returns a Future that completes when the (possibly already in-flight)
// loader finishes, per the single-flight invariant.
package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

// Loader produces the value for key, invoked at most once per key among
// any number of concurrent Get calls racing on it (single-flight, §4.8
// invariant 1).
type Loader[K comparable, V any] func(ctx context.Context, key K) (V, error)

// Future is a handle on a load that may already be complete (cache hit),
// already in flight (joined an existing single-flight call), or freshly
// started. Wait blocks the caller only when and for as long as they choose
// to — Get itself never blocks.
type Future[V any] struct {
	ch  <-chan singleflight.Result
	imm V
	err error
	ok  bool // true if imm/err are already populated (cache hit)
}

func completedFuture[V any](v V, err error) *Future[V] {
	return &Future[V]{imm: v, err: err, ok: true}
}

// Wait blocks until the load completes or ctx is cancelled.
func (f *Future[V]) Wait(ctx context.Context) (V, error) {
	if f.ok {
		return f.imm, f.err
	}
	select {
	case r := <-f.ch:
		if r.Val == nil {
			var zero V
			return zero, r.Err
		}
		return r.Val.(V), r.Err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// AsyncCache is a count-capped LRU fronted by a single-flight loader group
// (§4.8: Index, Segment, BiasFactors, GlobalHistogram caches all take this
// shape — they hold a bounded number of small, roughly uniform-size
// entries, so an entry-count cap is the right policy).
type AsyncCache[K comparable, V any] struct {
	lru     *lru.Cache[K, V]
	group   singleflight.Group
	keyFunc func(K) string
	stats   *Stats
}

// NewAsyncCache builds a cache capped at size entries. keyFunc renders a K
// to the string singleflight groups in-flight calls by.
func NewAsyncCache[K comparable, V any](size int, keyFunc func(K) string, stats *Stats) (*AsyncCache[K, V], error) {
	l, err := lru.New[K, V](size)
	if err != nil {
		return nil, err
	}
	return &AsyncCache[K, V]{lru: l, keyFunc: keyFunc, stats: stats}, nil
}

// Get returns a Future for key without blocking: a cache hit resolves
// immediately; a miss joins (or starts) a single-flight call to load.
func (c *AsyncCache[K, V]) Get(ctx context.Context, key K, load Loader[K, V]) *Future[V] {
	if v, ok := c.lru.Get(key); ok {
		c.stats.hit()
		return completedFuture(v, nil)
	}
	c.stats.miss()
	ch := c.group.DoChan(c.keyFunc(key), func() (any, error) {
		v, err := load(ctx, key)
		if err != nil {
			c.stats.loadError()
			return v, err
		}
		c.stats.load()
		if evicted := c.lru.Add(key, v); evicted {
			c.stats.evict()
		}
		return v, nil
	})
	return &Future[V]{ch: ch}
}

// Peek reports a cached value without counting as a hit or miss or
// triggering a load. No production code calls it; tests use it to inspect
// what a completed load left in the cache.
func (c *AsyncCache[K, V]) Peek(key K) (V, bool) {
	return c.lru.Peek(key)
}

// Len reports the current entry count, for tests checking the
// count-cap invariant (§8).
func (c *AsyncCache[K, V]) Len() int { return c.lru.Len() }

// Stats exposes this cache's counters for the periodic reporter.
func (c *AsyncCache[K, V]) Stats() *Stats { return c.stats }
