package cache

import (
	"container/list"
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Weighter reports the byte weight an entry charges against a
// WeightedCache's cap (§4.8: fits.RawData.Weight, render.RenderedTile.Weight).
type Weighter interface {
	Weight() int64
}

// WeightedCache is a byte-capped LRU fronted by a single-flight loader
// group, used where entries vary widely in size (RawData, RenderedTile)
// and a plain entry-count cap would let the cache's footprint balloon
// (§4.8). No third-party LRU in the example pack supports a weighted
// eviction policy (hashicorp/golang-lru is count-only), so eviction order
// is tracked directly with container/list, the same structure the
// standard library itself recommends for an LRU.
type WeightedCache[K comparable, V Weighter] struct {
	mu       sync.Mutex
	capacity int64
	used     int64
	ll       *list.List // of *weightedEntry[K, V], front = most recently used
	index    map[K]*list.Element

	group   singleflight.Group
	keyFunc func(K) string
	stats   *Stats
}

type weightedEntry[K comparable, V Weighter] struct {
	key K
	val V
}

// NewWeightedCache builds a cache capped at capacityBytes of total
// Weighter.Weight() across its resident entries.
func NewWeightedCache[K comparable, V Weighter](capacityBytes int64, keyFunc func(K) string, stats *Stats) *WeightedCache[K, V] {
	return &WeightedCache[K, V]{
		capacity: capacityBytes,
		ll:       list.New(),
		index:    make(map[K]*list.Element),
		keyFunc:  keyFunc,
		stats:    stats,
	}
}

func (c *WeightedCache[K, V]) get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.index[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.ll.MoveToFront(el)
	return el.Value.(*weightedEntry[K, V]).val, true
}

func (c *WeightedCache[K, V]) add(key K, val V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.index[key]; ok {
		c.used -= el.Value.(*weightedEntry[K, V]).val.Weight()
		el.Value = &weightedEntry[K, V]{key: key, val: val}
		c.used += val.Weight()
		c.ll.MoveToFront(el)
	} else {
		el := c.ll.PushFront(&weightedEntry[K, V]{key: key, val: val})
		c.index[key] = el
		c.used += val.Weight()
	}

	for c.used > c.capacity && c.ll.Len() > 1 {
		back := c.ll.Back()
		if back == nil {
			break
		}
		entry := back.Value.(*weightedEntry[K, V])
		c.used -= entry.val.Weight()
		c.ll.Remove(back)
		delete(c.index, entry.key)
		c.stats.evict()
	}
	c.stats.setWeight(c.used)
}

// Get returns a Future for key without blocking, exactly as AsyncCache.Get.
func (c *WeightedCache[K, V]) Get(ctx context.Context, key K, load Loader[K, V]) *Future[V] {
	if v, ok := c.get(key); ok {
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
		c.add(key, v)
		return v, nil
	})
	return &Future[V]{ch: ch}
}

// Weight reports the total byte weight currently resident, for tests
// checking the eviction-bound invariant (§8).
func (c *WeightedCache[K, V]) Weight() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used
}

// Len reports the current entry count.
func (c *WeightedCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Stats exposes this cache's counters for the periodic reporter.
func (c *WeightedCache[K, V]) Stats() *Stats { return c.stats }
