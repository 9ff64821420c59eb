package beam

import (
	"container/list"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// DefaultCacheSize is the number of contexts a Search remembers per call.
const DefaultCacheSize = 256

// Cache is a fixed-capacity LRU from feature contexts to the distribution
// the model returned for them. Keys compare by content. A Cache is not safe
// for concurrent use.
type Cache struct {
	capacity int
	buckets  map[uint64][]*list.Element
	order    *list.List // front is most recently used
}

type cacheEntry struct {
	hash    uint64
	context []string
	probs   []float64
}

// NewCache returns a cache holding up to capacity contexts. A capacity of
// zero or less disables caching.
func NewCache(capacity int) *Cache {
	return &Cache{
		capacity: capacity,
		buckets:  make(map[uint64][]*list.Element),
		order:    list.New(),
	}
}

// Len returns the number of cached contexts.
func (c *Cache) Len() int { return c.order.Len() }

// Get returns the distribution cached for context.
func (c *Cache) Get(context []string) ([]float64, bool) {
	if c.capacity <= 0 {
		return nil, false
	}
	h := hashContext(context)
	for _, el := range c.buckets[h] {
		e := el.Value.(*cacheEntry)
		if slices.Equal(e.context, context) {
			c.order.MoveToFront(el)
			return e.probs, true
		}
	}
	return nil, false
}

// Put stores probs for context, evicting the least recently used entry when
// full. The context is copied; probs is stored as given and must not be
// modified afterwards.
func (c *Cache) Put(context []string, probs []float64) {
	if c.capacity <= 0 {
		return
	}
	h := hashContext(context)
	for _, el := range c.buckets[h] {
		e := el.Value.(*cacheEntry)
		if slices.Equal(e.context, context) {
			e.probs = probs
			c.order.MoveToFront(el)
			return
		}
	}
	if c.order.Len() >= c.capacity {
		c.evict()
	}
	el := c.order.PushFront(&cacheEntry{
		hash:    h,
		context: slices.Clone(context),
		probs:   probs,
	})
	c.buckets[h] = append(c.buckets[h], el)
}

func (c *Cache) evict() {
	el := c.order.Back()
	if el == nil {
		return
	}
	c.order.Remove(el)
	e := el.Value.(*cacheEntry)
	bucket := c.buckets[e.hash]
	for i, other := range bucket {
		if other == el {
			bucket = slices.Delete(bucket, i, i+1)
			break
		}
	}
	if len(bucket) == 0 {
		delete(c.buckets, e.hash)
	} else {
		c.buckets[e.hash] = bucket
	}
}

func hashContext(context []string) uint64 {
	d := xxhash.New()
	for _, s := range context {
		_, _ = d.WriteString(s)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}
