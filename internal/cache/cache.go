package cache

import (
	"slices"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultCapacity is the number of analyses kept when no capacity is given.
	DefaultCapacity = 20
	// DefaultTTL is how long an entry stays valid after insertion.
	DefaultTTL = time.Hour
)

// Entry is a cached value with its insertion time.
type Entry[K comparable, V any] struct {
	Key        K
	Value      V
	InsertedAt time.Time
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits      int `json:"hits"`
	Misses    int `json:"misses"`
	Size      int `json:"size"`
	Capacity  int `json:"capacity"`
	Evictions int `json:"evictions"`
}

// HitRate returns hits / (hits + misses), or 0 before any lookup.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// Cache is a capacity-bounded least-recently-used cache with lazy expiry.
// Expired entries are dropped when they are next looked at; there is no
// background sweeper. All methods are safe for concurrent use.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	ttl      time.Duration
	now      func() time.Time

	lru *lru.Cache[K, *Entry[K, V]]

	hits      int
	misses    int
	evictions int
}

// Option configures a Cache.
type Option func(*options)

type options struct {
	capacity int
	ttl      time.Duration
	now      func() time.Time
}

// WithCapacity sets the maximum number of entries. Values < 1 keep the default.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithTTL sets the entry lifetime. A non-positive TTL disables expiry.
func WithTTL(d time.Duration) Option {
	return func(o *options) { o.ttl = d }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// New creates an empty cache.
func New[K comparable, V any](opts ...Option) *Cache[K, V] {
	o := options{
		capacity: DefaultCapacity,
		ttl:      DefaultTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	// lru.New only fails for a non-positive size, which WithCapacity rules out.
	l, err := lru.New[K, *Entry[K, V]](o.capacity)
	if err != nil {
		panic(err)
	}
	return &Cache[K, V]{
		capacity: o.capacity,
		ttl:      o.ttl,
		now:      o.now,
		lru:      l,
	}
}

// Get returns the value stored under key and marks it most recently used.
// Expired entries are removed and reported as a miss.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.lookup(key); !ok {
		c.misses++
		var zero V
		return zero, false
	}
	e, _ := c.lru.Get(key)
	c.hits++
	return e.Value, true
}

// Set inserts or replaces the value under key. Replacing refreshes the
// insertion time. When a new key would exceed capacity the least recently
// used entry is evicted.
func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.lru.Add(key, &Entry[K, V]{Key: key, Value: value, InsertedAt: c.now()}) {
		c.evictions++
	}
}

// Has reports whether an unexpired entry exists for key. It neither
// promotes the entry nor counts a hit or miss.
func (c *Cache[K, V]) Has(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.lookup(key)
	return ok
}

// Delete removes key if present.
func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(key)
}

// Clear removes every entry and resets the counters.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Purge()
	c.hits, c.misses, c.evictions = 0, 0, 0
}

// Len returns the number of stored entries, including any that have
// expired but not yet been looked at.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}

// Keys returns the stored keys, most recently used first.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := c.lru.Keys()
	slices.Reverse(keys)
	return keys
}

// Stats returns a snapshot of the counters.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:      c.hits,
		Misses:    c.misses,
		Size:      c.lru.Len(),
		Capacity:  c.capacity,
		Evictions: c.evictions,
	}
}

// lookup peeks at key without promoting it, dropping it if expired.
// Caller holds mu.
func (c *Cache[K, V]) lookup(key K) (*Entry[K, V], bool) {
	e, ok := c.lru.Peek(key)
	if !ok {
		return nil, false
	}
	if c.expired(e) {
		c.lru.Remove(key)
		return nil, false
	}
	return e, true
}

func (c *Cache[K, V]) expired(e *Entry[K, V]) bool {
	if c.ttl <= 0 {
		return false
	}
	return c.now().Sub(e.InsertedAt) > c.ttl
}
