// Package cache provides an in-memory cache for classifier results.
//
// The cache is bounded: once it holds its capacity (20 by default) the
// least recently used entry is evicted to make room. Entries expire one hour
// after insertion, but expiry is lazy. An expired entry is noticed and
// removed only when Get or Has touches it, which suits the bursty, per-edit
// access pattern of the annotation pipeline better than a sweeper goroutine.
//
// A Cache is an ordinary value owned by whoever constructs it. Pipelines
// take one by injection so that buffers can share a cache or keep their own.
package cache
