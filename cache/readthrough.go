package cache

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/jonwraymond/tokencache/observe"
	"github.com/jonwraymond/tokencache/store"
	"github.com/jonwraymond/tokencache/token"
)

// Defaults for the residency bounds.
const (
	DefaultMaxEntries = 1024
	DefaultMaxAge     = 30 * time.Second
)

// Finder is the read side of the durable store consumed by the cache.
type Finder interface {
	Find(ctx context.Context, id token.ID) (*store.Entry, error)
}

// Config bounds the in-memory cache.
type Config struct {
	// MaxEntries is the maximum number of cached keys before LRU eviction.
	// Default: DefaultMaxEntries.
	MaxEntries int

	// MaxAge is how long an entry may stay cached, measured from insertion.
	// It should not exceed the shortest meaningful ttl, so staleness exposure
	// stays bounded even when invalidation never fires (writes from another
	// process). Default: DefaultMaxAge.
	MaxAge time.Duration

	// Metrics receives lookup outcomes and store timings. Default: no-op.
	Metrics observe.CacheMetrics
}

// slot is the per-key memoized fetch. It is installed before the store
// lookup starts; callers arriving while the fetch is in flight wait on done.
// A slot pointer identifies one fetch generation, which is what the
// compare-and-remove step compares against.
type slot struct {
	done  chan struct{}
	entry *store.Entry
	err   error
}

// ReadThrough is the in-memory read-through cache. Both bounds may discard
// unexpired entries; callers must tolerate a cache miss at any time.
type ReadThrough struct {
	finder  Finder
	metrics observe.CacheMetrics

	// mu makes install and compare-and-remove atomic with respect to each
	// other; the LRU's own locking is not enough for those compound steps.
	mu    sync.Mutex
	slots *expirable.LRU[string, *slot]
}

// NewReadThrough creates a read-through cache over finder.
func NewReadThrough(finder Finder, cfg Config) *ReadThrough {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	if cfg.Metrics == nil {
		cfg.Metrics = observe.NoopCacheMetrics{}
	}
	return &ReadThrough{
		finder:  finder,
		metrics: cfg.Metrics,
		slots:   expirable.NewLRU[string, *slot](cfg.MaxEntries, nil, cfg.MaxAge),
	}
}

// Get returns the live entry for id, fetching from the store on a miss.
// Concurrent callers for the same key share a single store fetch. A stale
// cached entry is evicted and the lookup retried; the retry reaches the
// store and terminates in its NotFound if nothing live exists.
//
// The loop is bounded at one retry: the second pass starts from an empty
// slot, and its freshly fetched entry can only be stale again at the exact
// instant of expiry.
func (c *ReadThrough) Get(ctx context.Context, id token.ID) (*store.Entry, error) {
	key := id.CacheKey()

	for attempt := 0; attempt < 2; attempt++ {
		s, owner := c.install(key)
		if owner {
			c.metrics.RecordLookup(ctx, observe.OutcomeMiss)
			c.resolve(ctx, id, key, s)
		} else if !c.wait(ctx, s) {
			return nil, ctx.Err()
		}

		if s.err != nil {
			return nil, s.err
		}
		if !s.entry.Expired(time.Now()) {
			return s.entry, nil
		}

		// Remove the stale entry only if it is still the installed one; a
		// concurrent writer may have replaced the slot with fresher data
		// that must not be discarded.
		c.metrics.RecordLookup(ctx, observe.OutcomeStale)
		c.removeIfCurrent(key, s)
	}

	c.metrics.RecordLookup(ctx, observe.OutcomeNotFound)
	return nil, &store.NotFoundError{Key: key}
}

// Invalidate unconditionally removes any cached value for key. Called after
// every successful write so a reader in this process never observes a value
// older than its own latest write.
func (c *ReadThrough) Invalidate(key string) {
	c.mu.Lock()
	c.slots.Remove(key)
	c.mu.Unlock()
}

// Len returns the number of installed slots, pending fetches included.
func (c *ReadThrough) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slots.Len()
}

// install returns the slot for key, creating and installing a fresh one if
// absent. The second return is true when this caller installed the slot and
// therefore owns the store fetch.
func (c *ReadThrough) install(key string) (*slot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.slots.Get(key); ok {
		return s, false
	}
	s := &slot{done: make(chan struct{})}
	c.slots.Add(key, s)
	return s, true
}

// resolve performs the store fetch for an installed slot and publishes the
// result to every coalesced waiter. A failed fetch (store error or NotFound)
// is propagated but never memoized: the slot is removed so the next caller
// retries instead of replaying the failure.
func (c *ReadThrough) resolve(ctx context.Context, id token.ID, key string, s *slot) {
	start := time.Now()
	s.entry, s.err = c.finder.Find(ctx, id)
	c.metrics.RecordStoreOp(ctx, "find", time.Since(start), s.err)

	if s.err != nil {
		c.removeIfCurrent(key, s)
	}
	close(s.done)
}

// wait blocks until the slot resolves or ctx is cancelled. Returns false on
// cancellation.
func (c *ReadThrough) wait(ctx context.Context, s *slot) bool {
	select {
	case <-s.done:
		c.metrics.RecordLookup(ctx, observe.OutcomeHit)
		return true
	default:
	}
	c.metrics.RecordLookup(ctx, observe.OutcomeCoalesced)
	select {
	case <-s.done:
		return true
	case <-ctx.Done():
		return false
	}
}

// removeIfCurrent removes key's slot only if it is still s. This is the
// atomic compare-and-remove primitive: a plain read-then-delete would race a
// concurrent writer that installed a newer slot between the two steps.
func (c *ReadThrough) removeIfCurrent(key string, s *slot) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.slots.Peek(key); ok && cur == s {
		c.slots.Remove(key)
		return true
	}
	return false
}
