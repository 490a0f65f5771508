package store

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonwraymond/tokencache/token"
)

// MemoryStore is an in-memory Store implementation with the same semantics
// as the MongoDB store, including the grace period: a logically expired
// entry stays physically present (and is still rejected by Find) until the
// grace period has elapsed.
//
// It keeps atomic call counters so tests can observe whether the read-through
// cache actually reached the store.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	grace   time.Duration

	findCalls   atomic.Int64
	upsertCalls atomic.Int64
}

// NewMemoryStore creates a memory store. grace <= 0 selects
// DefaultGracePeriod.
func NewMemoryStore(grace time.Duration) *MemoryStore {
	if grace <= 0 {
		grace = DefaultGracePeriod
	}
	return &MemoryStore{
		entries: make(map[string]*Entry),
		grace:   grace,
	}
}

// Upsert writes or replaces the entry for id.
func (s *MemoryStore) Upsert(_ context.Context, id token.ID, value any, ttl time.Duration) (*Entry, error) {
	s.upsertCalls.Add(1)

	key := id.CacheKey()
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		e = &Entry{TokenizedID: id, Created: now}
		s.entries[key] = e
	}
	e.Value = value
	e.Expires = now.Add(ttl)
	e.Updated = now

	cp := *e
	return &cp, nil
}

// Find returns the live entry for id. Physically expired entries (past the
// grace period) are removed lazily; logically expired entries are rejected
// but kept.
func (s *MemoryStore) Find(_ context.Context, id token.ID) (*Entry, error) {
	s.findCalls.Add(1)

	key := id.CacheKey()
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, &NotFoundError{Key: key}
	}
	if now.Sub(e.Expires) >= s.grace {
		delete(s.entries, key)
		return nil, &NotFoundError{Key: key}
	}
	if e.Expired(now) {
		return nil, &NotFoundError{Key: key}
	}

	cp := *e
	return &cp, nil
}

// ExplainFind returns a synthetic plan document for the point lookup.
func (s *MemoryStore) ExplainFind(_ context.Context, id token.ID) ([]byte, error) {
	s.mu.RLock()
	n := len(s.entries)
	s.mu.RUnlock()
	return json.Marshal(map[string]any{
		"backend": "memory",
		"op":      "find",
		"key":     id.CacheKey(),
		"plan":    "MAP_LOOKUP",
		"entries": n,
	})
}

// ExplainUpsert returns a synthetic plan document for the upsert.
func (s *MemoryStore) ExplainUpsert(_ context.Context, id token.ID, _ any, ttl time.Duration) ([]byte, error) {
	s.mu.RLock()
	n := len(s.entries)
	s.mu.RUnlock()
	return json.Marshal(map[string]any{
		"backend": "memory",
		"op":      "upsert",
		"key":     id.CacheKey(),
		"ttl_ms":  ttl.Milliseconds(),
		"plan":    "MAP_UPSERT",
		"entries": n,
	})
}

// FindCalls returns how many times Find has been invoked.
func (s *MemoryStore) FindCalls() int64 { return s.findCalls.Load() }

// UpsertCalls returns how many times Upsert has been invoked.
func (s *MemoryStore) UpsertCalls() int64 { return s.upsertCalls.Load() }

// Len returns the number of physically present entries, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ensure MemoryStore implements Store and Explainer
var (
	_ Store     = (*MemoryStore)(nil)
	_ Explainer = (*MemoryStore)(nil)
)
