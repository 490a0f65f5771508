package health

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonwraymond/tokencache/store"
	"github.com/jonwraymond/tokencache/token"
)

// probeID is a reserved tokenized identifier used to exercise the store's
// read path. Its type tag is all zeros, which the tokenizer never produces,
// so it can never collide with a real entry.
var probeID = token.ID(append([]byte{0x00, 0x00}, []byte("health-probe")...))

// StoreChecker probes the durable entry store with a point read of a
// reserved identifier. A not-found answer means the store completed a full
// round trip and is healthy; only a store failure is unhealthy.
type StoreChecker struct {
	store store.Store
}

// NewStoreChecker creates a checker over the given store.
func NewStoreChecker(st store.Store) *StoreChecker {
	return &StoreChecker{store: st}
}

// Name returns the name of this checker.
func (c *StoreChecker) Name() string {
	return "store"
}

// Check performs the store health check.
func (c *StoreChecker) Check(ctx context.Context) Result {
	start := time.Now()
	_, err := c.store.Find(ctx, probeID)
	elapsed := time.Since(start)

	switch {
	case err == nil, errors.Is(err, store.ErrNotFound):
		return Healthy("store reachable").WithDetails(map[string]any{
			"probe_ms": elapsed.Milliseconds(),
		})
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return Unhealthy("store probe timed out", err)
	default:
		return Unhealthy(fmt.Sprintf("store probe failed: %v", err), err)
	}
}

// ProviderChecker verifies that the tokenizer key provider can resolve a
// current key handle. Without one, every plaintext-id operation fails.
type ProviderChecker struct {
	provider token.Provider
}

// NewProviderChecker creates a checker over the given key provider.
func NewProviderChecker(p token.Provider) *ProviderChecker {
	return &ProviderChecker{provider: p}
}

// Name returns the name of this checker.
func (c *ProviderChecker) Name() string {
	return "keys"
}

// Check performs the key provider health check.
func (c *ProviderChecker) Check(ctx context.Context) Result {
	h, err := c.provider.CurrentHandle(ctx)
	if err != nil {
		return Unhealthy("no current signing key", err)
	}
	return Healthy("current key available").WithDetails(map[string]any{
		"key_version": h.Version(),
	})
}
