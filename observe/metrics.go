package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Lookup outcomes recorded by the read-through cache.
const (
	OutcomeHit       = "hit"       // served from a resolved in-memory entry
	OutcomeMiss      = "miss"      // this caller performed the store fetch
	OutcomeCoalesced = "coalesced" // waited on another caller's in-flight fetch
	OutcomeStale     = "stale"     // cached entry was logically expired and evicted
	OutcomeNotFound  = "not_found" // no live entry anywhere
)

// CacheMetrics records cache and store activity.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic; recording is best-effort.
type CacheMetrics interface {
	// RecordLookup records a read-through lookup outcome.
	RecordLookup(ctx context.Context, outcome string)

	// RecordStoreOp records a durable-store operation with its duration and
	// error status.
	RecordStoreOp(ctx context.Context, op string, duration time.Duration, err error)

	// RecordInvalidation records an explicit in-memory invalidation.
	RecordInvalidation(ctx context.Context)
}

// cacheMetrics is the OpenTelemetry implementation of CacheMetrics.
type cacheMetrics struct {
	lookups       metric.Int64Counter
	invalidations metric.Int64Counter
	storeOps      metric.Int64Counter
	storeErrors   metric.Int64Counter
	storeDuration metric.Float64Histogram
}

// NewCacheMetrics creates a CacheMetrics backed by the given meter.
func NewCacheMetrics(meter metric.Meter) (CacheMetrics, error) {
	lookups, err := meter.Int64Counter(
		"cache.lookup.total",
		metric.WithDescription("Total read-through lookups by outcome"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	invalidations, err := meter.Int64Counter(
		"cache.invalidation.total",
		metric.WithDescription("Explicit in-memory invalidations"),
		metric.WithUnit("{invalidation}"),
	)
	if err != nil {
		return nil, err
	}

	storeOps, err := meter.Int64Counter(
		"cache.store.total",
		metric.WithDescription("Durable-store operations"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	storeErrors, err := meter.Int64Counter(
		"cache.store.errors",
		metric.WithDescription("Durable-store operation failures"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	storeDuration, err := meter.Float64Histogram(
		"cache.store.duration_ms",
		metric.WithDescription("Durable-store operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &cacheMetrics{
		lookups:       lookups,
		invalidations: invalidations,
		storeOps:      storeOps,
		storeErrors:   storeErrors,
		storeDuration: storeDuration,
	}, nil
}

func (m *cacheMetrics) RecordLookup(ctx context.Context, outcome string) {
	m.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *cacheMetrics) RecordStoreOp(ctx context.Context, op string, duration time.Duration, err error) {
	opt := metric.WithAttributes(attribute.String("op", op))
	m.storeOps.Add(ctx, 1, opt)
	if err != nil {
		m.storeErrors.Add(ctx, 1, opt)
	}
	m.storeDuration.Record(ctx, float64(duration.Milliseconds()), opt)
}

func (m *cacheMetrics) RecordInvalidation(ctx context.Context) {
	m.invalidations.Add(ctx, 1)
}

// NoopCacheMetrics discards every recording.
type NoopCacheMetrics struct{}

func (NoopCacheMetrics) RecordLookup(context.Context, string)                        {}
func (NoopCacheMetrics) RecordStoreOp(context.Context, string, time.Duration, error) {}
func (NoopCacheMetrics) RecordInvalidation(context.Context)                          {}

// Ensure implementations satisfy CacheMetrics
var (
	_ CacheMetrics = (*cacheMetrics)(nil)
	_ CacheMetrics = NoopCacheMetrics{}
)
