package entrycache

import (
	"time"

	"github.com/jonwraymond/tokencache/cache"
	"github.com/jonwraymond/tokencache/observe"
)

// DefaultTTL is the ttl applied by UpsertDefault when none is configured.
const DefaultTTL = 5 * time.Minute

// Config configures the Coordinator.
type Config struct {
	// DefaultTTL is the ttl UpsertDefault applies. Default: DefaultTTL.
	DefaultTTL time.Duration

	// Cache bounds the in-memory read-through layer. When Cache.MaxAge is
	// zero it is derived as min(DefaultTTL, cache.DefaultMaxAge) so the age
	// bound never exceeds the shortest meaningful ttl.
	Cache cache.Config

	// Logger receives debug/warn output. Default: discard.
	Logger observe.Logger

	// Metrics receives lookup outcomes, store timings and invalidations.
	// Default: no-op. The same instance is handed to the cache layer.
	Metrics observe.CacheMetrics
}

// withDefaults returns a copy of c with defaults applied.
func (c Config) withDefaults() Config {
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = DefaultTTL
	}
	if c.Cache.MaxAge <= 0 {
		c.Cache.MaxAge = cache.DefaultMaxAge
		if c.DefaultTTL < c.Cache.MaxAge {
			c.Cache.MaxAge = c.DefaultTTL
		}
	}
	if c.Logger == nil {
		c.Logger = observe.NopLogger()
	}
	if c.Metrics == nil {
		c.Metrics = observe.NoopCacheMetrics{}
	}
	if c.Cache.Metrics == nil {
		c.Cache.Metrics = c.Metrics
	}
	return c
}
