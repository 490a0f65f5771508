package entrycache

import (
	"context"
	"time"

	"github.com/jonwraymond/tokencache/cache"
	"github.com/jonwraymond/tokencache/observe"
	"github.com/jonwraymond/tokencache/store"
	"github.com/jonwraymond/tokencache/token"
)

// Ref names an entry by exactly one of its plaintext logical identifier or
// its tokenized identifier. Handle optionally pins the tokenizer key
// version, e.g. to make a read use the same version as a paired write.
type Ref struct {
	// ID is the plaintext logical identifier. Never persisted or logged.
	ID string

	// Token is an already-tokenized identifier.
	Token token.ID

	// Handle is an optional pinned tokenizer handle; ignored when Token is
	// set (no tokenization happens then).
	Handle token.Handle
}

func (r Ref) validate() error {
	if (r.ID == "") == (len(r.Token) == 0) {
		return ErrInvalidRef
	}
	return nil
}

// Coordinator is the single public surface of the cache. It owns one shared
// in-memory read-through layer; create one Coordinator per process and pass
// it by reference.
type Coordinator struct {
	tokenizer *token.Tokenizer
	store     store.Store
	cache     *cache.ReadThrough
	logger    observe.Logger
	metrics   observe.CacheMetrics
	defttl    time.Duration
}

// New creates a Coordinator over the given tokenizer and store.
func New(tok *token.Tokenizer, st store.Store, cfg Config) (*Coordinator, error) {
	if tok == nil {
		return nil, ErrNilTokenizer
	}
	if st == nil {
		return nil, ErrNilStore
	}
	cfg = cfg.withDefaults()
	return &Coordinator{
		tokenizer: tok,
		store:     st,
		cache:     cache.NewReadThrough(st, cfg.Cache),
		logger:    cfg.Logger.WithComponent("entrycache"),
		metrics:   cfg.Metrics,
		defttl:    cfg.DefaultTTL,
	}, nil
}

// TokenizeID tokenizes a plaintext identifier, resolving the current handle
// when none is pinned. The resolved handle is returned so the caller can
// reuse it for a paired write.
func (c *Coordinator) TokenizeID(ctx context.Context, plaintextID string, h token.Handle) (token.ID, token.Handle, error) {
	return c.tokenizer.Tokenize(ctx, plaintextID, h)
}

// ContentID derives a text-safe id from structured content without touching
// the keyed-token namespace.
func (c *Coordinator) ContentID(value any) (string, error) {
	return c.tokenizer.ContentID(value)
}

// Get returns the live entry for ref, serving repeated reads from memory.
// A missing or logically expired entry yields store.ErrNotFound.
func (c *Coordinator) Get(ctx context.Context, ref Ref) (*store.Entry, error) {
	id, err := c.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	ent, err := c.cache.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return ent, nil
}

// Upsert writes or replaces the entry for ref with expires = now+ttl, then
// invalidates the in-memory entry so a subsequent read in this process
// observes the new value. ttl must not be negative; zero means the entry
// expires immediately.
func (c *Coordinator) Upsert(ctx context.Context, ref Ref, value any, ttl time.Duration) (*store.Entry, error) {
	if ttl < 0 {
		return nil, ErrInvalidTTL
	}
	id, err := c.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	ent, err := c.store.Upsert(ctx, id, value, ttl)
	c.metrics.RecordStoreOp(ctx, "upsert", time.Since(start), err)
	if err != nil {
		return nil, err
	}

	// Invalidation is unconditional and happens before returning, so reads
	// after this call never observe the previous value.
	c.cache.Invalidate(id.CacheKey())
	c.metrics.RecordInvalidation(ctx)
	c.logger.Debug(ctx, "entry upserted",
		observe.Field{Key: "cache_key", Value: id.CacheKey()},
		observe.Field{Key: "ttl_ms", Value: ttl.Milliseconds()},
	)
	return ent, nil
}

// UpsertDefault is Upsert with the configured default ttl.
func (c *Coordinator) UpsertDefault(ctx context.Context, ref Ref, value any) (*store.Entry, error) {
	return c.Upsert(ctx, ref, value, c.defttl)
}

// ExplainGet returns the store's query diagnostics for the lookup, bypassing
// the in-memory cache entirely.
func (c *Coordinator) ExplainGet(ctx context.Context, ref Ref) ([]byte, error) {
	ex, ok := c.store.(store.Explainer)
	if !ok {
		return nil, ErrExplainUnsupported
	}
	id, err := c.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return ex.ExplainFind(ctx, id)
}

// ExplainUpsert returns the store's query diagnostics for the write,
// bypassing the in-memory cache entirely and writing nothing.
func (c *Coordinator) ExplainUpsert(ctx context.Context, ref Ref, value any, ttl time.Duration) ([]byte, error) {
	if ttl < 0 {
		return nil, ErrInvalidTTL
	}
	ex, ok := c.store.(store.Explainer)
	if !ok {
		return nil, ErrExplainUnsupported
	}
	id, err := c.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	return ex.ExplainUpsert(ctx, id, value, ttl)
}

// resolve validates the ref and tokenizes the plaintext id when needed.
func (c *Coordinator) resolve(ctx context.Context, ref Ref) (token.ID, error) {
	if err := ref.validate(); err != nil {
		return nil, err
	}
	if len(ref.Token) > 0 {
		return ref.Token, nil
	}
	id, _, err := c.tokenizer.Tokenize(ctx, ref.ID, ref.Handle)
	return id, err
}
