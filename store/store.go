package store

import (
	"context"
	"time"

	"github.com/jonwraymond/tokencache/token"
)

// DefaultGracePeriod is the delay between an entry's logical expiration and
// its physical removal. It exists so a process that reads, decides, then
// extends an entry's expiration cannot lose a race against physical deletion
// between its read and its write.
const DefaultGracePeriod = 24 * time.Hour

// Store is the durable entry store.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use; Upsert must
//   be atomic per id regardless of write concurrency.
// - Context: both methods may block and must honor cancellation/deadlines.
// - Errors: Find returns *NotFoundError for a missing or logically expired
//   entry; everything else wraps ErrStoreFailure.
type Store interface {
	// Upsert writes or replaces the entry for id. On insert it sets every
	// field; on update it overwrites value, expires and updated but leaves
	// the id and created untouched. Returns the stored entry.
	Upsert(ctx context.Context, id token.ID, value any, ttl time.Duration) (*Entry, error)

	// Find returns the live entry for id. An entry whose expiration has
	// passed is rejected even if physically still present.
	Find(ctx context.Context, id token.ID) (*Entry, error)
}

// Explainer is implemented by stores that can report query-execution
// diagnostics. Explain calls never touch entry data; they return the
// store's plan document for index-verification testing.
type Explainer interface {
	ExplainFind(ctx context.Context, id token.ID) ([]byte, error)
	ExplainUpsert(ctx context.Context, id token.ID, value any, ttl time.Duration) ([]byte, error)
}
