package store

import (
	"time"

	"github.com/jonwraymond/tokencache/token"
)

// Entry is the unit of storage. It is created or replaced wholesale by
// Upsert and read, never partially mutated, by Find. Callers must treat a
// returned Entry as immutable: the in-memory cache hands the same Entry to
// every coalesced reader.
type Entry struct {
	// TokenizedID is the durable-store key. Opaque and derived; never
	// reversed back to a plaintext identifier.
	TokenizedID token.ID

	// Value is the caller-supplied payload, stored verbatim.
	Value any

	// Expires is the logical expiration the caller requested. It is set to
	// now+ttl by the write that last touched the entry and never recomputed
	// by a read.
	Expires time.Time

	// Created and Updated are set by the store on insert and update.
	Created time.Time
	Updated time.Time
}

// Expired reports whether the entry is logically expired at now. An entry
// expiring exactly at now is expired: a zero ttl means "expires immediately".
func (e *Entry) Expired(now time.Time) bool {
	return !e.Expires.After(now)
}
