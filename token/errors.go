package token

import "errors"

// Sentinel errors for tokenization and key resolution.
var (
	// ErrMissingID indicates an empty plaintext identifier was given.
	ErrMissingID = errors.New("token: plaintext identifier is required")

	// ErrNilProvider indicates no key provider is available to resolve a handle.
	ErrNilProvider = errors.New("token: key provider is nil")

	// ErrNoCurrentKey indicates the provider has no current key material.
	ErrNoCurrentKey = errors.New("token: no current key available")

	// ErrKeyNotFound indicates a requested key version is unknown.
	ErrKeyNotFound = errors.New("token: key version not found")

	// ErrBadCacheKey indicates a cache key string is not a valid encoding of a
	// tokenized id.
	ErrBadCacheKey = errors.New("token: malformed cache key")
)
