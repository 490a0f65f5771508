package token

import (
	"context"
	"crypto/sha256"
	"fmt"
)

// Handle is a borrowed keyed-MAC capability. A handle is bound to a single
// key version; callers that need a write and a later read to use the same
// version pin the handle returned by Tokenize and pass it back in.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Determinism: Sign must be deterministic for a given key version.
// - Errors: Sign returns an error only when the key material is unusable.
type Handle interface {
	// Version identifies the key version this handle is bound to.
	Version() string

	// Sign computes the keyed MAC over data.
	Sign(data []byte) ([]byte, error)
}

// Provider resolves the current tokenizer handle. The key material and its
// rotation schedule are owned externally; this package only borrows handles.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: CurrentHandle may block (e.g. remote fetch) and must honor ctx.
// - Errors: provider failures propagate to callers unchanged.
type Provider interface {
	CurrentHandle(ctx context.Context) (Handle, error)
}

// Tokenizer converts plaintext logical identifiers into durable-store keys
// and derives content ids from structured values.
type Tokenizer struct {
	provider Provider
}

// NewTokenizer creates a tokenizer that resolves handles from provider when
// the caller does not supply one. provider may be nil if every call pins its
// own handle.
func NewTokenizer(provider Provider) *Tokenizer {
	return &Tokenizer{provider: provider}
}

// Tokenize computes the keyed MAC of plaintextID under h and prefixes the
// result with its type tag. If h is nil the provider's current handle is
// resolved first. The resolved handle is returned alongside the id so the
// caller can pin it for a paired write.
//
// Same plaintext and key version always yield the same id; distinct
// plaintexts under one key collide only with cryptographically negligible
// probability, so no collision handling exists downstream.
func (t *Tokenizer) Tokenize(ctx context.Context, plaintextID string, h Handle) (ID, Handle, error) {
	if plaintextID == "" {
		return nil, nil, ErrMissingID
	}
	if h == nil {
		if t.provider == nil {
			return nil, nil, ErrNilProvider
		}
		var err error
		h, err = t.provider.CurrentHandle(ctx)
		if err != nil {
			return nil, nil, err
		}
	}
	mac, err := h.Sign([]byte(plaintextID))
	if err != nil {
		return nil, nil, err
	}
	return tagDigest(AlgSHA256, mac), h, nil
}

// ContentID derives a text-safe id from arbitrary structured content:
// canonical JSON, hashed with SHA-256, tagged, base64url without padding.
// Structurally equal values yield identical ids regardless of map key order.
// This path never touches the keyed MAC.
func (t *Tokenizer) ContentID(value any) (string, error) {
	canonical, err := canonicalize(value)
	if err != nil {
		return "", fmt.Errorf("token: canonicalize content: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return tagDigest(AlgSHA256, sum[:]).CacheKey(), nil
}
