package token

import "encoding/base64"

// Digest algorithm identifiers used in the type tag.
const (
	// AlgSHA256 identifies SHA-256 digests (keyed or unkeyed).
	AlgSHA256 byte = 0x01

	// TagLen is the length of the type tag prefixed to every digest.
	TagLen = 2
)

// ID is a tokenized identifier: a 2-byte type tag (algorithm identifier,
// digest length) followed by the raw digest bytes. It is opaque and never
// reversed back to the plaintext it was derived from.
type ID []byte

// CacheKey returns the stable text form of the id used to index the
// in-memory cache: base64url without padding. It is derived from the
// tokenized bytes only.
func (id ID) CacheKey() string {
	return base64.RawURLEncoding.EncodeToString(id)
}

// String returns the same encoding as CacheKey, making ids safe to log.
func (id ID) String() string {
	return id.CacheKey()
}

// ParseCacheKey decodes a cache key string back into the tokenized id it was
// derived from.
func ParseCacheKey(s string) (ID, error) {
	if s == "" {
		return nil, ErrBadCacheKey
	}
	raw, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil || len(raw) < TagLen {
		return nil, ErrBadCacheKey
	}
	return ID(raw), nil
}

// tagDigest prefixes a digest with its self-describing type tag.
func tagDigest(alg byte, digest []byte) ID {
	out := make(ID, 0, TagLen+len(digest))
	out = append(out, alg, byte(len(digest)))
	return append(out, digest...)
}
