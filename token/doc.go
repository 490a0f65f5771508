// Package token derives durable-store identifiers from plaintext logical
// identifiers so the plaintext is never persisted.
//
// Tokenized ids are keyed-MAC digests produced through a rotatable Handle
// borrowed from a Provider; content ids are unkeyed hashes of canonicalized
// structured values.
package token
