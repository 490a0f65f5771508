package entrycache

import "errors"

// Sentinel errors for the public surface. All of them are detected before
// any I/O happens.
var (
	// ErrInvalidRef indicates a Ref carried both or neither of the plaintext
	// id and the tokenized id.
	ErrInvalidRef = errors.New("entrycache: exactly one of plaintext id and tokenized id is required")

	// ErrInvalidTTL indicates a negative ttl was given to an upsert.
	ErrInvalidTTL = errors.New("entrycache: ttl must not be negative")

	// ErrNilStore indicates the coordinator was constructed without a store.
	ErrNilStore = errors.New("entrycache: store is nil")

	// ErrNilTokenizer indicates the coordinator was constructed without a
	// tokenizer.
	ErrNilTokenizer = errors.New("entrycache: tokenizer is nil")

	// ErrExplainUnsupported indicates the configured store cannot report
	// query diagnostics.
	ErrExplainUnsupported = errors.New("entrycache: store does not support explain")
)
