// Package store persists cache entries keyed by tokenized identifiers.
//
// It provides the Store interface with MongoDB and memory implementations,
// merge-on-conflict upsert semantics, and read-time enforcement of logical
// expiration independent of the store's deferred physical removal.
package store
