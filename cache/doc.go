// Package cache provides the in-memory read-through layer in front of the
// durable entry store.
//
// It memoizes fetches per tokenized id so concurrent misses coalesce into a
// single store lookup, bounds residency by entry count and wall-clock age,
// and enforces logical freshness with an atomic compare-and-remove retry.
package cache
