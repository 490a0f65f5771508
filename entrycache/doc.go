// Package entrycache is the public surface of the cache: it wires the
// identifier tokenizer, the durable entry store and the in-memory
// read-through layer into a single Coordinator.
package entrycache
