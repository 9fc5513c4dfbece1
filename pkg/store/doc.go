// Package store persists snapshots as JSON documents, one file per
// snapshot, named snapshot_<id>.json inside a process-owned directory.
//
// Documents group entries into one list per record kind. Each element
// carries a "seq" field with its capture index so that loading rebuilds
// capture order; documents without seq load in kind order. Unknown fields
// are ignored and a missing optional field means "not captured".
//
// Persisted documents are never rewritten. Listing tolerates unreadable
// or corrupt files; loading one is an error.
package store
