// Package types defines the data model shared across snapback: the value
// and state enums, the ChangeRecord tagged union, the Snapshot aggregate,
// and the filesystem interface the store and file adapter work against.
package types
