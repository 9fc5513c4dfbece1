// Package filesystem implements types.FS on top of afero, for the host
// filesystem and for in-memory use in tests.
package filesystem
