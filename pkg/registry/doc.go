// Package registry provides a small generic, thread-safe table keyed by a
// string-like discriminator. Snapback uses it to dispatch change records
// to the adapter for their kind.
//
// It is unrelated to the Windows registry; see package winreg for that.
package registry
