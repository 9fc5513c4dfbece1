// Package winreg is the registry-like key/value store snapback captures
// from and restores to.
//
// KeyStore is the collaborator contract. NewSystem returns the Windows
// registry on Windows (golang.org/x/sys/windows/registry) and an
// unsupported store elsewhere; NewMemory is a case-insensitive in-memory
// store with the same semantics, used by tests and dry runs.
package winreg
