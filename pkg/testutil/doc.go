// Package testutil provides a shared in-memory environment for snapback tests.
//
// An Environment wires the in-memory registry, the scripted command runner
// and an in-memory filesystem into an adapter set, a snapshot store and a
// session manager, so tests can capture and restore without touching the
// host.
package testutil
