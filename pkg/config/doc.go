// Package config loads snapback's layered configuration.
//
// Layers are applied in order, each overriding the previous one:
//
//  1. built-in defaults (embedded/defaults.toml)
//  2. the user's snapback.toml, when present
//  3. SNAPBACK_<SECTION>_<KEY> environment variables
//
// For example SNAPBACK_RUNNER_TIMEOUT=10s sets runner.timeout and
// SNAPBACK_NETWORK_SETTINGS=TcpAckFrequency,TCPNoDelay sets a list.
package config
