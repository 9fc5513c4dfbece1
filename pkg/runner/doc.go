// Package runner executes external commands on behalf of the resource
// adapters (sc.exe, powercfg, netsh, PowerShell).
//
// Every call is bounded by a timeout. A timed-out command surfaces as an
// error coded TIMEOUT; a command that ran but exited non-zero is not an
// error, callers inspect Result.ExitCode.
package runner
