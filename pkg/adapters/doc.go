// Package adapters implements the per-kind capture/apply capabilities for
// every resource snapback can remember.
//
// Each adapter has the same two-sided contract:
//
//	Capture(ctx, id) (Captured, error)   read-only
//	Apply(ctx, id, Captured) error       Existed=false deletes/unsets
//
// A resource or container that does not exist is a normal Existed=false
// capture, never an error. Adapters also know how to turn a capture into
// the ChangeRecord variant for their kind (CaptureRecord) and how to apply
// a stored record back (ApplyRecord), which is what the restore engine
// dispatches on.
package adapters
