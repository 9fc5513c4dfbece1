// Package snapshot accumulates captured original state into a Snapshot.
//
// A Manager hands out at most one open Session at a time. Callers record
// each resource through the Session before mutating it, then Save the
// session to the store:
//
//	sess, err := mgr.StartSession("disable telemetry")
//	sess.RecordRegistry(ctx, adapters.RegistryID{...})
//	sess.RecordService(ctx, "DiagTrack")
//	// ... mutate ...
//	id, path, err := sess.Save(ctx)
//
// Recording after the mutation silently stores the mutated value as the
// "original"; the session cannot detect that.
//
// A resource that fails to capture is logged and left out of the
// snapshot. A capture that times out is recorded as not existing.
package snapshot
