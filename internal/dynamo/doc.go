// Package dynamo provides the core value types shared by the store, the
// integrator and the scheduler.
//
// The package defines:
//
//   - [AgentState]: one body's position, velocity and mass at an instant
//   - [Snapshot]: a composite world state keyed by agent id
//   - [Merge]: the left-to-right union that folds partial snapshots together
//   - the sentinel errors every layer reports through
//
// # Example
//
//	parts, _ := store.Query(t - lookback)
//	world := dynamo.Merge(parts)
//	if world.Covers(order) {
//	    next, err := integ.Propagate(id, world)
//	}
//
// # Thread Safety
//
// Snapshots are plain maps. Values returned by [Merge] are freshly allocated
// and may be modified by the caller, but the snapshots held inside a store
// must be treated as read-only.
package dynamo
