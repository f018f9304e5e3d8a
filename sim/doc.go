// Package sim provides the core time-stepped simulation engine for the
// waste-collection logistics simulator.
//
// # Reading Guide
//
// Start with these three files to understand the simulation kernel:
//   - simulator.go: the orchestrator owning all state and the per-minute tick
//   - smallvehicle.go / largevehicle.go: the two vehicle state machines
//   - station.go: the transfer-station queue and unload protocol
//
// # Architecture
//
// One tick is one simulated minute. Each tick runs, in order: day handling
// (completion predicate and rollover), the dispatcher (every 10 minutes),
// small vehicle updates, station queue processing, haul vehicle updates,
// and periodic statistics snapshots. Updates happen in a fixed,
// deterministic order; all randomness (waste generation, travel jitter,
// plates) flows through a per-subsystem PartitionedRNG seeded from one
// master seed, so runs are reproducible.
//
// The Runner paces ticks against wall-clock time and carries the
// start/pause/resume/stop control surface; RunDays ticks as fast as
// possible for batch runs and tests.
package sim
