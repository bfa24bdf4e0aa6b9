// Package sim provides the discrete-event engine of the mine-haul simulator.
//
// # Reading Guide
//
// Start with these files to understand the simulation kernel:
//   - truck.go: Truck lifecycle (idle → loading → driving → waiting → unloading → done)
//   - station.go: UnloadStation lifecycle and its arrival-ordered wait queue
//   - scheduler.go: the per-tick completion harvest and assignment passes
//   - simulator.go: the tick loop, stop flag, observers and summary
//
// # Time
//
// One tick is one simulated minute. Every tick the Simulator advances all
// trucks, then all stations, then runs the Scheduler; later phases observe the
// changes made by earlier phases in the same tick. State is only read between
// ticks, through Snapshot, or at the end of a run, through Summary.
//
// # Ownership
//
// The Simulator owns both entity arenas. The Scheduler holds id-indexed views
// of them and is the only code that binds a truck to a station or releases it.
// Trucks and stations never reference each other directly.
//
// # Sub-packages
//   - sim/trace/: scheduler decision recording
//   - sim/report/: text reports in the mine log format
//   - sim/store/: run history persistence (SQLite or PostgreSQL)
//   - sim/stream/: live snapshot streaming over websockets
package sim
