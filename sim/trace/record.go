// Package trace provides decision-trace recording for scheduler analysis.
// This package has no dependencies on sim/ — it stores pure data types.
package trace

// AssignmentRecord captures one truck-to-station binding.
type AssignmentRecord struct {
	TruckID     string
	StationID   string
	Clock       int64
	WaitTicks   int64 // truck's waiting time when it was bound
	StationLoad int64 // station's total wait time before the binding
	QueueDepth  int   // station's queue length before the binding
	Wrapped     bool  // bound after the station cursor wrapped within the tick
}

// ReleaseRecord captures one truck released from a station after unloading.
type ReleaseRecord struct {
	TruckID   string
	StationID string
	Clock     int64
}
