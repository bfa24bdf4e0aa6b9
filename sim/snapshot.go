package sim

// TruckSnapshot is a read-only view of one truck between ticks.
// Metric carries the state-specific figure: loading or driving time left,
// waiting time, or unloading time left. It is zero in Idle and UnloadingDone.
type TruckSnapshot struct {
	ID           string     `json:"id"`
	State        TruckState `json:"state"`
	Metric       int64      `json:"metric"`
	LoadingTicks int64      `json:"loading_ticks,omitempty"`
	StationID    string     `json:"station_id,omitempty"`
	Deliveries   int        `json:"deliveries"`
}

// StationSnapshot is a read-only view of one unload station between ticks.
type StationSnapshot struct {
	ID                string       `json:"id"`
	State             StationState `json:"state"`
	ActiveTruck       string       `json:"active_truck,omitempty"`
	UnloadingTimeLeft int64        `json:"unloading_time_left"`
	QueueLength       int          `json:"queue_length"`
	TotalWaitTime     int64        `json:"total_wait_time"`
	Completed         int          `json:"completed"`
}

// Snapshot captures every entity at the end of a tick.
// Values are copies: later ticks never change a Snapshot already taken.
type Snapshot struct {
	Tick     int64             `json:"tick"`
	Trucks   []TruckSnapshot   `json:"trucks"`
	Stations []StationSnapshot `json:"stations"`
}

// SnapshotTruck builds the view of a single truck.
func SnapshotTruck(t *Truck) TruckSnapshot {
	snap := TruckSnapshot{
		ID:         t.ID(),
		State:      t.State(),
		StationID:  t.StationID(),
		Deliveries: t.Deliveries(),
	}
	switch t.State() {
	case TruckLoading:
		snap.Metric = t.LoadingTimeLeft()
		snap.LoadingTicks = t.LoadingTicks()
	case TruckDriving:
		snap.Metric = t.DrivingTimeLeft()
	case TruckWaitingForStation:
		snap.Metric = t.WaitingTime()
	case TruckUnloading:
		snap.Metric = t.UnloadingTimeLeft()
	}
	return snap
}

// SnapshotStation builds the view of a single station.
func SnapshotStation(s *UnloadStation) StationSnapshot {
	return StationSnapshot{
		ID:                s.ID(),
		State:             s.State(),
		ActiveTruck:       s.ActiveTruck(),
		UnloadingTimeLeft: s.UnloadingTimeLeft(),
		QueueLength:       s.QueueLength(),
		TotalWaitTime:     s.TotalWaitTime(),
		Completed:         s.Completed(),
	}
}
