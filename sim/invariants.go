package sim

import (
	"errors"
	"fmt"
)

// ErrInvariantViolated wraps every failure reported by CheckInvariants.
var ErrInvariantViolated = errors.New("invariant violated")

// CheckInvariants verifies the cross-entity invariants that must hold between
// ticks:
//   - a waiting truck has no station; an unloading truck has one
//   - every queued truck is unloading and bound to that station
//   - at most one started, unreleased entry per station queue
//   - unloads counted by stations = deliveries counted by trucks plus trucks
//     released but not yet finalized (UnloadingDone)
//
// All violations are joined into one error; nil means the state is consistent.
func (sim *Simulator) CheckInvariants() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("tick %d: %w: %s", sim.Clock, ErrInvariantViolated, fmt.Sprintf(format, args...)))
	}

	deliveries, pending := 0, 0
	for _, t := range sim.trucks {
		switch t.State() {
		case TruckWaitingForStation:
			if t.HasStation() {
				fail("%s waiting with station %s", t.ID(), t.StationID())
			}
		case TruckUnloading:
			if !t.HasStation() {
				fail("%s unloading without a station", t.ID())
			}
		case TruckUnloadingDone:
			pending++
		}
		deliveries += t.Deliveries()
	}

	unloads := 0
	for _, st := range sim.stations {
		started := 0
		for _, e := range st.waiting.Items() {
			if e.Started() {
				started++
			}
			t, ok := sim.Truck(e.TruckID)
			switch {
			case !ok:
				fail("%s queues unknown truck %s", st.ID(), e.TruckID)
			case t.State() != TruckUnloading || t.StationID() != st.ID():
				fail("%s queues %s in state %s bound to %q", st.ID(), t.ID(), t.State(), t.StationID())
			}
		}
		if started > 1 {
			fail("%s has %d started entries", st.ID(), started)
		}
		unloads += st.Completed()
	}

	if unloads != deliveries+pending {
		fail("stations completed %d unloads, trucks delivered %d with %d pending", unloads, deliveries, pending)
	}
	return errors.Join(errs...)
}
