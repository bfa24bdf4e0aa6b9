// Defines the Truck entity: a haul truck cycling through
// load -> drive -> wait -> unload -> deliver, one transition per tick.

package sim

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"
)

// TruckState represents the phase of a truck's haul cycle.
type TruckState string

const (
	TruckIdle              TruckState = "IDLE"
	TruckLoading           TruckState = "LOADING"
	TruckDriving           TruckState = "DRIVING"
	TruckWaitingForStation TruckState = "WAITING_FOR_UNLOAD_STATION"
	TruckUnloading         TruckState = "UNLOADING"
	TruckUnloadingDone     TruckState = "UNLOADING_DONE"
)

// WaitRecord is one completed delivery: the station used and the ticks between
// arriving at the stations and finishing the delivery.
type WaitRecord struct {
	StationID string
	WaitTicks int64
}

// Truck models one truck of the fleet.
//
// All timers are expressed on the truck's own clock, which advances with the
// global tick and is reset to zero when a new cycle starts from Idle.
type Truck struct {
	id    string
	state TruckState
	clock int64

	cycle CycleConfig
	rng   *rand.Rand // loading duration source

	stationID      string // bound unload station; empty until assigned
	loadingTicks   int64  // drawn at the start of every cycle
	loadingStart   int64
	drivingStart   int64
	stationArrival int64
	unloadingStart int64

	deliveries    int
	waitHistory   []WaitRecord
	serviceErrors int
}

// NewTruck creates an idle truck. rng supplies the per-cycle loading duration
// and must not be nil.
func NewTruck(id string, cycle CycleConfig, rng *rand.Rand) *Truck {
	if rng == nil {
		panic("NewTruck: rng must not be nil")
	}
	return &Truck{
		id:    id,
		state: TruckIdle,
		cycle: cycle,
		rng:   rng,
	}
}

// ID returns the truck's immutable identifier.
func (t *Truck) ID() string { return t.id }

// State returns the current phase.
func (t *Truck) State() TruckState { return t.state }

// Clock returns the truck's local clock.
func (t *Truck) Clock() int64 { return t.clock }

// Advance executes one tick of the truck state machine.
func (t *Truck) Advance() {
	t.clock++
	switch t.state {
	case TruckIdle:
		t.startLoading()
	case TruckLoading:
		if t.clock-t.loadingStart >= t.loadingTicks {
			t.drivingStart = t.clock
			t.state = TruckDriving
		}
	case TruckDriving:
		if t.clock-t.drivingStart >= t.cycle.DriveTicks {
			t.stationArrival = t.clock
			t.state = TruckWaitingForStation
		}
	case TruckWaitingForStation, TruckUnloading:
		// passive: the scheduler moves the truck out of these states
	case TruckUnloadingDone:
		t.finalizeDelivery()
	default:
		t.serviceErrors++
		logrus.Warnf("[truck %s] %v: %q", t.id, ErrUnknownState, t.state)
	}
}

// startLoading begins a new cycle on the same tick idle is observed.
func (t *Truck) startLoading() {
	t.clock = 0
	t.resetCycle()
	t.loadingTicks = drawInclusive(t.rng, t.cycle.LoadingMinTicks, t.cycle.LoadingMaxTicks)
	t.state = TruckLoading
}

func (t *Truck) finalizeDelivery() {
	t.deliveries++
	t.waitHistory = append(t.waitHistory, WaitRecord{
		StationID: t.stationID,
		WaitTicks: t.clock - t.stationArrival,
	})
	t.resetCycle()
	t.state = TruckIdle
}

func (t *Truck) resetCycle() {
	t.stationID = ""
	t.loadingTicks = 0
	t.loadingStart = 0
	t.drivingStart = 0
	t.stationArrival = 0
	t.unloadingStart = 0
}

// AssignStation binds the truck to a station and starts unloading.
// Only valid while WaitingForStation with no station bound.
func (t *Truck) AssignStation(stationID string) error {
	if stationID == "" || t.state != TruckWaitingForStation || t.HasStation() {
		t.serviceErrors++
		err := fmt.Errorf("truck %s: assign station %q in state %s: %w", t.id, stationID, t.state, ErrInvalidTransition)
		logrus.Warn(err)
		return err
	}
	t.stationID = stationID
	t.unloadingStart = t.clock
	t.state = TruckUnloading
	return nil
}

// MarkUnloadingDone is called once the truck's station reports completion.
// Calling it in any state other than Unloading is counted and has no effect.
func (t *Truck) MarkUnloadingDone() error {
	if t.state != TruckUnloading {
		t.serviceErrors++
		err := fmt.Errorf("truck %s: unloading done in state %s: %w", t.id, t.state, ErrInvalidTransition)
		logrus.Warn(err)
		return err
	}
	t.state = TruckUnloadingDone
	return nil
}

// LoadingTicks returns the loading duration drawn for the current cycle.
func (t *Truck) LoadingTicks() int64 { return t.loadingTicks }

// LoadingTimeLeft returns the remaining loading ticks, or 0 outside Loading.
func (t *Truck) LoadingTimeLeft() int64 {
	if t.state != TruckLoading {
		return 0
	}
	return t.loadingStart + t.loadingTicks - t.clock
}

// DrivingTimeLeft returns the remaining driving ticks, or 0 outside Driving.
func (t *Truck) DrivingTimeLeft() int64 {
	if t.state != TruckDriving {
		return 0
	}
	return t.drivingStart + t.cycle.DriveTicks - t.clock
}

// WaitingTime returns how long the truck has been waiting for a station,
// or 0 outside WaitingForStation.
func (t *Truck) WaitingTime() int64 {
	if t.state != TruckWaitingForStation {
		return 0
	}
	return t.clock - t.stationArrival
}

// UnloadingTimeLeft estimates the remaining unloading ticks from the moment
// the truck was bound, or 0 outside Unloading. The station's own timer is
// authoritative; a truck queued behind another reports 0 once the estimate
// runs out.
func (t *Truck) UnloadingTimeLeft() int64 {
	if t.state != TruckUnloading {
		return 0
	}
	return max(t.unloadingStart+t.cycle.UnloadTicks-t.clock, 0)
}

// HasStation reports whether a station is bound.
func (t *Truck) HasStation() bool { return t.stationID != "" }

// StationID returns the bound station id, empty if none.
func (t *Truck) StationID() string { return t.stationID }

// Deliveries returns the lifetime completed-delivery count.
func (t *Truck) Deliveries() int { return t.deliveries }

// WaitHistory returns a copy of the per-delivery wait records.
func (t *Truck) WaitHistory() []WaitRecord {
	out := make([]WaitRecord, len(t.waitHistory))
	copy(out, t.waitHistory)
	return out
}

// TotalWaitTime sums the wait ticks over all completed deliveries.
func (t *Truck) TotalWaitTime() int64 {
	var total int64
	for _, w := range t.waitHistory {
		total += w.WaitTicks
	}
	return total
}

// ServiceErrors returns the number of rejected or invalid operations.
func (t *Truck) ServiceErrors() int { return t.serviceErrors }

func (t *Truck) String() string {
	return fmt.Sprintf("Truck: (ID: %s, State: %s, Station: %s, Deliveries: %d)", t.id, t.state, t.stationID, t.deliveries)
}
