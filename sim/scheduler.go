package sim

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/haulsim/haulsim/sim/trace"
)

// Assignment policy names.
const (
	// AssignmentSinglePass walks the station list once per tick: every station
	// receives at most one truck per tick and waiting trucks beyond the last
	// station wait for the next tick.
	AssignmentSinglePass = "single-pass"

	// AssignmentWrap re-sorts the stations and restarts the cursor when it runs
	// off the end of the station list, so a station can receive several trucks
	// in one tick.
	AssignmentWrap = "wrap"
)

var validAssignmentPolicies = map[string]bool{
	"":                   true, // empty defaults to single-pass
	AssignmentSinglePass: true,
	AssignmentWrap:       true,
}

// IsValidAssignmentPolicy returns true if name is a recognized assignment policy.
func IsValidAssignmentPolicy(name string) bool {
	return validAssignmentPolicies[name]
}

// Scheduler matches waiting trucks to unload stations once per tick.
//
// It holds non-owning, id-indexed views of the arenas owned by the Simulator
// and is the only writer of the truck<->station binding. Ordering is kept in
// index slices so the arenas themselves are never reordered.
//
// Both sorts are stable: trucks with equal waiting time and stations with
// equal load keep their relative order from the previous tick (creation
// order on the first tick).
type Scheduler struct {
	trucks     []*Truck
	stations   []*UnloadStation
	truckIdx   map[string]int
	stationIdx map[string]int

	truckOrder   []int
	stationOrder []int

	wrap  bool
	now   int64
	trace *trace.SimulationTrace

	serviceErrors int
}

// NewScheduler creates a Scheduler over the given arenas.
// Panics on an unrecognized assignment policy name.
func NewScheduler(trucks []*Truck, stations []*UnloadStation, policy string) *Scheduler {
	if !IsValidAssignmentPolicy(policy) {
		panic(fmt.Sprintf("unknown assignment policy %q", policy))
	}
	s := &Scheduler{
		trucks:       trucks,
		stations:     stations,
		truckIdx:     make(map[string]int, len(trucks)),
		stationIdx:   make(map[string]int, len(stations)),
		truckOrder:   make([]int, len(trucks)),
		stationOrder: make([]int, len(stations)),
		wrap:         policy == AssignmentWrap,
	}
	for i, t := range trucks {
		s.truckIdx[t.ID()] = i
		s.truckOrder[i] = i
	}
	for i, st := range stations {
		s.stationIdx[st.ID()] = i
		s.stationOrder[i] = i
	}
	return s
}

// SetTrace enables decision recording. A nil trace disables it.
func (s *Scheduler) SetTrace(st *trace.SimulationTrace) {
	s.trace = st
}

// ServiceErrors returns the scheduler's lifetime error count.
func (s *Scheduler) ServiceErrors() int { return s.serviceErrors }

// Tick runs the completion harvest followed by the assignment pass.
// It is a no-op when either arena is empty.
func (s *Scheduler) Tick(now int64) {
	if len(s.trucks) == 0 || len(s.stations) == 0 {
		return
	}
	s.now = now
	s.harvestCompletions()
	s.assignWaitingTrucks()
}

// harvestCompletions releases every finished truck from its station and
// marks it unloading-done.
func (s *Scheduler) harvestCompletions() {
	for _, st := range s.stations {
		if st.State() != StationUnloadingDone {
			continue
		}
		truckID, err := st.ReleaseTruck()
		if err != nil {
			s.serviceErrors++
			continue
		}
		i, ok := s.truckIdx[truckID]
		if !ok || !s.trucks[i].HasStation() {
			logrus.Debugf("[tick %07d] release of %s from %s skipped", s.now, truckID, st.ID())
			continue
		}
		if err := s.trucks[i].MarkUnloadingDone(); err != nil {
			s.serviceErrors++
			continue
		}
		if s.trace != nil {
			s.trace.RecordRelease(trace.ReleaseRecord{
				TruckID:   truckID,
				StationID: st.ID(),
				Clock:     s.now,
			})
		}
	}
}

// assignWaitingTrucks binds waiting trucks, longest-waiting first, to
// stations, least-loaded first.
func (s *Scheduler) assignWaitingTrucks() {
	s.sortStations()
	s.sortTrucks()

	cursor := 0
	wrapped := false
	for _, ti := range s.truckOrder {
		if cursor == len(s.stationOrder) {
			if !s.wrap {
				break
			}
			s.sortStations()
			cursor = 0
			wrapped = true
		}
		t := s.trucks[ti]
		if t.State() != TruckWaitingForStation || t.HasStation() {
			continue
		}
		st := s.stations[s.stationOrder[cursor]]
		record := trace.AssignmentRecord{
			TruckID:     t.ID(),
			StationID:   st.ID(),
			Clock:       s.now,
			WaitTicks:   t.WaitingTime(),
			StationLoad: st.TotalWaitTime(),
			QueueDepth:  st.QueueLength(),
			Wrapped:     wrapped,
		}
		if err := s.BindStationToTruck(st.ID(), t.ID()); err != nil {
			s.serviceErrors++
			continue
		}
		if s.trace != nil {
			s.trace.RecordAssignment(record)
		}
		cursor++
	}
}

// BindStationToTruck queues the truck at the station and binds the station to
// the truck. The truck must be WaitingForStation with no station bound.
// On error neither entity is modified.
func (s *Scheduler) BindStationToTruck(stationID, truckID string) error {
	ti, ok := s.truckIdx[truckID]
	if !ok {
		return fmt.Errorf("bind %s to %s: truck: %w", stationID, truckID, ErrUnknownEntity)
	}
	si, ok := s.stationIdx[stationID]
	if !ok {
		return fmt.Errorf("bind %s to %s: station: %w", stationID, truckID, ErrUnknownEntity)
	}
	t, st := s.trucks[ti], s.stations[si]
	if t.State() != TruckWaitingForStation || t.HasStation() {
		return fmt.Errorf("bind %s to %s in state %s: %w", stationID, truckID, t.State(), ErrInvalidTransition)
	}
	if err := st.AddTruck(truckID); err != nil {
		return err
	}
	if err := t.AssignStation(stationID); err != nil {
		return err
	}
	logrus.Debugf("[tick %07d] bound %s -> %s (queue %d)", s.now, truckID, stationID, st.QueueLength())
	return nil
}

// sortStations orders stations by ascending TotalWaitTime.
func (s *Scheduler) sortStations() {
	load := make([]int64, len(s.stations))
	for i, st := range s.stations {
		load[i] = st.TotalWaitTime()
	}
	sort.SliceStable(s.stationOrder, func(i, j int) bool {
		return load[s.stationOrder[i]] < load[s.stationOrder[j]]
	})
}

// sortTrucks orders trucks by descending WaitingTime.
func (s *Scheduler) sortTrucks() {
	wait := make([]int64, len(s.trucks))
	for i, t := range s.trucks {
		wait[i] = t.WaitingTime()
	}
	sort.SliceStable(s.truckOrder, func(i, j int) bool {
		return wait[s.truckOrder[i]] > wait[s.truckOrder[j]]
	})
}

// StationOrder returns the station ids in the order of the last sort.
func (s *Scheduler) StationOrder() []string {
	ids := make([]string, len(s.stationOrder))
	for i, si := range s.stationOrder {
		ids[i] = s.stations[si].ID()
	}
	return ids
}

// release drops the scheduler's views of the arenas.
func (s *Scheduler) release() {
	s.trucks, s.stations = nil, nil
	s.truckOrder, s.stationOrder = nil, nil
	s.truckIdx, s.stationIdx = map[string]int{}, map[string]int{}
}
