// Defines the UnloadStation entity: a single-bay station that unloads the
// trucks queued at it one at a time, oldest arrival first.

package sim

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// StationState represents the phase of an unload station.
type StationState string

const (
	StationIdle          StationState = "IDLE"
	StationUnloading     StationState = "UNLOADING"
	StationUnloadingDone StationState = "UNLOADING_DONE"
)

// UnloadStation models one unload station.
//
// The head of the waiting queue, once started, is the truck occupying the
// bay. At most one entry is started and unreleased at any tick.
type UnloadStation struct {
	id    string
	state StationState
	clock int64

	unloadTicks int64
	waiting     WaitQueue

	completed     int
	serviceErrors int
}

// NewUnloadStation creates an idle station with an empty queue.
func NewUnloadStation(id string, unloadTicks int64) *UnloadStation {
	return &UnloadStation{
		id:          id,
		state:       StationIdle,
		unloadTicks: unloadTicks,
	}
}

// ID returns the station's immutable identifier.
func (s *UnloadStation) ID() string { return s.id }

// State returns the current phase.
func (s *UnloadStation) State() StationState { return s.state }

// Clock returns the station's local clock.
func (s *UnloadStation) Clock() int64 { return s.clock }

// Advance executes one tick of the station state machine.
func (s *UnloadStation) Advance() {
	s.clock++
	switch s.state {
	case StationIdle:
		if s.startUnloading() {
			s.state = StationUnloading
		}
	case StationUnloading:
		if s.checkUnloadingDone() {
			s.state = StationUnloadingDone
			s.completed++
		}
	case StationUnloadingDone:
		// passive: the scheduler releases the truck
	default:
		s.serviceErrors++
		logrus.Warnf("[station %s] %v: %q", s.id, ErrUnknownState, s.state)
	}
}

// startUnloading dispatches the oldest queued truck. Returns false if the
// queue is empty.
func (s *UnloadStation) startUnloading() bool {
	if s.waiting.Len() == 0 {
		return false
	}
	s.waiting.SortByArrival()
	s.waiting.Peek().StartTick = s.clock
	return true
}

// checkUnloadingDone flags the head as done once the unload time has elapsed.
// Flagging is idempotent.
func (s *UnloadStation) checkUnloadingDone() bool {
	head := s.waiting.Peek()
	if head == nil {
		return false
	}
	if s.clock-head.StartTick >= s.unloadTicks {
		head.Done = true
	}
	return head.Done
}

// AddTruck queues a truck with arrival = current tick.
// A truck id already present anywhere in the queue is rejected.
func (s *UnloadStation) AddTruck(truckID string) error {
	if s.waiting.Contains(truckID) {
		s.serviceErrors++
		err := fmt.Errorf("station %s: add %s: %w", s.id, truckID, ErrDuplicateTruck)
		logrus.Warn(err)
		return err
	}
	s.waiting.Enqueue(&QueueEntry{TruckID: truckID, ArrivalTick: s.clock})
	return nil
}

// ReleaseTruck pops the completed head and returns its truck id, resetting
// the station to Idle. If the queue is empty or the head is not done, it
// returns an empty id and ErrNothingToRelease without popping.
func (s *UnloadStation) ReleaseTruck() (string, error) {
	head := s.waiting.Peek()
	if head == nil || !head.Done {
		s.serviceErrors++
		err := fmt.Errorf("station %s: release with queue %s: %w", s.id, s.waiting.String(), ErrNothingToRelease)
		logrus.Warn(err)
		return "", err
	}
	s.waiting.DequeueFront()
	s.state = StationIdle
	return head.TruckID, nil
}

// TotalWaitTime estimates the ticks of unloading still owed to queued trucks:
// the full unload time for each unstarted entry plus the positive remainder of
// the started one. It is a ranking signal for the scheduler, not a timer.
func (s *UnloadStation) TotalWaitTime() int64 {
	var total int64
	for _, e := range s.waiting.Items() {
		switch {
		case e.Done:
		case e.Started():
			if left := e.StartTick + s.unloadTicks - s.clock; left > 0 {
				total += left
			}
		default:
			total += s.unloadTicks
		}
	}
	return total
}

// UnloadingTimeLeft returns the remaining ticks for the truck in the bay,
// or 0 when the station is not unloading.
func (s *UnloadStation) UnloadingTimeLeft() int64 {
	head := s.waiting.Peek()
	if head == nil || s.state != StationUnloading {
		return 0
	}
	return max(head.StartTick+s.unloadTicks-s.clock, 0)
}

// ActiveTruck returns the id of the truck occupying the bay, empty if none.
func (s *UnloadStation) ActiveTruck() string {
	head := s.waiting.Peek()
	if head == nil || !head.Started() {
		return ""
	}
	return head.TruckID
}

// QueueLength returns the number of trucks queued, including the one in the bay.
func (s *UnloadStation) QueueLength() int { return s.waiting.Len() }

// Queue returns a copy of the waiting queue in its current order.
func (s *UnloadStation) Queue() []QueueEntry {
	out := make([]QueueEntry, 0, s.waiting.Len())
	for _, e := range s.waiting.Items() {
		out = append(out, *e)
	}
	return out
}

// UnloadTicks returns the fixed unload duration.
func (s *UnloadStation) UnloadTicks() int64 { return s.unloadTicks }

// Completed returns the lifetime completed-unload count.
func (s *UnloadStation) Completed() int { return s.completed }

// ServiceErrors returns the number of rejected or invalid operations.
func (s *UnloadStation) ServiceErrors() int { return s.serviceErrors }

// ReleaseResources drops the waiting queue.
func (s *UnloadStation) ReleaseResources() {
	s.waiting.Clear()
}

func (s *UnloadStation) String() string {
	return fmt.Sprintf("UnloadStation: (ID: %s, State: %s, Queue: %s, Completed: %d)", s.id, s.state, s.waiting.String(), s.completed)
}
