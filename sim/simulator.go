// sim/simulator.go
package sim

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/haulsim/haulsim/sim/trace"
)

// TickObserver receives a snapshot after every tick. Observers run on the
// tick loop goroutine, between ticks, and must not retain entity pointers.
type TickObserver interface {
	ObserveTick(snap Snapshot)
}

// TickObserverFunc adapts a function to TickObserver.
type TickObserverFunc func(snap Snapshot)

// ObserveTick calls f(snap).
func (f TickObserverFunc) ObserveTick(snap Snapshot) { f(snap) }

// Simulator is the core object that holds simulation time, the entity arenas
// and the tick loop. It exclusively owns every Truck and UnloadStation.
type Simulator struct {
	Clock   int64
	Horizon int64
	Config  Config

	trucks    []*Truck
	stations  []*UnloadStation
	scheduler *Scheduler
	rng       *PartitionedRNG

	pacer     Pacer
	observers []TickObserver
	trace     *trace.SimulationTrace

	stopped  atomic.Bool
	released bool
	summary  *Summary
}

// NewSimulator validates cfg and creates cfg.Trucks trucks and
// cfg.UnloadStations stations with fixed ids (Truck_1.., UnloadStation_1..).
// Each truck draws its loading durations from its own subsystem of rng;
// a nil rng is derived from cfg.Seed.
func NewSimulator(cfg Config, rng *PartitionedRNG) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = NewPartitionedRNG(NewSimulationKey(cfg.Seed))
	}
	s := &Simulator{
		Horizon:  cfg.HorizonTicks(),
		Config:   cfg,
		rng:      rng,
		pacer:    NoPacer{},
		trucks:   make([]*Truck, 0, cfg.Trucks),
		stations: make([]*UnloadStation, 0, cfg.UnloadStations),
	}
	for i := 1; i <= cfg.UnloadStations; i++ {
		s.stations = append(s.stations, NewUnloadStation(fmt.Sprintf("UnloadStation_%d", i), cfg.UnloadTicks))
	}
	for i := 1; i <= cfg.Trucks; i++ {
		id := fmt.Sprintf("Truck_%d", i)
		s.trucks = append(s.trucks, NewTruck(id, cfg.CycleConfig, s.rng.ForSubsystem(SubsystemTruck(id))))
	}
	s.scheduler = NewScheduler(s.trucks, s.stations, cfg.Assignment)
	return s, nil
}

// SetPacer replaces the between-tick throttle. Nil restores NoPacer.
func (sim *Simulator) SetPacer(p Pacer) {
	if p == nil {
		p = NoPacer{}
	}
	sim.pacer = p
}

// AddObserver registers a per-tick observer.
func (sim *Simulator) AddObserver(o TickObserver) {
	sim.observers = append(sim.observers, o)
}

// EnableTrace starts recording scheduler decisions at the given level and
// returns the trace, or nil if the level records nothing.
func (sim *Simulator) EnableTrace(level trace.TraceLevel) *trace.SimulationTrace {
	if !level.Enabled() {
		sim.trace = nil
		sim.scheduler.SetTrace(nil)
		return nil
	}
	sim.trace = trace.NewSimulationTrace(trace.TraceConfig{Level: level})
	sim.scheduler.SetTrace(sim.trace)
	return sim.trace
}

// Trace returns the decision trace, nil if tracing is disabled.
func (sim *Simulator) Trace() *trace.SimulationTrace { return sim.trace }

// Step advances the simulation by exactly one tick: every truck, then every
// station, then the scheduler. Later phases observe the changes made by
// earlier phases in the same tick.
func (sim *Simulator) Step() {
	if sim.released {
		panic("Step: simulator resources already released")
	}
	sim.Clock++
	for _, t := range sim.trucks {
		t.Advance()
	}
	for _, st := range sim.stations {
		st.Advance()
	}
	sim.scheduler.Tick(sim.Clock)
	logrus.Debugf("[tick %07d] step complete", sim.Clock)

	if len(sim.observers) > 0 {
		snap := sim.Snapshot()
		for _, o := range sim.observers {
			o.ObserveTick(snap)
		}
	}
}

// Run steps until the horizon is reached, Stop is called or ctx is done.
// Stop and ctx are checked once per iteration, so the current tick always
// completes. On halt it computes the summary and releases the arenas.
func (sim *Simulator) Run(ctx context.Context) *Summary {
	logrus.Infof("[tick %07d] Simulation started: trucks=%d, stations=%d, horizon=%dticks",
		sim.Clock, len(sim.trucks), len(sim.stations), sim.Horizon)
	for !sim.stopped.Load() && sim.Clock < sim.Horizon {
		if ctx.Err() != nil {
			break
		}
		sim.Step()
		if err := sim.pacer.Pace(ctx); err != nil {
			break
		}
	}
	if sim.Clock < sim.Horizon {
		logrus.Infof("[tick %07d] Simulation stopped before horizon", sim.Clock)
	}
	summary := sim.Summary()
	sim.ReleaseResources()
	logrus.Infof("[tick %07d] Simulation ended", sim.Clock)
	return summary
}

// Stop asks Run to halt after the tick in progress. Safe to call from any
// goroutine, including a signal handler, and more than once.
func (sim *Simulator) Stop() {
	sim.stopped.Store(true)
}

// Stopped reports whether Stop has been called.
func (sim *Simulator) Stopped() bool {
	return sim.stopped.Load()
}

// Summary computes (once the arenas are released, returns the cached) run summary.
func (sim *Simulator) Summary() *Summary {
	if sim.released {
		return sim.summary
	}
	sim.summary = ComputeSummary(sim.Clock, sim.Horizon, sim.trucks, sim.stations, sim.scheduler.ServiceErrors())
	return sim.summary
}

// ReleaseResources stops the loop and drains both arenas. The last summary
// stays available. Idempotent.
func (sim *Simulator) ReleaseResources() {
	sim.Stop()
	if sim.released {
		return
	}
	if sim.summary == nil {
		sim.Summary()
	}
	for _, st := range sim.stations {
		st.ReleaseResources()
	}
	sim.scheduler.release()
	sim.trucks = nil
	sim.stations = nil
	sim.released = true
}

// Released reports whether ReleaseResources has run.
func (sim *Simulator) Released() bool { return sim.released }

// Snapshot returns read-only copies of every entity at the current tick.
func (sim *Simulator) Snapshot() Snapshot {
	snap := Snapshot{
		Tick:     sim.Clock,
		Trucks:   make([]TruckSnapshot, 0, len(sim.trucks)),
		Stations: make([]StationSnapshot, 0, len(sim.stations)),
	}
	for _, t := range sim.trucks {
		snap.Trucks = append(snap.Trucks, SnapshotTruck(t))
	}
	for _, st := range sim.stations {
		snap.Stations = append(snap.Stations, SnapshotStation(st))
	}
	return snap
}

// Trucks returns the truck arena in creation order.
// Callers outside the tick loop may read but MUST NOT mutate the trucks.
func (sim *Simulator) Trucks() []*Truck { return sim.trucks }

// Stations returns the station arena in creation order.
// Callers outside the tick loop may read but MUST NOT mutate the stations.
func (sim *Simulator) Stations() []*UnloadStation { return sim.stations }

// Scheduler returns the simulator's scheduler.
func (sim *Simulator) Scheduler() *Scheduler { return sim.scheduler }

// Truck looks a truck up by id.
func (sim *Simulator) Truck(id string) (*Truck, bool) {
	i, ok := sim.scheduler.truckIdx[id]
	if !ok {
		return nil, false
	}
	return sim.trucks[i], true
}

// Station looks a station up by id.
func (sim *Simulator) Station(id string) (*UnloadStation, bool) {
	i, ok := sim.scheduler.stationIdx[id]
	if !ok {
		return nil, false
	}
	return sim.stations[i], true
}
