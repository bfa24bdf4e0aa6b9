package sim

import (
	"math/rand"
	"testing"
)

// fixedCycle returns a CycleConfig whose loading duration is always loading.
func fixedCycle(loading int64) CycleConfig {
	return CycleConfig{
		LoadingMinTicks: loading,
		LoadingMaxTicks: loading,
		DriveTicks:      DefaultDriveTicks,
		UnloadTicks:     DefaultUnloadTicks,
	}
}

func newTestTruck(id string, cycle CycleConfig) *Truck {
	return NewTruck(id, cycle, rand.New(rand.NewSource(1)))
}

// waitingTruck returns a truck that has been WaitingForStation for wait ticks.
func waitingTruck(id string, wait int64) *Truck {
	t := newTestTruck(id, fixedCycle(DefaultLoadingMinTicks))
	t.state = TruckWaitingForStation
	t.stationArrival = 10
	t.clock = 10 + wait
	return t
}

// advanceTruck calls Advance n times.
func advanceTruck(t *Truck, n int64) {
	for i := int64(0); i < n; i++ {
		t.Advance()
	}
}

// advanceStation calls Advance n times.
func advanceStation(s *UnloadStation, n int64) {
	for i := int64(0); i < n; i++ {
		s.Advance()
	}
}

// fixedConfig is a small deterministic configuration: every truck loads for
// exactly loading ticks.
func fixedConfig(trucks, stations int, loading int64) Config {
	cfg := DefaultConfig()
	cfg.Trucks = trucks
	cfg.UnloadStations = stations
	cfg.CycleConfig = fixedCycle(loading)
	cfg.TickInterval = 0
	return cfg
}

func mustSimulator(t *testing.T, cfg Config) *Simulator {
	t.Helper()
	s, err := NewSimulator(cfg, nil)
	if err != nil {
		t.Fatalf("NewSimulator: %v", err)
	}
	return s
}
