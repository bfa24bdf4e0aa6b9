package sim

import (
	"fmt"
	"time"
)

// Default haul-cycle parameters, in ticks (one tick = one simulated minute).
const (
	DefaultLoadingMinTicks = 60  // 1 hour
	DefaultLoadingMaxTicks = 300 // 5 hours
	DefaultDriveTicks      = 30
	DefaultUnloadTicks     = 5
	DefaultSimulationHours = 72
	DefaultTickInterval    = 100 * time.Millisecond

	// TicksPerHour converts the configured horizon in hours to ticks.
	TicksPerHour = 60
)

// FleetConfig groups entity counts.
type FleetConfig struct {
	Trucks         int // number of trucks (must be >= 1)
	UnloadStations int // number of unload stations (must be >= 1)
}

// CycleConfig groups the fixed and randomized phase durations of a haul cycle.
type CycleConfig struct {
	LoadingMinTicks int64 // inclusive lower bound of the loading duration draw
	LoadingMaxTicks int64 // inclusive upper bound of the loading duration draw
	DriveTicks      int64 // fixed drive time from the loading site to the stations
	UnloadTicks     int64 // fixed unload time at a station
}

// Config is the explicit configuration value handed to NewSimulator.
// It replaces process-wide tunables: nothing in sim reads the environment.
type Config struct {
	FleetConfig
	CycleConfig

	SimulationHours int64 // horizon; converted to ticks by HorizonTicks
	SpeedUp         int64 // wall-clock speed-up factor; values <= 1 mean no speed-up
	Seed            int64 // master seed for the PartitionedRNG

	// TickInterval is the wall-clock pause between ticks before SpeedUp is applied.
	// Zero runs the loop without pausing.
	TickInterval time.Duration

	// Assignment selects the scheduler assignment-pass variant; see AssignmentSinglePass and AssignmentWrap.
	Assignment string
}

// DefaultConfig returns a Config with the reference mine parameters and a
// single truck and station.
func DefaultConfig() Config {
	return Config{
		FleetConfig: FleetConfig{Trucks: 1, UnloadStations: 1},
		CycleConfig: CycleConfig{
			LoadingMinTicks: DefaultLoadingMinTicks,
			LoadingMaxTicks: DefaultLoadingMaxTicks,
			DriveTicks:      DefaultDriveTicks,
			UnloadTicks:     DefaultUnloadTicks,
		},
		SimulationHours: DefaultSimulationHours,
		SpeedUp:         1,
		Seed:            42,
		TickInterval:    DefaultTickInterval,
		Assignment:      AssignmentSinglePass,
	}
}

// HorizonTicks returns the configured horizon in ticks.
func (c Config) HorizonTicks() int64 {
	return c.SimulationHours * TicksPerHour
}

// EffectiveTickInterval applies SpeedUp to TickInterval.
func (c Config) EffectiveTickInterval() time.Duration {
	if c.SpeedUp <= 1 {
		return c.TickInterval
	}
	return c.TickInterval / time.Duration(c.SpeedUp)
}

// Validate reports the first configuration error, wrapped in ErrInvalidConfig.
// A Config that fails validation must not be used to start a simulation.
func (c Config) Validate() error {
	switch {
	case c.Trucks < 1:
		return fmt.Errorf("%w: trucks must be >= 1, got %d", ErrInvalidConfig, c.Trucks)
	case c.UnloadStations < 1:
		return fmt.Errorf("%w: unload stations must be >= 1, got %d", ErrInvalidConfig, c.UnloadStations)
	case c.SimulationHours < 1:
		return fmt.Errorf("%w: simulation hours must be >= 1, got %d", ErrInvalidConfig, c.SimulationHours)
	case c.LoadingMinTicks < 0:
		return fmt.Errorf("%w: loading min must be >= 0, got %d", ErrInvalidConfig, c.LoadingMinTicks)
	case c.LoadingMaxTicks < c.LoadingMinTicks:
		return fmt.Errorf("%w: loading range [%d, %d] is empty", ErrInvalidConfig, c.LoadingMinTicks, c.LoadingMaxTicks)
	case c.DriveTicks < 0:
		return fmt.Errorf("%w: drive ticks must be >= 0, got %d", ErrInvalidConfig, c.DriveTicks)
	case c.UnloadTicks < 1:
		return fmt.Errorf("%w: unload ticks must be >= 1, got %d", ErrInvalidConfig, c.UnloadTicks)
	case c.TickInterval < 0:
		return fmt.Errorf("%w: tick interval must be >= 0, got %v", ErrInvalidConfig, c.TickInterval)
	case !IsValidAssignmentPolicy(c.Assignment):
		return fmt.Errorf("%w: unknown assignment policy %q", ErrInvalidConfig, c.Assignment)
	}
	return nil
}
