package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	sim "github.com/haulsim/haulsim/sim"
	"github.com/haulsim/haulsim/sim/trace"
)

const defaultEnvFile = ".env"

// errNoStore is returned when a command needs a store but none is configured.
var errNoStore = errors.New("no run store configured: set --db or " + envDB)

// Environment variables read after .env is loaded.
const (
	envTrucks          = "HAULSIM_TRUCKS"
	envUnloadStations  = "HAULSIM_UNLOAD_STATIONS"
	envSimulationHours = "HAULSIM_SIMULATION_HOURS"
	envSpeedUp         = "HAULSIM_SPEED_UP"
	envDB              = "HAULSIM_DB"
)

// RunOptions is everything the run command needs after every configuration
// layer has been applied.
type RunOptions struct {
	Sim             sim.Config
	ReportEvery     int64  // 0 disables per-tick reports
	TraceLevel      string // "" or "none" disables decision tracing
	CheckInvariants bool
	WSAddr          string // empty disables the websocket stream
	DB              string // empty disables run persistence
}

// DefaultRunOptions returns the options used when nothing is configured.
func DefaultRunOptions() RunOptions {
	return RunOptions{Sim: sim.DefaultConfig(), ReportEvery: 1}
}

// FileConfig is the YAML run configuration. Every key is optional; a missing
// key keeps the value from the previous layer.
// All keys must be listed to satisfy KnownFields(true) strict parsing.
type FileConfig struct {
	Trucks            *int    `yaml:"trucks"`
	UnloadStations    *int    `yaml:"unload_stations"`
	SimulationHours   *int64  `yaml:"simulation_hours"`
	SpeedUp           *int64  `yaml:"speed_up"`
	Seed              *int64  `yaml:"seed"`
	LoadingMinMinutes *int64  `yaml:"loading_min_minutes"`
	LoadingMaxMinutes *int64  `yaml:"loading_max_minutes"`
	DriveMinutes      *int64  `yaml:"drive_minutes"`
	UnloadMinutes     *int64  `yaml:"unload_minutes"`
	TickIntervalMs    *int64  `yaml:"tick_interval_ms"`
	ReportEvery       *int64  `yaml:"report_every"`
	Assignment        *string `yaml:"assignment"`
	DB                *string `yaml:"db"`
}

// loadFileConfig parses a YAML run configuration with strict field checking:
// typos must cause errors. An empty file is an empty configuration.
func loadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var fc FileConfig
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &fc, nil
}

func (fc *FileConfig) apply(o *RunOptions) {
	setIf(&o.Sim.Trucks, fc.Trucks)
	setIf(&o.Sim.UnloadStations, fc.UnloadStations)
	setIf(&o.Sim.SimulationHours, fc.SimulationHours)
	setIf(&o.Sim.SpeedUp, fc.SpeedUp)
	setIf(&o.Sim.Seed, fc.Seed)
	setIf(&o.Sim.LoadingMinTicks, fc.LoadingMinMinutes)
	setIf(&o.Sim.LoadingMaxTicks, fc.LoadingMaxMinutes)
	setIf(&o.Sim.DriveTicks, fc.DriveMinutes)
	setIf(&o.Sim.UnloadTicks, fc.UnloadMinutes)
	setIf(&o.ReportEvery, fc.ReportEvery)
	setIf(&o.Sim.Assignment, fc.Assignment)
	setIf(&o.DB, fc.DB)
	if fc.TickIntervalMs != nil {
		o.Sim.TickInterval = time.Duration(*fc.TickIntervalMs) * time.Millisecond
	}
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// loadDotEnv loads path into the process environment without overriding
// variables that are already set. A missing file is not an error.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays HAULSIM_* variables read through lookup.
func applyEnv(o *RunOptions, lookup func(string) (string, bool)) error {
	ints := []struct {
		name string
		dst  *int
	}{
		{envTrucks, &o.Sim.Trucks},
		{envUnloadStations, &o.Sim.UnloadStations},
	}
	for _, e := range ints {
		if v, ok := lookup(e.name); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s=%q: %w", e.name, v, err)
			}
			*e.dst = n
		}
	}
	int64s := []struct {
		name string
		dst  *int64
	}{
		{envSimulationHours, &o.Sim.SimulationHours},
		{envSpeedUp, &o.Sim.SpeedUp},
	}
	for _, e := range int64s {
		if v, ok := lookup(e.name); ok && v != "" {
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return fmt.Errorf("%s=%q: %w", e.name, v, err)
			}
			*e.dst = n
		}
	}
	if v, ok := lookup(envDB); ok && v != "" {
		o.DB = v
	}
	return nil
}

// addRunFlags registers the run flags on fs. Defaults mirror DefaultRunOptions
// so --help shows real values.
func addRunFlags(fs *pflag.FlagSet) {
	d := DefaultRunOptions()
	fs.String("config", "", "Path to a YAML run configuration")
	fs.String("env-file", defaultEnvFile, "Path to a .env file (missing file is ignored)")
	fs.String("log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	fs.Int("trucks", d.Sim.Trucks, "Number of mining trucks")
	fs.Int("unload-stations", d.Sim.UnloadStations, "Number of unload stations")
	fs.Int64("hours", d.Sim.SimulationHours, "Simulated mining run time in hours")
	fs.Int64("speed-up", d.Sim.SpeedUp, "Wall-clock speed-up factor (<= 1 means none)")
	fs.Int64("seed", d.Sim.Seed, "Seed for loading-time draws")
	fs.Int64("loading-min", d.Sim.LoadingMinTicks, "Minimum loading time in minutes")
	fs.Int64("loading-max", d.Sim.LoadingMaxTicks, "Maximum loading time in minutes")
	fs.Int64("drive", d.Sim.DriveTicks, "Drive time to the unload stations in minutes")
	fs.Int64("unload", d.Sim.UnloadTicks, "Unload time in minutes")
	fs.Int64("tick-interval-ms", d.Sim.TickInterval.Milliseconds(), "Wall-clock milliseconds per tick before speed-up (0 runs flat out)")
	fs.String("assignment", d.Sim.Assignment, "Assignment pass: single-pass or wrap")

	fs.Int64("report-every", d.ReportEvery, "Print a state report every N ticks (0 disables)")
	fs.String("trace", "", "Decision trace level: none or decisions")
	fs.Bool("check-invariants", false, "Check arena invariants after every tick and stop on violation")
	fs.String("ws-addr", "", "Serve live snapshots over websocket at this address, e.g. :8080")
	fs.String("db", "", "Persist the run to this SQLite path or postgres:// DSN")
}

// resolveRunOptions layers defaults < YAML < environment < explicitly set flags.
func resolveRunOptions(fs *pflag.FlagSet, lookup func(string) (string, bool)) (RunOptions, error) {
	o := DefaultRunOptions()

	if path, _ := fs.GetString("config"); path != "" {
		fc, err := loadFileConfig(path)
		if err != nil {
			return o, err
		}
		fc.apply(&o)
	}
	if err := applyEnv(&o, lookup); err != nil {
		return o, err
	}

	var err error
	flagInt := func(name string, dst *int) {
		if err == nil && fs.Changed(name) {
			*dst, err = fs.GetInt(name)
		}
	}
	flagInt64 := func(name string, dst *int64) {
		if err == nil && fs.Changed(name) {
			*dst, err = fs.GetInt64(name)
		}
	}
	flagString := func(name string, dst *string) {
		if err == nil && fs.Changed(name) {
			*dst, err = fs.GetString(name)
		}
	}
	flagInt("trucks", &o.Sim.Trucks)
	flagInt("unload-stations", &o.Sim.UnloadStations)
	flagInt64("hours", &o.Sim.SimulationHours)
	flagInt64("speed-up", &o.Sim.SpeedUp)
	flagInt64("seed", &o.Sim.Seed)
	flagInt64("loading-min", &o.Sim.LoadingMinTicks)
	flagInt64("loading-max", &o.Sim.LoadingMaxTicks)
	flagInt64("drive", &o.Sim.DriveTicks)
	flagInt64("unload", &o.Sim.UnloadTicks)
	flagString("assignment", &o.Sim.Assignment)
	flagInt64("report-every", &o.ReportEvery)
	flagString("db", &o.DB)
	if err == nil && fs.Changed("tick-interval-ms") {
		var ms int64
		ms, err = fs.GetInt64("tick-interval-ms")
		o.Sim.TickInterval = time.Duration(ms) * time.Millisecond
	}
	if err != nil {
		return o, err
	}

	// Stream and diagnostics options only come from flags.
	if o.TraceLevel, err = fs.GetString("trace"); err != nil {
		return o, err
	}
	if o.CheckInvariants, err = fs.GetBool("check-invariants"); err != nil {
		return o, err
	}
	if o.WSAddr, err = fs.GetString("ws-addr"); err != nil {
		return o, err
	}

	if !trace.IsValidTraceLevel(o.TraceLevel) {
		return o, fmt.Errorf("unknown trace level %q", o.TraceLevel)
	}
	if o.ReportEvery < 0 {
		return o, fmt.Errorf("report-every must be >= 0, got %d", o.ReportEvery)
	}
	return o, o.Sim.Validate()
}
