// Package testutil provides shared test infrastructure for the haul simulator.
// It holds the golden dataset types and assertion helpers used across sim/
// test packages.
package testutil

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

// GoldenDataset represents the structure of testdata/goldendataset.json.
type GoldenDataset struct {
	Tests []GoldenTestCase `json:"tests"`
}

// GoldenTestCase is one fully deterministic run: the loading range is
// degenerate (min == max), so expected values can be derived by hand from
// the cycle timeline.
type GoldenTestCase struct {
	Name            string        `json:"name"`
	Trucks          int           `json:"trucks"`
	UnloadStations  int           `json:"unload_stations"`
	SimulationHours int64         `json:"simulation_hours"`
	LoadingMin      int64         `json:"loading_min_minutes"`
	LoadingMax      int64         `json:"loading_max_minutes"`
	Drive           int64         `json:"drive_minutes"`
	Unload          int64         `json:"unload_minutes"`
	Seed            int64         `json:"seed"`
	Assignment      string        `json:"assignment"`
	Metrics         GoldenMetrics `json:"metrics"`
}

// GoldenMetrics represents the expected summary of a golden test case.
type GoldenMetrics struct {
	TotalDeliveries      int              `json:"total_deliveries"`
	TotalUnloads         int              `json:"total_unloads"`
	AverageDeliveryTicks float64          `json:"average_delivery_ticks"`
	TruckDeliveries      map[string]int   `json:"truck_deliveries"`
	TruckWaitTicks       map[string]int64 `json:"truck_wait_ticks"`
	StationUnloads       map[string]int   `json:"station_unloads"`
}

// LoadGoldenDataset loads the golden dataset from the testdata directory.
// The path is resolved relative to this source file: sim/internal/testutil/ → testdata/.
func LoadGoldenDataset(t *testing.T) *GoldenDataset {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get current file path")
	}
	// Navigate from sim/internal/testutil/ to repo root testdata/
	path := filepath.Join(filepath.Dir(thisFile), "..", "..", "..", "testdata", "goldendataset.json")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read golden dataset: %v", err)
	}

	var dataset GoldenDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		t.Fatalf("Failed to parse golden dataset: %v", err)
	}

	return &dataset
}

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}
