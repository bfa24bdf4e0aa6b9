// Computes the end-of-run summary: deliveries, average delivery time and
// per-truck wait totals, read from final entity state.

package sim

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Distribution captures statistical summary of a metric.
type Distribution struct {
	Mean  float64 `json:"mean"`
	P50   float64 `json:"p50"`
	P95   float64 `json:"p95"`
	P99   float64 `json:"p99"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// NewDistribution computes a Distribution from raw values.
// Returns zero-value Distribution for empty input.
func NewDistribution(values []float64) Distribution {
	if len(values) == 0 {
		return Distribution{}
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return Distribution{
		Mean:  stat.Mean(sorted, nil),
		P50:   stat.Quantile(0.50, stat.LinInterp, sorted, nil),
		P95:   stat.Quantile(0.95, stat.LinInterp, sorted, nil),
		P99:   stat.Quantile(0.99, stat.LinInterp, sorted, nil),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
		Count: len(sorted),
	}
}

// TruckSummary is the end-of-run view of one truck.
type TruckSummary struct {
	ID                   string `json:"id"`
	Deliveries           int    `json:"deliveries"`
	AverageDeliveryTicks int64  `json:"average_delivery_ticks"`
	TotalWaitTicks       int64  `json:"total_wait_ticks"`
	ServiceErrors        int    `json:"service_errors"`
}

// Summary aggregates a finished run.
type Summary struct {
	RunTicks     int64 `json:"run_ticks"` // ticks actually simulated
	HorizonTicks int64 `json:"horizon_ticks"`
	Trucks       int   `json:"trucks"`
	Stations     int   `json:"stations"`

	TotalDeliveries           int     `json:"total_deliveries"`
	TotalUnloads              int     `json:"total_unloads"`
	AverageDeliveriesPerTruck float64 `json:"average_deliveries_per_truck"`
	// AverageDeliveryTicks is RunTicks / TotalDeliveries: the mine-wide
	// interval between deliveries. Zero when nothing was delivered.
	AverageDeliveryTicks float64 `json:"average_delivery_ticks"`

	WaitDistribution Distribution   `json:"wait_distribution"` // per-delivery wait ticks
	PerTruck         []TruckSummary `json:"per_truck"`
	StationUnloads   map[string]int `json:"station_unloads"`
	ServiceErrors    int            `json:"service_errors"` // entities + scheduler
}

// ComputeSummary reads final entity state into a Summary. It does not mutate
// any entity.
func ComputeSummary(runTicks, horizonTicks int64, trucks []*Truck, stations []*UnloadStation, schedulerErrors int) *Summary {
	s := &Summary{
		RunTicks:       runTicks,
		HorizonTicks:   horizonTicks,
		Trucks:         len(trucks),
		Stations:       len(stations),
		PerTruck:       make([]TruckSummary, 0, len(trucks)),
		StationUnloads: make(map[string]int, len(stations)),
		ServiceErrors:  schedulerErrors,
	}

	var waits []float64
	for _, t := range trucks {
		ts := TruckSummary{
			ID:             t.ID(),
			Deliveries:     t.Deliveries(),
			TotalWaitTicks: t.TotalWaitTime(),
			ServiceErrors:  t.ServiceErrors(),
		}
		if ts.Deliveries > 0 {
			ts.AverageDeliveryTicks = runTicks / int64(ts.Deliveries)
		}
		for _, w := range t.waitHistory {
			waits = append(waits, float64(w.WaitTicks))
		}
		s.TotalDeliveries += ts.Deliveries
		s.ServiceErrors += ts.ServiceErrors
		s.PerTruck = append(s.PerTruck, ts)
	}
	for _, st := range stations {
		s.StationUnloads[st.ID()] = st.Completed()
		s.TotalUnloads += st.Completed()
		s.ServiceErrors += st.ServiceErrors()
	}

	if len(trucks) > 0 {
		s.AverageDeliveriesPerTruck = float64(s.TotalDeliveries) / float64(len(trucks))
	}
	if s.TotalDeliveries > 0 {
		s.AverageDeliveryTicks = float64(runTicks) / float64(s.TotalDeliveries)
	}
	s.WaitDistribution = NewDistribution(waits)
	return s
}
