package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/haulsim/haulsim/sim/internal/testutil"
)

func TestNewDistribution_Empty(t *testing.T) {
	assert.Equal(t, Distribution{}, NewDistribution(nil))
}

func TestNewDistribution_Values(t *testing.T) {
	// GIVEN unsorted wait samples
	d := NewDistribution([]float64{7, 13, 7, 19})

	// THEN order statistics come from the sorted copy
	assert.Equal(t, 4, d.Count)
	assert.Equal(t, 7.0, d.Min)
	assert.Equal(t, 19.0, d.Max)
	testutil.AssertFloat64Equal(t, "mean", 11.5, d.Mean, 1e-12)
	assert.GreaterOrEqual(t, d.P99, d.P95)
	assert.GreaterOrEqual(t, d.P95, d.P50)
}

func TestComputeSummary(t *testing.T) {
	// GIVEN two trucks with recorded deliveries and a station count
	t1 := newTestTruck("Truck_1", fixedCycle(60))
	t1.deliveries = 2
	t1.waitHistory = []WaitRecord{{StationID: "UnloadStation_1", WaitTicks: 7}, {StationID: "UnloadStation_1", WaitTicks: 9}}
	t2 := newTestTruck("Truck_2", fixedCycle(60))
	t2.serviceErrors = 1
	st := NewUnloadStation("UnloadStation_1", 5)
	st.completed = 2

	// WHEN summarized over 100 ticks
	s := ComputeSummary(100, 120, []*Truck{t1, t2}, []*UnloadStation{st}, 3)

	// THEN totals and averages follow
	assert.Equal(t, 2, s.TotalDeliveries)
	assert.Equal(t, 2, s.TotalUnloads)
	assert.Equal(t, 1.0, s.AverageDeliveriesPerTruck)
	assert.Equal(t, 50.0, s.AverageDeliveryTicks)
	assert.Equal(t, 4, s.ServiceErrors)
	assert.Equal(t, map[string]int{"UnloadStation_1": 2}, s.StationUnloads)
	assert.Equal(t, []TruckSummary{
		{ID: "Truck_1", Deliveries: 2, AverageDeliveryTicks: 50, TotalWaitTicks: 16},
		{ID: "Truck_2", ServiceErrors: 1},
	}, s.PerTruck)
	assert.Equal(t, 2, s.WaitDistribution.Count)
}

func TestComputeSummary_NoDeliveries_ZeroAverages(t *testing.T) {
	s := ComputeSummary(10, 10, []*Truck{newTestTruck("Truck_1", fixedCycle(60))}, nil, 0)
	assert.Equal(t, 0.0, s.AverageDeliveryTicks)
	assert.Equal(t, 0, s.WaitDistribution.Count)
}
