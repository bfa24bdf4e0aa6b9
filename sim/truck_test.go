package sim

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruck_FirstAdvance_StartsLoadingWithoutIdleDwell(t *testing.T) {
	// GIVEN a new idle truck
	tr := newTestTruck("Truck_1", fixedCycle(60))
	require.Equal(t, TruckIdle, tr.State())

	// WHEN it advances once
	tr.Advance()

	// THEN it is loading on that same tick with its clock reset to zero
	assert.Equal(t, TruckLoading, tr.State())
	assert.Equal(t, int64(0), tr.Clock())
	assert.Equal(t, int64(60), tr.LoadingTicks())
	assert.Equal(t, int64(60), tr.LoadingTimeLeft())
}

func TestTruck_LoadingDraw_WithinInclusiveBounds(t *testing.T) {
	// GIVEN a loading range [60, 300]
	cycle := CycleConfig{LoadingMinTicks: 60, LoadingMaxTicks: 300, DriveTicks: 30, UnloadTicks: 5}
	rng := rand.New(rand.NewSource(99))

	// WHEN many trucks draw a loading duration
	for i := 0; i < 500; i++ {
		tr := NewTruck("Truck_x", cycle, rng)
		tr.Advance()

		// THEN every draw lies inside the inclusive range
		if tr.LoadingTicks() < 60 || tr.LoadingTicks() > 300 {
			t.Fatalf("draw %d: loading ticks %d outside [60, 300]", i, tr.LoadingTicks())
		}
	}
}

func TestTruck_CycleTimeline_FixedDurations(t *testing.T) {
	// GIVEN loading=60, drive=30
	tr := newTestTruck("Truck_1", fixedCycle(60))
	tr.Advance() // loading starts, clock 0

	// WHEN it advances 59 more ticks THEN it is still loading with 1 tick left
	advanceTruck(tr, 59)
	assert.Equal(t, TruckLoading, tr.State())
	assert.Equal(t, int64(1), tr.LoadingTimeLeft())

	// WHEN the loading time elapses THEN it drives
	tr.Advance()
	assert.Equal(t, TruckDriving, tr.State())
	assert.Equal(t, int64(30), tr.DrivingTimeLeft())
	assert.Equal(t, int64(0), tr.LoadingTimeLeft(), "loading time left outside Loading")

	// WHEN the drive elapses THEN it waits for a station
	advanceTruck(tr, 30)
	assert.Equal(t, TruckWaitingForStation, tr.State())
	assert.Equal(t, int64(0), tr.WaitingTime())
	assert.False(t, tr.HasStation())

	// WHEN it keeps waiting THEN waiting time grows and nothing else changes
	advanceTruck(tr, 4)
	assert.Equal(t, TruckWaitingForStation, tr.State())
	assert.Equal(t, int64(4), tr.WaitingTime())
}

func TestTruck_FullCycle_RecordsDeliveryAndReturnsIdle(t *testing.T) {
	// GIVEN a truck that reached the stations
	tr := newTestTruck("Truck_1", fixedCycle(60))
	advanceTruck(tr, 1+60+30)
	require.Equal(t, TruckWaitingForStation, tr.State())

	// WHEN it is assigned, unloads and is marked done
	require.NoError(t, tr.AssignStation("UnloadStation_1"))
	assert.Equal(t, TruckUnloading, tr.State())
	assert.Equal(t, "UnloadStation_1", tr.StationID())
	assert.Equal(t, int64(5), tr.UnloadingTimeLeft())
	advanceTruck(tr, 6)
	require.NoError(t, tr.MarkUnloadingDone())
	assert.Equal(t, TruckUnloadingDone, tr.State())
	assert.Equal(t, 0, tr.Deliveries(), "delivery counted on the UnloadingDone tick, not before")

	// THEN the next advance closes the cycle
	tr.Advance()
	assert.Equal(t, TruckIdle, tr.State())
	assert.Equal(t, 1, tr.Deliveries())
	assert.False(t, tr.HasStation())
	assert.Equal(t, []WaitRecord{{StationID: "UnloadStation_1", WaitTicks: 7}}, tr.WaitHistory())
	assert.Equal(t, int64(7), tr.TotalWaitTime())

	// AND the following advance starts a new cycle with a fresh clock
	tr.Advance()
	assert.Equal(t, TruckLoading, tr.State())
	assert.Equal(t, int64(0), tr.Clock())
}

func TestTruck_UnloadingTimeLeft_ClampsAtZero(t *testing.T) {
	// GIVEN an unloading truck queued behind another for longer than the unload time
	tr := waitingTruck("Truck_1", 0)
	require.NoError(t, tr.AssignStation("UnloadStation_1"))

	// WHEN more than the unload time passes
	advanceTruck(tr, 9)

	// THEN the estimate never goes negative
	assert.Equal(t, TruckUnloading, tr.State())
	assert.Equal(t, int64(0), tr.UnloadingTimeLeft())
}

func TestTruck_AssignStation_RejectedOutsideWaiting(t *testing.T) {
	tests := []struct {
		name      string
		truck     func() *Truck
		stationID string
	}{
		{"idle", func() *Truck { return newTestTruck("Truck_1", fixedCycle(60)) }, "UnloadStation_1"},
		{"loading", func() *Truck {
			tr := newTestTruck("Truck_1", fixedCycle(60))
			tr.Advance()
			return tr
		}, "UnloadStation_1"},
		{"already bound", func() *Truck {
			tr := waitingTruck("Truck_1", 2)
			_ = tr.AssignStation("UnloadStation_2")
			return tr
		}, "UnloadStation_1"},
		{"empty station id", func() *Truck { return waitingTruck("Truck_1", 2) }, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := tc.truck()
			before := tr.State()
			errsBefore := tr.ServiceErrors()

			err := tr.AssignStation(tc.stationID)

			assert.True(t, errors.Is(err, ErrInvalidTransition), "got %v", err)
			assert.Equal(t, before, tr.State())
			assert.Equal(t, errsBefore+1, tr.ServiceErrors())
		})
	}
}

func TestTruck_MarkUnloadingDone_WithoutStation_Rejected(t *testing.T) {
	// GIVEN a waiting truck with no station bound
	tr := waitingTruck("Truck_1", 3)
	require.False(t, tr.HasStation())

	// WHEN it is told unloading is done
	err := tr.MarkUnloadingDone()

	// THEN the call is rejected, state unchanged, error counted
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, TruckWaitingForStation, tr.State())
	assert.Equal(t, 1, tr.ServiceErrors())
}

func TestTruck_UnknownState_CountedNoTransition(t *testing.T) {
	// GIVEN a truck whose state is outside the enumeration
	tr := newTestTruck("Truck_1", fixedCycle(60))
	tr.state = TruckState("BROKEN")

	// WHEN it advances
	tr.Advance()

	// THEN it stays put and counts a service error
	assert.Equal(t, TruckState("BROKEN"), tr.State())
	assert.Equal(t, 1, tr.ServiceErrors())
}

func TestTruck_Queries_ZeroOutsideTheirState(t *testing.T) {
	tr := newTestTruck("Truck_1", fixedCycle(60))
	assert.Equal(t, int64(0), tr.LoadingTimeLeft())
	assert.Equal(t, int64(0), tr.DrivingTimeLeft())
	assert.Equal(t, int64(0), tr.WaitingTime())
	assert.Equal(t, int64(0), tr.UnloadingTimeLeft())
	assert.Equal(t, int64(0), tr.TotalWaitTime())
}

func TestTruck_WaitHistory_ReturnsCopy(t *testing.T) {
	tr := newTestTruck("Truck_1", fixedCycle(60))
	tr.waitHistory = []WaitRecord{{StationID: "UnloadStation_1", WaitTicks: 3}}

	h := tr.WaitHistory()
	h[0].WaitTicks = 100

	assert.Equal(t, int64(3), tr.TotalWaitTime())
}

func TestNewTruck_NilRNG_Panics(t *testing.T) {
	assert.Panics(t, func() { NewTruck("Truck_1", fixedCycle(60), nil) })
}
