package trace

import "testing"

func TestSummarize_NilTrace_ZeroValues(t *testing.T) {
	summary := Summarize(nil)
	if summary.TotalAssignments != 0 || summary.TotalReleases != 0 {
		t.Error("expected zero counts for nil trace")
	}
	if summary.StationDistribution == nil {
		t.Error("expected non-nil station distribution")
	}
}

func TestSummarize_EmptyTrace_ZeroValues(t *testing.T) {
	// GIVEN an empty trace
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN summarized
	summary := Summarize(st)

	// THEN all counts are zero
	if summary.TotalAssignments != 0 || summary.TotalReleases != 0 {
		t.Error("expected 0 assignments and releases")
	}
	if summary.UniqueStations != 0 {
		t.Errorf("expected 0 unique stations, got %d", summary.UniqueStations)
	}
	if summary.MeanWaitAtBinding != 0 || summary.MaxWaitAtBinding != 0 {
		t.Error("expected 0 wait values")
	}
}

func TestSummarize_PopulatedTrace_CorrectCounts(t *testing.T) {
	// GIVEN a trace with assignments to two stations and one release
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelDecisions})
	st.RecordAssignment(AssignmentRecord{TruckID: "t1", StationID: "s1", WaitTicks: 0})
	st.RecordAssignment(AssignmentRecord{TruckID: "t2", StationID: "s2", WaitTicks: 4})
	st.RecordAssignment(AssignmentRecord{TruckID: "t3", StationID: "s1", WaitTicks: 8, QueueDepth: 1, Wrapped: true})
	st.RecordRelease(ReleaseRecord{TruckID: "t1", StationID: "s1"})

	// WHEN summarized
	summary := Summarize(st)

	// THEN counts match
	if summary.TotalAssignments != 3 {
		t.Errorf("expected 3 assignments, got %d", summary.TotalAssignments)
	}
	if summary.TotalReleases != 1 {
		t.Errorf("expected 1 release, got %d", summary.TotalReleases)
	}
	if summary.UniqueStations != 2 {
		t.Errorf("expected 2 unique stations, got %d", summary.UniqueStations)
	}
	if summary.StationDistribution["s1"] != 2 {
		t.Errorf("expected s1 count 2, got %d", summary.StationDistribution["s1"])
	}
	if summary.WrappedAssignments != 1 {
		t.Errorf("expected 1 wrapped assignment, got %d", summary.WrappedAssignments)
	}
	if summary.MaxQueueDepth != 2 {
		t.Errorf("expected max queue depth 2, got %d", summary.MaxQueueDepth)
	}

	// THEN mean wait = (0 + 4 + 8) / 3 = 4, max = 8
	if summary.MeanWaitAtBinding != 4 {
		t.Errorf("expected mean wait 4, got %.4f", summary.MeanWaitAtBinding)
	}
	if summary.MaxWaitAtBinding != 8 {
		t.Errorf("expected max wait 8, got %d", summary.MaxWaitAtBinding)
	}
}
