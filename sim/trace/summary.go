package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalAssignments    int
	TotalReleases       int
	WrappedAssignments  int
	MeanWaitAtBinding   float64
	MaxWaitAtBinding    int64
	MaxQueueDepth       int
	UniqueStations      int
	StationDistribution map[string]int // station ID → count of trucks bound
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		StationDistribution: make(map[string]int),
	}
	if st == nil {
		return summary
	}

	summary.TotalReleases = len(st.Releases)
	summary.TotalAssignments = len(st.Assignments)

	if len(st.Assignments) > 0 {
		var totalWait int64
		for _, a := range st.Assignments {
			summary.StationDistribution[a.StationID]++
			totalWait += a.WaitTicks
			if a.WaitTicks > summary.MaxWaitAtBinding {
				summary.MaxWaitAtBinding = a.WaitTicks
			}
			if a.QueueDepth+1 > summary.MaxQueueDepth {
				summary.MaxQueueDepth = a.QueueDepth + 1
			}
			if a.Wrapped {
				summary.WrappedAssignments++
			}
		}
		summary.MeanWaitAtBinding = float64(totalWait) / float64(len(st.Assignments))
	}

	summary.UniqueStations = len(summary.StationDistribution)

	return summary
}
