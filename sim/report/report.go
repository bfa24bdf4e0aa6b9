// Package report renders simulator snapshots and summaries as the plain-text
// mine log: one line per entity per reported tick, a start-up line and an
// end-of-run summary.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/haulsim/haulsim/sim"
)

// TruckLine formats one truck. The fields depend on the truck's state.
func TruckLine(t sim.TruckSnapshot) string {
	switch t.State {
	case sim.TruckIdle, sim.TruckUnloadingDone:
		return fmt.Sprintf("%s, State:%s, DeliveryCompleted:%d", t.ID, t.State, t.Deliveries)
	case sim.TruckLoading:
		return fmt.Sprintf("%s, State:%s, LoadingTime:%d:min, LoadingTimeLeft:%d:min", t.ID, t.State, t.LoadingTicks, t.Metric)
	case sim.TruckDriving:
		return fmt.Sprintf("%s, State:%s, DrivingTimeLeft:%d:min", t.ID, t.State, t.Metric)
	case sim.TruckWaitingForStation:
		return fmt.Sprintf("%s, State:%s, UnloadWaitTime:%d:min", t.ID, t.State, t.Metric)
	case sim.TruckUnloading:
		return fmt.Sprintf("%s, State:%s, At:%s, UnloadingTimeLeft:%d:min", t.ID, t.State, t.StationID, t.Metric)
	default:
		return fmt.Sprintf("%s, State:%s", t.ID, t.State)
	}
}

// StationLine formats one unload station.
func StationLine(s sim.StationSnapshot) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s, State:%s, ", s.ID, s.State)
	switch s.State {
	case sim.StationUnloading:
		fmt.Fprintf(&sb, "%s Unloading, UnloadingTimeLeft:%d:min, ", s.ActiveTruck, s.UnloadingTimeLeft)
	case sim.StationUnloadingDone:
		fmt.Fprintf(&sb, "%s, ", s.ActiveTruck)
	}
	fmt.Fprintf(&sb, "TrucksInQueue:%d, TotalWaitTime:%d:min", s.QueueLength, s.TotalWaitTime)
	return sb.String()
}

// WriteSnapshot writes every truck line, a blank line, every station line
// and a trailing blank line.
func WriteSnapshot(w io.Writer, snap sim.Snapshot) error {
	var sb strings.Builder
	for _, t := range snap.Trucks {
		fmt.Fprintf(&sb, "[T-REPORT] [tick %07d] %s\n", snap.Tick, TruckLine(t))
	}
	sb.WriteString("\n")
	for _, s := range snap.Stations {
		fmt.Fprintf(&sb, "[S-REPORT] [tick %07d] %s\n", snap.Tick, StationLine(s))
	}
	sb.WriteString("\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// WriteStartup writes the one-line run description.
func WriteStartup(w io.Writer, cfg sim.Config) error {
	_, err := fmt.Fprintf(w, "[INFO] MiningRunTime:%d:min, NumOfUnloadStations:%d, NumOfTrucks:%d, TickInterval:%s, Seed:%d, Assignment:%s\n",
		cfg.HorizonTicks(), cfg.UnloadStations, cfg.Trucks, cfg.EffectiveTickInterval(), cfg.Seed, assignmentName(cfg.Assignment))
	return err
}

func assignmentName(a string) string {
	if a == "" {
		return sim.AssignmentSinglePass
	}
	return a
}

// WriteSummary writes the mine-wide summary followed by one line per truck.
// wall is the wall-clock duration of the run; zero omits it.
func WriteSummary(w io.Writer, s *sim.Summary, wall time.Duration) error {
	var sb strings.Builder
	sb.WriteString(strings.Repeat("-", 40) + "\n")
	sb.WriteString("[MINING-SUMMARY]\n")
	field := func(name string, format string, v any) {
		fmt.Fprintf(&sb, "\t%-30s"+format+"\n", name+":", v)
	}
	field("MiningRunTime", "%d:min", s.RunTicks)
	field("NumOfUnloadStations", "%d", s.Stations)
	field("NumOfTrucks", "%d", s.Trucks)
	field("NumOfDelivery", "%d", s.TotalDeliveries)
	field("AverageTruckDelivery", "%.2f", s.AverageDeliveriesPerTruck)
	field("AverageMiningDeliveryTime", "%.2f:min", s.AverageDeliveryTicks)
	field("WaitTimeMean", "%.2f:min", s.WaitDistribution.Mean)
	field("WaitTimeP95", "%.2f:min", s.WaitDistribution.P95)
	field("WaitTimeMax", "%.0f:min", s.WaitDistribution.Max)
	field("ServiceErrors", "%d", s.ServiceErrors)
	if wall > 0 {
		field("WallClock", "%s", wall.Round(time.Millisecond))
	}

	sb.WriteString("\n[TRUCK-SUMMARY]\n")
	for _, t := range s.PerTruck {
		fmt.Fprintf(&sb, "[T-SUMMARY] %s, TotalRunTime:%d:min, NumOfDelivery:%d, AverageDeliveryTime:%d:min, TotalWaitTime:%d:min\n",
			t.ID, s.RunTicks, t.Deliveries, t.AverageDeliveryTicks, t.TotalWaitTicks)
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// Reporter is a sim.TickObserver that writes a snapshot every Every ticks.
// Every <= 0 disables periodic reports. The first write error is kept and
// further reports are dropped.
type Reporter struct {
	W     io.Writer
	Every int64

	err error
}

// NewReporter creates a Reporter writing to w every every ticks.
func NewReporter(w io.Writer, every int64) *Reporter {
	return &Reporter{W: w, Every: every}
}

// ObserveTick implements sim.TickObserver.
func (r *Reporter) ObserveTick(snap sim.Snapshot) {
	if r.Every <= 0 || r.err != nil || snap.Tick%r.Every != 0 {
		return
	}
	r.err = WriteSnapshot(r.W, snap)
}

// Err returns the first write error, if any.
func (r *Reporter) Err() error { return r.err }
