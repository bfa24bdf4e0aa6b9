package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/haulsim/haulsim/sim/report"
	"github.com/haulsim/haulsim/sim/store"
)

// historyCmd lists persisted runs, or shows one run's summary
var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List stored simulation runs or show one run",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel(cmd)

		envFile, _ := cmd.Flags().GetString("env-file")
		if err := loadDotEnv(envFile); err != nil {
			logrus.Fatalf("%v", err)
		}
		flagDSN, _ := cmd.Flags().GetString("db")
		dsn, err := historyDSN(flagDSN, os.LookupEnv)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		limit, _ := cmd.Flags().GetInt("limit")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		db, err := store.Open(ctx, dsn)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		defer func() { _ = db.Close() }()

		if len(args) == 1 {
			err = showRun(ctx, db, args[0], os.Stdout)
		} else {
			err = listHistory(ctx, db, limit, os.Stdout)
		}
		if err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// historyDSN resolves the store location the same way run does: the flag,
// then HAULSIM_DB. There is no default, so history never opens (or creates)
// a store that run did not write to.
func historyDSN(flag string, lookup func(string) (string, bool)) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if v, ok := lookup(envDB); ok && v != "" {
		return v, nil
	}
	return "", errNoStore
}

func listHistory(ctx context.Context, db *store.Store, limit int, out io.Writer) error {
	runs, err := db.ListRuns(ctx, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		_, err := fmt.Fprintln(out, "No stored runs.")
		return err
	}
	fmt.Fprintf(out, "%-36s  %-20s  %6s  %8s  %6s  %-11s  %8s  %10s  %9s\n",
		"RUN ID", "STARTED", "TRUCKS", "STATIONS", "SEED", "ASSIGNMENT", "RUN MIN", "DELIVERIES", "AVG MIN")
	for _, r := range runs {
		runTime := fmt.Sprintf("%d", r.RunTicks)
		if r.Stopped {
			runTime += "*"
		}
		if _, err := fmt.Fprintf(out, "%-36s  %-20s  %6d  %8d  %6d  %-11s  %8s  %10d  %9.2f\n",
			r.ID, r.StartedAt.UTC().Format(time.DateTime), r.Trucks, r.UnloadStations, r.Seed,
			r.Assignment, runTime, r.TotalDeliveries, r.AverageDeliveryTicks); err != nil {
			return err
		}
	}
	return nil
}

func showRun(ctx context.Context, db *store.Store, rawID string, out io.Writer) error {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid run id %q: %w", rawID, err)
	}
	run, err := db.GetRun(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "[INFO] RunID:%s, Started:%s, Stopped:%t\n", run.ID, run.StartedAt.UTC().Format(time.RFC3339), run.Stopped)
	if err := report.WriteStartup(out, run.Config); err != nil {
		return err
	}
	return report.WriteSummary(out, run.Summary, 0)
}
