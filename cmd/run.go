package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/haulsim/haulsim/sim"
	"github.com/haulsim/haulsim/sim/report"
	"github.com/haulsim/haulsim/sim/store"
	"github.com/haulsim/haulsim/sim/stream"
	"github.com/haulsim/haulsim/sim/trace"
)

// runCmd executes the simulation using the layered configuration
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the mine haul simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel(cmd)

		envFile, _ := cmd.Flags().GetString("env-file")
		if err := loadDotEnv(envFile); err != nil {
			logrus.Fatalf("%v", err)
		}
		opts, err := resolveRunOptions(cmd.Flags(), os.LookupEnv)
		if err != nil {
			logrus.Fatalf("Invalid configuration: %v", err)
		}

		// SIGINT/SIGTERM halt the loop after the tick in progress.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if _, err := runSimulation(ctx, opts, os.Stdout); err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		logrus.Info("Simulation complete.")
	},
}

// RunResult is what a finished run produced.
type RunResult struct {
	ID      uuid.UUID
	Summary *sim.Summary
	Trace   *trace.TraceSummary // nil unless tracing was enabled
	Stopped bool                // halted before the horizon
}

// runSimulation builds the simulator from opts, attaches the requested
// observers, runs it until the horizon or until ctx is done, and writes the
// reports to out.
func runSimulation(ctx context.Context, opts RunOptions, out io.Writer) (*RunResult, error) {
	s, err := sim.NewSimulator(opts.Sim, nil)
	if err != nil {
		return nil, err
	}
	s.SetPacer(sim.NewPacer(opts.Sim))
	result := &RunResult{ID: uuid.New()}

	if err := report.WriteStartup(out, opts.Sim); err != nil {
		return nil, fmt.Errorf("write startup: %w", err)
	}
	reporter := report.NewReporter(out, opts.ReportEvery)
	s.AddObserver(reporter)

	st := s.EnableTrace(trace.TraceLevel(opts.TraceLevel))

	var violation error
	if opts.CheckInvariants {
		s.AddObserver(sim.TickObserverFunc(func(snap sim.Snapshot) {
			if err := s.CheckInvariants(); err != nil && violation == nil {
				violation = fmt.Errorf("tick %d: %w", snap.Tick, err)
				logrus.Errorf("[tick %07d] %v", snap.Tick, err)
				s.Stop()
			}
		}))
	}

	var hub *stream.Hub
	if opts.WSAddr != "" {
		var shutdown func()
		hub, shutdown, err = serveStream(ctx, opts.WSAddr)
		if err != nil {
			return nil, err
		}
		defer shutdown()
		s.AddObserver(hub)
	}

	started := time.Now()
	summary := s.Run(ctx)
	wall := time.Since(started)
	result.Summary = summary
	result.Stopped = summary.RunTicks < summary.HorizonTicks

	if err := reporter.Err(); err != nil {
		return result, fmt.Errorf("write report: %w", err)
	}
	if err := report.WriteSummary(out, summary, wall); err != nil {
		return result, fmt.Errorf("write summary: %w", err)
	}
	if st != nil {
		result.Trace = trace.Summarize(st)
		writeTraceSummary(out, result.Trace)
	}
	if hub != nil {
		hub.PublishSummary(summary)
	}

	if opts.DB != "" {
		// ctx may already be cancelled by a signal; the finished run is still saved.
		saveCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		db, err := store.Open(saveCtx, opts.DB)
		if err != nil {
			return result, err
		}
		defer func() { _ = db.Close() }()
		if _, err := db.SaveRun(saveCtx, store.Run{
			ID:        result.ID,
			StartedAt: started,
			Config:    opts.Sim,
			Stopped:   result.Stopped,
			Summary:   summary,
		}); err != nil {
			return result, err
		}
		fmt.Fprintf(out, "[INFO] RunID:%s, Store:%s\n", result.ID, db.Driver())
	}
	return result, violation
}

// serveStream starts the websocket hub and its HTTP server. The returned
// function shuts both down.
func serveStream(ctx context.Context, addr string) (*stream.Hub, func(), error) {
	hub := stream.NewHub()
	hubCtx, cancelHub := context.WithCancel(ctx)
	go hub.Run(hubCtx)

	srv := &http.Server{Addr: addr, Handler: hub.Handler(), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	// Surface an immediate bind failure instead of streaming into the void.
	select {
	case err := <-errCh:
		cancelHub()
		return nil, nil, fmt.Errorf("serve stream on %s: %w", addr, err)
	case <-time.After(50 * time.Millisecond):
	}
	logrus.Infof("Streaming snapshots on ws://%s/ws", addr)

	return hub, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logrus.Warnf("stream server shutdown: %v", err)
		}
		cancelHub()
		// Run flushes queued messages, including the summary, before it returns.
		<-hub.Done()
	}, nil
}

func writeTraceSummary(w io.Writer, ts *trace.TraceSummary) {
	fmt.Fprintf(w, "\n[TRACE-SUMMARY] Assignments:%d, Releases:%d, Wrapped:%d, MeanWaitAtBinding:%.2f:min, MaxWaitAtBinding:%d:min, MaxQueueDepth:%d\n",
		ts.TotalAssignments, ts.TotalReleases, ts.WrappedAssignments, ts.MeanWaitAtBinding, ts.MaxWaitAtBinding, ts.MaxQueueDepth)
}
