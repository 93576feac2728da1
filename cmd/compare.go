package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ossim/ossim/sim"
)

var (
	compareSchedulers []string // Schedulers to run, in order
	compareOutputURL  string   // Parent directory for per-scheduler output
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Replay one workload under several schedulers and compare their metrics",
	Long:  "Run the same workload once per scheduler, each in its own simulator, and print a side-by-side summary. With --out, each run is written to <out>/<SCHEDULER>/.",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		defer startTracing(ctx)()

		cfg, spec := resolveInputs(ctx, cmd)
		results, err := compareRuns(ctx, cfg, spec.Descriptors(), compareSchedulers, compareOutputURL)
		if err != nil {
			logrus.Fatalf("Comparison failed: %v", err)
		}
		printComparison(os.Stdout, results)
	},
}

// compareRuns runs the workload once per scheduler, sequentially.
// Outputs go to outURL/<KIND> when outURL is set.
func compareRuns(ctx context.Context, cfg sim.SimConfig, descriptors []sim.Descriptor, schedulers []string, outURL string) ([]*RunResult, error) {
	if len(schedulers) == 0 {
		return nil, fmt.Errorf("no schedulers to compare")
	}
	results := make([]*RunResult, 0, len(schedulers))
	for _, name := range schedulers {
		kind, err := sim.ParseSchedulerKind(name)
		if err != nil {
			return nil, err
		}
		runOut := ""
		if outURL != "" {
			runOut = strings.TrimRight(outURL, "/") + "/" + string(kind)
		}
		logrus.Infof("Running %s", kind)
		result, err := runSimulation(ctx, cfg.WithScheduler(string(kind)), descriptors, runOut)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				logrus.Warnf("Comparison interrupted during %s", kind)
			}
			return nil, fmt.Errorf("%s: %w", kind, err)
		}
		results = append(results, result)
	}
	return results, nil
}

// printComparison writes one row per scheduler.
func printComparison(w io.Writer, results []*RunResult) {
	fmt.Fprintln(w, "=== Scheduler Comparison ===")
	fmt.Fprintf(w, "%-10s %10s %10s %12s %12s %10s %10s %8s\n",
		"Scheduler", "Completed", "Time", "Throughput", "Turnaround", "Wait", "Response", "I/O")
	for _, r := range results {
		m := r.Metrics
		name := r.Simulator.Scheduler.String()
		fmt.Fprintf(w, "%-10s %4d / %-3d %10d %12.4f %12.2f %10.2f %10.2f %8.2f\n",
			name, m.CompletedProcesses, m.TotalProcesses, m.SimEndedTime, m.Throughput,
			m.AvgTurnaroundTime, m.AvgWaitTime, m.AvgResponseTime, m.AvgIOTime)
	}
}

func init() {
	addSimulationFlags(compareCmd)
	compareCmd.Flags().StringSliceVar(&compareSchedulers, "schedulers", []string{string(sim.FCFS), string(sim.EP), string(sim.RR)}, "Schedulers to compare")
	compareCmd.Flags().StringVar(&compareOutputURL, "out", "", "Directory (path or afs URL) receiving one sub-directory per scheduler; empty to skip")

	rootCmd.AddCommand(compareCmd)
}
