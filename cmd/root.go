package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ossim/ossim/sim"
	"github.com/ossim/ossim/sim/report"
	"github.com/ossim/ossim/sim/trace"
	"github.com/ossim/ossim/sim/workload"
)

var (
	// CLI flags shared by run and compare
	processesURL     string  // Process descriptor source (text lines or YAML workload spec)
	presetName       string  // Named workload preset from defaults.yaml
	configPath       string  // Optional YAML config bundle
	defaultsFilePath string  // Path to defaults.yaml
	schedulerName    string  // FCFS, EP or RR
	quantum          int64   // RR time slice in ticks
	partitions       []int64 // Partition capacities in ID order
	maxTicks         int64   // Tick cap (0 = none)
	checkInvariants  bool    // Verify engine invariants after every tick
	traceLevel       string  // full, transitions or none
	outputURL        string  // Destination directory for logs and metrics
	showTables       bool    // Print the execution and memory tables to stdout
	logLevel         string  // Log verbosity level
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "ossim",
	Short: "Discrete-time simulator for OS scheduling and partitioned memory",
}

// runCmd executes one simulation using parameters from CLI flags
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the OS simulation with one scheduler",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		defer startTracing(ctx)()

		cfg, spec := resolveInputs(ctx, cmd)
		startTime := time.Now()
		result, err := runSimulation(ctx, cfg, spec.Descriptors(), outputURL)
		if errors.Is(err, context.Canceled) {
			logrus.Warnf("Simulation interrupted at tick %d; reporting partial results", result.Simulator.Clock)
		} else if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}
		if showTables {
			printTables(os.Stdout, result.Simulator)
		}
		result.Metrics.Print(os.Stdout)
		logrus.Infof("Simulation complete in %v.", time.Since(startTime))
	},
}

// RunResult is the outcome of one simulation.
type RunResult struct {
	Simulator *sim.Simulator
	Metrics   *sim.Metrics
}

// runSimulation builds and runs one simulator, tags its metrics with a fresh
// run ID and writes the output under outURL when it is set. A cancelled
// context still reports the partial run.
func runSimulation(ctx context.Context, cfg sim.SimConfig, descriptors []sim.Descriptor, outURL string) (result *RunResult, err error) {
	ctx, span := startSpan(ctx, "ossim.run",
		attribute.String("scheduler", cfg.Scheduler),
		attribute.Int("processes", len(descriptors)),
	)
	defer func() { endSpan(span, err) }()

	s, err := sim.NewSimulator(cfg, descriptors)
	if err != nil {
		return nil, err
	}
	runErr := s.Run(ctx)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return nil, runErr
	}

	metrics := s.Metrics()
	metrics.RunID = uuid.NewString()
	span.SetAttributes(
		attribute.String("run_id", metrics.RunID),
		attribute.Int64("ticks", metrics.SimEndedTime),
		attribute.Int("completed", metrics.CompletedProcesses),
	)
	if outURL != "" {
		// a cancelled run is still saved
		if err = saveRun(context.WithoutCancel(ctx), outURL, s, metrics); err != nil {
			return nil, err
		}
		logrus.Infof("Run %s written to %s", metrics.RunID, outURL)
	}
	return &RunResult{Simulator: s, Metrics: metrics}, runErr
}

func saveRun(ctx context.Context, outURL string, s *sim.Simulator, metrics *sim.Metrics) (err error) {
	ctx, span := startSpan(ctx, "ossim.report", attribute.String("destination", outURL))
	defer func() { endSpan(span, err) }()

	sink, err := report.NewSink(ctx, outURL)
	if err != nil {
		return err
	}
	return sink.Write(ctx, s.Trace, metrics)
}

// resolveInputs loads the workload and the configuration. Precedence, lowest
// first: built-in defaults, defaults.yaml, workload partitions, --config, flags.
func resolveInputs(ctx context.Context, cmd *cobra.Command) (sim.SimConfig, *workload.WorkloadSpec) {
	spec, err := loadWorkload(ctx)
	if err != nil {
		logrus.Fatalf("Failed to load workload: %v", err)
	}
	cfg, err := resolveConfig(cmd, spec)
	if err != nil {
		logrus.Fatalf("Invalid configuration: %v", err)
	}
	logrus.Infof("Configuration: scheduler=%s quantum=%d partitions=%v max-ticks=%d",
		cfg.Scheduler, cfg.Quantum, cfg.PartitionCapacities, cfg.MaxTicks)
	return cfg, spec
}

func loadWorkload(ctx context.Context) (*workload.WorkloadSpec, error) {
	switch {
	case processesURL != "" && presetName != "":
		return nil, fmt.Errorf("--processes and --preset are mutually exclusive")
	case presetName != "":
		return loadPresetWorkload(defaultsFilePath, presetName)
	case processesURL != "":
		return workload.NewLoader().Load(ctx, processesURL)
	default:
		return nil, fmt.Errorf("one of --processes or --preset is required")
	}
}

// resolveConfig layers every configuration source; only flags the user set override.
func resolveConfig(cmd *cobra.Command, spec *workload.WorkloadSpec) (sim.SimConfig, error) {
	cfg, err := GetDefaultSimConfig(defaultsFilePath)
	if err != nil {
		return cfg, err
	}
	if spec != nil && len(spec.Partitions) > 0 {
		cfg.PartitionCapacities = append([]int64(nil), spec.Partitions...)
	}
	if configPath != "" {
		bundle, err := sim.LoadConfigBundle(configPath)
		if err != nil {
			return cfg, err
		}
		if err := bundle.Validate(); err != nil {
			return cfg, fmt.Errorf("%s: %w", configPath, err)
		}
		bundle.ApplyTo(&cfg)
	}

	flags := cmd.Flags()
	if flags.Changed("scheduler") {
		cfg.Scheduler = schedulerName
	}
	if flags.Changed("quantum") {
		cfg.Quantum = quantum
	}
	if flags.Changed("partitions") {
		cfg.PartitionCapacities = append([]int64(nil), partitions...)
	}
	if flags.Changed("max-ticks") {
		cfg.MaxTicks = maxTicks
	}
	if flags.Changed("check-invariants") {
		cfg.CheckInvariants = checkInvariants
	}
	if flags.Changed("trace-level") {
		cfg.TraceLevel = traceLevel
	}
	return cfg, cfg.Validate()
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// printTables writes the execution and memory tables of a finished run.
func printTables(w io.Writer, s *sim.Simulator) {
	if s.Trace == nil {
		return
	}
	if err := trace.WriteExecutionTable(w, s.Trace.Transitions); err != nil {
		logrus.Errorf("Failed to print execution table: %v", err)
	}
	if len(s.Trace.Memory) > 0 {
		if err := trace.WriteMemoryTable(w, s.Trace.Memory); err != nil {
			logrus.Errorf("Failed to print memory table: %v", err)
		}
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// addSimulationFlags registers the flags shared by run and compare.
func addSimulationFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&processesURL, "processes", "", "Process descriptors: text lines (pid,size,arrival,cpu,io_freq,io_dur[,priority]) or a .yaml workload spec; any path or afs URL")
	cmd.Flags().StringVar(&presetName, "preset", "", "Named workload preset from the defaults file")
	cmd.Flags().StringVar(&configPath, "config", "", "YAML config file (scheduler, quantum, partitions, max_ticks, check_invariants, trace_level)")
	cmd.Flags().StringVar(&defaultsFilePath, "defaults-filepath", "defaults.yaml", "Path to defaults.yaml")
	cmd.Flags().Int64Var(&quantum, "quantum", sim.DefaultQuantum, "Round-robin time slice in ticks")
	cmd.Flags().Int64SliceVar(&partitions, "partitions", sim.DefaultPartitionCapacities, "Comma-separated partition capacities, in partition ID order")
	cmd.Flags().Int64Var(&maxTicks, "max-ticks", 0, "Stop after this many ticks (0 = run until every process terminates)")
	cmd.Flags().BoolVar(&checkInvariants, "check-invariants", false, "Verify engine invariants after every tick (panics on violation)")
	cmd.Flags().StringVar(&traceLevel, "trace-level", "full", "Trace level (full, transitions, none)")
	cmd.Flags().StringVar(&otelTraceDest, "otel-trace", "", "Export OpenTelemetry spans as JSON to this file (\"-\" for stdout)")
	cmd.Flags().StringVar(&logLevel, "log", "error", "Log level (trace, debug, info, warn, error, fatal, panic)")
}

// init sets up CLI flags and subcommands
func init() {
	addSimulationFlags(runCmd)
	runCmd.Flags().StringVar(&schedulerName, "scheduler", string(sim.FCFS), "Scheduler (FCFS, EP, RR)")
	runCmd.Flags().StringVar(&outputURL, "out", "output", "Directory (path or afs URL) for execution.txt, memory_status.txt and metrics.json; empty to skip")
	runCmd.Flags().BoolVar(&showTables, "print-tables", false, "Also print the execution and memory tables to stdout")

	// Attach `run` as a subcommand to `root`
	rootCmd.AddCommand(runCmd)
}
