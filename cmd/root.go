package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/robcore/Hulk-Kernel-V2/sim"
	"github.com/robcore/Hulk-Kernel-V2/sim/edf"
	"github.com/robcore/Hulk-Kernel-V2/sim/promexport"
	"github.com/robcore/Hulk-Kernel-V2/sim/trace"
)

var (
	logLevel         string // Log verbosity level
	configPath       string // Optional YAML run configuration
	defaultsFilePath string // defaults.yaml with workload presets
	preset           string // Workload preset name from defaults.yaml

	// Simulation
	seed           int64  // Seed for workload generation and device jitter
	horizon        int64  // Simulation horizon (in ticks)
	unplugInterval int64  // Unplug timer granularity (in ticks)
	traceLevel     string // Decision trace level

	// Scheduler tunables
	readWeight         int    // Quantum multiplier for reads
	writeWeight        int    // Quantum multiplier for writes
	timesliceQuantumMs int64  // Quantum in milliseconds
	dispatchScan       string // "ordered" or "full"

	// Workload
	rate        float64 // Requests per second
	maxRequests int     // Number of requests
	readRatio   float64 // Fraction of reads

	// Output
	resultsPath string // JSON results file
	promDump    bool   // Print Prometheus metrics after the run
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "edf-sim",
	Short: "Discrete-event simulator for an EDF block I/O scheduler",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// runCmd executes the simulation using the run config plus CLI overrides
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the EDF scheduler simulation",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := buildRunConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		logrus.Infof("Starting simulation: seed=%d horizon=%d ticks, read_weight=%d write_weight=%d quantum=%dms scan=%s",
			cfg.Simulation.Seed, cfg.Simulation.Horizon, cfg.Scheduler.ReadWeight, cfg.Scheduler.WriteWeight,
			cfg.Scheduler.TimesliceQuantumMs, cfg.Scheduler.DispatchScan)

		var observers []edf.Observer
		var registry *prometheus.Registry
		if promDump {
			registry = prometheus.NewRegistry()
			m, err := promexport.NewMetrics(registry)
			if err != nil {
				logrus.Fatalf("%v", err)
			}
			observers = append(observers, m)
		}

		startTime := time.Now()
		s, err := sim.RunSimulation(cfg, observers...)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		s.Metrics.Print(os.Stdout)
		if s.Trace != nil {
			printTraceSummary(os.Stdout, trace.Summarize(s.Trace))
		}
		if resultsPath != "" {
			if err := s.Metrics.SaveResults(resultsPath); err != nil {
				logrus.Fatalf("%v", err)
			}
		}
		if registry != nil {
			if err := promexport.WriteText(os.Stdout, registry); err != nil {
				logrus.Fatalf("%v", err)
			}
		}
		logrus.Infof("Simulation complete in %s", time.Since(startTime))
	},
}

// buildRunConfig layers the run config: built-in defaults, then --config,
// then --preset, then individual flags the user actually set.
func buildRunConfig(cmd *cobra.Command) (*sim.RunConfig, error) {
	cfg := sim.DefaultRunConfig()
	if configPath != "" {
		loaded, err := sim.LoadRunConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = *loaded
	}
	if preset != "" {
		defaults, err := loadDefaultsConfig(defaultsFilePath)
		if err != nil {
			return nil, err
		}
		spec, err := defaults.Preset(preset)
		if err != nil {
			return nil, err
		}
		cfg.Workload = spec
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Simulation.Seed = seed
	}
	if flags.Changed("horizon") {
		cfg.Simulation.Horizon = horizon
	}
	if flags.Changed("unplug-interval") {
		cfg.Simulation.UnplugInterval = unplugInterval
	}
	if flags.Changed("trace-level") {
		cfg.Simulation.TraceLevel = traceLevel
	}
	if flags.Changed("read-weight") {
		cfg.Scheduler.ReadWeight = readWeight
	}
	if flags.Changed("write-weight") {
		cfg.Scheduler.WriteWeight = writeWeight
	}
	if flags.Changed("timeslice-quantum-ms") {
		cfg.Scheduler.TimesliceQuantumMs = timesliceQuantumMs
	}
	if flags.Changed("dispatch-scan") {
		cfg.Scheduler.DispatchScan = edf.ScanMode(dispatchScan)
	}
	if flags.Changed("rate") {
		cfg.Workload.Rate = rate
	}
	if flags.Changed("max-requests") {
		cfg.Workload.MaxRequests = maxRequests
	}
	if flags.Changed("read-ratio") {
		cfg.Workload.ReadRatio = readRatio
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func printTraceSummary(w io.Writer, sum *trace.TraceSummary) {
	fmt.Fprintln(w, "=== Decision Trace ===")
	fmt.Fprintf(w, "Admissions           : %d\n", sum.TotalAdmits)
	fmt.Fprintf(w, "Merges               : %d (%d repositioned)\n", sum.TotalMerges, sum.RepositionedCount)
	fmt.Fprintf(w, "Dispatches           : %d\n", sum.TotalDispatches)
	dirs := make([]string, 0, len(sum.DispatchesByDir))
	for dir := range sum.DispatchesByDir {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	for _, dir := range dirs {
		fmt.Fprintf(w, "  %-19s: %d\n", dir, sum.DispatchesByDir[dir])
	}
	fmt.Fprintf(w, "Mean lateness        : %.2f ticks\n", sum.MeanLateness)
	fmt.Fprintf(w, "Max lateness         : %d ticks\n", sum.MaxLateness)
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerConfigFlags adds the flags shared by run and attrs.
func registerConfigFlags(c *cobra.Command) {
	c.Flags().StringVar(&configPath, "config", "", "YAML run configuration (scheduler, workload, queue, device, simulation)")
	c.Flags().IntVar(&readWeight, "read-weight", edf.DefaultReadWeight, "Quantum multiplier for reads")
	c.Flags().IntVar(&writeWeight, "write-weight", edf.DefaultWriteWeight, "Quantum multiplier for writes")
	c.Flags().Int64Var(&timesliceQuantumMs, "timeslice-quantum-ms", edf.DefaultTimesliceQuantumMs, "Timeslice quantum in milliseconds")
	c.Flags().StringVar(&dispatchScan, "dispatch-scan", string(edf.ScanOrdered), "Dispatch scan: ordered (stop at first unexpired) or full")
}

// registerRunFlags adds the run command's flags to c.
func registerRunFlags(c *cobra.Command) {
	registerConfigFlags(c)
	c.Flags().StringVar(&defaultsFilePath, "defaults", "defaults.yaml", "Path to defaults.yaml with workload presets")
	c.Flags().StringVar(&preset, "preset", "", "Workload preset from defaults.yaml")

	c.Flags().Int64Var(&seed, "seed", 42, "Seed for workload generation and device jitter")
	c.Flags().Int64Var(&horizon, "horizon", 60_000, "Simulation horizon (in ticks)")
	c.Flags().Int64Var(&unplugInterval, "unplug-interval", 0, "Unplug timer granularity in ticks (0 = exact deadlines)")
	c.Flags().StringVar(&traceLevel, "trace-level", string(trace.TraceLevelNone), "Decision trace level (none, decisions)")

	c.Flags().Float64Var(&rate, "rate", 200, "Requests arrival per second")
	c.Flags().IntVar(&maxRequests, "max-requests", 1000, "Number of requests (0 = until horizon)")
	c.Flags().Float64Var(&readRatio, "read-ratio", 0.7, "Fraction of requests that are reads")

	c.Flags().StringVar(&resultsPath, "results-path", "", "Write JSON results to this file")
	c.Flags().BoolVar(&promDump, "prom-dump", false, "Print Prometheus metrics in text format after the run")
}

// init sets up CLI flags and subcommands
func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	registerRunFlags(runCmd)
	registerAttrsFlags(attrsCmd)
	registerPresetsFlags(presetsCmd)

	rootCmd.AddCommand(runCmd, attrsCmd, presetsCmd)
}
