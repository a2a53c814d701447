package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	dataDir     string
	archiveKind string
	logLevel    string
	logFormat   string

	configFile string
	preset     string
	passes     int
	lookback   float64
	gConst     float64
	dt         float64
	backend    string
	forceLaw   string
	outFile    string

	fields    []string
	plotWidth int
	orbit     bool
	lookbacks []float64
	frameRate int
)

// main registers the qrsim commands and exits with status 1 when a command
// fails.
func main() {
	rootCmd := &cobra.Command{
		Use:          "qrsim",
		Short:        "asynchronous n-body simulation over an interval store",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default .qrsim)")
	rootCmd.PersistentFlags().StringVar(&archiveKind, "archive", "file", "run archive backend (file, sqlite)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (text, json)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and archive its record log",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().StringVar(&outFile, "out", "", "also write the record log to this file")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list archived runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "show the summary of an archived run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id] [agent...]",
		Short: "plot agent trajectories of a run",
		Args:  cobra.MinimumNArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&fields, "fields", []string{"x", "y"}, "quantities to plot (x, y, vx, vy, speed)")
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")
	plotCmd.Flags().BoolVar(&orbit, "orbit", false, "draw x/y paths on one canvas instead of time series")

	queryCmd := &cobra.Command{
		Use:   "query [run_id] [t]",
		Short: "print the composite world state of a run at time t",
		Args:  cobra.ExactArgs(2),
		RunE:  queryRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export the record log as [low, high, states] triples",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVar(&outFile, "out", "", "output file (default stdout)")

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export every recorded agent state as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVar(&outFile, "out", "", "output file (default stdout)")

	presetsCmd := &cobra.Command{
		Use:   "presets [name]",
		Short: "list presets, or print one as a config file",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showPresets,
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "run one scenario concurrently over several lookback values",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addScenarioFlags(sweepCmd)
	sweepCmd.Flags().Float64SliceVar(&lookbacks, "lookbacks", []float64{0.0005, 0.001, 0.005, 0.01}, "lookback values to compare")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "watch a simulation in the terminal",
		Args:  cobra.NoArgs,
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)
	liveCmd.Flags().IntVar(&frameRate, "fps", 30, "passes per second")

	rootCmd.AddCommand(runCmd, listCmd, showCmd, plotCmd, queryCmd, exportJSONCmd, exportCSVCmd, presetsCmd, sweepCmd, liveCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().IntVar(&passes, "passes", 10000, "scheduling passes")
	cmd.Flags().Float64Var(&lookback, "lookback", 0.001, "how far behind its cursor an agent reads")
	cmd.Flags().Float64Var(&gConst, "g", 6.67e-11, "gravitational constant")
	cmd.Flags().Float64Var(&dt, "dt", 0.02, "seed time step for every agent")
	cmd.Flags().StringVar(&backend, "backend", "tree", "interval store backend (tree, linear)")
	cmd.Flags().StringVar(&forceLaw, "force-law", "reference", "force law (reference, inverse_square)")
}
