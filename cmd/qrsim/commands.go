package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/qrsim/internal/config"
	"github.com/san-kum/qrsim/internal/dynamo"
	"github.com/san-kum/qrsim/internal/logging"
	"github.com/san-kum/qrsim/internal/sim"
	"github.com/san-kum/qrsim/internal/storage"
	"github.com/san-kum/qrsim/internal/viz"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, name, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	s, err := newScheduler(cfg, log)
	if err != nil {
		return err
	}

	log.Info("starting run", "scenario", name, "agents", len(cfg.Agents), "passes", cfg.Passes,
		"backend", cfg.Backend, "force_law", cfg.ForceLaw, "lookback", cfg.Lookback)

	result, runErr := s.Run(ctx, cfg.Passes)
	if runErr != nil && !errors.Is(runErr, dynamo.ErrContextCanceled) {
		return runErr
	}
	if runErr != nil {
		log.Warn("run interrupted, archiving partial history", "passes", result.Passes)
	}

	// an interrupted run is still archived
	saveCtx := context.WithoutCancel(ctx)
	archive, err := openArchive(saveCtx, cfg)
	if err != nil {
		return err
	}
	defer storage.CloseIfSupported(archive)

	recs := storage.FromStore(s.Store().Records())
	meta := storage.RunMetadata{
		Preset:    name,
		Backend:   cfg.Backend,
		ForceLaw:  cfg.ForceLaw,
		G:         cfg.G,
		Lookback:  cfg.Lookback,
		Budget:    cfg.Passes,
		Passes:    result.Passes,
		Commits:   result.Commits,
		Blocked:   result.Blocked,
		StalledAt: result.StalledAt,
		Records:   result.Records,
		Agents:    s.Order(),
		Metrics:   result.Metrics,
		Elapsed:   result.Elapsed,
	}
	runID, err := archive.SaveRun(saveCtx, meta, recs)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}

	if outFile != "" {
		if err := writeOutput(outFile, func(w io.Writer) error { return storage.WriteLog(w, recs) }); err != nil {
			return err
		}
	}

	log.Info("run finished", "id", runID, "passes", result.Passes, "commits", result.Commits,
		"records", result.Records, "elapsed", result.Elapsed)

	fmt.Println(viz.Summary(name, result))
	fmt.Printf("run id: %s\n", runID)
	return runErr
}

func listRuns(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := baseConfig(cmd)
	if err != nil {
		return err
	}
	archive, err := openArchive(ctx, cfg)
	if err != nil {
		return err
	}
	defer storage.CloseIfSupported(archive)

	runs, err := archive.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tBACKEND\tLAW\tPASSES\tCOMMITS\tRECORDS\tSTALLED")
	for _, run := range runs {
		stalled := "-"
		if run.StalledAt > 0 {
			stalled = strconv.Itoa(run.StalledAt)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d/%d\t%d\t%d\t%s\n",
			run.ID,
			run.Preset,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Backend,
			run.ForceLaw,
			run.Passes, run.Budget,
			run.Commits,
			run.Records,
			stalled,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := baseConfig(cmd)
	if err != nil {
		return err
	}
	archive, err := openArchive(ctx, cfg)
	if err != nil {
		return err
	}
	defer storage.CloseIfSupported(archive)

	meta, err := archive.LoadRun(ctx, args[0])
	if err != nil {
		return err
	}
	recs, err := archive.LoadRecords(ctx, meta.ID)
	if err != nil {
		return err
	}

	cursors := make(map[string]float64, len(meta.Agents))
	for _, id := range meta.Agents {
		if states := storage.Trajectory(recs, id); len(states) > 0 {
			cursors[id] = states[len(states)-1].Time
		}
	}

	fmt.Println(viz.Summary(meta.ID, &sim.Result{
		Passes:    meta.Passes,
		Commits:   meta.Commits,
		Blocked:   meta.Blocked,
		StalledAt: meta.StalledAt,
		Records:   meta.Records,
		Cursors:   cursors,
		Metrics:   meta.Metrics,
		Elapsed:   meta.Elapsed,
	}))
	fmt.Println(viz.Row("scenario", meta.Preset))
	fmt.Println(viz.Row("recorded", meta.Timestamp.Format("2006-01-02 15:04:05")))
	fmt.Println(viz.Row("backend", meta.Backend))
	fmt.Println(viz.Row("force law", meta.ForceLaw))
	fmt.Println(viz.Row("G", strconv.FormatFloat(meta.G, 'g', -1, 64)))
	fmt.Println(viz.Row("lookback", strconv.FormatFloat(meta.Lookback, 'g', -1, 64)))
	fmt.Println(viz.Row("agents", strings.Join(meta.Agents, ", ")))
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg, err := baseConfig(cmd)
	if err != nil {
		return err
	}
	archive, err := openArchive(ctx, cfg)
	if err != nil {
		return err
	}
	defer storage.CloseIfSupported(archive)

	recs, err := archive.LoadRecords(ctx, args[0])
	if err != nil {
		return err
	}

	agents := args[1:]
	if len(agents) == 0 {
		agents = storage.Agents(recs)
	}

	fmt.Printf("run: %s\n", args[0])
	fmt.Printf("records: %d\n\n", len(recs))

	paths := make(map[string][]dynamo.AgentState, len(agents))
	for _, agent := range agents {
		states := storage.Trajectory(recs, agent)
		if len(states) == 0 {
			return fmt.Errorf("no states recorded for agent %s", agent)
		}
		paths[agent] = states
	}

	if orbit {
		out, err := viz.Orbits(paths, plotWidth/2, plotWidth/4)
		if err != nil {
			return err
		}
		fmt.Println(viz.CanvasStyle.Render(out))
		fmt.Println(strings.Join(agents, ", "))
		return nil
	}

	for _, agent := range agents {
		states := paths[agent]
		for _, f := range fields {
			graph, err := viz.PlotTrajectory(agent, states, f, plotWidth, 10)
			if err != nil {
				return err
			}
			fmt.Println(graph)
			fmt.Println()
		}
	}
	return nil
}

func queryRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	t, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return fmt.Errorf("invalid time %q: %w", args[1], err)
	}

	cfg, err := baseConfig(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	archive, err := openArchive(ctx, cfg)
	if err != nil {
		return err
	}
	defer storage.CloseIfSupported(archive)

	meta, err := archive.LoadRun(ctx, args[0])
	if err != nil {
		return err
	}
	parts, err := archive.QueryAt(ctx, meta.ID, t)
	if err != nil {
		return err
	}

	world := dynamo.Merge(parts)
	if !world.Covers(meta.Agents) {
		log.Warn("world at t is incomplete", "t", t, "have", world.IDs(), "want", meta.Agents)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(world)
}

func exportJSON(cmd *cobra.Command, args []string) error {
	return exportRecords(cmd, args[0], storage.WriteLog)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	return exportRecords(cmd, args[0], storage.WriteTrajectoriesCSV)
}

func exportRecords(cmd *cobra.Command, runID string, write func(io.Writer, []storage.Record) error) error {
	ctx := cmd.Context()
	cfg, err := baseConfig(cmd)
	if err != nil {
		return err
	}
	archive, err := openArchive(ctx, cfg)
	if err != nil {
		return err
	}
	defer storage.CloseIfSupported(archive)

	recs, err := archive.LoadRecords(ctx, runID)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		return fmt.Errorf("no data to export")
	}
	return writeOutput(outFile, func(w io.Writer) error { return write(w, recs) })
}

func showPresets(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		cfg := config.GetPreset(args[0])
		if cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
		return cfg.WriteYAML(os.Stdout)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tAGENTS\tPASSES\tLAW\tG")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%g\n", name, len(cfg.Agents), cfg.Passes, cfg.ForceLaw, cfg.G)
	}
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, name, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	if len(lookbacks) == 0 {
		return fmt.Errorf("%w: no lookback values", dynamo.ErrParameterBounds)
	}

	builders := make([]sim.Builder, len(lookbacks))
	for i, lb := range lookbacks {
		c := *cfg
		c.Agents = append([]config.AgentConfig(nil), cfg.Agents...)
		c.Lookback = lb
		builders[i] = func() (*sim.Scheduler, error) {
			return newScheduler(&c, log.With("lookback", lb))
		}
	}

	log.Info("starting sweep", "scenario", name, "runs", len(builders), "passes", cfg.Passes)
	results, err := sim.NewEnsemble(cfg.Passes, builders...).Run(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "LOOKBACK\tPASSES\tCOMMITS\tBLOCKED\tRECORDS\tSTALLED\tENERGY_DRIFT\tELAPSED")
	for i, res := range results {
		fmt.Fprintf(w, "%g\t%d\t%d\t%d\t%d\t%d\t%.3e\t%v\n",
			lookbacks[i], res.Passes, res.Commits, res.Blocked, res.Records, res.StalledAt,
			res.Metrics["energy_drift"], res.Elapsed)
	}
	return w.Flush()
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, name, err := loadScenario(cmd)
	if err != nil {
		return err
	}
	s, err := newScheduler(cfg, logging.NoOp{})
	if err != nil {
		return err
	}
	m, err := viz.NewLiveModel(s, name, cfg.Passes, frameRate)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m)
	final, err := p.Run()
	if err != nil {
		return err
	}
	if lm, ok := final.(viz.LiveModel); ok && lm.Err() != nil {
		return lm.Err()
	}
	return nil
}
