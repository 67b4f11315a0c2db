package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/lcpsim/internal/analysis"
	"github.com/san-kum/lcpsim/internal/automation"
	"github.com/san-kum/lcpsim/internal/config"
	"github.com/san-kum/lcpsim/internal/control"
	"github.com/san-kum/lcpsim/internal/dynamo"
	"github.com/san-kum/lcpsim/internal/experiment"
	"github.com/san-kum/lcpsim/internal/export"
	"github.com/san-kum/lcpsim/internal/lcp"
	"github.com/san-kum/lcpsim/internal/optim"
	"github.com/san-kum/lcpsim/internal/sim"
	"github.com/san-kum/lcpsim/internal/storage"
	"github.com/san-kum/lcpsim/internal/store"
	"github.com/san-kum/lcpsim/internal/viz"
)

// resolveConfig layers a preset, then a config file, then explicitly set
// flags.
func resolveConfig(cmd *cobra.Command, args []string) (*config.Config, string, error) {
	name := "custom"
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		name = args[0]
		cfg = config.GetPreset(name)
		if cfg == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", name, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, "", fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("controller") {
		cfg.Controller = controller
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("max-nodes") {
		cfg.Solver.MaxNodes = maxNodes
	}
	scalars := []struct {
		flag, param string
		value       float64
	}{
		{"dt", "dt", dt},
		{"mu", "mu", mu},
		{"force", "force", force},
		{"kp", "kp", kp},
		{"kd", "kd", kd},
		{"target", "target", target},
		{"limit", "limit", limit},
	}
	for _, s := range scalars {
		if flags.Changed(s.flag) {
			if err := cfg.Set(s.param, s.value); err != nil {
				return nil, "", err
			}
		}
	}
	state := []struct {
		flag  string
		dst   *float64
		value float64
	}{
		{"x", &cfg.InitState.X, x},
		{"y", &cfg.InitState.Y, y},
		{"z", &cfg.InitState.Z, z},
		{"vx", &cfg.InitState.VX, vx},
		{"vy", &cfg.InitState.VY, vy},
		{"vz", &cfg.InitState.VZ, vz},
	}
	for _, s := range state {
		if flags.Changed(s.flag) {
			*s.dst = s.value
		}
	}
	return cfg, name, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("mode") {
		cfg.Mode = dynamo.Mode(mode)
	}
	return execute(cfg, name)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	cfg.Mode = dynamo.ModeOptimize
	if warm {
		cfg.Mode = dynamo.ModeOptimizeWarm
	}
	return execute(cfg, name)
}

func execute(cfg *config.Config, name string) error {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp := experiment.New(cfg)
	if err := exp.Setup(experiment.NewRegistry(), sim.WithLogger(logger)); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s (%s, %d steps)...\n", name, cfg.Mode, cfg.Steps)
	start := time.Now()
	result, err := exp.Run(ctx)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(name, cfg.Controller, cfg.LCPParams(), cfg.InitialState(), result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d  solves: %d  nodes: %d\n", len(result.Trajectory), result.Solves, result.Nodes)
	printMetrics(result.Metrics)
	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tMODE\tTIME\tSTEPS\tDT\tCTRL\tNODES")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.4fs\t%s\t%d\n",
			run.ID,
			run.Scenario,
			run.Mode,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Steps,
			run.Params.Dt,
			run.Controller,
			run.Nodes,
		)
	}
	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, []lcp.Solved, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	traj, _, err := st.LoadTrajectory(runID)
	if err != nil {
		return nil, nil, err
	}
	if len(traj) == 0 {
		return nil, nil, fmt.Errorf("no data in run %s", runID)
	}
	return meta, traj, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s (%s)\n", meta.Scenario, meta.Mode)
	fmt.Printf("steps: %d\n\n", len(traj))

	fields := []struct{ path, caption string }{
		{"q[0]", "body x"},
		{"q[1]", "body height"},
		{"q[2]", "foot height"},
		{"u", "leg force"},
	}
	for i := range traj[0].Contacts {
		fields = append(fields, struct{ path, caption string }{
			fmt.Sprintf("contact[%d].cn", i),
			fmt.Sprintf("normal impulse (%s)", traj[0].Contacts[i].Obstacle),
		})
	}
	for _, f := range fields {
		data, err := analysis.Series(traj, f.path)
		if err != nil {
			return err
		}
		if len(data) < 2 {
			data = append(data, data...)
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(8),
			asciigraph.Width(70),
			asciigraph.Caption(f.caption),
		)
		fmt.Println(graph)
		if sum, err := analysis.Summarize(traj, f.path); err == nil {
			fmt.Printf("  min %.4f  max %.4f  mean %.4f  sd %.4f\n", sum.Min, sum.Max, sum.Mean, sum.StdDev)
		}
		fmt.Println()
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	_, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}
	portrait, err := analysis.NewPhasePortrait(traj, xField, yField)
	if err != nil {
		return err
	}
	fmt.Print(analysis.PhasePortraitToASCII(portrait, width, height))
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}
	result := &dynamo.Result{Mode: meta.Mode, Trajectory: traj, Metrics: meta.Metrics, Solves: meta.Solves, Nodes: meta.Nodes}
	data := store.NewExportData(meta.Scenario, meta.Controller, meta.Params, meta.Initial, result)
	if outFile == "" {
		return store.ExportJSONStdout(data)
	}
	if err := store.ExportJSON(outFile, data); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", outFile)
	return nil
}

// environmentFor rebuilds the environment of a stored run from its preset.
func environmentFor(meta *storage.RunMetadata) lcp.Environment {
	if cfg := config.GetPreset(meta.Scenario); cfg != nil {
		if env, err := cfg.Environment(); err == nil {
			return env
		}
	}
	return lcp.Empty()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	meta, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}
	path := outFile
	if path == "" {
		path = meta.ID + ".svg"
	}
	svg := export.TrajectoryToSVG(traj, environmentFor(meta), width, height)
	if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", path)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, name, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	env, err := cfg.Environment()
	if err != nil {
		return err
	}

	var ctrl dynamo.Controller
	if manual {
		ctrl = control.NewManual(0.5)
	} else {
		ctrl, err = experiment.NewRegistry().GetController(cfg.Controller, cfg.ControllerParams)
		if err != nil {
			return err
		}
	}

	ctx, cancel := signalContext()
	defer cancel()

	s := sim.New(cfg.LCPParams(), env, sim.WithSolverOptions(cfg.SolverOptions()...), sim.WithLogger(logger))
	return viz.Run(viz.NewModel(ctx, s, ctrl, cfg.InitialState(), name))
}

func replayRun(cmd *cobra.Command, args []string) error {
	meta, traj, err := loadRun(args[0])
	if err != nil {
		return err
	}
	return viz.Run(viz.NewReplay(environmentFor(meta), meta.Initial, traj, meta.Scenario))
}

func runSweep(cmd *cobra.Command, args []string) error {
	base, _, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if sweepN < 1 {
		return fmt.Errorf("need at least one sweep value, got %d", sweepN)
	}

	registry := experiment.NewRegistry()
	build := func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := *base
		cfg.Params.Gravity = append([]float64(nil), base.Params.Gravity...)
		for k, v := range params {
			if err := cfg.Set(k, v); err != nil {
				return nil, err
			}
		}
		exp := experiment.New(&cfg)
		if err := exp.Setup(registry, sim.WithLogger(logger)); err != nil {
			return nil, err
		}
		return exp, nil
	}

	ctx, cancel := signalContext()
	defer cancel()

	gs := optim.NewGridSearch([]string{sweepParam}, [][]float64{optim.Linspace(sweepMin, sweepMax, sweepN)})
	best, val, points, err := gs.Search(ctx, build, sweepMetric)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", sweepParam, sweepMetric)
	for _, p := range points {
		if p.Err != nil {
			fmt.Fprintf(w, "%.4f\tinfeasible\n", p.Params[sweepParam])
			logger.Debug("sweep point failed", zap.Float64(sweepParam, p.Params[sweepParam]), zap.Error(p.Err))
			continue
		}
		fmt.Fprintf(w, "%.4f\t%.6f\n", p.Params[sweepParam], p.Value)
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}
	fmt.Printf("\nbest %s = %.4f (%s %.6f)\n", sweepParam, best[sweepParam], sweepMetric, val)
	return nil
}

func runEnsemble(cmd *cobra.Command, args []string) error {
	cfg, _, err := resolveConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	env, err := cfg.Environment()
	if err != nil {
		return err
	}
	registry := experiment.NewRegistry()

	heights := optim.Linspace(ensMin, ensMax, ensN)
	runs := make([]sim.Run, len(heights))
	for i, h := range heights {
		ctrl, err := registry.GetController(cfg.Controller, cfg.ControllerParams)
		if err != nil {
			return err
		}
		s0 := cfg.InitialState()
		s0.Q[lcp.Z] += h - s0.Q[lcp.Y]
		s0.Q[lcp.Y] = h
		runs[i] = sim.Run{Params: cfg.LCPParams(), Q0: s0.Q, V0: s0.V, Controller: ctrl, Steps: cfg.Steps}
	}

	ctx, cancel := signalContext()
	defer cancel()

	ens := sim.NewEnsemble(env, workers, registry.DefaultMetrics,
		sim.WithSolverOptions(cfg.SolverOptions()...), sim.WithLogger(logger))
	start := time.Now()
	results, err := ens.Run(ctx, runs)
	if err != nil {
		return err
	}
	fmt.Printf("%d runs in %v\n\n", len(results), time.Since(start))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HEIGHT\tCONTACT STEPS\tENERGY\tNODES")
	for i, res := range results {
		fmt.Fprintf(w, "%.3f\t%.0f\t%.4f\t%d\n", heights[i], res.Metrics["contact_steps"], res.Metrics["energy"], res.Nodes)
	}
	return w.Flush()
}

func runScript(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	outcomes, err := automation.RunScenario(ctx, sc, experiment.NewRegistry(), st, logger)
	for i, o := range outcomes {
		fmt.Printf("%d. %s (%s): %d steps", i+1, o.Preset, o.Result.Mode, len(o.Result.Trajectory))
		if o.RunID != "" {
			fmt.Printf(" saved as %s", o.RunID)
		}
		fmt.Println()
	}
	return err
}
