package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/san-kum/lcpsim/internal/config"
	"github.com/san-kum/lcpsim/internal/experiment"
)

var (
	dataDir    string
	verbose    bool
	configFile string
	mode       string
	warm       bool
	controller string
	steps      int
	dt         float64
	mu         float64
	force      float64
	kp         float64
	kd         float64
	target     float64
	limit      float64
	maxNodes   int
	// initial state
	x, y, z    float64
	vx, vy, vz float64
	// phase plot fields
	xField string
	yField string
	// export targets
	outFile string
	width   int
	height  int
	// live view
	manual bool
	// sweeps
	sweepParam  string
	sweepMin    float64
	sweepMax    float64
	sweepN      int
	sweepMetric string
	ensMin      float64
	ensMax      float64
	ensN        int
	workers     int

	logger = zap.NewNop()
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "lcpsim",
		Short:         "hopping leg with friction and contact, solved as a mixed LCP",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !verbose {
				return nil
			}
			l, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".lcpsim", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log solver activity")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a scenario and store the trajectory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	addScenarioFlags(runCmd)
	runCmd.Flags().StringVar(&mode, "mode", "", "simulate, optimize or optimize-warm")

	optimizeCmd := &cobra.Command{
		Use:   "optimize [preset]",
		Short: "solve the whole horizon as one program",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runOptimize,
	}
	addScenarioFlags(optimizeCmd)
	optimizeCmd.Flags().BoolVar(&warm, "warm", false, "warm start from a sequential rollout")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run results",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase space plot of two update fields",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().StringVar(&xField, "x", "q[1]", "field on the x-axis")
	phaseCmd.Flags().StringVar(&yField, "y", "v[1]", "field on the y-axis")
	phaseCmd.Flags().IntVar(&width, "width", 60, "plot width")
	phaseCmd.Flags().IntVar(&height, "height", 20, "plot height")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw the body and foot paths as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default <run_id>.svg)")
	exportSVGCmd.Flags().IntVar(&width, "width", 600, "image width")
	exportSVGCmd.Flags().IntVar(&height, "height", 600, "image height")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "step the simulation with live visualization",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addScenarioFlags(liveCmd)
	liveCmd.Flags().BoolVar(&manual, "manual", false, "drive the leg force from the keyboard")

	replayCmd := &cobra.Command{
		Use:   "replay [run_id]",
		Short: "replay a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  replayRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Printf("  %-8s %-8s %-10s %d steps\n", name, p.Env.Kind, p.Controller, p.Steps)
			}
		},
	}

	controllersCmd := &cobra.Command{
		Use:   "controllers",
		Short: "list available controllers",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range experiment.NewRegistry().ListControllers() {
				fmt.Printf("  %s\n", name)
			}
		},
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "grid search one parameter against a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	addScenarioFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "force", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 0, "lowest value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1, "highest value")
	sweepCmd.Flags().IntVar(&sweepN, "n", 5, "number of values")
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "control_effort", "metric to minimize")

	ensembleCmd := &cobra.Command{
		Use:   "ensemble [preset]",
		Short: "simulate a spread of drop heights concurrently",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEnsemble,
	}
	addScenarioFlags(ensembleCmd)
	ensembleCmd.Flags().Float64Var(&ensMin, "min", 0.8, "lowest body height")
	ensembleCmd.Flags().Float64Var(&ensMax, "max", 1.2, "highest body height")
	ensembleCmd.Flags().IntVar(&ensN, "n", 5, "number of runs")
	ensembleCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = unlimited)")

	scriptCmd := &cobra.Command{
		Use:   "script [file]",
		Short: "run a scripted sequence of scenarios",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}

	rootCmd.AddCommand(runCmd, optimizeCmd, listCmd, plotCmd, phaseCmd, exportJSONCmd, exportSVGCmd,
		liveCmd, replayCmd, presetsCmd, controllersCmd, sweepCmd, ensembleCmd, scriptCmd)

	err := rootCmd.Execute()
	_ = logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func addScenarioFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&configFile, "config", "", "config file path (yaml)")
	f.StringVar(&controller, "controller", "none", "controller")
	f.IntVar(&steps, "steps", config.DefaultSteps, "number of timesteps")
	f.Float64Var(&dt, "dt", 0.05, "timestep")
	f.Float64Var(&mu, "mu", 0.5, "friction coefficient")
	f.Float64Var(&force, "force", 0, "constant leg force")
	f.Float64Var(&kp, "kp", config.DefaultKp, "pd kp")
	f.Float64Var(&kd, "kd", config.DefaultKd, "pd kd")
	f.Float64Var(&target, "target", config.DefaultTarget, "pd target leg length")
	f.Float64Var(&limit, "limit", 0, "pd force limit (0 = none)")
	f.IntVar(&maxNodes, "max-nodes", config.DefaultMaxNodes, "branch and bound node limit")
	f.Float64Var(&x, "x", 0, "initial body x")
	f.Float64Var(&y, "y", 1, "initial body height")
	f.Float64Var(&z, "z", 0.25, "initial foot height")
	f.Float64Var(&vx, "vx", 0, "initial horizontal velocity")
	f.Float64Var(&vy, "vy", 0, "initial body vertical velocity")
	f.Float64Var(&vz, "vz", 0, "initial foot vertical velocity")
}
