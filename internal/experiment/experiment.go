package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/lcpsim/internal/config"
	"github.com/san-kum/lcpsim/internal/control"
	"github.com/san-kum/lcpsim/internal/dynamo"
	"github.com/san-kum/lcpsim/internal/lcp"
	"github.com/san-kum/lcpsim/internal/sim"
)

// Experiment wires a scenario configuration into a simulator and runs the
// configured mode.
type Experiment struct {
	cfg        *config.Config
	simulator  *sim.Simulator
	controller dynamo.Controller
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg}
}

func (e *Experiment) Setup(r *Registry, opts ...sim.Option) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}
	env, err := e.cfg.Environment()
	if err != nil {
		return err
	}
	ctrl, err := r.GetController(e.cfg.Controller, e.cfg.ControllerParams)
	if err != nil {
		return err
	}

	all := []sim.Option{sim.WithSolverOptions(e.cfg.SolverOptions()...)}
	for _, m := range r.DefaultMetrics() {
		all = append(all, sim.WithMetric(m))
	}
	all = append(all, opts...)

	e.simulator = sim.New(e.cfg.LCPParams(), env, all...)
	e.controller = ctrl
	return nil
}

// Run executes the configured mode. Batch modes need an open-loop force
// sequence: constant controllers repeat their force, feedback controllers
// are rolled out sequentially first. The warm mode always seeds from a
// sequential rollout.
func (e *Experiment) Run(ctx context.Context) (*dynamo.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	s0 := e.cfg.InitialState()
	n := e.cfg.Steps

	switch e.cfg.Mode {
	case dynamo.ModeOptimize:
		controls, err := e.openLoop(ctx, s0, n)
		if err != nil {
			return nil, err
		}
		return e.simulator.Optimize(ctx, s0.Q, s0.V, controls, n)
	case dynamo.ModeOptimizeWarm:
		seed, err := e.simulator.Simulate(ctx, s0.Q, s0.V, e.controller, n)
		if err != nil {
			return nil, err
		}
		return e.simulator.OptimizeWarm(ctx, s0.Q, s0.V, seed.Trajectory)
	default:
		return e.simulator.Simulate(ctx, s0.Q, s0.V, e.controller, n)
	}
}

func (e *Experiment) openLoop(ctx context.Context, s0 dynamo.State, n int) ([]float64, error) {
	controls := make([]float64, n)
	switch c := e.controller.(type) {
	case *control.None:
		return controls, nil
	case *control.Constant:
		for i := range controls {
			controls[i] = c.Force
		}
		return controls, nil
	}
	rollout, err := e.simulator.Simulate(ctx, s0.Q, s0.V, e.controller, n)
	if err != nil {
		return nil, fmt.Errorf("rollout for open-loop controls: %w", err)
	}
	for i, u := range rollout.Trajectory {
		controls[i] = u.U
	}
	return controls, nil
}

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

func (e *Experiment) Config() *config.Config {
	return e.cfg
}

// Shape is the update shape the configured environment produces.
func (e *Experiment) Shape() (lcp.Shape, error) {
	env, err := e.cfg.Environment()
	if err != nil {
		return lcp.Shape{}, err
	}
	return lcp.Shape{
		Contacts:    len(env.Obstacles),
		Basis:       2,
		JointLimits: len(lcp.LegLimits(e.cfg.LCPParams()).Faces),
	}, nil
}
