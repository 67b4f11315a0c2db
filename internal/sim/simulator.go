package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/san-kum/lcpsim/internal/dynamo"
	"github.com/san-kum/lcpsim/internal/lcp"
	"github.com/san-kum/lcpsim/internal/mip"
)

// ErrBusy is returned when a run starts while another is stepping.
var ErrBusy = errors.New("sim: simulator is already stepping")

type Simulator struct {
	params     lcp.Params
	env        lcp.Environment
	logger     *zap.Logger
	solverOpts []mip.Option
	metrics    []dynamo.Metric
	observers  []dynamo.Observer

	mu    sync.Mutex
	phase Phase
}

func New(params lcp.Params, env lcp.Environment, opts ...Option) *Simulator {
	s := &Simulator{
		params:    params,
		env:       env,
		logger:    zap.NewNop(),
		metrics:   make([]dynamo.Metric, 0),
		observers: make([]dynamo.Observer, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulator) Params() lcp.Params           { return s.params }
func (s *Simulator) Environment() lcp.Environment { return s.env }

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) model() *mip.Model {
	opts := append([]mip.Option{mip.WithLogger(s.logger)}, s.solverOpts...)
	return mip.New(opts...)
}

func (s *Simulator) validate(q0, v0 []float64, n int) (dynamo.State, error) {
	if err := s.params.Validate(); err != nil {
		return dynamo.State{}, err
	}
	if n < 1 {
		return dynamo.State{}, fmt.Errorf("%w: horizon must be at least 1, got %d", dynamo.ErrParameterBounds, n)
	}
	state := dynamo.State{Q: q0, V: v0}.Clone()
	if err := state.Validate(); err != nil {
		return dynamo.State{}, err
	}
	return state, nil
}

// Advance solves a single timestep from state under leg force u. It does
// not touch the phase, metrics or observers.
func (s *Simulator) Advance(ctx context.Context, state dynamo.State, u float64) (lcp.Solved, *mip.Solution, error) {
	m := s.model()
	sym, err := lcp.Step(m, s.params, s.env, mip.Consts(state.Q), mip.Consts(state.V), mip.Const(u))
	if err != nil {
		return lcp.Solved{}, nil, err
	}
	sol, err := m.Solve(ctx)
	if err != nil {
		return lcp.Solved{}, nil, err
	}
	return lcp.Extract(sol, sym), sol, nil
}

// Simulate runs n sequential steps from (q0, v0), evaluating ctrl at every
// solved state. Any failed step fails the whole call.
func (s *Simulator) Simulate(ctx context.Context, q0, v0 []float64, ctrl dynamo.Controller, n int) (res *dynamo.Result, err error) {
	state, err := s.validate(q0, v0, n)
	if err != nil {
		return nil, err
	}
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer func() { s.finish(err) }()

	start := time.Now()
	res = s.newResult(dynamo.ModeSimulate, n)
	for i := 0; i < n; i++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, s.stepError(dynamo.ModeSimulate, i, state, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctxErr))
		}
		u := ctrl.Compute(state.Q, state.V)
		upd, sol, err := s.Advance(ctx, state, u)
		if err != nil {
			return nil, s.stepError(dynamo.ModeSimulate, i, state, err)
		}
		res.Solves++
		res.Nodes += sol.Nodes
		s.logger.Debug("step solved",
			zap.Int("step", i),
			zap.Float64s("q", upd.Q),
			zap.Float64("u", u),
			zap.Int("nodes", sol.Nodes),
		)
		s.record(res, i, upd)
		state = dynamo.Next(upd)
	}
	s.complete(res, start)
	return res, nil
}

// Optimize builds all n steps into one model, driven by the open-loop leg
// forces in controls, and solves it once.
func (s *Simulator) Optimize(ctx context.Context, q0, v0 []float64, controls []float64, n int) (res *dynamo.Result, err error) {
	state, err := s.validate(q0, v0, n)
	if err != nil {
		return nil, err
	}
	if len(controls) != n {
		return nil, fmt.Errorf("%w: %d controls for %d steps", dynamo.ErrDimensionMismatch, len(controls), n)
	}
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer func() { s.finish(err) }()

	m := s.model()
	syms, err := s.chain(m, dynamo.ModeOptimize, state, controls)
	if err != nil {
		return nil, err
	}
	return s.solveBatch(ctx, m, dynamo.ModeOptimize, state, syms)
}

// OptimizeWarm is Optimize seeded from a solved trajectory. The seed fixes
// every disjunction, so the batch reduces to one linear program; its leg
// forces are reused as controls.
func (s *Simulator) OptimizeWarm(ctx context.Context, q0, v0 []float64, seed []lcp.Solved) (res *dynamo.Result, err error) {
	state, err := s.validate(q0, v0, len(seed))
	if err != nil {
		return nil, err
	}
	if err := s.begin(); err != nil {
		return nil, err
	}
	defer func() { s.finish(err) }()

	controls := make([]float64, len(seed))
	for i, u := range seed {
		controls[i] = u.U
	}
	m := s.model()
	syms, err := s.chain(m, dynamo.ModeOptimizeWarm, state, controls)
	if err != nil {
		return nil, err
	}
	for i := range syms {
		if err := lcp.Seed(m, syms[i], seed[i]); err != nil {
			return nil, s.stepError(dynamo.ModeOptimizeWarm, i, state, err)
		}
	}
	if err := m.WarmStart(); err != nil {
		return nil, s.stepError(dynamo.ModeOptimizeWarm, -1, state, err)
	}
	return s.solveBatch(ctx, m, dynamo.ModeOptimizeWarm, state, syms)
}

func (s *Simulator) chain(m *mip.Model, mode dynamo.Mode, state dynamo.State, controls []float64) ([]lcp.Symbolic, error) {
	q, v := mip.Consts(state.Q), mip.Consts(state.V)
	syms := make([]lcp.Symbolic, 0, len(controls))
	for i, u := range controls {
		sym, err := lcp.Step(m, s.params, s.env, q, v, mip.Const(u))
		if err != nil {
			return nil, s.stepError(mode, i, state, err)
		}
		syms = append(syms, sym)
		q, v = sym.Q, sym.V
	}
	return syms, nil
}

func (s *Simulator) solveBatch(ctx context.Context, m *mip.Model, mode dynamo.Mode, state dynamo.State, syms []lcp.Symbolic) (*dynamo.Result, error) {
	start := time.Now()
	s.logger.Debug("batch built",
		zap.String("mode", string(mode)),
		zap.Int("steps", len(syms)),
		zap.Int("vars", m.NumVars()),
		zap.Int("rows", m.NumConstraints()),
		zap.Int("binaries", m.UnfixedBinaries()),
	)
	sol, err := m.Solve(ctx)
	if err != nil {
		return nil, s.stepError(mode, -1, state, err)
	}
	res := s.newResult(mode, len(syms))
	res.Solves = 1
	res.Nodes = sol.Nodes
	for i, sym := range syms {
		s.record(res, i, lcp.Extract(sol, sym))
	}
	s.complete(res, start)
	return res, nil
}

func (s *Simulator) newResult(mode dynamo.Mode, n int) *dynamo.Result {
	for _, m := range s.metrics {
		m.Reset()
	}
	return &dynamo.Result{
		Mode:       mode,
		Trajectory: make([]lcp.Solved, 0, n),
		Metrics:    make(map[string]float64),
	}
}

func (s *Simulator) record(res *dynamo.Result, i int, upd lcp.Solved) {
	res.Trajectory = append(res.Trajectory, upd)
	for _, m := range s.metrics {
		m.Observe(i, upd, s.params)
	}
	for _, obs := range s.observers {
		obs.OnStep(i, upd)
	}
}

func (s *Simulator) complete(res *dynamo.Result, start time.Time) {
	for _, m := range s.metrics {
		res.Metrics[m.Name()] = m.Value()
	}
	s.logger.Info("trajectory solved",
		zap.String("mode", string(res.Mode)),
		zap.Int("steps", len(res.Trajectory)),
		zap.Int("solves", res.Solves),
		zap.Int("nodes", res.Nodes),
		zap.Duration("elapsed", time.Since(start)),
	)
}

func (s *Simulator) stepError(mode dynamo.Mode, step int, state dynamo.State, err error) error {
	s.logger.Warn("trajectory failed",
		zap.String("mode", string(mode)),
		zap.Int("step", step),
		zap.Error(err),
	)
	return &dynamo.SimulationError{Step: step, Mode: mode, State: state.Clone(), Wrapped: err}
}
