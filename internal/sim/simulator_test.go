package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/san-kum/lcpsim/internal/config"
	"github.com/san-kum/lcpsim/internal/control"
	"github.com/san-kum/lcpsim/internal/dynamo"
	"github.com/san-kum/lcpsim/internal/lcp"
	"github.com/san-kum/lcpsim/internal/metrics"
)

var (
	landingQ0 = []float64{0, 0.6, 0.04}
	landingV0 = []float64{0, -1, -1}
)

func assertSamePositions(t *testing.T, want, got []lcp.Solved) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("expected %d steps, got %d", len(want), len(got))
	}
	for i := range want {
		for j := range want[i].Q {
			if math.Abs(want[i].Q[j]-got[i].Q[j]) > tol {
				t.Errorf("step %d q[%d]: expected %f, got %f", i, j, want[i].Q[j], got[i].Q[j])
			}
		}
	}
}

func controlsOf(traj []lcp.Solved) []float64 {
	out := make([]float64, len(traj))
	for i, u := range traj {
		out[i] = u.U
	}
	return out
}

func TestSimulateMatchesOptimize(t *testing.T) {
	ctx := context.Background()
	s := New(lcp.DefaultParams(), lcp.FlatGround(0))

	seq, err := s.Simulate(ctx, landingQ0, landingV0, control.NewNone(), 2)
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
	batch, err := s.Optimize(ctx, landingQ0, landingV0, controlsOf(seq.Trajectory), 2)
	if err != nil {
		t.Fatalf("optimize failed: %v", err)
	}
	if batch.Solves != 1 {
		t.Errorf("expected a single solve, got %d", batch.Solves)
	}
	assertSamePositions(t, seq.Trajectory, batch.Trajectory)

	if y := batch.Trajectory[1].Q[lcp.Y]; math.Abs(y-0.5) > tol {
		t.Errorf("expected the min limit to hold the body at 0.5, got %f", y)
	}
}

func TestOptimizeWarmReproducesSeed(t *testing.T) {
	ctx := context.Background()
	s := New(lcp.DefaultParams(), lcp.FlatGround(0), WithMetric(metrics.NewComplementarity()))

	seq, err := s.Simulate(ctx, landingQ0, landingV0, control.NewConstant(0.5), 5)
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
	warm, err := s.OptimizeWarm(ctx, landingQ0, landingV0, seq.Trajectory)
	if err != nil {
		t.Fatalf("warm optimize failed: %v", err)
	}
	if warm.Mode != dynamo.ModeOptimizeWarm {
		t.Errorf("expected mode %s, got %s", dynamo.ModeOptimizeWarm, warm.Mode)
	}
	if warm.Nodes != 1 {
		t.Errorf("expected a single linear program, got %d nodes", warm.Nodes)
	}
	assertSamePositions(t, seq.Trajectory, warm.Trajectory)
	for i := range seq.Trajectory {
		if math.Abs(seq.Trajectory[i].U-warm.Trajectory[i].U) > 0 {
			t.Errorf("step %d: controls differ", i)
		}
	}
	if warm.Metrics["complementarity"] > tol {
		t.Errorf("expected complementarity to hold, got %f", warm.Metrics["complementarity"])
	}
}

func TestDropPresetBatchHorizon(t *testing.T) {
	const steps = 6
	ctx := context.Background()
	cfg := config.GetPreset("drop")
	env, err := cfg.Environment()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	start := cfg.InitialState()
	s := New(cfg.LCPParams(), env, WithSolverOptions(cfg.SolverOptions()...))

	seq, err := s.Simulate(ctx, start.Q, start.V, control.NewNone(), steps)
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
	cold, err := s.Optimize(ctx, start.Q, start.V, controlsOf(seq.Trajectory), steps)
	if err != nil {
		t.Fatalf("optimize failed: %v", err)
	}
	assertSamePositions(t, seq.Trajectory, cold.Trajectory)

	warm, err := s.OptimizeWarm(ctx, start.Q, start.V, seq.Trajectory)
	if err != nil {
		t.Fatalf("warm optimize failed: %v", err)
	}
	if warm.Nodes != 1 {
		t.Errorf("expected a single linear program, got %d nodes", warm.Nodes)
	}
	assertSamePositions(t, seq.Trajectory, warm.Trajectory)

	last := seq.Trajectory[steps-1]
	if last.Q[lcp.Z] < -tol {
		t.Errorf("expected the foot to stay above ground, got z = %f", last.Q[lcp.Z])
	}
}

func TestOptimizeWarmShapeMismatch(t *testing.T) {
	ctx := context.Background()
	seq, err := New(lcp.DefaultParams(), lcp.Empty()).Simulate(ctx, landingQ0, landingV0, control.NewNone(), 1)
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}

	s := New(lcp.DefaultParams(), lcp.FlatGround(0))
	_, err = s.OptimizeWarm(ctx, landingQ0, landingV0, seq.Trajectory)
	if !errors.Is(err, lcp.ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
	if s.Phase() != Ready {
		t.Errorf("expected phase ready after failure, got %s", s.Phase())
	}
}

func TestOptimizeValidation(t *testing.T) {
	ctx := context.Background()
	s := New(lcp.DefaultParams(), lcp.FlatGround(0))

	tests := []struct {
		name     string
		q0       []float64
		controls []float64
		n        int
		want     error
	}{
		{"controls length", landingQ0, []float64{0}, 2, dynamo.ErrDimensionMismatch},
		{"empty horizon", landingQ0, nil, 0, dynamo.ErrParameterBounds},
		{"short state", []float64{0, 1}, []float64{0}, 1, dynamo.ErrDimensionMismatch},
	}
	for _, tt := range tests {
		_, err := s.Optimize(ctx, tt.q0, landingV0, tt.controls, tt.n)
		if !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}

	bad := lcp.DefaultParams()
	bad.Dt = -1
	_, err := New(bad, lcp.Empty()).Simulate(ctx, landingQ0, landingV0, control.NewNone(), 1)
	if !errors.Is(err, lcp.ErrInvalidParams) {
		t.Errorf("expected ErrInvalidParams, got %v", err)
	}
}

func TestEnsembleRunObservers(t *testing.T) {
	const steps = 4
	seen := make([][]lcp.Solved, 3)
	runs := make([]Run, len(seen))
	for i := range runs {
		runs[i] = Run{
			Params:     lcp.DefaultParams(),
			Q0:         []float64{0, 0.6 + 0.1*float64(i), 0.04},
			V0:         landingV0,
			Controller: control.NewNone(),
			Steps:      steps,
			Observers: []dynamo.Observer{dynamo.ObserverFunc(func(step int, u lcp.Solved) {
				if step != len(seen[i]) {
					t.Errorf("run %d: expected step %d, got %d", i, len(seen[i]), step)
				}
				seen[i] = append(seen[i], u)
			})},
		}
	}

	results, err := NewEnsemble(lcp.FlatGround(0), 3, nil).Run(context.Background(), runs)
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	for i, res := range results {
		if len(seen[i]) != steps {
			t.Fatalf("run %d: expected %d observed steps, got %d", i, steps, len(seen[i]))
		}
		assertSamePositions(t, res.Trajectory, seen[i])
	}
}

func TestSimulateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(lcp.DefaultParams(), lcp.Empty()).Simulate(ctx, landingQ0, landingV0, control.NewNone(), 3)
	if !errors.Is(err, context.Canceled) || !errors.Is(err, dynamo.ErrContextCanceled) {
		t.Errorf("expected cancellation, got %v", err)
	}
}

func TestEnsemble(t *testing.T) {
	slippery := lcp.DefaultParams()
	slippery.Mu = 0.1
	runs := []Run{
		{Params: lcp.DefaultParams(), Q0: landingQ0, V0: landingV0, Controller: control.NewNone(), Steps: 3},
		{Params: slippery, Q0: landingQ0, V0: landingV0, Controller: control.NewNone(), Steps: 3},
	}

	e := NewEnsemble(lcp.FlatGround(0), 2, metrics.Default)
	results, err := e.Run(context.Background(), runs)
	if err != nil {
		t.Fatalf("ensemble failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, r := range results {
		if len(r.Trajectory) != 3 {
			t.Errorf("run %d: expected 3 steps, got %d", i, len(r.Trajectory))
		}
		if _, ok := r.Metrics["contact_steps"]; !ok {
			t.Errorf("run %d: missing contact_steps metric", i)
		}
	}
}
