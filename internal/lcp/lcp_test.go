package lcp

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.uber.org/multierr"

	"github.com/san-kum/lcpsim/internal/mip"
)

const tol = 1e-6

func TestContactBasis(t *testing.T) {
	s, c := math.Sqrt2/2, math.Sqrt2/2

	tests := []struct {
		name   string
		normal []float64
		mu     float64
		want   [][]float64
	}{
		{"frictionless", []float64{0, 1}, 0, [][]float64{{0, 1}, {0, 1}}},
		{"unit friction", []float64{0, 1}, 1, [][]float64{{-s, c}, {s, c}}},
		{"scaled normal", []float64{0, 3}, 1, [][]float64{{-s, c}, {s, c}}},
		{"wall", []float64{-1, 0}, 1, [][]float64{{-c, -s}, {-c, s}}},
	}
	for _, tt := range tests {
		edges, err := ContactBasis(tt.normal, tt.mu)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		for j := range tt.want {
			for i := range tt.want[j] {
				if math.Abs(edges[j][i]-tt.want[j][i]) > tol {
					t.Errorf("%s: edge %d expected %v, got %v", tt.name, j, tt.want[j], edges[j])
					break
				}
			}
		}
	}
}

func TestContactBasisErrors(t *testing.T) {
	if _, err := ContactBasis([]float64{0, 0, 1}, 0.5); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := ContactBasis([]float64{0, 0}, 0.5); err == nil {
		t.Error("expected error for zero normal")
	}
}

func TestParamsValidate(t *testing.T) {
	if err := DefaultParams().Validate(); err != nil {
		t.Fatalf("default params should validate, got %v", err)
	}

	p := DefaultParams()
	p.Dt = 0
	p.Mass = -1
	p.LegMin = 2
	err := p.Validate()
	if !errors.Is(err, ErrInvalidParams) {
		t.Fatalf("expected ErrInvalidParams, got %v", err)
	}
	if n := len(multierr.Errors(err)); n != 3 {
		t.Errorf("expected 3 aggregated errors, got %d", n)
	}
}

func TestLegLimits(t *testing.T) {
	limits := LegLimits(DefaultParams())

	tests := []struct {
		q    []float64
		want bool
	}{
		{[]float64{0, 1, 0}, true},
		{[]float64{0, 1.5, 0}, true},
		{[]float64{0, 1.6, 0}, false},
		{[]float64{0, 0.4, 0}, false},
	}
	for _, tt := range tests {
		got, err := limits.Contains(tt.q, tol)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("leg length %f: expected %v, got %v", LegLength(tt.q), tt.want, got)
		}
	}
}

func TestEnvironmentFree(t *testing.T) {
	env := Terrace(1, 0.5)

	tests := []struct {
		p    []float64
		want bool
	}{
		{[]float64{0, 0}, true},
		{[]float64{0, -0.1}, false},
		{[]float64{2, 0.5}, true},
		{[]float64{2, 0.2}, false},
	}
	for _, tt := range tests {
		got, err := env.Free(tt.p, tol)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != tt.want {
			t.Errorf("Free(%v): expected %v, got %v", tt.p, tt.want, got)
		}
	}

	if ok, _ := Empty().Free([]float64{0, -5}, tol); !ok {
		t.Error("empty environment should not constrain the tip")
	}
}

func TestStepLanding(t *testing.T) {
	p := DefaultParams()
	m := mip.New()
	q := mip.Consts([]float64{0, 1, 0.02})
	v := mip.Consts([]float64{0, 0, -1})

	sym, err := Step(m, p, FlatGround(0), q, v, mip.Const(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sol, err := m.Solve(context.Background())
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	upd := Extract(sol, sym)

	if math.Abs(upd.Q[Z]) > tol {
		t.Errorf("expected tip to land at 0, got %f", upd.Q[Z])
	}
	if math.Abs(upd.V[Z]+0.4) > tol {
		t.Errorf("expected tip velocity -0.4, got %f", upd.V[Z])
	}
	if math.Abs(upd.V[X]) > tol {
		t.Errorf("expected no horizontal velocity, got %f", upd.V[X])
	}
	if math.Abs(upd.V[Y]-p.Dt*p.Gravity[1]) > tol {
		t.Errorf("expected body in free fall, got vy %f", upd.V[Y])
	}

	c := upd.Contacts[0]
	if math.Abs(c.Force[1]-0.6) > tol {
		t.Errorf("expected vertical contact force 0.6, got %f", c.Force[1])
	}
	if c.Cn <= 0 {
		t.Errorf("expected positive normal force, got %f", c.Cn)
	}
	if math.Min(c.Cn, math.Abs(c.Separation)) > tol {
		t.Errorf("complementarity violated: cn %f separation %f", c.Cn, c.Separation)
	}
	if margin := p.Mu*c.Cn - c.Beta[0] - c.Beta[1]; margin < -tol {
		t.Errorf("friction cone violated: margin %f", margin)
	}
	for i, l := range upd.JointLimits {
		if l.Lambda > tol {
			t.Errorf("limit %d should be inactive, got lambda %f", i, l.Lambda)
		}
	}
}

func TestStepFrictionActsOnX(t *testing.T) {
	p := DefaultParams()
	m := mip.New()
	q := mip.Consts([]float64{0, 1, 0.02})
	v := mip.Consts([]float64{1.5, 0, -1})

	sym, err := Step(m, p, FlatGround(0), q, v, mip.Const(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sol, err := m.Solve(context.Background())
	if err != nil {
		t.Fatalf("solve failed: %v", err)
	}
	upd := Extract(sol, sym)

	fx := upd.Contacts[0].Force[X]
	if fx >= -tol {
		t.Fatalf("expected friction opposing the slide, got %f", fx)
	}
	if want := 1.5 + fx/p.Mass; math.Abs(upd.V[X]-want) > tol {
		t.Errorf("expected vx %f from the contact impulse, got %f", want, upd.V[X])
	}
	if upd.V[X] <= 0 {
		t.Errorf("expected the slide to continue, got vx %f", upd.V[X])
	}
	if math.Abs(upd.Q[X]-p.Dt*upd.V[X]) > tol {
		t.Errorf("expected x %f, got %f", p.Dt*upd.V[X], upd.Q[X])
	}
}

func TestStepDimensionMismatch(t *testing.T) {
	m := mip.New()
	_, err := Step(m, DefaultParams(), Empty(), mip.Consts([]float64{0, 1}), mip.Consts([]float64{0, 0, 0}), mip.Const(0))
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestStepInfeasibleStart(t *testing.T) {
	m := mip.New()
	q := mip.Consts([]float64{0, 1, -5})
	v := mip.Consts([]float64{0, 0, 0})
	if _, err := Step(m, DefaultParams(), FlatGround(0), q, v, mip.Const(0)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := m.Solve(context.Background()); !errors.Is(err, mip.ErrInfeasible) {
		t.Errorf("expected ErrInfeasible, got %v", err)
	}
}

func TestWalkPaths(t *testing.T) {
	u := Zero(Shape{Contacts: 1, Basis: 2, JointLimits: 2})
	paths := Paths(u)

	want := map[int]string{
		0:  "q[0]",
		3:  "v[0]",
		6:  "u",
		7:  "contact[0].beta[0]",
		10: "contact[0].cn",
		13: "contact[0].separation",
		14: "limit[0].lambda",
		15: "limit[0].slack",
	}
	for i, p := range want {
		if paths[i] != p {
			t.Errorf("path %d: expected %s, got %s", i, p, paths[i])
		}
	}
	if len(paths) != 14+2*5 {
		t.Errorf("expected %d paths, got %d", 14+2*5, len(paths))
	}
}

func TestUnflattenRoundTrip(t *testing.T) {
	shape := Zero(Shape{Contacts: 2, Basis: 2, JointLimits: 2})
	xs := make([]float64, len(Flatten(shape)))
	for i := range xs {
		xs[i] = float64(i)
	}

	u, err := Unflatten(shape, xs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.U != 6 || u.Contacts[1].Cn != 17 {
		t.Errorf("unexpected layout: u %f, contact[1].cn %f", u.U, u.Contacts[1].Cn)
	}

	if _, err := Unflatten(shape, xs[1:]); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestSeed(t *testing.T) {
	step := func(env Environment) (*mip.Model, Symbolic) {
		m := mip.New()
		sym, err := Step(m, DefaultParams(), env, mip.Consts([]float64{0, 1, 0.5}), mip.Consts([]float64{0, 0, 0}), mip.Const(0))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return m, sym
	}

	m, sym := step(FlatGround(0.1))
	solved := MapUpdate(sym, func(mip.Expr) float64 { return 0.25 })
	if err := Seed(m, sym, solved); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, _ := sym.Q[Y].AsVar()
	if x, ok := m.Start(v); !ok || x != 0.25 {
		t.Errorf("expected start 0.25 on q_next[1], got %f (%v)", x, ok)
	}
	if _, ok := sym.Contacts[0].Separation.AsVar(); ok {
		t.Error("separation from a raised ground should be a derived expression")
	}
	if _, ok := sym.Contacts[0].Force[0].AsVar(); ok {
		t.Error("tangential contact force should be a derived expression")
	}

	// At height zero the separation is q_next[2] itself; the q value wins.
	m, sym = step(FlatGround(0))
	tip, ok := sym.Q[Z].AsVar()
	if !ok {
		t.Fatal("expected q_next[2] to be a variable")
	}
	if sep, ok := sym.Contacts[0].Separation.AsVar(); !ok || sep != tip {
		t.Fatal("expected the separation to alias q_next[2]")
	}
	solved = MapUpdate(sym, func(mip.Expr) float64 { return 0.25 })
	solved.Contacts[0].Separation = 0.9
	if err := Seed(m, sym, solved); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if x, _ := m.Start(tip); x != 0.25 {
		t.Errorf("expected the q_next[2] start to stay 0.25, got %f", x)
	}
}
