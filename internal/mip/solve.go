package mip

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// Solution is the assignment returned by Solve.
type Solution struct {
	values    []float64
	Objective float64
	Nodes     int
	LPs       int
}

// Value evaluates e at the solution.
func (s *Solution) Value(e Expr) float64 {
	return e.Eval(s.values)
}

// Values evaluates every expression of es at the solution.
func (s *Solution) Values(es []Expr) []float64 {
	out := make([]float64, len(es))
	for i, e := range es {
		out[i] = s.Value(e)
	}
	return out
}

// VarValue returns the value assigned to v.
func (s *Solution) VarValue(v Var) float64 {
	return s.values[v]
}

// Solve searches for an assignment minimizing the objective. It blocks until
// the search ends. Infeasible and unbounded models return ErrInfeasible and
// ErrUnbounded. A node whose LP fails numerically is split on its next free
// binary; ErrNumerical is returned only when no feasible node was found.
func (m *Model) Solve(ctx context.Context) (*Solution, error) {
	if m.err != nil {
		return nil, m.err
	}
	start := time.Now()
	s := &search{m: m}
	sol, err := s.run(ctx)
	m.opts.logger.Debug("mip solve",
		zap.Int("vars", len(m.vars)),
		zap.Int("rows", len(m.cons)),
		zap.Int("binaries", m.UnfixedBinaries()),
		zap.Int("nodes", s.nodes),
		zap.Int("lps", s.lps),
		zap.Duration("elapsed", time.Since(start)),
		zap.Error(err),
	)
	if err != nil {
		return nil, err
	}
	sol.Nodes = s.nodes
	sol.LPs = s.lps
	if v := m.maxViolation(sol.values); v > 1e3*m.opts.tol {
		m.opts.logger.Warn("mip solution violates constraints", zap.Float64("violation", v))
	}
	return sol, nil
}

func (m *Model) maxViolation(x []float64) float64 {
	worst := 0.0
	for _, c := range m.cons {
		worst = math.Max(worst, c.Violation(x))
	}
	return worst
}

type node struct {
	fixed map[Var]float64
}

func (n node) with(v Var, x float64) node {
	f := make(map[Var]float64, len(n.fixed)+1)
	for k, val := range n.fixed {
		f[k] = val
	}
	f[v] = x
	return node{fixed: f}
}

type search struct {
	m      *Model
	best   *Solution
	nodes  int
	lps    int
	failed int
}

func (s *search) feasibilityOnly() bool {
	return s.m.objective.IsConst()
}

func (s *search) pruned(obj float64) bool {
	return s.best != nil && obj >= s.best.Objective-s.m.opts.tol
}

func (s *search) run(ctx context.Context) (*Solution, error) {
	stack := []node{{fixed: map[Var]float64{}}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if s.nodes >= s.m.opts.maxNodes {
			if s.best != nil {
				return s.best, nil
			}
			return nil, fmt.Errorf("%w: %d nodes", ErrNodeLimit, s.nodes)
		}
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		s.nodes++

		relax, err := s.relax(n.fixed)
		switch {
		case errors.Is(err, ErrInfeasible):
			continue
		case errors.Is(err, ErrNumerical):
			// Split the node instead of giving up; children pin more
			// binaries and carry smaller LPs.
			s.failed++
			s.m.opts.logger.Debug("lp relaxation failed", zap.Int("node", s.nodes), zap.Error(err))
			if v, ok := s.unfixed(n.fixed); ok {
				stack = append(stack, n.with(v, 1), n.with(v, 0))
			}
			continue
		case err != nil:
			return nil, err
		}
		if s.pruned(relax.Objective) {
			continue
		}

		v, fractional := s.branchVar(relax, n.fixed)
		if !fractional || s.m.opts.rounding {
			// Pin every binary to its rounded value; this both polishes an
			// integral relaxation and dives from a fractional one.
			leaf, err := s.relax(s.rounded(relax, n.fixed))
			if err != nil && !fractional {
				leaf, err = relax, nil
			}
			switch {
			case err == nil:
				if !s.pruned(leaf.Objective) {
					s.best = leaf
					if s.feasibilityOnly() {
						return s.best, nil
					}
				}
			case errors.Is(err, ErrNumerical):
				s.failed++
			case !errors.Is(err, ErrInfeasible):
				return nil, err
			}
		}
		if !fractional || s.pruned(relax.Objective) {
			continue
		}

		near := math.Round(relax.values[v])
		stack = append(stack, n.with(v, 1-near), n.with(v, near))
	}
	if s.best == nil {
		if s.failed > 0 {
			return nil, fmt.Errorf("%w: %d lps failed and no feasible node remained", ErrNumerical, s.failed)
		}
		return nil, ErrInfeasible
	}
	return s.best, nil
}

// unfixed returns the first free binary not pinned at the node.
func (s *search) unfixed(fixed map[Var]float64) (Var, bool) {
	for i, v := range s.m.vars {
		if !v.binary || v.lb == v.ub {
			continue
		}
		if _, ok := fixed[Var(i)]; !ok {
			return Var(i), true
		}
	}
	return -1, false
}

// branchVar returns the first fractional free binary. Binaries are declared
// in build order, so a chained model is resolved from its earliest step on.
func (s *search) branchVar(relax *Solution, fixed map[Var]float64) (Var, bool) {
	for i, v := range s.m.vars {
		if !v.binary || v.lb == v.ub {
			continue
		}
		if _, ok := fixed[Var(i)]; ok {
			continue
		}
		x := relax.values[i]
		if math.Abs(x-math.Round(x)) > s.m.opts.tol {
			return Var(i), true
		}
	}
	return -1, false
}

func (s *search) rounded(relax *Solution, fixed map[Var]float64) map[Var]float64 {
	f := make(map[Var]float64, len(fixed))
	for k, x := range fixed {
		f[k] = x
	}
	for i, v := range s.m.vars {
		if !v.binary || v.lb == v.ub {
			continue
		}
		if _, ok := f[Var(i)]; !ok {
			f[Var(i)] = math.Round(relax.values[i])
		}
	}
	return f
}

func (s *search) relax(fixed map[Var]float64) (*Solution, error) {
	s.lps++
	return s.m.solveRelaxation(fixed)
}

type lpRow struct {
	coef []float64
	rhs  float64
	eq   bool
}

// band collects lo <= a·y <= hi for one coefficient pattern; rows that are
// sign-flipped copies of each other share a band.
type band struct {
	coef   []float64
	lo, hi float64
}

// solveRelaxation solves the LP relaxation with the given variables pinned.
//
// Pinned variables and variables with lb == ub are substituted as constants.
// The remaining ones are shifted to y = x - lb in [0, ub - lb], bounds that the
// simplex keeps implicitly. Rows over the same coefficients are merged into
// one band, so an equality or a pair of opposite big-M rows becomes a single
// equality row, and sides implied by the variable boxes are dropped.
func (m *Model) solveRelaxation(fixed map[Var]float64) (*Solution, error) {
	nv := len(m.vars)
	col := make([]int, nv)
	x := make([]float64, nv)
	var upper []float64
	for i, v := range m.vars {
		if val, ok := fixed[Var(i)]; ok {
			col[i], x[i] = -1, val
			continue
		}
		if v.ub == v.lb {
			col[i], x[i] = -1, v.lb
			continue
		}
		col[i], x[i] = len(upper), v.lb
		upper = append(upper, v.ub-v.lb)
	}
	free := len(upper)
	tol := m.opts.tol

	var bands []*band
	index := make(map[string]*band)
	var key []byte
	// add records a·y <= b, or a·y = b when eq is set.
	add := func(e Expr, eq bool) error {
		r := make([]float64, free)
		b := -e.Constant
		lead := 0.0
		for v, k := range e.coef {
			b -= k * x[v]
			if col[v] >= 0 {
				r[col[v]] += k
			}
		}
		for _, k := range r {
			if math.Abs(k) > 1e-12 {
				lead = k
				break
			}
		}
		if lead == 0 {
			if b < -tol || (eq && b > tol) {
				return ErrInfeasible
			}
			return nil
		}
		lo, hi := math.Inf(-1), b
		if eq {
			lo = b
		}
		if lead < 0 {
			floats.Scale(-1, r)
			lo, hi = -hi, -lo
		}
		key = key[:0]
		for j, k := range r {
			if k != 0 {
				key = strconv.AppendInt(key, int64(j), 10)
				key = append(key, ':')
				key = strconv.AppendFloat(key, k, 'g', -1, 64)
				key = append(key, ';')
			}
		}
		if bd, ok := index[string(key)]; ok {
			bd.lo, bd.hi = math.Max(bd.lo, lo), math.Min(bd.hi, hi)
			return nil
		}
		bd := &band{coef: r, lo: lo, hi: hi}
		index[string(key)] = bd
		bands = append(bands, bd)
		return nil
	}
	for _, c := range m.cons {
		var err error
		switch c.Sense {
		case LessEq:
			err = add(c.Expr, false)
		case GreaterEq:
			err = add(c.Expr.Scale(-1), false)
		case Equal:
			err = add(c.Expr, true)
		}
		if err != nil {
			return nil, err
		}
	}

	rows := make([]lpRow, 0, len(bands))
	for _, bd := range bands {
		low, high := 0.0, 0.0
		for j, k := range bd.coef {
			if k > 0 {
				high += k * upper[j]
			} else {
				low += k * upper[j]
			}
		}
		slack := tol * (1 + math.Max(finite(bd.lo), finite(bd.hi)))
		if bd.lo > bd.hi+slack || low > bd.hi+slack || high < bd.lo-slack {
			return nil, ErrInfeasible
		}
		if bd.hi-bd.lo <= 1e-9*(1+math.Abs(bd.hi)) {
			rows = append(rows, lpRow{coef: bd.coef, rhs: (bd.lo + bd.hi) / 2, eq: true})
			continue
		}
		if high > bd.hi {
			rows = append(rows, lpRow{coef: bd.coef, rhs: bd.hi})
		}
		if low < bd.lo {
			neg := make([]float64, free)
			floats.AddScaled(neg, -1, bd.coef)
			rows = append(rows, lpRow{coef: neg, rhs: -bd.lo})
		}
	}

	if free == 0 || len(rows) == 0 {
		y := make([]float64, free)
		obj := make([]float64, free)
		m.costs(col, obj)
		for j, c := range obj {
			if c < 0 {
				y[j] = upper[j]
			}
		}
		return m.lift(col, x, y), nil
	}

	y, err := m.simplex(rows, upper, col)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		ax := floats.Dot(r.coef, y)
		v := ax - r.rhs
		if !r.eq {
			v = math.Max(v, 0)
		}
		if math.Abs(v) > 1e2*tol*(1+math.Abs(r.rhs)) {
			return nil, fmt.Errorf("%w: row residual %g", ErrNumerical, v)
		}
	}
	return m.lift(col, x, y), nil
}

// simplex runs phase one on the artificial columns and phase two on the
// objective, returning the structural values.
func (m *Model) simplex(rows []lpRow, upper []float64, col []int) ([]float64, error) {
	tb := newTableau(rows, upper, m.opts.lpTol)
	limit := 50*(tb.m+tb.n) + 1000
	if tb.artificials() {
		phase1 := make([]float64, tb.n)
		for j, a := range tb.art {
			if a {
				phase1[j] = 1
			}
		}
		tb.price(phase1)
		if err := tb.iterate(limit); err != nil {
			return nil, fmt.Errorf("%w: phase one: %v", ErrNumerical, err)
		}
		tb.refresh()
		if tb.artificialSum() > m.opts.tol*(1+maxRHS(rows)) {
			return nil, ErrInfeasible
		}
		tb.dropArtificials()
	}
	obj := make([]float64, len(upper))
	m.costs(col, obj)
	if floats.Norm(obj, math.Inf(1)) > 0 {
		tb.price(obj)
		switch err := tb.iterate(limit); {
		case errors.Is(err, errLPUnbounded):
			return nil, ErrUnbounded
		case err != nil:
			return nil, fmt.Errorf("%w: %v", ErrNumerical, err)
		}
		tb.refresh()
	}
	return tb.solution(len(upper)), nil
}

func maxRHS(rows []lpRow) float64 {
	worst := 0.0
	for _, r := range rows {
		worst = math.Max(worst, math.Abs(r.rhs))
	}
	return worst
}

// finite returns |x|, or 0 for an infinite x.
func finite(x float64) float64 {
	if math.IsInf(x, 0) {
		return 0
	}
	return math.Abs(x)
}

func (m *Model) costs(col []int, obj []float64) {
	for v, k := range m.objective.coef {
		if col[v] >= 0 {
			obj[col[v]] += k
		}
	}
}

func (m *Model) lift(col []int, x, y []float64) *Solution {
	for i := range x {
		if col[i] >= 0 {
			x[i] += y[col[i]]
		}
	}
	return &Solution{values: x, Objective: m.objective.Eval(x)}
}
