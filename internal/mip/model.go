package mip

import (
	"fmt"
	"math"
)

type variable struct {
	name     string
	lb, ub   float64
	binary   bool
	start    float64
	hasStart bool
}

type disjunction struct {
	disjuncts [][]Constraint
	// indicators[k] evaluates to 1 exactly when disjunct k is selected.
	indicators []Expr
	binaries   []Var
}

// Model is a mixed-integer linear program under construction.
type Model struct {
	vars         []variable
	cons         []Constraint
	disjunctions []disjunction
	objective    Expr
	opts         options
	err          error
}

// New creates an empty model.
func New(opts ...Option) *Model {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Model{opts: o}
}

// Err returns the first construction error recorded by the model. Solve and
// WarmStart return it as well.
func (m *Model) Err() error {
	return m.err
}

func (m *Model) fail(err error) {
	if m.err == nil {
		m.err = err
	}
}

// Var declares a continuous variable with bounds [lb, ub]. Bounds must be
// finite with lb <= ub; otherwise the model records ErrUnboundedVar.
func (m *Model) Var(name string, lb, ub float64) Var {
	if math.IsInf(lb, 0) || math.IsInf(ub, 0) || math.IsNaN(lb) || math.IsNaN(ub) || lb > ub {
		m.fail(fmt.Errorf("%w: %s in [%g, %g]", ErrUnboundedVar, name, lb, ub))
		lb, ub = 0, 0
	}
	m.vars = append(m.vars, variable{name: name, lb: lb, ub: ub})
	return Var(len(m.vars) - 1)
}

// Vars declares n continuous variables named name[i] sharing bounds.
func (m *Model) Vars(name string, n int, lb, ub float64) []Var {
	vs := make([]Var, n)
	for i := range vs {
		vs[i] = m.Var(fmt.Sprintf("%s[%d]", name, i), lb, ub)
	}
	return vs
}

// Binary declares a 0/1 variable.
func (m *Model) Binary(name string) Var {
	v := m.Var(name, 0, 1)
	m.vars[v].binary = true
	return v
}

// Name returns the declared name of v.
func (m *Model) Name(v Var) string {
	return m.vars[v].name
}

// VarBounds returns the declared bounds of v.
func (m *Model) VarBounds(v Var) (lb, ub float64) {
	return m.vars[v].lb, m.vars[v].ub
}

// NumVars returns the number of declared variables, binaries included.
func (m *Model) NumVars() int { return len(m.vars) }

// NumConstraints returns the number of linear rows, compiled disjunctions included.
func (m *Model) NumConstraints() int { return len(m.cons) }

// NumBinaries returns the number of binary variables.
func (m *Model) NumBinaries() int {
	n := 0
	for _, v := range m.vars {
		if v.binary {
			n++
		}
	}
	return n
}

// UnfixedBinaries returns the number of binaries whose bounds still allow both values.
func (m *Model) UnfixedBinaries() int {
	n := 0
	for _, v := range m.vars {
		if v.binary && v.lb != v.ub {
			n++
		}
	}
	return n
}

// Add registers linear constraints.
func (m *Model) Add(cs ...Constraint) {
	m.cons = append(m.cons, cs...)
}

// SetObjective sets the expression to minimize. The default objective is
// zero, which turns Solve into a feasibility search.
func (m *Model) SetObjective(e Expr) {
	m.objective = e
}

// Bounds returns the interval [lo, hi] that e can take over the variable boxes.
func (m *Model) Bounds(e Expr) (lo, hi float64) {
	lo, hi = e.Constant, e.Constant
	for v, k := range e.coef {
		lb, ub := m.vars[v].lb, m.vars[v].ub
		if k > 0 {
			lo += k * lb
			hi += k * ub
		} else {
			lo += k * ub
			hi += k * lb
		}
	}
	return lo, hi
}

// SetStart records a start value for v, used by WarmStart.
func (m *Model) SetStart(v Var, x float64) {
	m.vars[v].start = x
	m.vars[v].hasStart = true
}

// Start returns the start value of v, if any.
func (m *Model) Start(v Var) (float64, bool) {
	return m.vars[v].start, m.vars[v].hasStart
}

// Fix pins v to x by collapsing its bounds.
func (m *Model) Fix(v Var, x float64) {
	m.vars[v].lb = x
	m.vars[v].ub = x
}
