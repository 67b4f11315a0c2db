package mip

import (
	"sort"
)

// coefTol drops coefficients that cancel to numerical noise.
const coefTol = 1e-12

// Var identifies a decision variable of a Model.
type Var int

// Expr returns the expression 1·v.
func (v Var) Expr() Expr {
	return Expr{coef: map[Var]float64{v: 1}}
}

// Expr is an affine expression Σ c_i·x_i + Constant. The zero value is the
// constant 0. Expressions are values: every operation returns a new Expr.
type Expr struct {
	coef     map[Var]float64
	Constant float64
}

// Const returns the constant expression c.
func Const(c float64) Expr {
	return Expr{Constant: c}
}

// Consts lifts a numeric vector into constant expressions.
func Consts(xs []float64) []Expr {
	out := make([]Expr, len(xs))
	for i, x := range xs {
		out[i] = Const(x)
	}
	return out
}

// VarExprs lifts variables into expressions.
func VarExprs(vs []Var) []Expr {
	out := make([]Expr, len(vs))
	for i, v := range vs {
		out[i] = v.Expr()
	}
	return out
}

func (e Expr) clone() Expr {
	c := Expr{Constant: e.Constant}
	if len(e.coef) > 0 {
		c.coef = make(map[Var]float64, len(e.coef))
		for v, k := range e.coef {
			c.coef[v] = k
		}
	}
	return c
}

func (e *Expr) addTerm(v Var, k float64) {
	if e.coef == nil {
		e.coef = make(map[Var]float64)
	}
	sum := e.coef[v] + k
	if sum > -coefTol && sum < coefTol {
		delete(e.coef, v)
		return
	}
	e.coef[v] = sum
}

// Add returns e + o.
func (e Expr) Add(o Expr) Expr {
	r := e.clone()
	for v, k := range o.coef {
		r.addTerm(v, k)
	}
	r.Constant += o.Constant
	return r
}

// Sub returns e - o.
func (e Expr) Sub(o Expr) Expr {
	return e.Add(o.Scale(-1))
}

// Scale returns k·e.
func (e Expr) Scale(k float64) Expr {
	r := Expr{Constant: e.Constant * k}
	if k == 0 {
		return r
	}
	for v, c := range e.coef {
		r.addTerm(v, c*k)
	}
	return r
}

// AddConst returns e + c.
func (e Expr) AddConst(c float64) Expr {
	r := e.clone()
	r.Constant += c
	return r
}

// Coef returns the coefficient of v in e.
func (e Expr) Coef(v Var) float64 {
	return e.coef[v]
}

// Vars returns the variables of e in ascending order.
func (e Expr) Vars() []Var {
	vs := make([]Var, 0, len(e.coef))
	for v := range e.coef {
		vs = append(vs, v)
	}
	sort.Slice(vs, func(i, j int) bool { return vs[i] < vs[j] })
	return vs
}

// IsConst reports whether e has no variable terms.
func (e Expr) IsConst() bool {
	return len(e.coef) == 0
}

// AsVar reports whether e is exactly one variable with unit coefficient and
// no constant, returning that variable.
func (e Expr) AsVar() (Var, bool) {
	if len(e.coef) != 1 || e.Constant != 0 {
		return 0, false
	}
	for v, k := range e.coef {
		if k == 1 {
			return v, true
		}
	}
	return 0, false
}

// Eval evaluates e at x, where x is indexed by Var.
func (e Expr) Eval(x []float64) float64 {
	sum := e.Constant
	for v, k := range e.coef {
		sum += k * x[v]
	}
	return sum
}

// Sum returns the sum of es.
func Sum(es ...Expr) Expr {
	var r Expr
	for _, e := range es {
		r = r.Add(e)
	}
	return r
}

// Dot returns Σ a_i·xs_i. It panics if the lengths differ.
func Dot(a []float64, xs []Expr) Expr {
	if len(a) != len(xs) {
		panic("mip: dot length mismatch")
	}
	var r Expr
	for i, k := range a {
		if k == 0 {
			continue
		}
		r = r.Add(xs[i].Scale(k))
	}
	return r
}

// AddVec returns the element-wise sum a + b. It panics if the lengths differ.
func AddVec(a, b []Expr) []Expr {
	if len(a) != len(b) {
		panic("mip: vector length mismatch")
	}
	out := make([]Expr, len(a))
	for i := range a {
		out[i] = a[i].Add(b[i])
	}
	return out
}

// ScaleVec returns k·a.
func ScaleVec(k float64, a []Expr) []Expr {
	out := make([]Expr, len(a))
	for i := range a {
		out[i] = a[i].Scale(k)
	}
	return out
}

// Sense is the relation of a constraint expression to zero.
type Sense int

const (
	LessEq Sense = iota
	GreaterEq
	Equal
)

func (s Sense) String() string {
	switch s {
	case LessEq:
		return "<="
	case GreaterEq:
		return ">="
	case Equal:
		return "=="
	default:
		return "?"
	}
}

// Constraint is the linear relation Expr (Sense) 0.
type Constraint struct {
	Expr  Expr
	Sense Sense
}

// LE returns the constraint a <= b.
func LE(a, b Expr) Constraint {
	return Constraint{Expr: a.Sub(b), Sense: LessEq}
}

// GE returns the constraint a >= b.
func GE(a, b Expr) Constraint {
	return Constraint{Expr: a.Sub(b), Sense: GreaterEq}
}

// EQ returns the constraint a == b.
func EQ(a, b Expr) Constraint {
	return Constraint{Expr: a.Sub(b), Sense: Equal}
}

// Violation returns how far x is from satisfying c; zero when satisfied.
func (c Constraint) Violation(x []float64) float64 {
	v := c.Expr.Eval(x)
	switch c.Sense {
	case LessEq:
		if v > 0 {
			return v
		}
	case GreaterEq:
		if v < 0 {
			return -v
		}
	case Equal:
		if v < 0 {
			return -v
		}
		return v
	}
	return 0
}
