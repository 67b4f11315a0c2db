package mip

import (
	"fmt"
)

// AddDisjunction requires exactly one of the given conjunctions of
// constraints to be selected; the selected one must hold. One disjunct
// compiles to plain constraints, two share a single binary, and k >= 3 use k
// binaries constrained to sum to one.
//
// Every constraint e (sense) 0 of disjunct k is enforced through a big-M row
// e <= M·(1 - δ_k), with M the upper interval bound of e over the variable
// boxes, so the variables involved must already carry their final bounds.
func (m *Model) AddDisjunction(disjuncts ...[]Constraint) error {
	if m.err != nil {
		return m.err
	}
	id := len(m.disjunctions)
	d := disjunction{disjuncts: disjuncts}
	switch len(disjuncts) {
	case 0:
		m.fail(fmt.Errorf("%w: disjunction %d", ErrEmptyDisjunction, id))
		return m.err
	case 1:
		d.indicators = []Expr{Const(1)}
	case 2:
		z := m.Binary(fmt.Sprintf("disj%d", id))
		d.binaries = []Var{z}
		d.indicators = []Expr{z.Expr(), Const(1).Sub(z.Expr())}
	default:
		d.binaries = make([]Var, len(disjuncts))
		d.indicators = make([]Expr, len(disjuncts))
		for k := range disjuncts {
			z := m.Binary(fmt.Sprintf("disj%d[%d]", id, k))
			d.binaries[k] = z
			d.indicators[k] = z.Expr()
		}
		m.Add(EQ(Sum(d.indicators...), Const(1)))
	}

	for k, part := range disjuncts {
		for _, c := range part {
			m.enforceWhen(c, d.indicators[k])
		}
	}
	m.disjunctions = append(m.disjunctions, d)
	return nil
}

// enforceWhen adds the big-M rows making c hold whenever delta is 1.
func (m *Model) enforceWhen(c Constraint, delta Expr) {
	if delta.IsConst() && delta.Constant == 1 {
		m.Add(c)
		return
	}
	switch c.Sense {
	case LessEq:
		m.enforceLE(c.Expr, delta)
	case GreaterEq:
		m.enforceLE(c.Expr.Scale(-1), delta)
	case Equal:
		m.enforceLE(c.Expr, delta)
		m.enforceLE(c.Expr.Scale(-1), delta)
	}
}

// enforceLE adds e <= M·(1 - delta). Rows that can never bind are skipped.
func (m *Model) enforceLE(e Expr, delta Expr) {
	_, hi := m.Bounds(e)
	if hi <= 0 {
		return
	}
	m.Add(LE(e, Const(hi).Sub(delta.Scale(hi))))
}

// WarmStart selects, for every disjunction, the first disjunct satisfied by
// the start values and fixes the indicator binaries accordingly. It then
// asserts that no free binary remains in the model, so that the following
// Solve is a single linear program.
func (m *Model) WarmStart() error {
	if m.err != nil {
		return m.err
	}
	for id, d := range m.disjunctions {
		if len(d.binaries) == 0 {
			continue
		}
		chosen := -1
		for k, part := range d.disjuncts {
			ok, err := m.satisfiedAtStart(part)
			if err != nil {
				return fmt.Errorf("disjunction %d: %w", id, err)
			}
			if ok {
				chosen = k
				break
			}
		}
		if chosen < 0 {
			return fmt.Errorf("%w: disjunction %d", ErrNoDisjunctSatisfied, id)
		}
		m.selectDisjunct(d, chosen)
	}
	if n := m.UnfixedBinaries(); n > 0 {
		return fmt.Errorf("%w: %d free", ErrUnresolvedBinaries, n)
	}
	return nil
}

func (m *Model) selectDisjunct(d disjunction, chosen int) {
	if len(d.binaries) == 1 {
		if chosen == 0 {
			m.Fix(d.binaries[0], 1)
		} else {
			m.Fix(d.binaries[0], 0)
		}
		return
	}
	for k, z := range d.binaries {
		if k == chosen {
			m.Fix(z, 1)
		} else {
			m.Fix(z, 0)
		}
	}
}

func (m *Model) satisfiedAtStart(part []Constraint) (bool, error) {
	x := make([]float64, len(m.vars))
	for _, c := range part {
		for _, v := range c.Expr.Vars() {
			s, ok := m.Start(v)
			if !ok {
				return false, fmt.Errorf("%w: %s", ErrMissingStart, m.vars[v].name)
			}
			x[v] = s
		}
	}
	for _, c := range part {
		if c.Violation(x) > m.opts.tol {
			return false, nil
		}
	}
	return true, nil
}
