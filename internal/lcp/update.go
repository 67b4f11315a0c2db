package lcp

import (
	"fmt"

	"github.com/san-kum/lcpsim/internal/mip"
)

// Step adds one timestep from (q, v) under leg force u to m and returns the
// symbolic update. q and v may be constants or the next state of a previous
// Step on the same model.
func Step(m *mip.Model, p Params, env Environment, q, v []mip.Expr, u mip.Expr) (Symbolic, error) {
	if len(q) != Dim || len(v) != Dim {
		return Symbolic{}, fmt.Errorf("%w: state has %d/%d coordinates, want %d", ErrDimensionMismatch, len(q), len(v), Dim)
	}
	qn := mip.VarExprs(m.Vars("q_next", Dim, -p.StateBound, p.StateBound))
	vn := mip.VarExprs(m.Vars("v_next", Dim, -p.StateBound, p.StateBound))

	contacts := make([]ContactResult[mip.Expr], 0, len(env.Obstacles))
	external := []mip.Expr{mip.Const(0), mip.Const(0)}
	for _, obs := range env.Obstacles {
		c, err := ContactForce(m, p, obs, qn, vn)
		if err != nil {
			return Symbolic{}, fmt.Errorf("contact %s: %w", obs.Name, err)
		}
		contacts = append(contacts, c)
		external = mip.AddVec(external, c.Force)
	}

	limits, err := JointLimits(m, p, LegLimits(p), qn)
	if err != nil {
		return Symbolic{}, err
	}
	internal := u.Scale(-p.Dt)
	for _, l := range limits {
		internal = internal.Add(l.Force[Z])
	}

	h, mass := p.Dt, p.Mass
	dv := func(i int) mip.Expr {
		return vn[i].Sub(v[i]).Scale(mass)
	}
	// Body and tip share x, so horizontal contact impulses move the body.
	m.Add(
		mip.EQ(dv(X), mip.Const(h*mass*p.Gravity[0]).Add(external[0])),
		mip.EQ(dv(Y), mip.Const(h*mass*p.Gravity[1]).Sub(internal)),
		mip.EQ(dv(Z), external[1].Add(internal)),
	)
	for i := 0; i < Dim; i++ {
		m.Add(mip.EQ(qn[i].Sub(q[i]), vn[i].Scale(h)))
	}

	if len(env.FreeRegions) > 0 {
		tip := Tip(qn)
		disjuncts := make([][]mip.Constraint, len(env.FreeRegions))
		for k, region := range env.FreeRegions {
			cs, err := region.ContainsExpr(tip)
			if err != nil {
				return Symbolic{}, fmt.Errorf("free region %d: %w", k, err)
			}
			disjuncts[k] = cs
		}
		if err := m.AddDisjunction(disjuncts...); err != nil {
			return Symbolic{}, err
		}
	}

	return Symbolic{Q: qn, V: vn, U: u, Contacts: contacts, JointLimits: limits}, nil
}
