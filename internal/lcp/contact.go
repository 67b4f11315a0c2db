package lcp

import (
	"fmt"

	"github.com/san-kum/lcpsim/internal/mip"
)

// ContactForce adds the friction and normal multipliers of one obstacle to m
// and constrains them with the Stewart-Trinkle complementarity conditions at
// the next tip position and velocity.
func ContactForce(m *mip.Model, p Params, obs Obstacle, qNext, vNext []mip.Expr) (ContactResult[mip.Expr], error) {
	if len(qNext) != Dim || len(vNext) != Dim {
		return ContactResult[mip.Expr]{}, fmt.Errorf("%w: state has %d/%d coordinates, want %d", ErrDimensionMismatch, len(qNext), len(vNext), Dim)
	}
	edges, err := ContactBasis(obs.Face.Normal, p.Mu)
	if err != nil {
		return ContactResult[mip.Expr]{}, err
	}

	beta := mip.VarExprs(m.Vars(obs.Name+".beta", len(edges), 0, p.ForceBound))
	lambda := m.Var(obs.Name+".lambda", 0, p.ForceBound).Expr()
	cn := m.Var(obs.Name+".cn", 0, p.ForceBound).Expr()

	sep, err := obs.Face.Expr(Tip(qNext))
	if err != nil {
		return ContactResult[mip.Expr]{}, err
	}
	vel := Tip(vNext)

	slip := make([]mip.Expr, len(edges))
	for j, d := range edges {
		slip[j] = lambda.Add(mip.Dot(d, vel))
		m.Add(mip.GE(slip[j], mip.Const(0)))
	}
	margin := cn.Scale(p.Mu).Sub(mip.Sum(beta...))
	m.Add(mip.GE(margin, mip.Const(0)))

	zero := mip.Const(0)
	if err := m.AddDisjunction(
		[]mip.Constraint{mip.EQ(sep, zero)},
		[]mip.Constraint{mip.EQ(cn, zero)},
	); err != nil {
		return ContactResult[mip.Expr]{}, err
	}
	for j := range edges {
		if err := m.AddDisjunction(
			[]mip.Constraint{mip.EQ(slip[j], zero)},
			[]mip.Constraint{mip.EQ(beta[j], zero)},
		); err != nil {
			return ContactResult[mip.Expr]{}, err
		}
	}
	if err := m.AddDisjunction(
		[]mip.Constraint{mip.EQ(margin, zero)},
		[]mip.Constraint{mip.EQ(lambda, zero)},
	); err != nil {
		return ContactResult[mip.Expr]{}, err
	}

	n := unit(obs.Face.Normal)
	force := make([]mip.Expr, 2)
	for i := range force {
		f := cn.Scale(n[i])
		for j, d := range edges {
			f = f.Add(beta[j].Scale(d[i]))
		}
		force[i] = f
	}

	return ContactResult[mip.Expr]{
		Obstacle:   obs.Name,
		Beta:       beta,
		Lambda:     lambda,
		Cn:         cn,
		Force:      force,
		Separation: sep,
	}, nil
}
