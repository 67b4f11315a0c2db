package lcp

import (
	"fmt"

	"github.com/san-kum/lcpsim/internal/geometry"
	"github.com/san-kum/lcpsim/internal/mip"
)

// JointLimit enforces face.Normal·q <= face.Offset on the next configuration
// with a multiplier that is positive only while the limit is reached. The
// generalized force is -λ·Normal.
func JointLimit(m *mip.Model, p Params, face geometry.HalfSpace, qNext []mip.Expr) (JointLimitResult[mip.Expr], error) {
	slack, err := face.Expr(qNext)
	if err != nil {
		return JointLimitResult[mip.Expr]{}, err
	}
	lambda := m.Var("limit.lambda", 0, p.ForceBound).Expr()

	zero := mip.Const(0)
	m.Add(mip.LE(slack, zero))
	if err := m.AddDisjunction(
		[]mip.Constraint{mip.EQ(slack, zero)},
		[]mip.Constraint{mip.EQ(lambda, zero)},
	); err != nil {
		return JointLimitResult[mip.Expr]{}, err
	}

	force := make([]mip.Expr, len(face.Normal))
	for i, a := range face.Normal {
		force[i] = lambda.Scale(-a)
	}
	return JointLimitResult[mip.Expr]{Lambda: lambda, Slack: slack, Force: force}, nil
}

// JointLimits applies JointLimit to every face of limits in order.
func JointLimits(m *mip.Model, p Params, limits geometry.Polyhedron, qNext []mip.Expr) ([]JointLimitResult[mip.Expr], error) {
	out := make([]JointLimitResult[mip.Expr], 0, len(limits.Faces))
	for i, face := range limits.Faces {
		r, err := JointLimit(m, p, face, qNext)
		if err != nil {
			return nil, fmt.Errorf("joint limit %d: %w", i, err)
		}
		out = append(out, r)
	}
	return out, nil
}
