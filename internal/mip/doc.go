// Package mip is a small mixed-integer linear modeling layer.
//
// A [Model] holds box-bounded decision variables, affine expressions
// ([Expr]) and linear constraints. Logical "exactly one of" constraints are
// declared with [Model.AddDisjunction] and compiled to big-M rows driven by
// indicator binaries, with each M taken from the interval bound of the
// constraint expression over the variable boxes.
//
// [Model.Solve] runs a depth-first branch and bound over the indicator
// binaries. Every node is a linear relaxation solved by a dense
// bounded-variable simplex over a gonum matrix: variable boxes stay implicit,
// rows over the same coefficients are merged, and a row that needs no slack
// start gets an artificial column for phase one.
//
// # Example
//
//	m := mip.New()
//	x := m.Var("x", 0, 10)
//	y := m.Var("y", 0, 10)
//	m.Add(mip.EQ(x.Expr().Add(y.Expr()), mip.Const(4)))
//	m.AddDisjunction(
//		[]mip.Constraint{mip.EQ(x.Expr(), mip.Const(0))},
//		[]mip.Constraint{mip.EQ(y.Expr(), mip.Const(0))},
//	)
//	sol, err := m.Solve(ctx)
//
// # Warm starting
//
// Start values set with [Model.SetStart] are used by [Model.WarmStart] to
// pick one disjunct per disjunction and fix its binaries. Once no binary is
// left free, Solve reduces to a single linear program.
//
// Models are not safe for concurrent use.
package mip
