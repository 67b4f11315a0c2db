// Package lcp writes one timestep of a planar point mass with a vertical
// leg as a mixed linear complementarity problem on a mip.Model.
//
// The generalized coordinates are q = (x, y, z): (x, y) is the body, which
// carries the mass and feels gravity, and z is the height of the leg tip.
// The leg length is y - z and the tip sits at (x, z). Contacts between the
// tip and obstacle faces use the Stewart-Trinkle friction discretization;
// every complementarity pair becomes a two-way disjunction.
//
// [Step] returns a [Symbolic] update whose fields are expressions over the
// model's variables. After solving, [Extract] maps it to a numeric [Solved]
// update, and [Seed] writes a numeric update back as start values.
package lcp
