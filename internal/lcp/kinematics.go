package lcp

import "github.com/san-kum/lcpsim/internal/geometry"

// Coordinate indices of q and v.
const (
	X = iota
	Y
	Z
	Dim
)

// Tip returns the leg tip (x, z) of a configuration or velocity.
func Tip[T any](q []T) []T {
	return []T{q[X], q[Z]}
}

func LegLength(q []float64) float64 {
	return q[Y] - q[Z]
}

// LegLimits returns the joint-limit polyhedron over q: y - z <= LegMax and
// z - y <= -LegMin.
func LegLimits(p Params) geometry.Polyhedron {
	return geometry.Polyhedron{Faces: []geometry.HalfSpace{
		geometry.NewHalfSpace([]float64{0, 1, -1}, p.LegMax),
		geometry.NewHalfSpace([]float64{0, -1, 1}, -p.LegMin),
	}}
}
