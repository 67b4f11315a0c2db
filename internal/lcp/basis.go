package lcp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/lcpsim/internal/geometry"
)

// ErrDimensionMismatch is geometry's sentinel, shared so callers match one value.
var ErrDimensionMismatch = geometry.ErrDimensionMismatch

var errZeroNormal = errors.New("lcp: contact normal has zero length")

// ContactBasis returns the two edges of the planar friction cone around
// normal: the unit normal rotated by +atan(mu) and by -atan(mu).
func ContactBasis(normal []float64, mu float64) ([][]float64, error) {
	if len(normal) != 2 {
		return nil, fmt.Errorf("%w: contact normal has %d coordinates, want 2", ErrDimensionMismatch, len(normal))
	}
	n := floats.Norm(normal, 2)
	if n == 0 {
		return nil, errZeroNormal
	}
	a := mat.NewVecDense(2, []float64{normal[0] / n, normal[1] / n})

	theta := math.Atan(mu)
	edges := make([][]float64, 0, 2)
	for _, angle := range []float64{theta, -theta} {
		var d mat.VecDense
		d.MulVec(rotation(angle), a)
		edges = append(edges, []float64{d.AtVec(0), d.AtVec(1)})
	}
	return edges, nil
}

func rotation(theta float64) *mat.Dense {
	s, c := math.Sincos(theta)
	return mat.NewDense(2, 2, []float64{
		c, -s,
		s, c,
	})
}

func unit(v []float64) []float64 {
	u := append([]float64(nil), v...)
	if n := floats.Norm(u, 2); n > 0 {
		floats.Scale(1/n, u)
	}
	return u
}
