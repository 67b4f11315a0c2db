package geometry

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/lcpsim/internal/mip"
)

// ErrDimensionMismatch indicates a point or row whose length does not match.
var ErrDimensionMismatch = errors.New("geometry: dimension mismatch")

// HalfSpace is the set {p : Normal·p <= Offset}.
type HalfSpace struct {
	Normal []float64 `yaml:"normal" json:"normal"`
	Offset float64   `yaml:"offset" json:"offset"`
}

// NewHalfSpace copies normal into a new half-space.
func NewHalfSpace(normal []float64, offset float64) HalfSpace {
	n := make([]float64, len(normal))
	copy(n, normal)
	return HalfSpace{Normal: n, Offset: offset}
}

func (h HalfSpace) Dim() int {
	return len(h.Normal)
}

// Eval returns Normal·p - Offset, positive outside the half-space.
func (h HalfSpace) Eval(p []float64) (float64, error) {
	if len(p) != len(h.Normal) {
		return 0, fmt.Errorf("%w: point has %d coordinates, half-space %d", ErrDimensionMismatch, len(p), len(h.Normal))
	}
	return floats.Dot(h.Normal, p) - h.Offset, nil
}

// Contains reports whether p lies in the half-space up to tol.
func (h HalfSpace) Contains(p []float64, tol float64) (bool, error) {
	d, err := h.Eval(p)
	if err != nil {
		return false, err
	}
	return d <= tol, nil
}

// Expr returns Normal·p - Offset as a linear expression.
func (h HalfSpace) Expr(p []mip.Expr) (mip.Expr, error) {
	if len(p) != len(h.Normal) {
		return mip.Expr{}, fmt.Errorf("%w: point has %d coordinates, half-space %d", ErrDimensionMismatch, len(p), len(h.Normal))
	}
	return mip.Dot(h.Normal, p).AddConst(-h.Offset), nil
}

// Constraint returns the containment predicate Normal·p <= Offset.
func (h HalfSpace) Constraint(p []mip.Expr) (mip.Constraint, error) {
	e, err := h.Expr(p)
	if err != nil {
		return mip.Constraint{}, err
	}
	return mip.LE(e, mip.Const(0)), nil
}

// Unit returns the half-space rescaled so its normal has unit length.
func (h HalfSpace) Unit() HalfSpace {
	n := floats.Norm(h.Normal, 2)
	if n == 0 {
		return h
	}
	u := NewHalfSpace(h.Normal, h.Offset/n)
	floats.Scale(1/n, u.Normal)
	return u
}
