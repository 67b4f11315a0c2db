package geometry

import (
	"fmt"

	"github.com/san-kum/lcpsim/internal/mip"
)

// Polyhedron is the intersection of its faces.
type Polyhedron struct {
	Faces []HalfSpace `yaml:"faces" json:"faces"`
}

// NewPolyhedron builds a polyhedron from faces that must share a dimension.
func NewPolyhedron(faces ...HalfSpace) (Polyhedron, error) {
	p := Polyhedron{Faces: faces}
	if len(faces) == 0 {
		return p, nil
	}
	if err := p.Validate(faces[0].Dim()); err != nil {
		return Polyhedron{}, err
	}
	return p, nil
}

// Box returns the axis-aligned rectangle [x0, x1] × [y0, y1].
func Box(x0, x1, y0, y1 float64) Polyhedron {
	return Polyhedron{Faces: []HalfSpace{
		NewHalfSpace([]float64{-1, 0}, -x0),
		NewHalfSpace([]float64{1, 0}, x1),
		NewHalfSpace([]float64{0, -1}, -y0),
		NewHalfSpace([]float64{0, 1}, y1),
	}}
}

// Validate checks that every face has dimension dim.
func (p Polyhedron) Validate(dim int) error {
	for i, f := range p.Faces {
		if f.Dim() != dim {
			return fmt.Errorf("%w: face %d has dimension %d, want %d", ErrDimensionMismatch, i, f.Dim(), dim)
		}
	}
	return nil
}

// Rows returns the faces as the system A·p <= b.
func (p Polyhedron) Rows() (a [][]float64, b []float64) {
	a = make([][]float64, len(p.Faces))
	b = make([]float64, len(p.Faces))
	for i, f := range p.Faces {
		a[i] = append([]float64(nil), f.Normal...)
		b[i] = f.Offset
	}
	return a, b
}

// Contains reports whether x satisfies every face up to tol.
func (p Polyhedron) Contains(x []float64, tol float64) (bool, error) {
	for _, f := range p.Faces {
		ok, err := f.Contains(x, tol)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// ContainsExpr returns the containment predicate as one constraint per face,
// suitable as a disjunct.
func (p Polyhedron) ContainsExpr(x []mip.Expr) ([]mip.Constraint, error) {
	cs := make([]mip.Constraint, 0, len(p.Faces))
	for _, f := range p.Faces {
		c, err := f.Constraint(x)
		if err != nil {
			return nil, err
		}
		cs = append(cs, c)
	}
	return cs, nil
}
