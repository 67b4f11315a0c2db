package metrics

import (
	"math"

	"github.com/san-kum/lcpsim/internal/lcp"
)

// Stability is the fraction of steps whose state stays inside a fraction of
// the state box. Steps near the box are usually clipped by it rather than
// governed by the dynamics.
type Stability struct {
	name       string
	fraction   float64
	violations int
	samples    int
}

func NewStability(fraction float64) *Stability {
	return &Stability{
		name:     "stability",
		fraction: fraction,
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(step int, u lcp.Solved, p lcp.Params) {
	s.samples++
	limit := s.fraction * p.StateBound
	for _, xs := range [][]float64{u.Q, u.V} {
		for _, val := range xs {
			if math.Abs(val) > limit {
				s.violations++
				return
			}
		}
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.violations)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.violations = 0
	s.samples = 0
}
