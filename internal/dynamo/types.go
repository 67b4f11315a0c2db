package dynamo

import (
	"fmt"
	"math"

	"github.com/san-kum/lcpsim/internal/lcp"
)

// State is a generalized position and velocity.
type State struct {
	Q []float64 `json:"q" yaml:"q"`
	V []float64 `json:"v" yaml:"v"`
}

func (s State) Clone() State {
	return State{
		Q: append([]float64(nil), s.Q...),
		V: append([]float64(nil), s.V...),
	}
}

func (s State) IsValid() bool {
	for _, xs := range [][]float64{s.Q, s.V} {
		for _, v := range xs {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// Validate checks dimensions and finiteness.
func (s State) Validate() error {
	if len(s.Q) != lcp.Dim || len(s.V) != lcp.Dim {
		return fmt.Errorf("%w: q has %d and v has %d coordinates, want %d", ErrDimensionMismatch, len(s.Q), len(s.V), lcp.Dim)
	}
	if !s.IsValid() {
		return ErrInvalidState
	}
	return nil
}

// Next returns the state a solved update leads to.
func Next(u lcp.Solved) State {
	return State{Q: u.Q, V: u.V}.Clone()
}

type Controller interface {
	Compute(q, v []float64) float64
}

// ControllerFunc adapts a function to Controller.
type ControllerFunc func(q, v []float64) float64

func (f ControllerFunc) Compute(q, v []float64) float64 {
	return f(q, v)
}

type Metric interface {
	Name() string
	Observe(step int, u lcp.Solved, p lcp.Params)
	Value() float64
	Reset()
}

type Observer interface {
	OnStep(step int, u lcp.Solved)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(step int, u lcp.Solved)

func (f ObserverFunc) OnStep(step int, u lcp.Solved) {
	f(step, u)
}

// Result is a solved trajectory with the metrics observed along it.
type Result struct {
	Mode       Mode
	Trajectory []lcp.Solved
	Metrics    map[string]float64
	Solves     int
	Nodes      int
}

// States returns the initial state followed by the state after every step.
func (r *Result) States(initial State) []State {
	out := make([]State, 0, len(r.Trajectory)+1)
	out = append(out, initial.Clone())
	for _, u := range r.Trajectory {
		out = append(out, Next(u))
	}
	return out
}
