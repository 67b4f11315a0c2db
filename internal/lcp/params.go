package lcp

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/multierr"
)

// ErrInvalidParams indicates physical parameters outside their valid range.
var ErrInvalidParams = errors.New("lcp: invalid parameters")

// Params is the physical configuration of a timestep.
type Params struct {
	Dt      float64    `yaml:"dt" json:"dt"`
	Mu      float64    `yaml:"mu" json:"mu"`
	Gravity [2]float64 `yaml:"gravity" json:"gravity"`
	Mass    float64    `yaml:"mass" json:"mass"`
	LegMin  float64    `yaml:"leg_min" json:"leg_min"`
	LegMax  float64    `yaml:"leg_max" json:"leg_max"`

	// StateBound boxes every next-state coordinate and velocity.
	StateBound float64 `yaml:"state_bound" json:"state_bound"`
	// ForceBound caps every force multiplier.
	ForceBound float64 `yaml:"force_bound" json:"force_bound"`
}

func DefaultParams() Params {
	return Params{
		Dt:         0.05,
		Mu:         0.5,
		Gravity:    [2]float64{0, -9.81},
		Mass:       1,
		LegMin:     0.5,
		LegMax:     1.5,
		StateBound: 10,
		ForceBound: 100,
	}
}

// Validate reports every out-of-range parameter at once.
func (p Params) Validate() error {
	var err error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			err = multierr.Append(err, fmt.Errorf("%w: "+format, append([]any{ErrInvalidParams}, args...)...))
		}
	}
	check(p.Dt > 0, "dt must be positive, got %g", p.Dt)
	check(p.Mu >= 0, "mu must be non-negative, got %g", p.Mu)
	check(p.Mass > 0, "mass must be positive, got %g", p.Mass)
	check(p.LegMin >= 0 && p.LegMin < p.LegMax, "leg limits must satisfy 0 <= min < max, got [%g, %g]", p.LegMin, p.LegMax)
	check(p.StateBound > 0 && !math.IsInf(p.StateBound, 0), "state bound must be positive and finite, got %g", p.StateBound)
	check(p.ForceBound > 0 && !math.IsInf(p.ForceBound, 0), "force bound must be positive and finite, got %g", p.ForceBound)
	return err
}
