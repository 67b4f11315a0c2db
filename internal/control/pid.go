package control

import (
	"fmt"
	"math"

	"github.com/san-kum/lcpsim/internal/dynamo"
	"github.com/san-kum/lcpsim/internal/lcp"
)

// PD drives the leg length toward Target. Limit clamps the output when
// positive.
type PD struct {
	Kp     float64
	Kd     float64
	Target float64
	Limit  float64
}

func NewPD(kp, kd, target float64) *PD {
	return &PD{
		Kp:     kp,
		Kd:     kd,
		Target: target,
	}
}

func (p *PD) Compute(q, v []float64) float64 {
	if len(q) < lcp.Dim || len(v) < lcp.Dim {
		return 0
	}
	err := p.Target - lcp.LegLength(q)
	rate := lcp.LegLength(v)

	u := p.Kp*err - p.Kd*rate
	if p.Limit > 0 {
		u = math.Max(-p.Limit, math.Min(p.Limit, u))
	}
	return u
}

// GetParams returns tunable parameters for live adjustment
func (p *PD) GetParams() map[string]float64 {
	return map[string]float64{
		"kp":     p.Kp,
		"kd":     p.Kd,
		"target": p.Target,
		"limit":  p.Limit,
	}
}

// SetParam adjusts a PD parameter
func (p *PD) SetParam(name string, value float64) error {
	switch name {
	case "kp":
		p.Kp = value
	case "kd":
		p.Kd = value
	case "target":
		p.Target = value
	case "limit":
		p.Limit = value
	default:
		return fmt.Errorf("%w: unknown pd parameter %q", dynamo.ErrParameterBounds, name)
	}
	return nil
}
