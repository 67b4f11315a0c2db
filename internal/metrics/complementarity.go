package metrics

import (
	"math"

	"github.com/san-kum/lcpsim/internal/lcp"
)

// Complementarity tracks the worst residual min(c_n, |separation|) over
// contacts and min(λ, |slack|) over joint limits. A solved trajectory keeps
// it at solver tolerance.
type Complementarity struct {
	name  string
	worst float64
}

func NewComplementarity() *Complementarity {
	return &Complementarity{name: "complementarity"}
}

func (c *Complementarity) Name() string { return c.name }

func (c *Complementarity) Observe(step int, u lcp.Solved, p lcp.Params) {
	for _, ct := range u.Contacts {
		c.worst = math.Max(c.worst, math.Min(ct.Cn, math.Abs(ct.Separation)))
	}
	for _, l := range u.JointLimits {
		c.worst = math.Max(c.worst, math.Min(l.Lambda, math.Abs(l.Slack)))
	}
}

func (c *Complementarity) Value() float64 { return c.worst }

func (c *Complementarity) Reset() { c.worst = 0 }

// FrictionMargin is the smallest μ·c_n - Σβ seen at any contact; it is never
// negative on a feasible trajectory.
type FrictionMargin struct {
	name string
	min  float64
	seen bool
}

func NewFrictionMargin() *FrictionMargin {
	return &FrictionMargin{name: "friction_margin"}
}

func (f *FrictionMargin) Name() string { return f.name }

func (f *FrictionMargin) Observe(step int, u lcp.Solved, p lcp.Params) {
	for _, ct := range u.Contacts {
		margin := p.Mu * ct.Cn
		for _, b := range ct.Beta {
			margin -= b
		}
		if !f.seen || margin < f.min {
			f.min = margin
			f.seen = true
		}
	}
}

func (f *FrictionMargin) Value() float64 { return f.min }

func (f *FrictionMargin) Reset() {
	f.min = 0
	f.seen = false
}

// ContactSteps counts steps with a positive normal force at any contact.
type ContactSteps struct {
	name  string
	tol   float64
	count int
}

func NewContactSteps(tol float64) *ContactSteps {
	return &ContactSteps{name: "contact_steps", tol: tol}
}

func (c *ContactSteps) Name() string { return c.name }

func (c *ContactSteps) Observe(step int, u lcp.Solved, p lcp.Params) {
	for _, ct := range u.Contacts {
		if ct.Cn > c.tol {
			c.count++
			return
		}
	}
}

func (c *ContactSteps) Value() float64 { return float64(c.count) }

func (c *ContactSteps) Reset() { c.count = 0 }
