package metrics

import "github.com/san-kum/lcpsim/internal/lcp"

// ControlEffort integrates the squared leg force over time.
type ControlEffort struct {
	name string
	sum  float64
}

func NewControlEffort() *ControlEffort {
	return &ControlEffort{
		name: "control_effort",
	}
}

func (c *ControlEffort) Name() string {
	return c.name
}

func (c *ControlEffort) Observe(step int, u lcp.Solved, p lcp.Params) {
	c.sum += u.U * u.U * p.Dt
}

func (c *ControlEffort) Value() float64 {
	return c.sum
}

func (c *ControlEffort) Reset() {
	c.sum = 0
}
