package control

import "sync"

// Manual returns whatever force was last set. The live view adjusts it from
// key presses while the simulation reads it.
type Manual struct {
	mu    sync.Mutex
	force float64
	step  float64
}

func NewManual(step float64) *Manual {
	return &Manual{step: step}
}

func (c *Manual) Set(force float64) {
	c.mu.Lock()
	c.force = force
	c.mu.Unlock()
}

// Nudge changes the force by dir steps.
func (c *Manual) Nudge(dir float64) {
	c.mu.Lock()
	c.force += dir * c.step
	c.mu.Unlock()
}

func (c *Manual) Force() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.force
}

func (c *Manual) Compute(q, v []float64) float64 {
	return c.Force()
}
