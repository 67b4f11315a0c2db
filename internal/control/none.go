package control

type None struct{}

func NewNone() *None {
	return &None{}
}

func (n *None) Compute(q, v []float64) float64 {
	return 0
}

type Constant struct {
	Force float64
}

func NewConstant(force float64) *Constant {
	return &Constant{Force: force}
}

func (c *Constant) Compute(q, v []float64) float64 {
	return c.Force
}
