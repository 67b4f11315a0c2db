package metrics

import "github.com/san-kum/lcpsim/internal/lcp"

// BodyEnergy is the kinetic plus gravitational energy of the body after a step.
func BodyEnergy(u lcp.Solved, p lcp.Params) float64 {
	vx, vy := u.V[lcp.X], u.V[lcp.Y]
	ke := 0.5 * p.Mass * (vx*vx + vy*vy)
	pe := -p.Mass * (p.Gravity[0]*u.Q[lcp.X] + p.Gravity[1]*u.Q[lcp.Y])
	return ke + pe
}

// Energy averages BodyEnergy over the trajectory.
type Energy struct {
	name        string
	samples     int
	totalEnergy float64
}

func NewEnergy() *Energy {
	return &Energy{name: "energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(step int, u lcp.Solved, p lcp.Params) {
	e.totalEnergy += BodyEnergy(u, p)
	e.samples++
}

func (e *Energy) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.totalEnergy / float64(e.samples)
}

func (e *Energy) Reset() {
	e.totalEnergy = 0
	e.samples = 0
}
