package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/lcpsim/internal/lcp"
)

func resting() lcp.Solved {
	u := lcp.Zero(lcp.Shape{Contacts: 1, Basis: 2, JointLimits: 2})
	u.Q = []float64{0, 0.5, 0}
	u.Contacts[0].Cn = 0.4
	u.Contacts[0].Beta = []float64{0.05, 0.05}
	u.JointLimits[1].Lambda = 0.49
	u.JointLimits[0].Slack = -1
	return u
}

func TestBodyEnergy(t *testing.T) {
	p := lcp.DefaultParams()
	u := resting()
	u.V = []float64{1, 0, 0}

	want := 0.5 + 9.81*0.5
	if got := BodyEnergy(u, p); math.Abs(got-want) > 1e-9 {
		t.Errorf("expected energy %f, got %f", want, got)
	}
}

func TestEnergyReset(t *testing.T) {
	m := NewEnergy()
	m.Observe(0, resting(), lcp.DefaultParams())
	if m.Value() == 0 {
		t.Error("expected non-zero energy")
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero energy after reset")
	}
}

func TestComplementarity(t *testing.T) {
	p := lcp.DefaultParams()
	m := NewComplementarity()
	m.Observe(0, resting(), p)
	if m.Value() != 0 {
		t.Errorf("expected zero residual, got %f", m.Value())
	}

	bad := resting()
	bad.Contacts[0].Separation = 0.1
	m.Observe(1, bad, p)
	if math.Abs(m.Value()-0.1) > 1e-12 {
		t.Errorf("expected residual 0.1, got %f", m.Value())
	}
}

func TestFrictionMargin(t *testing.T) {
	m := NewFrictionMargin()
	m.Observe(0, resting(), lcp.DefaultParams())
	if math.Abs(m.Value()-0.1) > 1e-12 {
		t.Errorf("expected margin 0.1, got %f", m.Value())
	}
}

func TestControlEffort(t *testing.T) {
	p := lcp.DefaultParams()
	m := NewControlEffort()
	u := resting()
	u.U = 2
	m.Observe(0, u, p)
	m.Observe(1, u, p)
	if math.Abs(m.Value()-2*4*p.Dt) > 1e-12 {
		t.Errorf("expected effort %f, got %f", 2*4*p.Dt, m.Value())
	}
}

func TestContactSteps(t *testing.T) {
	m := NewContactSteps(1e-6)
	p := lcp.DefaultParams()
	m.Observe(0, resting(), p)
	m.Observe(1, lcp.Zero(lcp.Shape{Contacts: 1, Basis: 2}), p)
	if m.Value() != 1 {
		t.Errorf("expected 1 contact step, got %f", m.Value())
	}
}

func TestStability(t *testing.T) {
	m := NewStability(0.9)
	p := lcp.DefaultParams()
	m.Observe(0, resting(), p)
	far := resting()
	far.V[lcp.Y] = -9.5
	m.Observe(1, far, p)
	if m.Value() != 0.5 {
		t.Errorf("expected 0.5, got %f", m.Value())
	}
}

func TestDefault(t *testing.T) {
	seen := map[string]bool{}
	for _, m := range Default() {
		if seen[m.Name()] {
			t.Errorf("duplicate metric %s", m.Name())
		}
		seen[m.Name()] = true
	}
	if len(seen) != 6 {
		t.Errorf("expected 6 metrics, got %d", len(seen))
	}
}
