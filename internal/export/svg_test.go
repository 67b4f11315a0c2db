package export

import (
	"strings"
	"testing"

	"github.com/san-kum/lcpsim/internal/lcp"
	"github.com/san-kum/lcpsim/internal/viz"
)

func landing() []lcp.Solved {
	shape := lcp.Shape{Contacts: 1, Basis: 2, JointLimits: 2}
	traj := make([]lcp.Solved, 3)
	for i, z := range []float64{0.2, 0.1, 0} {
		u := lcp.Zero(shape)
		u.Q = []float64{0.1 * float64(i), 1 + z, z}
		u.Contacts[0].Separation = z
		traj[i] = u
	}
	traj[2].Contacts[0].Cn = 0.5
	return traj
}

func TestTrajectoryToSVG(t *testing.T) {
	svg := TrajectoryToSVG(landing(), lcp.FlatGround(0), 200, 200)
	if !strings.HasPrefix(svg, "<?xml") || !strings.HasSuffix(svg, "</svg>") {
		t.Fatal("expected a complete svg document")
	}
	if got := strings.Count(svg, "<path"); got != 2 {
		t.Errorf("expected body and foot paths, got %d", got)
	}
	if got := strings.Count(svg, "<line"); got != 1 {
		t.Errorf("expected the ground face, got %d lines", got)
	}
	if got := strings.Count(svg, "<circle"); got != 1 {
		t.Errorf("expected one contact marker, got %d", got)
	}
}

func TestTrajectoryToSVGShort(t *testing.T) {
	if TrajectoryToSVG(landing()[:1], lcp.Empty(), 100, 100) != "" {
		t.Error("expected empty output for a single step")
	}
}

func TestCanvasToSVG(t *testing.T) {
	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	svg := CanvasToSVG(c, 2)
	if got := strings.Count(svg, "<circle"); got != 2 {
		t.Errorf("expected 2 dots, got %d", got)
	}
	if CanvasToSVG(nil, 1) != "" {
		t.Error("expected empty output for nil canvas")
	}
}
