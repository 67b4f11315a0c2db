package analysis

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/lcpsim/internal/lcp"
)

func bounce() []lcp.Solved {
	shape := lcp.Shape{Contacts: 1, Basis: 2, JointLimits: 2}
	heights := []float64{0.1, 0.05, 0, 0, 0.04, 0.08}
	traj := make([]lcp.Solved, len(heights))
	for i, z := range heights {
		u := lcp.Zero(shape)
		u.Q = []float64{0, 1 + z, z}
		u.V = []float64{0, float64(i), -float64(i)}
		u.Contacts[0].Separation = z
		traj[i] = u
	}
	return traj
}

func TestSeries(t *testing.T) {
	s, err := Series(bounce(), "contact[0].separation")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s) != 6 || s[4] != 0.04 {
		t.Errorf("unexpected series %v", s)
	}

	if _, err := Series(bounce(), "q[7]"); !errors.Is(err, ErrUnknownField) {
		t.Errorf("expected ErrUnknownField, got %v", err)
	}

	empty, err := Series(nil, "q[0]")
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty series, got %v %v", empty, err)
	}
}

func TestPhasePortrait(t *testing.T) {
	p, err := NewPhasePortrait(bounce(), "q[2]", "v[1]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Points) != 6 {
		t.Fatalf("expected 6 points, got %d", len(p.Points))
	}
	if p.Points[5] != (Point{X: 0.08, Y: 5}) {
		t.Errorf("unexpected last point %+v", p.Points[5])
	}

	out := PhasePortraitToASCII(p, 40, 10)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 11 {
		t.Errorf("expected header and 10 rows, got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "v[1] vs q[2]") {
		t.Errorf("unexpected header %q", lines[0])
	}
	if !strings.Contains(out, "•") || !strings.Contains(out, "o") {
		t.Error("expected plotted points")
	}
}

func TestPhasePortraitToASCIIEmpty(t *testing.T) {
	if PhasePortraitToASCII(nil, 10, 10) != "" {
		t.Error("expected empty output for nil portrait")
	}
}

func TestSection(t *testing.T) {
	s, err := NewSection(bounce(), "contact[0].separation", 0.01, "q[1]", "v[1]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(s.Steps) != 1 || s.Steps[0] != 4 {
		t.Errorf("expected one liftoff at step 4, got %v", s.Steps)
	}
	if s.Points[0].Y != 4 {
		t.Errorf("expected v[1] 4 at liftoff, got %f", s.Points[0].Y)
	}

	if SectionToASCII(&Section{}, 10, 10) != "No crossings detected" {
		t.Error("expected no-crossing message")
	}
}

func TestSummarize(t *testing.T) {
	s, err := Summarize(bounce(), "q[2]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Min != 0 || s.Max != 0.1 {
		t.Errorf("expected range [0, 0.1], got [%f, %f]", s.Min, s.Max)
	}
	if math.Abs(s.Mean-0.045) > 1e-12 {
		t.Errorf("expected mean 0.045, got %f", s.Mean)
	}

	if _, err := Summarize(nil, "q[2]"); err == nil {
		t.Error("expected error for empty trajectory")
	}
}
