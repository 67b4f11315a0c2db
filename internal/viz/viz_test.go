package viz

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/lcpsim/internal/control"
	"github.com/san-kum/lcpsim/internal/dynamo"
	"github.com/san-kum/lcpsim/internal/geometry"
	"github.com/san-kum/lcpsim/internal/lcp"
	"github.com/san-kum/lcpsim/internal/sim"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(1, 3)
	c.Set(-1, 0)
	c.Set(10, 10)

	if !c.IsSet(0, 0) || !c.IsSet(1, 3) {
		t.Error("expected set pixels")
	}
	if c.IsSet(2, 0) {
		t.Error("unexpected pixel in second cell")
	}
	if got := c.Grid[0][0]; got != blank|0x1|0x80 {
		t.Errorf("unexpected braille rune %U", got)
	}

	c.Clear()
	if c.IsSet(0, 0) {
		t.Error("expected cleared canvas")
	}
}

func TestDrawLine(t *testing.T) {
	c := NewCanvas(4, 1)
	c.DrawLine(0, 0, 7, 0)
	for x := 0; x < 8; x++ {
		if !c.IsSet(x, 0) {
			t.Errorf("expected pixel %d set", x)
		}
	}
}

func TestViewportRoundTrip(t *testing.T) {
	c := NewCanvas(40, 10)
	vp := NewViewport(c, 1, 2, 4)
	px, py := vp.Project(1, 2)
	if px != 40 || py != 20 {
		t.Errorf("expected center (40, 20), got (%d, %d)", px, py)
	}
	x, y := vp.Unproject(px, py)
	if math.Abs(x-1) > 1/vp.Scale || math.Abs(y-2) > 1/vp.Scale {
		t.Errorf("expected (1, 2), got (%f, %f)", x, y)
	}
}

func TestViewportPolyhedron(t *testing.T) {
	c := NewCanvas(20, 10)
	vp := NewViewport(c, 0, 0, 4)
	vp.Polyhedron(geometry.Box(-10, 10, -10, 0))

	_, h := c.Pixels()
	top, bottom := false, false
	for x := 0; x < 40; x++ {
		top = top || c.IsSet(x, 0)
		bottom = bottom || c.IsSet(x, h-1)
	}
	if top {
		t.Error("expected nothing drawn above the box")
	}
	if !bottom {
		t.Error("expected hatching below y=0")
	}
}

func replayTrajectory() []lcp.Solved {
	traj := make([]lcp.Solved, 3)
	for i := range traj {
		u := lcp.Zero(lcp.Shape{Contacts: 1, Basis: 2, JointLimits: 2})
		u.Q = []float64{0, 1 - 0.1*float64(i), 0}
		u.Contacts[0].Obstacle = "ground"
		traj[i] = u
	}
	return traj
}

func TestReplay(t *testing.T) {
	initial := dynamo.State{Q: []float64{0, 1, 0}, V: []float64{0, 0, 0}}
	m := NewReplay(lcp.FlatGround(0), initial, replayTrajectory(), "drop")

	var tm tea.Model = m
	for i := 0; i < 5; i++ {
		tm, _ = tm.Update(TickMsg(time.Now()))
	}
	got := tm.(Model)
	if got.step != 3 {
		t.Errorf("expected replay to stop after 3 steps, got %d", got.step)
	}
	if got.running {
		t.Error("expected replay to stop at the end")
	}
	if math.Abs(got.state.Q[lcp.Y]-0.8) > 1e-12 {
		t.Errorf("expected body at 0.8, got %f", got.state.Q[lcp.Y])
	}
	if !strings.Contains(got.View(), "FINISHED") {
		t.Error("expected finished status")
	}

	tm, _ = got.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if tm.(Model).step != 0 || !tm.(Model).running {
		t.Error("expected reset to restart replay")
	}
}

func TestLiveManual(t *testing.T) {
	s := sim.New(lcp.DefaultParams(), lcp.FlatGround(0))
	manual := control.NewManual(0.5)
	initial := dynamo.State{Q: []float64{0, 1, 0.25}, V: []float64{0, 0, 0}}
	m := NewModel(context.Background(), s, manual, initial, "drop")

	var tm tea.Model = m
	tm, _ = tm.Update(tea.KeyMsg{Type: tea.KeyRight})
	if manual.Force() != 0.5 {
		t.Errorf("expected force 0.5, got %f", manual.Force())
	}
	tm, _ = tm.Update(TickMsg(time.Now()))
	got := tm.(Model)
	if got.err != nil {
		t.Fatalf("unexpected step error: %v", got.err)
	}
	if got.step != 1 || got.last == nil || got.last.U != 0.5 {
		t.Errorf("expected one step under force 0.5, got step %d", got.step)
	}

	tm, _ = got.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(" ")})
	if tm.(Model).running {
		t.Error("expected pause")
	}
	tm, _ = tm.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(".")})
	if tm.(Model).step != 2 {
		t.Errorf("expected single step while paused, got %d", tm.(Model).step)
	}
}
