package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/lcpsim/internal/control"
	"github.com/san-kum/lcpsim/internal/dynamo"
	"github.com/san-kum/lcpsim/internal/lcp"
	"github.com/san-kum/lcpsim/internal/sim"
)

const (
	width           = 72
	height          = 22
	historyCapacity = 300
	span            = 4.0
	frameRate       = 30
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model steps a simulator once per tick, or replays a recorded trajectory,
// and draws the body, the leg and the obstacles.
type Model struct {
	ctx        context.Context
	sim        *sim.Simulator
	env        lcp.Environment
	controller dynamo.Controller
	manual     *control.Manual
	name       string

	initial dynamo.State
	state   dynamo.State
	last    *lcp.Solved
	step    int
	solves  int
	nodes   int
	err     error

	// replay holds a recorded trajectory; playHead indexes it.
	replay   []lcp.Solved
	playHead int

	heights []float64
	impulse []float64

	canvas   *Canvas
	theme    int
	styles   styles
	running  bool
	showHelp bool
}

// NewModel builds a live view over s. When ctrl is a *control.Manual the
// arrow keys adjust its force.
func NewModel(ctx context.Context, s *sim.Simulator, ctrl dynamo.Controller, initial dynamo.State, name string) Model {
	m := Model{
		ctx:        ctx,
		sim:        s,
		env:        s.Environment(),
		controller: ctrl,
		name:       name,
		initial:    initial.Clone(),
		state:      initial.Clone(),
		heights:    make([]float64, 0, historyCapacity),
		impulse:    make([]float64, 0, historyCapacity),
		canvas:     NewCanvas(width, height),
		styles:     newStyles(Themes[0]),
		running:    true,
	}
	if manual, ok := ctrl.(*control.Manual); ok {
		m.manual = manual
	}
	return m
}

// NewReplay builds a view that plays back traj without solving anything.
func NewReplay(env lcp.Environment, initial dynamo.State, traj []lcp.Solved, name string) Model {
	return Model{
		ctx:     context.Background(),
		env:     env,
		name:    name,
		initial: initial.Clone(),
		state:   initial.Clone(),
		replay:  traj,
		heights: make([]float64, 0, historyCapacity),
		impulse: make([]float64, 0, historyCapacity),
		canvas:  NewCanvas(width, height),
		styles:  newStyles(Themes[0]),
		running: true,
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case ".":
			if !m.running {
				m.advance()
			}
		case "r":
			m.reset()
		case "left", "h":
			m.nudge(-1)
		case "right", "l":
			m.nudge(1)
		case "0":
			if m.manual != nil {
				m.manual.Set(0)
			}
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
			m.styles = newStyles(Themes[m.theme])
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.advance()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) nudge(dir float64) {
	if m.manual != nil {
		m.manual.Nudge(dir)
	}
}

// advance moves one step forward. A failed solve stops the view on the
// last good state.
func (m *Model) advance() {
	if m.err != nil {
		return
	}
	var upd lcp.Solved
	if m.replay != nil {
		if m.playHead >= len(m.replay) {
			m.running = false
			return
		}
		upd = m.replay[m.playHead]
		m.playHead++
	} else {
		u := m.controller.Compute(m.state.Q, m.state.V)
		solved, sol, err := m.sim.Advance(m.ctx, m.state, u)
		if err != nil {
			m.err = fmt.Errorf("step %d: %w", m.step, err)
			m.running = false
			return
		}
		upd = solved
		m.solves++
		m.nodes += sol.Nodes
	}

	m.step++
	m.state = dynamo.Next(upd)
	m.last = &upd
	m.heights = pushBounded(m.heights, upd.Q[lcp.Y])
	total := 0.0
	for _, c := range upd.Contacts {
		total += c.Cn
	}
	m.impulse = pushBounded(m.impulse, total)
}

func pushBounded(xs []float64, x float64) []float64 {
	xs = append(xs, x)
	if len(xs) > historyCapacity {
		xs = xs[1:]
	}
	return xs
}

func (m *Model) reset() {
	m.state = m.initial.Clone()
	m.last = nil
	m.step, m.solves, m.nodes, m.playHead = 0, 0, 0, 0
	m.err = nil
	m.heights = m.heights[:0]
	m.impulse = m.impulse[:0]
	if m.manual != nil {
		m.manual.Set(0)
	}
	m.running = true
}

// solid reports whether the world point lies inside an obstacle.
func (m *Model) solid(x, y float64) bool {
	p := []float64{x, y}
	if len(m.env.FreeRegions) > 0 {
		free, err := m.env.Free(p, 0)
		return err == nil && !free
	}
	for _, o := range m.env.Obstacles {
		if ok, err := o.Interior.Contains(p, 0); err == nil && ok {
			return true
		}
	}
	return false
}

func (m *Model) draw() {
	m.canvas.Clear()
	q := m.state.Q
	if len(q) != lcp.Dim {
		return
	}
	vp := NewViewport(m.canvas, q[lcp.X], q[lcp.Y]-0.5, span)
	vp.Fill(m.solid)
	vp.Segment(q[lcp.X], q[lcp.Y], q[lcp.X], q[lcp.Z])
	vp.Disc(q[lcp.X], q[lcp.Y], 3)
	vp.Disc(q[lcp.X], q[lcp.Z], 1)
}

func (m Model) View() string {
	m.draw()
	st := m.styles

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.name)) + "\n")
	switch {
	case m.err != nil:
		s.WriteString(st.err.Render("FAILED") + "\n")
	case m.replay != nil && m.playHead >= len(m.replay):
		s.WriteString("FINISHED\n")
	case !m.running:
		s.WriteString(st.warn.Render("PAUSED") + "\n")
	case m.replay != nil:
		s.WriteString("REPLAY\n")
	default:
		s.WriteString("RUNNING\n")
	}

	if len(m.heights) > 1 {
		chart := asciigraph.Plot(m.heights, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Body height"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}
	if len(m.impulse) > 1 {
		chart := asciigraph.Plot(m.impulse, asciigraph.Height(3), asciigraph.Width(30), asciigraph.Caption("Normal impulse"))
		s.WriteString(st.graph.Render(chart) + "\n")
	}

	dt := 0.0
	if m.sim != nil {
		dt = m.sim.Params().Dt
	}
	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Step", fmt.Sprintf("%d", m.step))
	if dt > 0 {
		row("Time", fmt.Sprintf("%.2fs", float64(m.step)*dt))
	}
	if len(m.state.Q) == lcp.Dim {
		row("Body", fmt.Sprintf("(%.3f, %.3f)", m.state.Q[lcp.X], m.state.Q[lcp.Y]))
		row("Foot", fmt.Sprintf("%.3f", m.state.Q[lcp.Z]))
		row("Leg", fmt.Sprintf("%.3f", lcp.LegLength(m.state.Q)))
	}
	if m.last != nil {
		row("Force", fmt.Sprintf("%.2f", m.last.U))
		for _, c := range m.last.Contacts {
			line := fmt.Sprintf("sep %.3f cn %.3f", c.Separation, c.Cn)
			if c.Separation <= 1e-6 {
				s.WriteString(st.active.Render(fmt.Sprintf("%-12s%s", c.Obstacle, line)) + "\n")
			} else {
				row(c.Obstacle, line)
			}
		}
	}
	if m.manual != nil {
		row("Manual", fmt.Sprintf("%.2f", m.manual.Force()))
	}
	if m.solves > 0 {
		row("Nodes/step", fmt.Sprintf("%.1f", float64(m.nodes)/float64(m.solves)))
	}
	if m.err != nil {
		s.WriteString("\n" + st.err.Render(wrap(m.err.Error(), 40)) + "\n")
	}

	s.WriteString(st.help.Render("─────────────────────\nSP:Pause .:Step R:Reset Q:Quit\n←→:Force 0:Zero T:Theme ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, st.canvas.Render(m.canvas.String()), st.stats.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
  Space    pause or resume
  .        single step while paused
  R        reset to the initial state
  Left/H   decrease the manual leg force
  Right/L  increase the manual leg force
  0        zero the manual leg force
  T        cycle themes
  Q        quit`

func wrap(s string, n int) string {
	var b strings.Builder
	for len(s) > n {
		b.WriteString(s[:n] + "\n")
		s = s[n:]
	}
	b.WriteString(s)
	return b.String()
}

// Run starts the view full screen and blocks until it exits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
