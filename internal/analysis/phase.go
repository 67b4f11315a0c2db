package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/montanaflynn/stats"
	"github.com/samber/lo"

	"github.com/san-kum/lcpsim/internal/lcp"
)

var ErrUnknownField = errors.New("analysis: unknown field")

type Point struct{ X, Y float64 }

// PhasePortrait2D holds two fields of a trajectory plotted against each other.
type PhasePortrait2D struct {
	XField, YField string
	Points         []Point
}

// fieldIndex resolves a path to its position in the flattened update.
func fieldIndex(u lcp.Solved, path string) (int, error) {
	if i := lo.IndexOf(lcp.Paths(u), path); i >= 0 {
		return i, nil
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownField, path)
}

// Summary describes one field over a trajectory.
type Summary struct {
	Min, Max, Mean, StdDev float64
}

func Summarize(traj []lcp.Solved, field string) (Summary, error) {
	xs, err := Series(traj, field)
	if err != nil {
		return Summary{}, err
	}
	data := stats.Float64Data(xs)
	var s Summary
	if s.Min, err = data.Min(); err != nil {
		return Summary{}, err
	}
	s.Max, _ = data.Max()
	s.Mean, _ = data.Mean()
	s.StdDev, _ = data.StandardDeviation()
	return s, nil
}

// Series returns one field of every update of traj.
func Series(traj []lcp.Solved, field string) ([]float64, error) {
	if len(traj) == 0 {
		return []float64{}, nil
	}
	idx, err := fieldIndex(traj[0], field)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(traj))
	for i, u := range traj {
		out[i] = lcp.Flatten(u)[idx]
	}
	return out, nil
}

func NewPhasePortrait(traj []lcp.Solved, xField, yField string) (*PhasePortrait2D, error) {
	xs, err := Series(traj, xField)
	if err != nil {
		return nil, err
	}
	ys, err := Series(traj, yField)
	if err != nil {
		return nil, err
	}
	portrait := &PhasePortrait2D{
		XField: xField,
		YField: yField,
		Points: make([]Point, len(xs)),
	}
	for i := range xs {
		portrait.Points[i] = Point{X: xs[i], Y: ys[i]}
	}
	return portrait, nil
}

// PhasePortraitToASCII converts phase portrait to ASCII art
func PhasePortraitToASCII(portrait *PhasePortrait2D, width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := portrait.Points[0].X, portrait.Points[0].X
	minY, maxY := portrait.Points[0].Y, portrait.Points[0].Y
	for _, p := range portrait.Points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	toCol := func(x float64) int { return int((x - minX) / rangeX * float64(width-1)) }
	toRow := func(y float64) int { return height - 1 - int((y-minY)/rangeY*float64(height-1)) }

	if minX <= 0 && maxX >= 0 {
		col := toCol(0)
		for row := range canvas {
			canvas[row][col] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := toRow(0)
		for col := range canvas[row] {
			if canvas[row][col] == '│' {
				canvas[row][col] = '┼'
			} else {
				canvas[row][col] = '─'
			}
		}
	}

	for i, p := range portrait.Points {
		r := '•'
		if i == 0 {
			r = 'o'
		}
		canvas[toRow(p.Y)][toCol(p.X)] = r
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s vs %s  x:[%.3g, %.3g] y:[%.3g, %.3g]\n",
		portrait.YField, portrait.XField, minX, maxX, minY, maxY)
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// Section records (xField, yField) at every step where the trigger field
// crosses threshold going upward, e.g. each liftoff when the trigger is a
// contact separation.
type Section struct {
	Trigger string
	Steps   []int
	Points  []Point
}

func NewSection(traj []lcp.Solved, trigger string, threshold float64, xField, yField string) (*Section, error) {
	tr, err := Series(traj, trigger)
	if err != nil {
		return nil, err
	}
	portrait, err := NewPhasePortrait(traj, xField, yField)
	if err != nil {
		return nil, err
	}

	section := &Section{Trigger: trigger, Steps: []int{}, Points: []Point{}}
	for i := 1; i < len(tr); i++ {
		if tr[i-1] < threshold && tr[i] >= threshold {
			section.Steps = append(section.Steps, i)
			section.Points = append(section.Points, portrait.Points[i])
		}
	}
	return section, nil
}

// SectionToASCII converts section data to ASCII plot
func SectionToASCII(section *Section, width, height int) string {
	if section == nil || len(section.Points) == 0 {
		return "No crossings detected"
	}
	return PhasePortraitToASCII(&PhasePortrait2D{XField: "x", YField: "y", Points: section.Points}, width, height)
}
