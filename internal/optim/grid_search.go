package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/multierr"

	"github.com/san-kum/lcpsim/internal/experiment"
)

// ErrNoFeasiblePoint is returned when every grid point failed.
var ErrNoFeasiblePoint = errors.New("optim: no grid point produced a trajectory")

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Point is one evaluated grid point.
type Point struct {
	Params map[string]float64
	Value  float64
	Err    error
}

// Search runs an experiment per grid point and returns the parameters that
// minimize metricName, along with every evaluated point. Infeasible points
// are recorded and skipped.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (map[string]float64, float64, []Point, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, 0, nil, fmt.Errorf("optim: %d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}

	best := math.Inf(1)
	var bestParams map[string]float64
	var points []Point

	err := g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, metricName, &best, &bestParams, &points)
	if err != nil {
		return nil, 0, points, err
	}
	if bestParams == nil {
		var all error
		for _, p := range points {
			all = multierr.Append(all, p.Err)
		}
		return nil, 0, points, multierr.Append(ErrNoFeasiblePoint, all)
	}
	return bestParams, best, points, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	metricName string,
	best *float64,
	bestParams *map[string]float64,
	points *[]Point,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth == len(g.paramNames) {
		p := Point{Params: current, Value: math.NaN()}
		defer func() { *points = append(*points, p) }()

		exp, err := buildExperiment(current)
		if err != nil {
			p.Err = err
			return nil
		}
		result, err := exp.Run(ctx)
		if err != nil {
			p.Err = err
			return nil
		}

		val, ok := result.Metrics[metricName]
		if !ok {
			p.Err = fmt.Errorf("optim: metric %q not recorded", metricName)
			return nil
		}
		p.Value = val
		if val < *best {
			*best = val
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, buildExperiment, metricName, best, bestParams, points); err != nil {
			return err
		}
	}
	return nil
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	if n <= 1 {
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	return out
}
