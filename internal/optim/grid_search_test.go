package optim

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/lcpsim/internal/config"
	"github.com/san-kum/lcpsim/internal/experiment"
)

func builder(base *config.Config) func(map[string]float64) (*experiment.Experiment, error) {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := *base
		cfg.Params.Gravity = append([]float64(nil), base.Params.Gravity...)
		for name, v := range params {
			if err := cfg.Set(name, v); err != nil {
				return nil, err
			}
		}
		exp := experiment.New(&cfg)
		if err := exp.Setup(experiment.NewRegistry()); err != nil {
			return nil, err
		}
		return exp, nil
	}
}

func TestGridSearchControlEffort(t *testing.T) {
	base := config.GetPreset("extend")
	base.Controller = "constant"
	base.Steps = 2

	g := NewGridSearch([]string{"force"}, [][]float64{{-2, 0.5, 3}})
	best, val, points, err := g.Search(context.Background(), builder(base), "control_effort")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if best["force"] != 0.5 {
		t.Errorf("expected force 0.5, got %f", best["force"])
	}
	if val <= 0 {
		t.Errorf("expected positive effort, got %f", val)
	}
	if len(points) != 3 {
		t.Errorf("expected 3 points, got %d", len(points))
	}
}

func TestGridSearchAllInfeasible(t *testing.T) {
	base := config.DefaultConfig()
	base.Steps = 1

	g := NewGridSearch([]string{"dt"}, [][]float64{{-1, 0}})
	_, _, points, err := g.Search(context.Background(), builder(base), "energy")
	if !errors.Is(err, ErrNoFeasiblePoint) {
		t.Errorf("expected ErrNoFeasiblePoint, got %v", err)
	}
	for _, p := range points {
		if p.Err == nil {
			t.Errorf("expected point %v to fail", p.Params)
		}
	}
}

func TestLinspace(t *testing.T) {
	xs := Linspace(0, 1, 5)
	if len(xs) != 5 || xs[0] != 0 || xs[4] != 1 || xs[2] != 0.5 {
		t.Errorf("unexpected values %v", xs)
	}
	if xs := Linspace(2, 3, 1); len(xs) != 1 || xs[0] != 2 {
		t.Errorf("expected [2], got %v", xs)
	}
}
