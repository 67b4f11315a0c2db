package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/lcpsim/internal/dynamo"
	"github.com/san-kum/lcpsim/internal/experiment"
	"github.com/san-kum/lcpsim/internal/storage"
)

const scenarioYAML = `
name: extensions
description: leg extension in free space
runs:
  - preset: extend
    steps: 4
  - preset: extend
    mode: optimize
    steps: 4
    params:
      mass: 2
    save_as: heavy
`

func TestLoadScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(scenarioYAML), 0644); err != nil {
		t.Fatal(err)
	}
	sc, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if sc.Name != "extensions" || len(sc.Runs) != 2 {
		t.Fatalf("unexpected scenario %+v", sc)
	}
	if sc.Runs[1].Mode != dynamo.ModeOptimize || sc.Runs[1].Params["mass"] != 2 {
		t.Errorf("unexpected run %+v", sc.Runs[1])
	}
}

func TestRunConfig(t *testing.T) {
	cfg, err := ScenarioRun{Preset: "drop", Steps: 3, Params: map[string]float64{"mu": 0.2}}.Config()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Steps != 3 || cfg.Params.Mu != 0.2 {
		t.Errorf("overrides not applied: steps %d mu %f", cfg.Steps, cfg.Params.Mu)
	}

	if _, err := (ScenarioRun{Preset: "nope"}).Config(); !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("expected ErrUnknownPreset, got %v", err)
	}
	if _, err := (ScenarioRun{Preset: "drop", Params: map[string]float64{"spin": 1}}).Config(); !errors.Is(err, dynamo.ErrParameterBounds) {
		t.Errorf("expected ErrParameterBounds, got %v", err)
	}
}

func TestRunScenario(t *testing.T) {
	sc := &Scenario{
		Name: "extensions",
		Runs: []ScenarioRun{
			{Preset: "extend", Steps: 4},
			{Preset: "extend", Mode: dynamo.ModeOptimize, Steps: 4, SaveAs: "batch"},
		},
	}
	st := storage.New(t.TempDir())

	outcomes, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), st, nil)
	if err != nil {
		t.Fatalf("scenario failed: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(outcomes))
	}
	if outcomes[0].RunID != "" {
		t.Error("expected unsaved first run")
	}
	if outcomes[1].Result.Mode != dynamo.ModeOptimize || len(outcomes[1].Result.Trajectory) != 4 {
		t.Errorf("unexpected batch result %+v", outcomes[1].Result)
	}

	runs, err := st.List()
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected one stored run, got %d (%v)", len(runs), err)
	}
	if runs[0].Scenario != "batch" {
		t.Errorf("expected scenario batch, got %s", runs[0].Scenario)
	}
}

func TestRunScenarioStopsAtFailure(t *testing.T) {
	sc := &Scenario{Runs: []ScenarioRun{
		{Preset: "extend", Steps: 2},
		{Preset: "missing"},
		{Preset: "extend", Steps: 2},
	}}
	outcomes, err := RunScenario(context.Background(), sc, experiment.NewRegistry(), nil, nil)
	if !errors.Is(err, ErrUnknownPreset) {
		t.Errorf("expected ErrUnknownPreset, got %v", err)
	}
	if len(outcomes) != 1 {
		t.Errorf("expected 1 completed outcome, got %d", len(outcomes))
	}
}
