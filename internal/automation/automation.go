// Package automation runs scripted sequences of scenario runs.
package automation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/lcpsim/internal/config"
	"github.com/san-kum/lcpsim/internal/dynamo"
	"github.com/san-kum/lcpsim/internal/experiment"
	"github.com/san-kum/lcpsim/internal/storage"
)

var ErrUnknownPreset = errors.New("automation: unknown preset")

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Runs        []ScenarioRun `yaml:"runs"`
}

// ScenarioRun starts from a preset and overrides selected fields.
type ScenarioRun struct {
	Preset     string             `yaml:"preset"`
	Mode       dynamo.Mode        `yaml:"mode,omitempty"`
	Controller string             `yaml:"controller,omitempty"`
	Steps      int                `yaml:"steps,omitempty"`
	Params     map[string]float64 `yaml:"params,omitempty"`
	SaveAs     string             `yaml:"save_as,omitempty"`
}

type Outcome struct {
	Preset string
	RunID  string
	Result *dynamo.Result
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// Config resolves the run into a full configuration.
func (r ScenarioRun) Config() (*config.Config, error) {
	cfg := config.GetPreset(r.Preset)
	if cfg == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, r.Preset)
	}
	if r.Mode != "" {
		cfg.Mode = r.Mode
	}
	if r.Controller != "" {
		cfg.Controller = r.Controller
	}
	if r.Steps > 0 {
		cfg.Steps = r.Steps
	}

	names := make([]string, 0, len(r.Params))
	for k := range r.Params {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, k := range names {
		if err := cfg.Set(k, r.Params[k]); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// RunScenario executes the runs in order and stops at the first failure,
// returning the outcomes completed so far. Runs with SaveAs are written to
// st when it is non-nil.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, st *storage.Store, logger *zap.Logger) ([]Outcome, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	outcomes := make([]Outcome, 0, len(scenario.Runs))

	for i, run := range scenario.Runs {
		logger.Info("scenario run",
			zap.String("scenario", scenario.Name),
			zap.Int("run", i+1),
			zap.Int("of", len(scenario.Runs)),
			zap.String("preset", run.Preset),
		)

		cfg, err := run.Config()
		if err != nil {
			return outcomes, fmt.Errorf("run %d: %w", i+1, err)
		}
		exp := experiment.New(cfg)
		if err := exp.Setup(registry); err != nil {
			return outcomes, fmt.Errorf("run %d setup: %w", i+1, err)
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return outcomes, fmt.Errorf("run %d: %w", i+1, err)
		}

		out := Outcome{Preset: run.Preset, Result: result}
		if run.SaveAs != "" && st != nil {
			id, err := st.Save(run.SaveAs, cfg.Controller, cfg.LCPParams(), cfg.InitialState(), result)
			if err != nil {
				return outcomes, fmt.Errorf("run %d save: %w", i+1, err)
			}
			out.RunID = id
		}
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}
