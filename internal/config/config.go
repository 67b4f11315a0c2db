package config

import (
	"fmt"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/lcpsim/internal/dynamo"
	"github.com/san-kum/lcpsim/internal/geometry"
	"github.com/san-kum/lcpsim/internal/lcp"
	"github.com/san-kum/lcpsim/internal/mip"
)

const (
	DefaultSteps    = 20
	DefaultKp       = 100.0
	DefaultKd       = 5.0
	DefaultTarget   = 1.0
	DefaultMaxNodes = mip.DefaultMaxNodes
)

// Environment kinds understood by Config.Environment.
const (
	EnvEmpty   = "empty"
	EnvGround  = "ground"
	EnvWall    = "wall"
	EnvCorner  = "corner"
	EnvTerrace = "terrace"
	EnvCustom  = "custom"
)

type Config struct {
	Mode             dynamo.Mode       `yaml:"mode"`
	Controller       string            `yaml:"controller"`
	Steps            int               `yaml:"steps"`
	Params           ParamsConfig      `yaml:"params"`
	Env              EnvironmentConfig `yaml:"environment"`
	InitState        InitStateConfig   `yaml:"init_state"`
	ControllerParams ControllerConfig  `yaml:"controller_params"`
	Solver           SolverConfig      `yaml:"solver"`
}

type ParamsConfig struct {
	Dt         float64   `yaml:"dt"`
	Mu         float64   `yaml:"mu"`
	Gravity    []float64 `yaml:"gravity"`
	Mass       float64   `yaml:"mass"`
	LegMin     float64   `yaml:"leg_min"`
	LegMax     float64   `yaml:"leg_max"`
	StateBound float64   `yaml:"state_bound"`
	ForceBound float64   `yaml:"force_bound"`
}

// EnvironmentConfig selects a built-in environment by Kind, or lists
// obstacles and free regions explicitly when Kind is "custom".
type EnvironmentConfig struct {
	Kind        string                `yaml:"kind"`
	Height      float64               `yaml:"height,omitempty"`
	WallX       float64               `yaml:"wall_x,omitempty"`
	StepX       float64               `yaml:"step_x,omitempty"`
	Obstacles   []ObstacleConfig      `yaml:"obstacles,omitempty"`
	FreeRegions []geometry.Polyhedron `yaml:"free_regions,omitempty"`
}

type ObstacleConfig struct {
	Name     string               `yaml:"name"`
	Face     geometry.HalfSpace   `yaml:"face"`
	Interior []geometry.HalfSpace `yaml:"interior,omitempty"`
}

type InitStateConfig struct {
	X  float64 `yaml:"x"`
	Y  float64 `yaml:"y"`
	Z  float64 `yaml:"z"`
	VX float64 `yaml:"vx"`
	VY float64 `yaml:"vy"`
	VZ float64 `yaml:"vz"`
}

type ControllerConfig struct {
	Force  float64 `yaml:"force"`
	Kp     float64 `yaml:"kp"`
	Kd     float64 `yaml:"kd"`
	Target float64 `yaml:"target"`
	Limit  float64 `yaml:"limit"`
}

type SolverConfig struct {
	MaxNodes  int     `yaml:"max_nodes"`
	Tolerance float64 `yaml:"tolerance"`
}

func paramsConfig(p lcp.Params) ParamsConfig {
	return ParamsConfig{
		Dt:         p.Dt,
		Mu:         p.Mu,
		Gravity:    []float64{p.Gravity[0], p.Gravity[1]},
		Mass:       p.Mass,
		LegMin:     p.LegMin,
		LegMax:     p.LegMax,
		StateBound: p.StateBound,
		ForceBound: p.ForceBound,
	}
}

func DefaultConfig() *Config {
	return &Config{
		Mode:       dynamo.ModeSimulate,
		Controller: "none",
		Steps:      DefaultSteps,
		Params:     paramsConfig(lcp.DefaultParams()),
		Env:        EnvironmentConfig{Kind: EnvGround},
		InitState:  InitStateConfig{Y: 1.0, Z: 0.25, VY: -1, VZ: -1},
		ControllerParams: ControllerConfig{
			Kp:     DefaultKp,
			Kd:     DefaultKd,
			Target: DefaultTarget,
		},
		Solver: SolverConfig{
			MaxNodes:  DefaultMaxNodes,
			Tolerance: mip.DefaultTolerance,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Params converts the physical section into lcp.Params.
func (c *Config) LCPParams() lcp.Params {
	p := lcp.Params{
		Dt:         c.Params.Dt,
		Mu:         c.Params.Mu,
		Mass:       c.Params.Mass,
		LegMin:     c.Params.LegMin,
		LegMax:     c.Params.LegMax,
		StateBound: c.Params.StateBound,
		ForceBound: c.Params.ForceBound,
	}
	copy(p.Gravity[:], c.Params.Gravity)
	return p
}

func (c *Config) Environment() (lcp.Environment, error) {
	e := c.Env
	switch e.Kind {
	case EnvEmpty:
		return lcp.Empty(), nil
	case EnvGround, "":
		return lcp.FlatGround(e.Height), nil
	case EnvWall:
		return lcp.Wall(e.WallX), nil
	case EnvCorner:
		return lcp.GroundAndWall(e.Height, e.WallX), nil
	case EnvTerrace:
		return lcp.Terrace(e.StepX, e.Height), nil
	case EnvCustom:
		obstacles := make([]lcp.Obstacle, 0, len(e.Obstacles))
		for _, oc := range e.Obstacles {
			interior := geometry.Polyhedron{Faces: oc.Interior}
			if len(interior.Faces) == 0 {
				interior.Faces = []geometry.HalfSpace{oc.Face}
			}
			o, err := lcp.NewObstacle(oc.Name, interior, oc.Face)
			if err != nil {
				return lcp.Environment{}, err
			}
			obstacles = append(obstacles, o)
		}
		return lcp.NewEnvironment(obstacles, e.FreeRegions)
	default:
		return lcp.Environment{}, fmt.Errorf("%w: unknown environment %q", dynamo.ErrParameterBounds, e.Kind)
	}
}

func (c *Config) InitialState() dynamo.State {
	s := c.InitState
	return dynamo.State{
		Q: []float64{s.X, s.Y, s.Z},
		V: []float64{s.VX, s.VY, s.VZ},
	}
}

func (c *Config) SolverOptions() []mip.Option {
	return []mip.Option{
		mip.WithMaxNodes(c.Solver.MaxNodes),
		mip.WithTolerance(c.Solver.Tolerance),
	}
}

// Validate reports every problem with the configuration at once.
func (c *Config) Validate() error {
	var err error
	switch c.Mode {
	case dynamo.ModeSimulate, dynamo.ModeOptimize, dynamo.ModeOptimizeWarm:
	default:
		err = multierr.Append(err, fmt.Errorf("%w: unknown mode %q", dynamo.ErrParameterBounds, c.Mode))
	}
	if c.Steps < 1 {
		err = multierr.Append(err, fmt.Errorf("%w: steps must be at least 1, got %d", dynamo.ErrParameterBounds, c.Steps))
	}
	if len(c.Params.Gravity) != 2 {
		err = multierr.Append(err, fmt.Errorf("%w: gravity has %d components, want 2", dynamo.ErrDimensionMismatch, len(c.Params.Gravity)))
	}
	err = multierr.Append(err, c.LCPParams().Validate())
	if _, envErr := c.Environment(); envErr != nil {
		err = multierr.Append(err, envErr)
	}
	err = multierr.Append(err, c.InitialState().Validate())
	return err
}

// Set assigns a named scalar parameter, as used by parameter sweeps.
func (c *Config) Set(name string, value float64) error {
	switch name {
	case "dt":
		c.Params.Dt = value
	case "mu":
		c.Params.Mu = value
	case "mass":
		c.Params.Mass = value
	case "leg_min":
		c.Params.LegMin = value
	case "leg_max":
		c.Params.LegMax = value
	case "force":
		c.ControllerParams.Force = value
	case "kp":
		c.ControllerParams.Kp = value
	case "kd":
		c.ControllerParams.Kd = value
	case "target":
		c.ControllerParams.Target = value
	case "limit":
		c.ControllerParams.Limit = value
	default:
		return fmt.Errorf("%w: unknown parameter %q", dynamo.ErrParameterBounds, name)
	}
	return nil
}
