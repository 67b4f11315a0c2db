package config

import (
	"sort"

	"github.com/samber/lo"
)

func preset(env EnvironmentConfig, init InitStateConfig, steps int) *Config {
	cfg := DefaultConfig()
	cfg.Env = env
	cfg.InitState = init
	cfg.Steps = steps
	return cfg
}

var Presets = map[string]*Config{
	"drop": preset(
		EnvironmentConfig{Kind: EnvGround},
		InitStateConfig{Y: 1.0, Z: 0.25, VY: -1, VZ: -1},
		20,
	),
	"wall": preset(
		EnvironmentConfig{Kind: EnvCorner, WallX: 0.3},
		InitStateConfig{Y: 1.0, Z: 0.02, VX: 2, VY: -1, VZ: -0.5},
		20,
	),
	"extend": preset(
		EnvironmentConfig{Kind: EnvEmpty},
		InitStateConfig{Y: 1.0, VY: 2, VZ: -2},
		10,
	),
	"slide": preset(
		EnvironmentConfig{Kind: EnvGround},
		InitStateConfig{Y: 0.8, VX: 1.5},
		20,
	),
	"hop": func() *Config {
		cfg := preset(
			EnvironmentConfig{Kind: EnvGround},
			InitStateConfig{Y: 0.6},
			30,
		)
		cfg.Controller = "pd"
		cfg.ControllerParams.Target = 1.2
		cfg.ControllerParams.Limit = 40
		return cfg
	}(),
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	c := *cfg
	c.Params.Gravity = append([]float64(nil), cfg.Params.Gravity...)
	return &c
}

func ListPresets() []string {
	names := lo.Keys(Presets)
	sort.Strings(names)
	return names
}
