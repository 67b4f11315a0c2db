package experiment

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/san-kum/lcpsim/internal/config"
	"github.com/san-kum/lcpsim/internal/control"
	"github.com/san-kum/lcpsim/internal/dynamo"
	"github.com/san-kum/lcpsim/internal/metrics"
)

type Registry struct {
	controllers map[string]func(config.ControllerConfig) dynamo.Controller
}

func NewRegistry() *Registry {
	r := &Registry{
		controllers: make(map[string]func(config.ControllerConfig) dynamo.Controller),
	}

	r.controllers["none"] = func(config.ControllerConfig) dynamo.Controller {
		return control.NewNone()
	}
	r.controllers["constant"] = func(p config.ControllerConfig) dynamo.Controller {
		return control.NewConstant(p.Force)
	}
	r.controllers["pd"] = func(p config.ControllerConfig) dynamo.Controller {
		pd := control.NewPD(p.Kp, p.Kd, p.Target)
		pd.Limit = p.Limit
		return pd
	}

	return r
}

// Register adds or replaces a controller factory.
func (r *Registry) Register(name string, fn func(config.ControllerConfig) dynamo.Controller) {
	r.controllers[name] = fn
}

func (r *Registry) GetController(name string, params config.ControllerConfig) (dynamo.Controller, error) {
	fn, ok := r.controllers[name]
	if !ok {
		return nil, fmt.Errorf("unknown controller: %s", name)
	}
	return fn(params), nil
}

func (r *Registry) ListControllers() []string {
	names := lo.Keys(r.controllers)
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics() []dynamo.Metric {
	return metrics.Default()
}
