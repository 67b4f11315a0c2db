package sim

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/lcpsim/internal/dynamo"
	"github.com/san-kum/lcpsim/internal/lcp"
)

// Run is one member of an ensemble. Observers see only this run's steps and
// are called from a single goroutine.
type Run struct {
	Params     lcp.Params
	Q0, V0     []float64
	Controller dynamo.Controller
	Steps      int
	Observers  []dynamo.Observer
}

// Ensemble simulates independent runs concurrently, one Simulator each.
type Ensemble struct {
	env     lcp.Environment
	opts    []Option
	metrics func() []dynamo.Metric
	workers int
}

// NewEnsemble builds an ensemble over env. metrics, when non-nil, creates a
// fresh set of metrics for every run; workers <= 0 means unlimited. opts are
// applied to every run's Simulator, so an observer given through
// WithObserver is called concurrently and must be safe for that; per-run
// observers go in Run.Observers.
func NewEnsemble(env lcp.Environment, workers int, metrics func() []dynamo.Metric, opts ...Option) *Ensemble {
	return &Ensemble{env: env, opts: opts, metrics: metrics, workers: workers}
}

// Run returns one result per run in order, or the first error.
func (e *Ensemble) Run(ctx context.Context, runs []Run) ([]*dynamo.Result, error) {
	results := make([]*dynamo.Result, len(runs))

	g, gctx := errgroup.WithContext(ctx)
	if e.workers > 0 {
		g.SetLimit(e.workers)
	}
	for i, r := range runs {
		g.Go(func() error {
			opts := append([]Option(nil), e.opts...)
			if e.metrics != nil {
				for _, m := range e.metrics() {
					opts = append(opts, WithMetric(m))
				}
			}
			s := New(r.Params, e.env, opts...)
			for _, o := range r.Observers {
				s.AddObserver(o)
			}
			res, err := s.Simulate(gctx, r.Q0, r.V0, r.Controller, r.Steps)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
