package sim

import (
	"go.uber.org/zap"

	"github.com/san-kum/lcpsim/internal/dynamo"
	"github.com/san-kum/lcpsim/internal/mip"
)

// Option configures a Simulator.
type Option func(*Simulator)

func WithLogger(l *zap.Logger) Option {
	return func(s *Simulator) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSolverOptions passes options to every model the simulator builds.
func WithSolverOptions(opts ...mip.Option) Option {
	return func(s *Simulator) {
		s.solverOpts = append(s.solverOpts, opts...)
	}
}

func WithObserver(o dynamo.Observer) Option {
	return func(s *Simulator) {
		s.observers = append(s.observers, o)
	}
}

func WithMetric(m dynamo.Metric) Option {
	return func(s *Simulator) {
		s.metrics = append(s.metrics, m)
	}
}
