package mip

import "go.uber.org/zap"

const (
	DefaultMaxNodes  = 20000
	DefaultTolerance = 1e-6
	defaultLPTol     = 1e-9
)

type options struct {
	logger   *zap.Logger
	maxNodes int
	tol      float64
	lpTol    float64
	rounding bool
}

func defaultOptions() options {
	return options{
		logger:   zap.NewNop(),
		maxNodes: DefaultMaxNodes,
		tol:      DefaultTolerance,
		lpTol:    defaultLPTol,
		rounding: true,
	}
}

// Option configures a Model.
type Option func(*options)

// WithLogger sets the logger used for solve diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMaxNodes bounds the number of branch and bound nodes explored.
func WithMaxNodes(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxNodes = n
		}
	}
}

// WithTolerance sets the feasibility and integrality tolerance.
func WithTolerance(tol float64) Option {
	return func(o *options) {
		if tol > 0 {
			o.tol = tol
		}
	}
}

// WithRounding toggles the rounding dive tried at every fractional node.
func WithRounding(on bool) Option {
	return func(o *options) {
		o.rounding = on
	}
}
