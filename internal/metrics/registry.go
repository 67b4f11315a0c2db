package metrics

import "github.com/san-kum/lcpsim/internal/dynamo"

// Default returns a fresh instance of every trajectory metric.
func Default() []dynamo.Metric {
	return []dynamo.Metric{
		NewComplementarity(),
		NewFrictionMargin(),
		NewEnergy(),
		NewControlEffort(),
		NewContactSteps(1e-6),
		NewStability(0.9),
	}
}
