package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a state vector with invalid dimensions or values.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")

	// ErrDimensionMismatch indicates mismatched state/control dimensions.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and model")
)

// Mode names the driver that produced a trajectory.
type Mode string

const (
	ModeSimulate     Mode = "simulate"
	ModeOptimize     Mode = "optimize"
	ModeOptimizeWarm Mode = "optimize-warm"
)

// SimulationError wraps an error with simulation context. Step is the index
// of the failing timestep, or -1 when the whole batch failed.
type SimulationError struct {
	Step    int
	Mode    Mode
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	if e.Step < 0 {
		return fmt.Sprintf("%s: %v", e.Mode, e.Wrapped)
	}
	return fmt.Sprintf("%s step %d: %v", e.Mode, e.Step, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
