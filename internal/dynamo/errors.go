package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidState indicates a propagated state containing NaN or Inf.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrSingularity indicates two bodies at the same position.
	ErrSingularity = errors.New("dynamo: coincident bodies (zero distance)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrContextCanceled indicates the simulation was interrupted.
	ErrContextCanceled = errors.New("dynamo: simulation canceled by context")

	// ErrMissingAgent indicates a snapshot without the agent being advanced.
	ErrMissingAgent = errors.New("dynamo: agent missing from snapshot")
)

// SimulationError wraps an error with the agent and time it happened at.
type SimulationError struct {
	Agent   string
	Other   string
	Pass    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	if e.Other != "" {
		return fmt.Sprintf("agent %s vs %s (t=%.4f): %v", e.Agent, e.Other, e.Time, e.Wrapped)
	}
	return fmt.Sprintf("agent %s (t=%.4f): %v", e.Agent, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
