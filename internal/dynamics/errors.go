package dynamics

import "errors"

// Domain errors shared across the solver and integrator packages.
var (
	// ErrInvalidParameter indicates a non-positive rate or height.
	ErrInvalidParameter = errors.New("dynamics: invalid parameter")

	// ErrInfeasibleTrait indicates a light requirement at or below the
	// zero-height bound r/(a*k); no finite height can produce it.
	ErrInfeasibleTrait = errors.New("dynamics: infeasible trait")

	// ErrRootBracket indicates a per-species equilibrium solve could not
	// bracket a sign change.
	ErrRootBracket = errors.New("dynamics: root bracket failure")

	// ErrNegativeDensity indicates a trajectory drove a density negative
	// beyond tolerance.
	ErrNegativeDensity = errors.New("dynamics: negative density")

	// ErrInvalidState indicates a NaN or Inf in the state vector.
	ErrInvalidState = errors.New("dynamics: invalid state (NaN or Inf detected)")

	// ErrStepTooSmall indicates the adaptive timestep underflowed before
	// reaching the requested end time.
	ErrStepTooSmall = errors.New("dynamics: adaptive timestep below minimum")
)

// IntegrationError wraps a divergence error with trajectory context.
type IntegrationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *IntegrationError) Error() string {
	return e.Wrapped.Error()
}

func (e *IntegrationError) Unwrap() error {
	return e.Wrapped
}
