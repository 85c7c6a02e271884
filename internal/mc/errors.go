package mc

import "errors"

// Domain errors for Monte Carlo configuration and bookkeeping.
var (
	// ErrInvalidTemperature indicates a non-positive or non-finite T.
	ErrInvalidTemperature = errors.New("mc: temperature must be positive and finite")

	// ErrInvalidChemicalPotential indicates a non-finite mu.
	ErrInvalidChemicalPotential = errors.New("mc: chemical potential must be finite")

	// ErrNilComponent indicates a missing lattice, potential, source or backend.
	ErrNilComponent = errors.New("mc: nil component")

	// ErrInvalidSteps indicates a non-positive step count.
	ErrInvalidSteps = errors.New("mc: steps must be positive")

	// ErrInvalidMode indicates an unknown stepping mode.
	ErrInvalidMode = errors.New("mc: unknown step mode")

	// ErrUnknownBackend indicates an unregistered backend name.
	ErrUnknownBackend = errors.New("mc: unknown backend")

	// ErrDrift indicates running totals that disagree with recomputation.
	ErrDrift = errors.New("mc: running totals drifted from recomputation")
)
