package potential

import "errors"

var (
	// ErrInvalidCutoff indicates a cutoff that does not give a positive
	// integer neighbor radius, or a core radius at or beyond the cutoff.
	ErrInvalidCutoff = errors.New("potential: invalid cutoff")

	// ErrInvalidPoints indicates fewer than two table samples.
	ErrInvalidPoints = errors.New("potential: need at least 2 sample points")

	// ErrNilInteraction indicates a missing interaction function.
	ErrNilInteraction = errors.New("potential: nil interaction function")
)
