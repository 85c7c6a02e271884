package lattice

import "errors"

var (
	// ErrInvalidDimension indicates a dimension outside {1, 2, 3}.
	ErrInvalidDimension = errors.New("lattice: dimension must be 1, 2 or 3")

	// ErrInvalidBoundary indicates an unknown boundary condition.
	ErrInvalidBoundary = errors.New("lattice: boundary must be periodic or free")

	// ErrInvalidExtent indicates a non-positive extent or too many extents.
	ErrInvalidExtent = errors.New("lattice: invalid extent")

	// ErrInvalidProbability indicates a fill probability outside [0, 1].
	ErrInvalidProbability = errors.New("lattice: probability out of [0, 1]")

	// ErrSizeMismatch indicates an occupancy buffer of the wrong length.
	ErrSizeMismatch = errors.New("lattice: occupancy size mismatch")
)
