package featuregrid

import "errors"

// Error kinds raised by this package. All are reported synchronously at the
// point of violation; a failed setter or bake leaves the previously installed
// state untouched, so callers can rely on last-good semantics.
var (
	// ErrInvalidConfiguration marks a tensor geometry that cannot host a
	// grid: fewer than one channel or fewer than one feature.
	ErrInvalidConfiguration = errors.New("invalid grid configuration")

	// ErrInvalidDimension marks a dimension whose channel or feature index
	// is out of range for the current tensor, or a dimension request that
	// is neither an integer, a channel:feature pair, nor the time marker.
	ErrInvalidDimension = errors.New("invalid dimension")

	// ErrShapeMismatch marks an array whose rank or length violates a
	// precondition: a non-square matrix, masks/clusters/times whose length
	// differs from the spike count, or a baked buffer that fails its
	// postcondition check.
	ErrShapeMismatch = errors.New("shape mismatch")
)
