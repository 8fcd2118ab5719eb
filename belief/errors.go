package belief

import "errors"

var (
	// ErrInvalidSize is returned when the number of individuals is not positive.
	ErrInvalidSize = errors.New("belief: number of individuals must be > 0")

	// ErrShape is returned when a feedback matrix is not exactly N×N.
	// The estimator never reshapes or resizes its input.
	ErrShape = errors.New("belief: feedback shape mismatch")

	// ErrInvalidFeedback is returned when a feedback cell holds ±Inf
	// (NaN is the missing-value sentinel and is accepted).
	ErrInvalidFeedback = errors.New("belief: feedback contains an infinite value")

	// ErrInvalidOption is returned by New for out-of-range options.
	ErrInvalidOption = errors.New("belief: invalid option")

	// ErrOutOfRange is returned for an individual index outside [0, N).
	ErrOutOfRange = errors.New("belief: individual index out of range")
)
