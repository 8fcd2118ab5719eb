package sim

import "errors"

var (
	// ErrInvalidPopulation is returned for out-of-range population parameters.
	ErrInvalidPopulation = errors.New("sim: invalid population")

	// ErrInvalidAction is returned by Step for a partition of the wrong
	// length, with labels out of range or teams over capacity.
	ErrInvalidAction = errors.New("sim: invalid action")

	// ErrUnknownMetric is returned by ParseMetric.
	ErrUnknownMetric = errors.New("sim: unknown distance metric")

	// ErrInvalidRun is returned for out-of-range runner settings.
	ErrInvalidRun = errors.New("sim: invalid run configuration")
)
