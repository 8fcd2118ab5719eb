package policy

import "errors"

var (
	// ErrUnknownActor is returned by ParseActor for an unrecognized name.
	ErrUnknownActor = errors.New("policy: unknown actor")

	// ErrInvalidBeta is returned for a negative or non-finite UCB β.
	ErrInvalidBeta = errors.New("policy: UCB beta must be finite and >= 0")

	// ErrBeliefShape is returned when means and variances disagree in shape.
	ErrBeliefShape = errors.New("policy: means and variances differ in shape")
)
