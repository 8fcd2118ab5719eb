package assign

import "errors"

var (
	// ErrInvalidScores is returned for a nil, non-square or non-finite score matrix.
	ErrInvalidScores = errors.New("assign: invalid score matrix")

	// ErrInvalidTeams is returned when the number of teams or the capacity is not positive.
	ErrInvalidTeams = errors.New("assign: teams and capacity must be > 0")

	// ErrCapacity is returned when T·K < N: no feasible partition exists.
	ErrCapacity = errors.New("assign: teams × capacity is smaller than the number of individuals")

	// ErrUnsupportedProgram is returned by a solver for a program that is not
	// a one-hot/capacity team-formation program.
	ErrUnsupportedProgram = errors.New("assign: unsupported program structure")

	// ErrInvalidSolution is returned for a solution vector of the wrong length
	// or with non-binary entries.
	ErrInvalidSolution = errors.New("assign: invalid solution vector")

	// ErrNoFeasibleAssignment is returned when the solver produced nothing
	// satisfying the constraints. The period cannot proceed.
	ErrNoFeasibleAssignment = errors.New("assign: no feasible assignment found")

	// ErrInvalidOptions is returned for out-of-range solver options or an
	// unknown solver name.
	ErrInvalidOptions = errors.New("assign: invalid solver options")

	// ErrInvalidPartition is returned by ValidatePartition.
	ErrInvalidPartition = errors.New("assign: invalid partition")
)
