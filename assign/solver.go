package assign

import (
	"fmt"
	"runtime"
	"strings"
	"time"
)

// Status qualifies a returned solution.
type Status int

const (
	// StatusOptimal: the search proved no better feasible solution exists.
	StatusOptimal Status = iota
	// StatusFeasible: a heuristic solution without an optimality proof.
	StatusFeasible
	// StatusTimeLimit: the time budget ran out; the solution is the best
	// feasible one found so far.
	StatusTimeLimit
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusOptimal:
		return "optimal"
	case StatusFeasible:
		return "feasible"
	case StatusTimeLimit:
		return "time_limit"
	default:
		return "unknown"
	}
}

// Solution is a solver's answer: a binary vector indexed like Program.Vars.
type Solution struct {
	X         []int
	Objective float64
	Status    Status
	// Nodes counts search nodes (BranchAndBound) or improvement passes
	// summed over restarts (LocalSearch).
	Nodes int64
}

// Solver is the narrow contract between the optimizer and a search method:
// a program description in, a binary solution out. Implementations must
// return a feasible X or an error.
type Solver interface {
	Solve(p *Program, opts Options) (Solution, error)
}

const (
	// DefaultRestarts is the number of local-search starts.
	DefaultRestarts = 8
	// DefaultMaxPasses bounds improvement passes per restart.
	DefaultMaxPasses = 1000
	// DefaultExactLimit is the largest N Auto hands to BranchAndBound.
	DefaultExactLimit = 12
	// DefaultEps is the improvement tolerance.
	DefaultEps = 1e-9
)

// Options tunes the solvers. The zero value is usable: see DefaultOptions.
type Options struct {
	// TimeLimit is a soft budget for one Solve call; 0 disables it.
	TimeLimit time.Duration
	// Seed drives LocalSearch restarts (0 ⇒ fixed default stream).
	Seed int64
	// Restarts is the number of LocalSearch starts (≤ 0 ⇒ DefaultRestarts).
	Restarts int
	// MaxPasses bounds improvement passes per start (≤ 0 ⇒ DefaultMaxPasses).
	MaxPasses int
	// Workers bounds concurrent restarts (≤ 0 ⇒ GOMAXPROCS).
	Workers int
	// Eps is the minimum objective gain counted as an improvement (≤ 0 ⇒ DefaultEps).
	Eps float64
}

// DefaultOptions returns the defaults spelled out.
func DefaultOptions() Options {
	return Options{
		Restarts:  DefaultRestarts,
		MaxPasses: DefaultMaxPasses,
		Workers:   runtime.GOMAXPROCS(0),
		Eps:       DefaultEps,
	}
}

// normalized fills zero fields with defaults.
func (o Options) normalized() (Options, error) {
	if o.TimeLimit < 0 {
		return o, fmt.Errorf("time limit %v: %w", o.TimeLimit, ErrInvalidOptions)
	}
	def := DefaultOptions()
	if o.Restarts <= 0 {
		o.Restarts = def.Restarts
	}
	if o.MaxPasses <= 0 {
		o.MaxPasses = def.MaxPasses
	}
	if o.Workers <= 0 {
		o.Workers = def.Workers
	}
	if o.Eps <= 0 {
		o.Eps = def.Eps
	}

	return o, nil
}

// deadline returns the absolute deadline for opts, if any.
func (o Options) deadline() (time.Time, bool) {
	if o.TimeLimit <= 0 {
		return time.Time{}, false
	}

	return time.Now().Add(o.TimeLimit), true
}

// Auto uses BranchAndBound up to ExactLimit individuals and LocalSearch above.
type Auto struct {
	// ExactLimit ≤ 0 ⇒ DefaultExactLimit.
	ExactLimit int
}

var (
	_ Solver = Auto{}
	_ Solver = BranchAndBound{}
	_ Solver = LocalSearch{}
)

// Solve implements Solver.
func (a Auto) Solve(p *Program, opts Options) (Solution, error) {
	limit := a.ExactLimit
	if limit <= 0 {
		limit = DefaultExactLimit
	}
	if p != nil && p.Individuals <= limit {
		return BranchAndBound{}.Solve(p, opts)
	}

	return LocalSearch{}.Solve(p, opts)
}

// ParseSolver maps a configuration name to a Solver:
// "auto", "branch_and_bound" (or "bb"), "local_search" (or "local").
func ParseSolver(name string) (Solver, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "auto":
		return Auto{}, nil
	case "bb", "branch_and_bound":
		return BranchAndBound{}, nil
	case "local", "local_search":
		return LocalSearch{}, nil
	default:
		return nil, fmt.Errorf("solver %q: %w", name, ErrInvalidOptions)
	}
}
