package assign

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/katalvlaran/teamform/matrix"
)

// Result is a decoded, validated assignment.
type Result struct {
	Partition []int
	Objective float64
	Status    Status
	Nodes     int64
	Elapsed   time.Duration
}

// Optimizer formulates the program, delegates to a Solver, and checks the
// answer against the declared constraints before decoding it.
type Optimizer struct {
	solver Solver
	opts   Options
	log    *zap.Logger
}

// NewOptimizer returns an Optimizer. A nil solver means Auto{}; a nil logger
// means zap.NewNop().
func NewOptimizer(solver Solver, opts Options, log *zap.Logger) *Optimizer {
	if solver == nil {
		solver = Auto{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Optimizer{solver: solver, opts: opts, log: log}
}

// Assign returns one team label per individual.
func (o *Optimizer) Assign(scores matrix.Matrix, teams, capacity int) ([]int, error) {
	res, err := o.Solve(scores, teams, capacity)
	if err != nil {
		return nil, err
	}

	return res.Partition, nil
}

// Solve is Assign with the solver's diagnostics.
//
// Implementation:
//   - Stage 1: T, K > 0 and T·K ≥ N, before anything else (ErrCapacity).
//   - Stage 2: Formulate (square, finite scores).
//   - Stage 3: Solver.Solve.
//   - Stage 4: Feasible(X) against the program's own constraints, Decode,
//     ValidatePartition. Anything infeasible is ErrNoFeasibleAssignment.
func (o *Optimizer) Solve(scores matrix.Matrix, teams, capacity int) (Result, error) {
	if err := matrix.ValidateNotNil(scores); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInvalidScores, err)
	}
	n := scores.Rows()
	if err := checkCapacity(n, teams, capacity); err != nil {
		return Result{}, err
	}
	p, err := Formulate(scores, teams, capacity)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	sol, err := o.solver.Solve(p, o.opts)
	elapsed := time.Since(start)
	if err != nil {
		o.log.Error("assignment solver failed", zap.Int("individuals", n), zap.Error(err))
		return Result{}, fmt.Errorf("%w: %w", ErrNoFeasibleAssignment, err)
	}
	if !p.Feasible(sol.X) {
		o.log.Error("assignment solver returned an infeasible solution", zap.Int("individuals", n))
		return Result{}, ErrNoFeasibleAssignment
	}
	part, err := p.Decode(sol.X)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrNoFeasibleAssignment, err)
	}
	if err = ValidatePartition(part, n, teams, capacity); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrNoFeasibleAssignment, err)
	}

	fields := []zap.Field{
		zap.Int("individuals", n),
		zap.Int("teams", teams),
		zap.Int("capacity", capacity),
		zap.Stringer("status", sol.Status),
		zap.Float64("objective", sol.Objective),
		zap.Int64("nodes", sol.Nodes),
		zap.Duration("elapsed", elapsed),
	}
	if sol.Status == StatusTimeLimit {
		o.log.Warn("assignment time limit reached, using best found", fields...)
	} else {
		o.log.Debug("assignment solved", fields...)
	}

	return Result{
		Partition: part,
		Objective: sol.Objective,
		Status:    sol.Status,
		Nodes:     sol.Nodes,
		Elapsed:   elapsed,
	}, nil
}
