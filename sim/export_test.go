package sim

import "github.com/katalvlaran/teamform/assign"

// SolverOptions exposes the per-simulation solver options to tests.
func (r *Runner) SolverOptions(seed int64) assign.Options { return r.solverOptions(seed) }
