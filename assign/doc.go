// Package assign turns a pairwise score matrix into a partition of N
// individuals into T teams of at most K members.
//
// The problem is the binary quadratic program
//
//	maximize   Σ_{i,j,k} x[i,k]·x[j,k]·S[i,j]
//	subject to Σ_k x[i,k] = 1   for every individual i,
//	           Σ_i x[i,k] ≤ K   for every team k,
//	           x[i,k] ∈ {0,1},
//
// i.e. twice the symmetric score of every pair placed together (each ordered
// pair is counted in both directions), plus the constant trace of S.
//
// Formulate builds the program as plain data (variables, linear constraints,
// quadratic terms). A Solver consumes that description and returns a binary
// solution vector; the Optimizer checks it against the declared constraints
// and decodes it into a partition. Two solvers are provided:
//
//   - BranchAndBound: exact depth-first search with team-symmetry breaking,
//     an admissible upper bound and a soft time limit. On timeout the best
//     feasible incumbent is returned with StatusTimeLimit.
//   - LocalSearch: greedy construction plus move/swap first-improvement,
//     restarted from random feasible assignments in parallel with
//     deterministic per-restart RNG streams.
//
// Auto picks BranchAndBound for small instances and LocalSearch otherwise.
//
// Preconditions are checked before any solver runs: S must be square and
// finite, T and K positive, and T·K ≥ N (ErrCapacity). A solver that cannot
// produce a feasible assignment yields ErrNoFeasibleAssignment; a feasible but
// possibly suboptimal result is a success.
//
// Nothing in this package depends on how S was derived from beliefs.
package assign
