// Package matrix provides the dense numeric storage shared by the belief
// estimator, the score policies and the assignment optimizer.
//
// The matrix package provides:
//
//   - Dense, a row-major float64 matrix with error-returning accessors
//     (At/Set never panic on user input).
//   - A per-instance numeric policy: strict matrices reject NaN/±Inf on Set,
//     relaxed ones (NewDenseWithPolicy(..., false)) may carry NaN as a
//     "missing" marker, which is how feedback matrices encode absent cells.
//   - Element-wise kernels (Add, Sub, Hadamard, Scale, Apply) and small
//     reductions (Sum, MaxAbsDiff, OffDiagonalMean).
//   - Centralized validators returning package sentinels.
//
// All kernels allocate a fresh result; inputs are never mutated.
// Loops run in fixed i→j order so results are reproducible bit-for-bit.
package matrix
