// Package assign - validation and scoring helpers shared by every solver.
//
// Deterministic, side-effect free functions returning sentinel errors from
// errors.go; no logging.
package assign

import (
	"fmt"

	"github.com/katalvlaran/teamform/matrix"
)

// prefetchScores validates S (non-nil, square, finite) and loads it into a
// dense row-major buffer so solvers never pay interface calls in hot loops.
//
// Complexity: O(N²).
func prefetchScores(scores matrix.Matrix) (int, []float64, error) {
	if err := matrix.ValidateNotNil(scores); err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrInvalidScores, err)
	}
	if err := matrix.ValidateSquare(scores); err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrInvalidScores, err)
	}
	if err := matrix.ValidateFinite(scores, false); err != nil {
		return 0, nil, fmt.Errorf("%w: %w", ErrInvalidScores, err)
	}
	var (
		n    = scores.Rows()
		w    = make([]float64, n*n)
		i, j int
		x    float64
		err  error
	)
	for i = 0; i < n; i++ {
		for j = 0; j < n; j++ {
			if x, err = scores.At(i, j); err != nil {
				return 0, nil, fmt.Errorf("%w: %w", ErrInvalidScores, err)
			}
			w[i*n+j] = x
		}
	}

	return n, w, nil
}

// checkCapacity enforces T > 0, K > 0 and T·K ≥ N.
func checkCapacity(n, teams, capacity int) error {
	if teams <= 0 || capacity <= 0 {
		return fmt.Errorf("teams=%d capacity=%d: %w", teams, capacity, ErrInvalidTeams)
	}
	if teams*capacity < n {
		return fmt.Errorf("%d teams × %d < %d individuals: %w", teams, capacity, n, ErrCapacity)
	}

	return nil
}

// ValidatePartition checks that partition has one label per individual, every
// label is in [0, teams), and no team holds more than capacity members.
//
// Errors: ErrInvalidPartition, ErrInvalidTeams.
//
// Complexity: O(N + T).
func ValidatePartition(partition []int, n, teams, capacity int) error {
	if teams <= 0 || capacity <= 0 {
		return fmt.Errorf("ValidatePartition: %w", ErrInvalidTeams)
	}
	if len(partition) != n {
		return fmt.Errorf("ValidatePartition: length %d, want %d: %w", len(partition), n, ErrInvalidPartition)
	}
	size := make([]int, teams)
	for i, k := range partition {
		if k < 0 || k >= teams {
			return fmt.Errorf("ValidatePartition: individual %d in team %d: %w", i, k, ErrInvalidPartition)
		}
		size[k]++
		if size[k] > capacity {
			return fmt.Errorf("ValidatePartition: team %d over capacity %d: %w", k, capacity, ErrInvalidPartition)
		}
	}

	return nil
}

// Objective returns Σ_{i,j: partition[i]=partition[j]} S[i,j], the program's
// objective at the given partition (diagonal included).
//
// Errors: ErrInvalidScores, ErrInvalidPartition (length mismatch).
func Objective(scores matrix.Matrix, partition []int) (float64, error) {
	n, w, err := prefetchScores(scores)
	if err != nil {
		return 0, err
	}
	if len(partition) != n {
		return 0, fmt.Errorf("Objective: length %d, want %d: %w", len(partition), n, ErrInvalidPartition)
	}
	var (
		total float64
		i, j  int
	)
	for i = 0; i < n; i++ {
		for j = 0; j < n; j++ {
			if partition[i] == partition[j] {
				total += w[i*n+j]
			}
		}
	}

	return total, nil
}

// Canonical relabels teams in order of first appearance, so that equivalent
// partitions compare equal: Canonical([]int{2, 2, 0, 1}) = [0 0 1 2].
// Negative labels are kept as is.
func Canonical(partition []int) []int {
	var (
		out   = make([]int, len(partition))
		remap = make(map[int]int)
		next  int
	)
	for i, k := range partition {
		if k < 0 {
			out[i] = k
			continue
		}
		label, ok := remap[k]
		if !ok {
			label = next
			remap[k] = label
			next++
		}
		out[i] = label
	}

	return out
}
