package assign_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/katalvlaran/teamform/assign"
	"github.com/katalvlaran/teamform/matrix"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func mustDense(t *testing.T, rows [][]float64) *matrix.Dense {
	t.Helper()
	m, err := matrix.NewDenseFromRows(rows)
	require.NoError(t, err)

	return m
}

// randomScores draws an n×n matrix with entries in [-1, 1] and a zero diagonal.
func randomScores(t *testing.T, n int, seed int64) *matrix.Dense {
	t.Helper()
	rng := rand.New(rand.NewSource(seed))
	m, err := matrix.NewDense(n, n)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i != j {
				require.NoError(t, m.Set(i, j, 2*rng.Float64()-1))
			}
		}
	}

	return m
}

// bruteForce enumerates all T^N labelings and returns the best feasible objective.
func bruteForce(t *testing.T, scores matrix.Matrix, teams, capacity int) float64 {
	t.Helper()
	var (
		n    = scores.Rows()
		part = make([]int, n)
		best = math.Inf(-1)
		rec  func(i int)
	)
	size := make([]int, teams)
	rec = func(i int) {
		if i == n {
			v, err := assign.Objective(scores, part)
			require.NoError(t, err)
			if v > best {
				best = v
			}
			return
		}
		for k := 0; k < teams; k++ {
			if size[k] == capacity {
				continue
			}
			part[i] = k
			size[k]++
			rec(i + 1)
			size[k]--
		}
	}
	rec(0)

	return best
}

// fourPeople favours {0,1} and {2,3}.
func fourPeople(t *testing.T) *matrix.Dense {
	t.Helper()

	return mustDense(t, [][]float64{
		{0, 5, 1, 0},
		{4, 0, 0, 1},
		{1, 0, 0, 6},
		{0, 2, 3, 0},
	})
}

// nanMatrix is a non-Dense square matrix carrying a NaN cell.
type nanMatrix struct{ n int }

func (m nanMatrix) Rows() int { return m.n }
func (m nanMatrix) Cols() int { return m.n }
func (m nanMatrix) At(i, j int) (float64, error) {
	if i < 0 || j < 0 || i >= m.n || j >= m.n {
		return 0, matrix.ErrOutOfRange
	}
	if i == 0 && j == 1 {
		return math.NaN(), nil
	}

	return 0, nil
}
func (m nanMatrix) Set(int, int, float64) error { return nil }

// countingSolver records calls and delegates to inner (or returns x).
type countingSolver struct {
	calls int
	inner assign.Solver
	x     []int
}

func (s *countingSolver) Solve(p *assign.Program, opts assign.Options) (assign.Solution, error) {
	s.calls++
	if s.inner != nil {
		return s.inner.Solve(p, opts)
	}

	return assign.Solution{X: s.x, Status: assign.StatusFeasible}, nil
}
