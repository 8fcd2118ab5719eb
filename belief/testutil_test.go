package belief_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/katalvlaran/teamform/belief"
	"github.com/katalvlaran/teamform/matrix"
	"github.com/stretchr/testify/require"
)

const eps = 1e-12

// feedbackFrom builds a relaxed N×N feedback matrix; NaN marks a missing cell.
func feedbackFrom(t *testing.T, rows [][]float64) *matrix.Dense {
	t.Helper()
	fb, err := belief.NewFeedback(len(rows))
	require.NoError(t, err)
	for i := range rows {
		for j, v := range rows[i] {
			require.NoError(t, fb.Set(i, j, v))
		}
	}

	return fb
}

// randomFeedback observes each off-diagonal cell with probability rate;
// observed values are drawn from [-scale, scale], occasionally huge.
func randomFeedback(t *testing.T, rng *rand.Rand, n int, rate, scale float64) *matrix.Dense {
	t.Helper()
	fb, err := belief.NewFeedback(n)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if i == j || rng.Float64() >= rate {
				continue
			}
			v := (2*rng.Float64() - 1) * scale
			if rng.Intn(20) == 0 {
				v *= 1e6
			}
			require.NoError(t, fb.Set(i, j, v))
		}
	}

	return fb
}

// at reads (i,j) or fails the test.
func at(t *testing.T, m matrix.Matrix, i, j int) float64 {
	t.Helper()
	v, err := m.At(i, j)
	require.NoError(t, err)

	return v
}

// requireDiagonalZero checks diag(m) = 0.
func requireDiagonalZero(t *testing.T, m matrix.Matrix) {
	t.Helper()
	for i := 0; i < m.Rows(); i++ {
		require.Zero(t, at(t, m, i, i), "diag[%d]", i)
	}
}

// requireSameDense compares two matrices bit for bit (NaN-free inputs).
func requireSameDense(t *testing.T, want, got *matrix.Dense) {
	t.Helper()
	require.Equal(t, want.ToRows(), got.ToRows())
}

// withinRel reports |got−want| ≤ tol·|want|.
func withinRel(got, want, tol float64) bool {
	return math.Abs(got-want) <= tol*math.Abs(want)
}

// sliceMatrix is a non-Dense Matrix used to exercise the copying path.
type sliceMatrix struct{ a [][]float64 }

func (m sliceMatrix) Rows() int { return len(m.a) }
func (m sliceMatrix) Cols() int { return len(m.a[0]) }
func (m sliceMatrix) At(i, j int) (float64, error) {
	if i < 0 || i >= m.Rows() || j < 0 || j >= m.Cols() {
		return 0, matrix.ErrOutOfRange
	}

	return m.a[i][j], nil
}
func (m sliceMatrix) Set(i, j int, v float64) error {
	if i < 0 || i >= m.Rows() || j < 0 || j >= m.Cols() {
		return matrix.ErrOutOfRange
	}
	m.a[i][j] = v

	return nil
}
