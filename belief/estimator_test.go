package belief_test

import (
	"math"
	"math/rand"
	"testing"

	"github.com/katalvlaran/teamform/belief"
	"github.com/katalvlaran/teamform/matrix"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func TestNewErrors(t *testing.T) {
	_, err := belief.New(0)
	require.ErrorIs(t, err, belief.ErrInvalidSize)

	bad := []belief.Option{
		belief.WithInitialSigma(-1, 1),
		belief.WithInitialSigma(1, 0),
		belief.WithInitialSigma(math.NaN(), 1),
		belief.WithInitialSigma(1, math.Inf(1)),
		belief.WithMinObservationVariance(0),
		belief.WithNoiseModel(belief.NoiseModel(9)),
	}
	for _, opt := range bad {
		_, err = belief.New(3, opt)
		require.ErrorIs(t, err, belief.ErrInvalidOption)
	}

	// σw = 0 is a legal "no drift" guess.
	_, err = belief.New(3, belief.WithInitialSigma(0, 1))
	require.NoError(t, err)
}

// TestNewInitialState: M = 0, V = 1 off the diagonal, 0 on it, no counts.
func TestNewInitialState(t *testing.T) {
	const n = 4
	e, err := belief.New(n)
	require.NoError(t, err)
	require.Equal(t, n, e.Size())
	require.Zero(t, e.Periods())

	m, v := e.Means(), e.Variances()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			require.Zero(t, at(t, m, i, j))
			if i == j {
				require.Zero(t, at(t, v, i, j))
			} else {
				require.Equal(t, 1.0, at(t, v, i, j))
			}
			c, err := e.Count(i, j)
			require.NoError(t, err)
			require.Zero(t, c)
		}
	}

	_, err = e.Count(n, 0)
	require.ErrorIs(t, err, belief.ErrOutOfRange)
}

// TestUpdateInvariants drives the estimator with sparse, partly adversarial
// feedback and checks after every period that:
//   - the diagonal of M and V is 0;
//   - V ≥ 0 everywhere;
//   - counts grow by exactly 1 on observed cells and stay put elsewhere;
//   - unobserved cells keep both mean and variance.
func TestUpdateInvariants(t *testing.T) {
	const (
		n       = 7
		periods = 200
	)
	e, err := belief.New(n)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(11))

	for p := 0; p < periods; p++ {
		fb := randomFeedback(t, rng, n, 0.3, 5)
		mask, err := belief.ObservedMask(fb)
		require.NoError(t, err)

		prevM, prevV, prevC := e.Means(), e.Variances(), e.Counts()
		require.NoError(t, e.Update(fb))
		m, v, c := e.Means(), e.Variances(), e.Counts()

		requireDiagonalZero(t, m)
		requireDiagonalZero(t, v)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				require.GreaterOrEqual(t, at(t, v, i, j), 0.0)
				require.False(t, math.IsNaN(at(t, m, i, j)))
				if mask.Observed(i, j) {
					require.Equal(t, prevC[i][j]+1, c[i][j])
					continue
				}
				require.Equal(t, prevC[i][j], c[i][j])
				require.Equal(t, at(t, prevM, i, j), at(t, m, i, j))
				require.Equal(t, at(t, prevV, i, j), at(t, v, i, j))
			}
		}
	}
	require.Equal(t, periods, e.Periods())
}

// TestNeverObservedPair: a pair with no feedback keeps M = 0, V = 1 however
// long its neighbours are observed.
func TestNeverObservedPair(t *testing.T) {
	e, err := belief.New(4)
	require.NoError(t, err)

	nan := belief.Missing()
	fb := feedbackFrom(t, [][]float64{
		{nan, 0.9, nan, nan},
		{-0.4, nan, nan, nan},
		{nan, nan, nan, nan},
		{nan, nan, nan, nan},
	})
	for p := 0; p < 50; p++ {
		require.NoError(t, e.Update(fb))
	}
	m, v := e.Means(), e.Variances()
	require.Zero(t, at(t, m, 2, 3))
	require.Equal(t, 1.0, at(t, v, 2, 3))
	require.Zero(t, at(t, m, 3, 0))
	require.Equal(t, 1.0, at(t, v, 3, 0))

	// Asymmetry: (0,1) and (1,0) are tracked independently.
	require.Greater(t, at(t, m, 0, 1), 0.5)
	require.Less(t, at(t, m, 1, 0), -0.2)
}

// TestUpdateRejectsMalformed: every rejected update leaves the state as it was.
func TestUpdateRejectsMalformed(t *testing.T) {
	e, err := belief.New(3)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(3))
	for p := 0; p < 5; p++ {
		require.NoError(t, e.Update(randomFeedback(t, rng, 3, 0.5, 1)))
	}
	m, v, c, noise := e.Means(), e.Variances(), e.Counts(), e.Noise()

	small, err := belief.NewFeedback(2)
	require.NoError(t, err)
	require.ErrorIs(t, e.Update(small), belief.ErrShape)

	rect, err := matrix.NewDense(3, 4)
	require.NoError(t, err)
	require.ErrorIs(t, e.Update(rect), belief.ErrShape)

	require.ErrorIs(t, e.Update(nil), belief.ErrShape)

	nan := belief.Missing()
	inf := feedbackFrom(t, [][]float64{
		{nan, 1, 2},
		{nan, nan, math.Inf(-1)},
		{nan, nan, nan},
	})
	require.ErrorIs(t, e.Update(inf), belief.ErrInvalidFeedback)

	requireSameDense(t, m, e.Means())
	requireSameDense(t, v, e.Variances())
	require.Equal(t, c, e.Counts())
	require.Equal(t, noise, e.Noise())
	require.Equal(t, 5, e.Periods())
}

// TestUpdateGenericMatrix: a non-Dense feedback matrix is accepted and gives
// the same result as the equivalent Dense one.
func TestUpdateGenericMatrix(t *testing.T) {
	nan := belief.Missing()
	rows := [][]float64{
		{nan, 0.2, nan},
		{1.5, nan, nan},
		{nan, -0.7, 3},
	}
	a, err := belief.New(3)
	require.NoError(t, err)
	b, err := belief.New(3)
	require.NoError(t, err)

	require.NoError(t, a.Update(feedbackFrom(t, rows)))
	require.NoError(t, b.Update(sliceMatrix{a: rows}))
	requireSameDense(t, a.Means(), b.Means())
	requireSameDense(t, a.Variances(), b.Variances())
	require.Equal(t, a.Counts(), b.Counts())
}

// TestKalmanConvergence: every off-diagonal pair observed every period at
// 0.6 + N(0, 0.1²). After 500 periods the average bias is below 0.05 for
// both noise models. Per pair, the residual model keeps σw² > 0 from its own
// mean increments, so its gain never settles: its worst pair stays near 0.10
// and a quarter of the pairs sit outside 0.05. The difference model gets
// close to the 0.05 band on every pair.
func TestKalmanConvergence(t *testing.T) {
	const (
		n       = 6
		periods = 500
		truth   = 0.6
		band    = 0.05
	)
	cases := []struct {
		model   belief.NoiseModel
		perPair float64 // strongest per-pair bound that holds
		outside int     // max pairs with error ≥ band, of n(n−1) = 30
	}{
		{belief.ResidualMoments, 0.11, 10},
		{belief.DifferenceMoments, 0.07, 5},
	}
	for _, tc := range cases {
		t.Run(tc.model.String(), func(t *testing.T) {
			e, err := belief.New(n, belief.WithNoiseModel(tc.model), belief.WithLogger(zaptest.NewLogger(t)))
			require.NoError(t, err)

			rng := rand.New(rand.NewSource(5))
			fb, err := belief.NewFeedback(n)
			require.NoError(t, err)
			for p := 0; p < periods; p++ {
				for i := 0; i < n; i++ {
					for j := 0; j < n; j++ {
						if i != j {
							require.NoError(t, fb.Set(i, j, truth+0.1*rng.NormFloat64()))
						}
					}
				}
				require.NoError(t, e.Update(fb))
			}

			m, v := e.Means(), e.Variances()
			bias, err := matrix.OffDiagonalMean(m, func(x float64) float64 { return x - truth })
			require.NoError(t, err)
			require.Less(t, math.Abs(bias), band)

			outside := 0
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					if i == j {
						continue
					}
					miss := math.Abs(at(t, m, i, j) - truth)
					require.Less(t, miss, tc.perPair, "(%d,%d)", i, j)
					if miss >= band {
						outside++
					}
					require.Greater(t, at(t, v, i, j), 0.0)
					require.Less(t, at(t, v, i, j), 0.01)
				}
			}
			require.LessOrEqual(t, outside, tc.outside)
		})
	}
}

// TestDeterministicAcrossWorkers: the row split never changes the numbers.
func TestDeterministicAcrossWorkers(t *testing.T) {
	defer goleak.VerifyNone(t)

	const (
		n       = 13
		periods = 60
	)
	run := func(workers int, model belief.NoiseModel) *belief.Estimator {
		e, err := belief.New(n, belief.WithWorkers(workers), belief.WithNoiseModel(model))
		require.NoError(t, err)
		rng := rand.New(rand.NewSource(99))
		for p := 0; p < periods; p++ {
			require.NoError(t, e.Update(randomFeedback(t, rng, n, 0.4, 2)))
		}

		return e
	}
	for _, model := range []belief.NoiseModel{belief.ResidualMoments, belief.DifferenceMoments} {
		base := run(1, model)
		for _, w := range []int{2, 4, 32} {
			got := run(w, model)
			requireSameDense(t, base.Means(), got.Means())
			requireSameDense(t, base.Variances(), got.Variances())
			require.Equal(t, base.Noise(), got.Noise())
		}
	}
}

// TestReset: after Reset the estimator is indistinguishable from a new one.
func TestReset(t *testing.T) {
	fresh, err := belief.New(5, belief.WithInitialSigma(0.2, 0.4))
	require.NoError(t, err)
	e, err := belief.New(5, belief.WithInitialSigma(0.2, 0.4))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	for p := 0; p < 20; p++ {
		require.NoError(t, e.Update(randomFeedback(t, rng, 5, 0.6, 1)))
	}
	e.Reset()

	requireSameDense(t, fresh.Means(), e.Means())
	requireSameDense(t, fresh.Variances(), e.Variances())
	require.Equal(t, fresh.Counts(), e.Counts())
	require.Equal(t, fresh.Noise(), e.Noise())
	require.Zero(t, e.Periods())

	// Identical futures after the reset.
	rngA, rngB := rand.New(rand.NewSource(2)), rand.New(rand.NewSource(2))
	for p := 0; p < 10; p++ {
		require.NoError(t, fresh.Update(randomFeedback(t, rngA, 5, 0.6, 1)))
		require.NoError(t, e.Update(randomFeedback(t, rngB, 5, 0.6, 1)))
	}
	requireSameDense(t, fresh.Means(), e.Means())
	requireSameDense(t, fresh.Variances(), e.Variances())
}

// TestResetIndividual: row and column i return to the prior, nothing else moves.
func TestResetIndividual(t *testing.T) {
	const n = 5
	e, err := belief.New(n)
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(8))
	for p := 0; p < 30; p++ {
		require.NoError(t, e.Update(randomFeedback(t, rng, n, 0.8, 1)))
	}
	prevM, prevV, prevC := e.Means(), e.Variances(), e.Counts()

	require.NoError(t, e.ResetIndividual(2))
	m, v, c := e.Means(), e.Variances(), e.Counts()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			switch {
			case i == j:
				require.Zero(t, at(t, m, i, j))
				require.Zero(t, at(t, v, i, j))
			case i == 2 || j == 2:
				require.Zero(t, at(t, m, i, j))
				require.Equal(t, 1.0, at(t, v, i, j))
				require.Zero(t, c[i][j])
			default:
				require.Equal(t, at(t, prevM, i, j), at(t, m, i, j))
				require.Equal(t, at(t, prevV, i, j), at(t, v, i, j))
				require.Equal(t, prevC[i][j], c[i][j])
			}
		}
	}

	require.ErrorIs(t, e.ResetIndividual(-1), belief.ErrOutOfRange)
	require.ErrorIs(t, e.ResetIndividual(n), belief.ErrOutOfRange)
}

// TestAccessorsReturnCopies: callers cannot reach the internal state.
func TestAccessorsReturnCopies(t *testing.T) {
	e, err := belief.New(3)
	require.NoError(t, err)

	m := e.Means()
	require.NoError(t, m.Set(0, 1, 42))
	v := e.Variances()
	require.NoError(t, v.Set(0, 1, 42))
	c := e.Counts()
	c[0][1] = 42

	require.Zero(t, at(t, e.Means(), 0, 1))
	require.Equal(t, 1.0, at(t, e.Variances(), 0, 1))
	require.Zero(t, e.Counts()[0][1])
}
