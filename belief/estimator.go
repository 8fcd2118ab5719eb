package belief

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/katalvlaran/teamform/matrix"
)

// Learner is the contract the experiment loop relies on.
type Learner interface {
	Update(feedback matrix.Matrix) error
	Means() *matrix.Dense
	Variances() *matrix.Dense
	Reset()
}

// IndividualResetter is implemented by learners that can forget a single
// individual when it is replaced.
type IndividualResetter interface {
	ResetIndividual(i int) error
}

var (
	_ Learner            = (*Estimator)(nil)
	_ IndividualResetter = (*Estimator)(nil)
)

// Estimator is the adaptive Kalman filter over all N² pairwise affinities.
//
// Invariants (hold after New, Update, Reset and ResetIndividual):
//   - diag(M) = 0, diag(V) = 0, V ≥ 0 everywhere;
//   - counts are non-decreasing and grow by exactly 1 on observed cells;
//   - a never-observed off-diagonal pair keeps M = 0 and V = 1.
type Estimator struct {
	n   int
	cfg config

	mean     *matrix.Dense // M
	variance *matrix.Dense // V
	counts   []int         // C, row-major
	stats    noiseStats

	initial Estimate
	noise   Estimate
	periods int

	partials []noisePartial // per-row scratch for the pooled estimate
}

// New returns an Estimator for n individuals in its construction-time state:
// M = 0, V = 1 off the diagonal and 0 on it, all counts and accumulators 0,
// noise at the initial guess.
//
// Errors: ErrInvalidSize (n ≤ 0), ErrInvalidOption.
func New(n int, opts ...Option) (*Estimator, error) {
	if n <= 0 {
		return nil, ErrInvalidSize
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	mean, err := matrix.NewDense(n, n)
	if err != nil {
		return nil, err
	}
	variance, err := matrix.NewFilled(n, n, 1)
	if err != nil {
		return nil, err
	}

	initial := Estimate{
		ProcessVariance:     cfg.sigmaW * cfg.sigmaW,
		ObservationVariance: max(cfg.sigmaF*cfg.sigmaF, cfg.minObsVar),
	}
	e := &Estimator{
		n:        n,
		cfg:      cfg,
		mean:     mean,
		variance: variance,
		counts:   make([]int, n*n),
		stats:    newNoiseStats(n),
		initial:  initial,
		partials: make([]noisePartial, n),
	}
	e.Reset()

	return e, nil
}

// Size returns N.
func (e *Estimator) Size() int { return e.n }

// Periods returns the number of successful Update calls since the last Reset.
func (e *Estimator) Periods() int { return e.periods }

// Noise returns the noise estimate used by the most recent update (the
// initial guess before the first one).
func (e *Estimator) Noise() Estimate { return e.noise }

// Means returns a copy of M.
func (e *Estimator) Means() *matrix.Dense { return e.mean.Copy() }

// Variances returns a copy of V.
func (e *Estimator) Variances() *matrix.Dense { return e.variance.Copy() }

// Count returns C[i,j].
func (e *Estimator) Count(i, j int) (int, error) {
	if i < 0 || j < 0 || i >= e.n || j >= e.n {
		return 0, fmt.Errorf("Count(%d,%d): %w", i, j, ErrOutOfRange)
	}

	return e.counts[i*e.n+j], nil
}

// Counts returns a copy of C.
func (e *Estimator) Counts() [][]int {
	out := make([][]int, e.n)
	for i := 0; i < e.n; i++ {
		out[i] = make([]int, e.n)
		copy(out[i], e.counts[i*e.n:(i+1)*e.n])
	}

	return out
}

// Reset restores the construction-time state.
func (e *Estimator) Reset() {
	_ = e.mean.Fill(0)
	_ = e.variance.Fill(1)
	_ = e.variance.FillDiagonal(0)
	for k := range e.counts {
		e.counts[k] = 0
		e.stats.zero(k)
	}
	e.noise = e.initial
	e.periods = 0
}

// ResetIndividual restores row i and column i of every matrix and
// accumulator, as if individual i had just joined. The pooled noise estimate
// is left as is.
//
// Errors: ErrOutOfRange.
func (e *Estimator) ResetIndividual(i int) error {
	if i < 0 || i >= e.n {
		return fmt.Errorf("ResetIndividual(%d): %w", i, ErrOutOfRange)
	}
	var (
		mi = e.mean.RawRow(i)
		vi = e.variance.RawRow(i)
		j  int
	)
	for j = 0; j < e.n; j++ {
		mj := e.mean.RawRow(j)
		vj := e.variance.RawRow(j)
		mi[j], mj[i] = 0, 0
		if j != i {
			vi[j], vj[i] = 1, 1
		}
		e.counts[i*e.n+j], e.counts[j*e.n+i] = 0, 0
		e.stats.zero(i*e.n + j)
		e.stats.zero(j*e.n + i)
	}
	vi[i] = 0

	return nil
}

// Update folds one period of feedback into the beliefs.
//
// Implementation (per period):
//   - Stage 1: observed mask (diagonal forced unobserved); C += mask.
//   - Stage 2: residuals against the previous mean feed the noise
//     statistics; σw², σf² are re-estimated before M/V change.
//   - Stage 3: predict P = V + σw²·mask (mean unchanged).
//   - Stage 4: innovation y − M on observed cells, 0 elsewhere.
//   - Stage 5: gain K = P/(P + σf²).
//   - Stage 6: M += K·innovation; V = (1−K)·P on observed cells, unchanged
//     elsewhere; negative variances are clamped to 0.
//   - Stage 7: diagonal of M and V forced to 0.
//   - Stage 8: (ΔM)² accumulated on observed cells for the next σw².
//
// The updated M is the "previous mean" of the next call.
//
// Errors: ErrShape (not N×N, nil), ErrInvalidFeedback (±Inf). On error the
// state is untouched.
//
// Complexity: O(N²) time, O(N) extra space.
func (e *Estimator) Update(feedback matrix.Matrix) error {
	if err := matrix.ValidateSquareOf(feedback, e.n); err != nil {
		return fmt.Errorf("Update: %w: %w", ErrShape, err)
	}
	rows, err := feedbackRows(feedback)
	if err != nil {
		return err
	}
	mask, err := maskFromRows(rows)
	if err != nil {
		return err
	}

	// Stages 1–2: counts and statistics, row-parallel.
	forEachRowBlock(e.n, e.cfg.workers, func(lo, hi int) {
		e.accumulateRows(lo, hi, rows, mask)
	})
	e.noise = pool(e.partials, e.noise, e.cfg.minObsVar)
	if !e.noise.Confident {
		e.cfg.logger.Debug("noise estimate carried over: no pair has enough history",
			zap.Int("period", e.periods+1),
			zap.Float64("sigma_w2", e.noise.ProcessVariance),
			zap.Float64("sigma_f2", e.noise.ObservationVariance),
		)
	}

	// Stages 3–8: predict and correct, row-parallel.
	var (
		q = e.noise.ProcessVariance
		r = e.noise.ObservationVariance
	)
	forEachRowBlock(e.n, e.cfg.workers, func(lo, hi int) {
		e.correctRows(lo, hi, rows, mask, q, r)
	})
	e.periods++

	return nil
}

// accumulateRows runs stages 1–2 on rows [lo, hi) and leaves each row's
// contribution to the pooled noise estimate in e.partials.
func (e *Estimator) accumulateRows(lo, hi int, rows [][]float64, mask *Mask) {
	var (
		n    = e.n
		i, j int
		k, c int
	)
	for i = lo; i < hi; i++ {
		mi := e.mean.RawRow(i)
		part := noisePartial{}
		for j = 0; j < n; j++ {
			k = i*n + j
			if mask.bits[k] {
				c = e.counts[k]
				e.counts[k] = c + 1
				e.stats.observe(k, rows[i][j], mi[j], c)
			}
			if w, f, ok := e.stats.pairEstimate(e.cfg.model, k, e.counts[k]); ok {
				part.sumW += w
				part.sumF += f
				part.pairs++
			}
		}
		e.partials[i] = part
	}
}

// correctRows runs stages 3–8 on rows [lo, hi).
func (e *Estimator) correctRows(lo, hi int, rows [][]float64, mask *Mask, q, r float64) {
	var (
		n          = e.n
		i, j, k    int
		p, gain, d float64
	)
	for i = lo; i < hi; i++ {
		mi := e.mean.RawRow(i)
		vi := e.variance.RawRow(i)
		for j = 0; j < n; j++ {
			if i == j {
				mi[j], vi[j] = 0, 0
				continue
			}
			k = i*n + j
			if !mask.bits[k] {
				continue // unobserved: zero innovation, variance kept
			}
			p = vi[j] + q
			gain = p / (p + r)
			d = gain * (rows[i][j] - mi[j])
			mi[j] += d
			vi[j] = (1 - gain) * p
			if vi[j] < 0 {
				vi[j] = 0
			}
			e.stats.sumSqDelta[k] += d * d
		}
	}
}
