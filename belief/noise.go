package belief

import "math"

// NoiseModel selects the method-of-moments estimator behind the pooled
// σw² / σf² scalars.
type NoiseModel int

const (
	// ResidualMoments estimates, per pair with n > 1 observations,
	//   σf² = (Σr² − (Σr)²/n) / (n−1),  r = feedback − mean before the update,
	//   σw² = Σ(Δmean)² / (n−1),
	// and reports the mean over eligible pairs. Residuals also carry the
	// filter's own prediction error, so σf² tends to be overstated.
	ResidualMoments NoiseModel = iota

	// DifferenceMoments works on consecutive observations of a pair,
	// d_t = y_t − y_{t−1} = w_t + f_t − f_{t−1}:
	//   σf² = −E[d_t·d_{t−1}],  σw² = E[d²] − 2σf²,
	// per pair with n > 2 observations, pooled by mean. It is consistent for
	// a random walk observed with white noise and does not depend on the
	// filter's gains.
	DifferenceMoments
)

// String implements fmt.Stringer.
func (m NoiseModel) String() string {
	switch m {
	case ResidualMoments:
		return "residual"
	case DifferenceMoments:
		return "difference"
	default:
		return "unknown"
	}
}

// ParseNoiseModel maps "residual" / "difference" to a NoiseModel.
func ParseNoiseModel(s string) (NoiseModel, bool) {
	switch s {
	case "residual", "":
		return ResidualMoments, true
	case "difference":
		return DifferenceMoments, true
	default:
		return 0, false
	}
}

// Estimate is one pooled noise estimate.
type Estimate struct {
	// ProcessVariance is σw², the per-period drift variance of an affinity.
	ProcessVariance float64
	// ObservationVariance is σf², the variance of one feedback observation.
	ObservationVariance float64
	// Pairs is the number of pairs that contributed; 0 when the previous
	// estimate was carried over.
	Pairs int
	// Confident is false while no pair has enough history.
	Confident bool
}

// SigmaW returns √σw².
func (e Estimate) SigmaW() float64 { return math.Sqrt(e.ProcessVariance) }

// SigmaF returns √σf².
func (e Estimate) SigmaF() float64 { return math.Sqrt(e.ObservationVariance) }

// noiseStats holds the per-pair sufficient statistics (row-major, len N²).
// Counts live on the Estimator; every statistic here is indexed the same way.
type noiseStats struct {
	sumRes     []float64 // Σ r
	sumSqRes   []float64 // Σ r²
	sumSqDelta []float64 // Σ (Δmean)²
	lastObs    []float64 // y_{t−1}
	lastDiff   []float64 // d_{t−1}
	sumSqDiff  []float64 // Σ d²
	sumCross   []float64 // Σ d_t·d_{t−1}
}

func newNoiseStats(n int) noiseStats {
	return noiseStats{
		sumRes:     make([]float64, n*n),
		sumSqRes:   make([]float64, n*n),
		sumSqDelta: make([]float64, n*n),
		lastObs:    make([]float64, n*n),
		lastDiff:   make([]float64, n*n),
		sumSqDiff:  make([]float64, n*n),
		sumCross:   make([]float64, n*n),
	}
}

// zero clears cell k of every statistic.
func (s *noiseStats) zero(k int) {
	s.sumRes[k] = 0
	s.sumSqRes[k] = 0
	s.sumSqDelta[k] = 0
	s.lastObs[k] = 0
	s.lastDiff[k] = 0
	s.sumSqDiff[k] = 0
	s.sumCross[k] = 0
}

// observe folds one observation y of cell k into the statistics.
// prevCount is the cell's count before this period; mean is the belief mean
// before the update.
func (s *noiseStats) observe(k int, y, mean float64, prevCount int) {
	r := y - mean
	s.sumRes[k] += r
	s.sumSqRes[k] += r * r
	if prevCount >= 1 {
		d := y - s.lastObs[k]
		s.sumSqDiff[k] += d * d
		if prevCount >= 2 {
			s.sumCross[k] += d * s.lastDiff[k]
		}
		s.lastDiff[k] = d
	}
	s.lastObs[k] = y
}

// pairEstimate returns the per-pair (σw², σf²) estimate for cell k with
// count c, and whether the cell has enough history under model.
func (s *noiseStats) pairEstimate(model NoiseModel, k, c int) (w, f float64, ok bool) {
	switch model {
	case DifferenceMoments:
		if c <= 2 {
			return 0, 0, false
		}
		f = -s.sumCross[k] / float64(c-2)
		w = s.sumSqDiff[k]/float64(c-1) - 2*f

		return w, f, true

	default:
		if c <= 1 {
			return 0, 0, false
		}
		n := float64(c)
		f = (s.sumSqRes[k] - s.sumRes[k]*s.sumRes[k]/n) / (n - 1)
		if f < 0 {
			f = 0 // cancellation in the sufficient-statistic form
		}
		w = s.sumSqDelta[k] / (n - 1)

		return w, f, true
	}
}

// noisePartial is the per-row contribution to the pooled estimate.
type noisePartial struct {
	sumW, sumF float64
	pairs      int
}

// pool reduces row partials in row order and applies the floors. When no
// pair is eligible the previous estimate is carried over unchanged.
func pool(parts []noisePartial, prev Estimate, minObsVar float64) Estimate {
	var (
		sw, sf float64
		pairs  int
	)
	for _, p := range parts {
		sw += p.sumW
		sf += p.sumF
		pairs += p.pairs
	}
	if pairs == 0 {
		prev.Pairs = 0
		prev.Confident = false

		return prev
	}
	est := Estimate{
		ProcessVariance:     sw / float64(pairs),
		ObservationVariance: sf / float64(pairs),
		Pairs:               pairs,
		Confident:           true,
	}
	if est.ProcessVariance < 0 || math.IsNaN(est.ProcessVariance) {
		est.ProcessVariance = 0
	}
	if est.ObservationVariance < minObsVar || math.IsNaN(est.ObservationVariance) {
		est.ObservationVariance = minObsVar
	}

	return est
}
