package sim

import (
	"fmt"
	"math"
	"strings"

	"github.com/katalvlaran/teamform/matrix"
)

// Metric selects the norm used by Distance.
type Metric int

const (
	// L2 is the Frobenius norm of the difference.
	L2 Metric = iota
	// L1 sums absolute differences.
	L1
	// Linf is the largest absolute difference.
	Linf
)

// String returns the config spelling of m.
func (m Metric) String() string {
	switch m {
	case L1:
		return "l1"
	case L2:
		return "l2"
	case Linf:
		return "linf"
	default:
		return "unknown"
	}
}

// ParseMetric accepts l1, l2 and linf (case-insensitive); "" means L2.
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "l2":
		return L2, nil
	case "l1":
		return L1, nil
	case "linf", "inf", "max":
		return Linf, nil
	default:
		return 0, fmt.Errorf("%q: %w", s, ErrUnknownMetric)
	}
}

// EstimatedReward is the reward the beliefs predict for partition:
// Σ over ordered same-team pairs i≠j of means[i,j], halved.
func EstimatedReward(means matrix.Matrix, partition []int) (float64, error) {
	if err := matrix.ValidateSquareOf(means, len(partition)); err != nil {
		return 0, err
	}
	var (
		n     = len(partition)
		total float64
		i, j  int
	)
	for i = 0; i < n; i++ {
		for j = 0; j < n; j++ {
			if i == j || partition[i] != partition[j] {
				continue
			}
			v, err := means.At(i, j)
			if err != nil {
				return 0, err
			}
			total += v
		}
	}

	return total / 2, nil
}

// Distance measures how far the means are from the truth under metric.
// The diagonal is 0 in both and does not contribute.
func Distance(truth, means matrix.Matrix, metric Metric) (float64, error) {
	if metric == Linf {
		return matrix.MaxAbsDiff(truth, means)
	}
	if metric != L1 && metric != L2 {
		return 0, fmt.Errorf("metric %d: %w", int(metric), ErrUnknownMetric)
	}
	diff, err := matrix.Sub(truth, means)
	if err != nil {
		return 0, err
	}
	if metric == L1 {
		abs, err := matrix.Apply(diff, func(_, _ int, v float64) float64 { return math.Abs(v) })
		if err != nil {
			return 0, err
		}
		return matrix.Sum(abs)
	}
	sq, err := matrix.Hadamard(diff, diff)
	if err != nil {
		return 0, err
	}
	total, err := matrix.Sum(sq)
	if err != nil {
		return 0, err
	}

	return math.Sqrt(total), nil
}

// Uncertainty is the mean off-diagonal posterior variance.
func Uncertainty(variances matrix.Matrix) (float64, error) {
	return matrix.OffDiagonalMean(variances, func(v float64) float64 { return v })
}
