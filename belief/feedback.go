package belief

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/teamform/matrix"
)

// Missing returns the sentinel marking "no observation for this cell".
func Missing() float64 { return math.NaN() }

// IsMissing reports whether v is the missing-value sentinel.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// NewFeedback allocates an n×n feedback matrix with every cell missing.
// The returned matrix accepts NaN on Set.
func NewFeedback(n int) (*matrix.Dense, error) {
	if n <= 0 {
		return nil, ErrInvalidSize
	}
	m, err := matrix.NewDenseWithPolicy(n, n, false)
	if err != nil {
		return nil, err
	}
	_ = m.Fill(Missing()) // relaxed policy: cannot fail

	return m, nil
}

// Mask is the observed-cell pattern of one feedback matrix.
// Cell (i,i) is never observed.
type Mask struct {
	n    int
	bits []bool // row-major, len n*n
}

// Size returns N.
func (m *Mask) Size() int { return m.n }

// Observed reports whether (i,j) carried feedback. Out-of-range indices report false.
func (m *Mask) Observed(i, j int) bool {
	if i < 0 || j < 0 || i >= m.n || j >= m.n {
		return false
	}

	return m.bits[i*m.n+j]
}

// Count returns the number of observed cells.
func (m *Mask) Count() int {
	var c int
	for _, b := range m.bits {
		if b {
			c++
		}
	}

	return c
}

// ObservedMask computes the feedback filter: a cell is observed iff its value
// is not the missing sentinel; the diagonal is forced unobserved whatever it holds.
//
// Errors:
//   - ErrShape (wrapping matrix.ErrNilMatrix / ErrNonSquare) for nil or non-square input.
//   - ErrInvalidFeedback for ±Inf cells off the diagonal.
//
// Complexity: O(N²).
func ObservedMask(feedback matrix.Matrix) (*Mask, error) {
	if err := matrix.ValidateNotNil(feedback); err != nil {
		return nil, fmt.Errorf("ObservedMask: %w: %w", ErrShape, err)
	}
	if err := matrix.ValidateSquare(feedback); err != nil {
		return nil, fmt.Errorf("ObservedMask: %w: %w", ErrShape, err)
	}
	rows, err := feedbackRows(feedback)
	if err != nil {
		return nil, err
	}

	return maskFromRows(rows)
}

// maskFromRows is ObservedMask over already materialized rows.
func maskFromRows(rows [][]float64) (*Mask, error) {
	var (
		n    = len(rows)
		mask = &Mask{n: n, bits: make([]bool, n*n)}
		i, j int
		v    float64
	)
	for i = 0; i < n; i++ {
		for j = 0; j < n; j++ {
			if i == j {
				continue
			}
			v = rows[i][j]
			if math.IsInf(v, 0) {
				return nil, fmt.Errorf("ObservedMask(%d,%d): %w", i, j, ErrInvalidFeedback)
			}
			mask.bits[i*n+j] = !IsMissing(v)
		}
	}

	return mask, nil
}

// feedbackRows exposes the rows of a square feedback matrix for read-only
// use. *matrix.Dense rows are aliased; other implementations are copied.
func feedbackRows(feedback matrix.Matrix) ([][]float64, error) {
	var (
		n    = feedback.Rows()
		rows = make([][]float64, n)
		i, j int
		err  error
	)
	if d, ok := feedback.(*matrix.Dense); ok {
		for i = 0; i < n; i++ {
			rows[i] = d.RawRow(i)
		}

		return rows, nil
	}
	for i = 0; i < n; i++ {
		rows[i] = make([]float64, n)
		for j = 0; j < n; j++ {
			if rows[i][j], err = feedback.At(i, j); err != nil {
				if errors.Is(err, matrix.ErrOutOfRange) {
					return nil, fmt.Errorf("feedbackRows: %w: %w", ErrShape, err)
				}
				return nil, err
			}
		}
	}

	return rows, nil
}
