// SPDX-License-Identifier: MIT
// Package: matrix
//
// Purpose:
//   - Element-wise and scalar kernels used to derive score matrices from
//     beliefs (S = (M + βV)/2, S = (M + V∘Z)/2) and small reductions used by
//     evaluation metrics.
//
// Determinism & Performance:
//   - Fixed loop orders (flat 0..n-1 or i→j).
//   - Dense fast-path operates on the flat buffers; other Matrix
//     implementations go through At.
//   - Every kernel returns a freshly allocated *Dense; inputs are untouched.

package matrix

import "math"

// flatten returns the row-major contents of m. For *Dense it is the backing
// buffer itself (read-only use only); other implementations are copied via At.
func flatten(op string, m Matrix) ([]float64, error) {
	if d, ok := m.(*Dense); ok {
		return d.data, nil
	}
	var (
		r, c = m.Rows(), m.Cols()
		out  = make([]float64, r*c)
		i, j int
		v    float64
		err  error
	)
	for i = 0; i < r; i++ {
		for j = 0; j < c; j++ {
			if v, err = m.At(i, j); err != nil {
				return nil, matrixErrorf(op, err)
			}
			out[i*c+j] = v
		}
	}

	return out, nil
}

// binary applies f cell-wise over two same-shaped matrices.
func binary(op string, a, b Matrix, f func(x, y float64) float64) (*Dense, error) {
	if err := ValidateBinarySameShape(a, b); err != nil {
		return nil, matrixErrorf(op, err)
	}
	da, err := flatten(op, a)
	if err != nil {
		return nil, err
	}
	db, err := flatten(op, b)
	if err != nil {
		return nil, err
	}
	out, err := NewDense(a.Rows(), a.Cols())
	if err != nil {
		return nil, matrixErrorf(op, err)
	}
	var k int
	for k = range out.data {
		out.data[k] = f(da[k], db[k])
	}

	return out, nil
}

// Add returns a + b.
// Errors: ErrNilMatrix, ErrDimensionMismatch.
// Complexity: O(r*c).
func Add(a, b Matrix) (*Dense, error) {
	return binary("Add", a, b, func(x, y float64) float64 { return x + y })
}

// Sub returns a − b.
// Errors: ErrNilMatrix, ErrDimensionMismatch.
// Complexity: O(r*c).
func Sub(a, b Matrix) (*Dense, error) {
	return binary("Sub", a, b, func(x, y float64) float64 { return x - y })
}

// Hadamard returns the element-wise product a∘b.
// Errors: ErrNilMatrix, ErrDimensionMismatch.
// Complexity: O(r*c).
func Hadamard(a, b Matrix) (*Dense, error) {
	return binary("Hadamard", a, b, func(x, y float64) float64 { return x * y })
}

// Scale returns alpha·m.
// Errors: ErrNilMatrix.
// Complexity: O(r*c).
func Scale(m Matrix, alpha float64) (*Dense, error) {
	return Apply(m, func(_, _ int, v float64) float64 { return alpha * v })
}

// Apply returns out[i,j] = f(i, j, m[i,j]).
// Errors: ErrNilMatrix.
// Complexity: O(r*c) plus the cost of f.
func Apply(m Matrix, f func(i, j int, v float64) float64) (*Dense, error) {
	if err := ValidateNotNil(m); err != nil {
		return nil, matrixErrorf("Apply", err)
	}
	src, err := flatten("Apply", m)
	if err != nil {
		return nil, err
	}
	out, err := NewDense(m.Rows(), m.Cols())
	if err != nil {
		return nil, matrixErrorf("Apply", err)
	}
	var (
		c    = out.c
		i, j int
	)
	for i = 0; i < out.r; i++ {
		for j = 0; j < c; j++ {
			out.data[i*c+j] = f(i, j, src[i*c+j])
		}
	}

	return out, nil
}

// Sum returns the sum of all entries.
// Errors: ErrNilMatrix.
func Sum(m Matrix) (float64, error) {
	if err := ValidateNotNil(m); err != nil {
		return 0, matrixErrorf("Sum", err)
	}
	src, err := flatten("Sum", m)
	if err != nil {
		return 0, err
	}
	var s float64
	for _, v := range src {
		s += v
	}

	return s, nil
}

// MaxAbsDiff returns max |a[i,j] − b[i,j]|.
// Errors: ErrNilMatrix, ErrDimensionMismatch.
func MaxAbsDiff(a, b Matrix) (float64, error) {
	d, err := Sub(a, b)
	if err != nil {
		return 0, err
	}
	var worst float64
	for _, v := range d.data {
		if av := math.Abs(v); av > worst {
			worst = av
		}
	}

	return worst, nil
}

// OffDiagonalMean returns the mean of f(m[i,j]) over i≠j of a square matrix.
// A 1×1 matrix has no off-diagonal cells and yields 0.
// Errors: ErrNilMatrix, ErrNonSquare.
func OffDiagonalMean(m Matrix, f func(v float64) float64) (float64, error) {
	if err := ValidateNotNil(m); err != nil {
		return 0, matrixErrorf("OffDiagonalMean", err)
	}
	if err := ValidateSquare(m); err != nil {
		return 0, matrixErrorf("OffDiagonalMean", err)
	}
	src, err := flatten("OffDiagonalMean", m)
	if err != nil {
		return 0, err
	}
	var (
		n    = m.Rows()
		s    float64
		i, j int
	)
	if n < 2 {
		return 0, nil
	}
	for i = 0; i < n; i++ {
		for j = 0; j < n; j++ {
			if i != j {
				s += f(src[i*n+j])
			}
		}
	}

	return s / float64(n*(n-1)), nil
}
