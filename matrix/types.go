// SPDX-License-Identifier: MIT

// Package matrix: the public Matrix contract.
package matrix

// Matrix represents a two-dimensional mutable array of float64 values.
//
// Complexity notes: all methods are expected O(1).
type Matrix interface {
	// Rows returns the number of rows in the matrix.
	Rows() int

	// Cols returns the number of columns in the matrix.
	Cols() int

	// At retrieves the element at position (i, j).
	// Returns ErrOutOfRange if i or j is outside the matrix.
	At(i, j int) (float64, error)

	// Set assigns the value v at position (i, j).
	// Returns ErrOutOfRange if indices are invalid, ErrNaNInf when the
	// implementation enforces a finite-only policy.
	Set(i, j int, v float64) error
}

// DefaultValidateNaNInf is the numeric policy applied by NewDense.
const DefaultValidateNaNInf = true
