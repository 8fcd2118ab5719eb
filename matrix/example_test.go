package matrix_test

import (
	"fmt"

	"github.com/katalvlaran/teamform/matrix"
)

// ExampleAdd derives an upper-confidence style score (M + βV)/2 from two
// belief matrices.
func ExampleAdd() {
	means, _ := matrix.NewDenseFromRows([][]float64{{0, 0.4}, {0.2, 0}})
	vars, _ := matrix.NewDenseFromRows([][]float64{{0, 1}, {0.5, 0}})

	bonus, _ := matrix.Scale(vars, 0.2)
	sum, _ := matrix.Add(means, bonus)
	score, _ := matrix.Scale(sum, 0.5)

	fmt.Print(score)
	// Output:
	// [0, 0.30000000000000004]
	// [0.15000000000000002, 0]
}
