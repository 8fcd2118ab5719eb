package assign_test

import (
	"math/rand"
	"testing"

	"github.com/katalvlaran/teamform/assign"
	"github.com/stretchr/testify/require"
)

func TestValidatePartition(t *testing.T) {
	require.NoError(t, assign.ValidatePartition([]int{0, 1, 1, 0, 2}, 5, 3, 2))

	cases := map[string]struct {
		part               []int
		n, teams, capacity int
		want               error
	}{
		"short":         {[]int{0, 1}, 3, 2, 2, assign.ErrInvalidPartition},
		"label range":   {[]int{0, 3, 1}, 3, 3, 2, assign.ErrInvalidPartition},
		"negative":      {[]int{0, -1, 1}, 3, 3, 2, assign.ErrInvalidPartition},
		"over capacity": {[]int{1, 1, 1}, 3, 3, 2, assign.ErrInvalidPartition},
		"no teams":      {[]int{0}, 1, 0, 1, assign.ErrInvalidTeams},
	}
	for name, tc := range cases {
		err := assign.ValidatePartition(tc.part, tc.n, tc.teams, tc.capacity)
		require.ErrorIs(t, err, tc.want, name)
	}
}

func TestCanonical(t *testing.T) {
	require.Equal(t, []int{0, 0, 1, 2}, assign.Canonical([]int{2, 2, 0, 1}))
	require.Equal(t, []int{0, 1, 0, 1}, assign.Canonical([]int{1, 0, 1, 0}))
	require.Equal(t, []int{0, -1, 1}, assign.Canonical([]int{5, -1, 3}))
	require.Empty(t, assign.Canonical(nil))
}

func TestObjective(t *testing.T) {
	scores := fourPeople(t)
	v, err := assign.Objective(scores, []int{0, 0, 1, 1})
	require.NoError(t, err)
	require.InDelta(t, 18.0, v, eps)

	v, err = assign.Objective(scores, []int{0, 1, 0, 1})
	require.NoError(t, err)
	require.InDelta(t, 5.0, v, eps)

	_, err = assign.Objective(scores, []int{0, 1})
	require.ErrorIs(t, err, assign.ErrInvalidPartition)
}

// TestRandomAssignment: always feasible, reproducible per seed, every label used
// when N = T·K.
func TestRandomAssignment(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		part, err := assign.RandomAssignment(10, 4, 3, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		require.NoError(t, assign.ValidatePartition(part, 10, 4, 3))

		again, err := assign.RandomAssignment(10, 4, 3, rand.New(rand.NewSource(seed)))
		require.NoError(t, err)
		require.Equal(t, part, again)
	}

	full, err := assign.RandomAssignment(6, 3, 2, nil)
	require.NoError(t, err)
	counts := make([]int, 3)
	for _, k := range full {
		counts[k]++
	}
	require.Equal(t, []int{2, 2, 2}, counts)

	_, err = assign.RandomAssignment(7, 3, 2, nil)
	require.ErrorIs(t, err, assign.ErrCapacity)
	_, err = assign.RandomAssignment(3, 0, 2, nil)
	require.ErrorIs(t, err, assign.ErrInvalidTeams)
	_, err = assign.RandomAssignment(0, 1, 1, nil)
	require.ErrorIs(t, err, assign.ErrInvalidPartition)
}
