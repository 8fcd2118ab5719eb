// Package assign - RNG utilities shared by the heuristic solver and the
// random baseline.
//
// Same seed ⇒ identical partitions. math/rand.Rand is not goroutine-safe:
// parallel restarts each get their own stream from deriveRNG, derived on the
// calling goroutine before any worker starts.
package assign

import "math/rand"

// defaultRNGSeed is used when callers pass seed == 0.
const defaultRNGSeed int64 = 1

// rngFromSeed returns a deterministic *rand.Rand (seed == 0 ⇒ defaultRNGSeed).
func rngFromSeed(seed int64) *rand.Rand {
	if seed == 0 {
		seed = defaultRNGSeed
	}

	return rand.New(rand.NewSource(seed))
}

// deriveSeed mixes a parent seed and a stream id with the SplitMix64 finalizer.
//
// Complexity: O(1).
func deriveSeed(parent int64, stream uint64) int64 {
	var x uint64
	x = uint64(parent) ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31

	return int64(x)
}

// deriveRNG creates an independent stream from base and a stream id.
// base.Int63 is consumed once per call, so repeated ids still differ.
func deriveRNG(base *rand.Rand, stream uint64) *rand.Rand {
	parent := defaultRNGSeed
	if base != nil {
		parent = base.Int63()
	}

	return rand.New(rand.NewSource(deriveSeed(parent, stream)))
}

// shuffleInts is an in-place Fisher–Yates shuffle; rng == nil uses the
// default stream.
func shuffleInts(a []int, rng *rand.Rand) {
	if len(a) <= 1 {
		return
	}
	if rng == nil {
		rng = rngFromSeed(0)
	}
	var i, j int
	for i = len(a) - 1; i > 0; i-- {
		j = rng.Intn(i + 1)
		a[i], a[j] = a[j], a[i]
	}
}

// RandomAssignment is the no-optimization baseline: each team id repeated
// capacity times, shuffled, truncated to n. The result is always feasible.
// rng == nil uses a fixed default stream.
//
// Errors: ErrInvalidTeams, ErrCapacity.
//
// Complexity: O(T·K).
func RandomAssignment(n, teams, capacity int, rng *rand.Rand) ([]int, error) {
	if n <= 0 {
		return nil, ErrInvalidPartition
	}
	if err := checkCapacity(n, teams, capacity); err != nil {
		return nil, err
	}
	labels := make([]int, 0, teams*capacity)
	for k := 0; k < teams; k++ {
		for c := 0; c < capacity; c++ {
			labels = append(labels, k)
		}
	}
	shuffleInts(labels, rng)

	return labels[:n:n], nil
}
