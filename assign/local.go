// Package assign - multi-start local search.
//
// Each start builds a feasible partition (greedy for start 0, a shuffled
// RandomAssignment otherwise) and applies first-improvement moves until no
// move or swap gains more than Eps:
//
//   - move i from team A to a team B with room:
//     Δ = sum[i][B] − sum[i][A]
//   - swap i ∈ A with j ∈ B:
//     Δ = (sum[i][B] − a_ij − sum[i][A]) + (sum[j][A] − a_ij − sum[j][B])
//
// where sum[i][k] = Σ_{m∈k} a_im is maintained incrementally in O(N) per
// accepted step. Scan order is a fresh permutation per pass drawn from the
// start's own RNG stream. Starts run concurrently (errgroup, at most Workers
// at a time); the best start wins and ties go to the lowest start index, so
// the answer does not depend on scheduling.
package assign

import (
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"
)

// LocalSearch is the heuristic solver for large instances.
type LocalSearch struct{}

// Solve implements Solver. Status is StatusFeasible, or StatusTimeLimit when
// the budget cut at least one start short.
func (LocalSearch) Solve(p *Program, opts Options) (Solution, error) {
	g, err := p.structure()
	if err != nil {
		return Solution{}, err
	}
	if opts, err = opts.normalized(); err != nil {
		return Solution{}, err
	}
	part, val, passes, timedOut := runLocalSearch(g, opts)

	x, err := p.Encode(Canonical(part))
	if err != nil {
		return Solution{}, err
	}
	status := StatusFeasible
	if timedOut {
		status = StatusTimeLimit
	}

	return Solution{X: x, Objective: g.trace + val, Status: status, Nodes: passes}, nil
}

// lsResult is one start's outcome.
type lsResult struct {
	part     []int
	val      float64
	passes   int64
	timedOut bool
}

// runLocalSearch runs opts.Restarts starts and returns the best partition,
// its pair value, the total number of passes, and whether the deadline hit.
func runLocalSearch(g *grid, opts Options) ([]int, float64, int64, bool) {
	var (
		base     = rngFromSeed(opts.Seed)
		rngs     = make([]*rand.Rand, opts.Restarts)
		results  = make([]lsResult, opts.Restarts)
		dl, useD = opts.deadline()
		eg       errgroup.Group
	)
	for r := 0; r < opts.Restarts; r++ {
		rngs[r] = deriveRNG(base, uint64(r))
	}
	eg.SetLimit(opts.Workers)
	for r := 0; r < opts.Restarts; r++ {
		r := r // per-iteration copy (go1.21 loop semantics)
		eg.Go(func() error {
			var start []int
			if r == 0 {
				start = greedyPartition(g)
			} else {
				start, _ = RandomAssignment(g.n, g.t, g.k, rngs[r]) // T·K ≥ N checked by structure
			}
			ls := newLocalState(g, start, opts.Eps)
			passes, timedOut := ls.improve(rngs[r], opts.MaxPasses, dl, useD)
			results[r] = lsResult{part: ls.part, val: g.value(ls.part), passes: passes, timedOut: timedOut}

			return nil
		})
	}
	_ = eg.Wait() // starts cannot fail

	var (
		best     = 0
		total    int64
		timedOut bool
	)
	for r := 0; r < len(results); r++ {
		total += results[r].passes
		timedOut = timedOut || results[r].timedOut
		if results[r].val > results[best].val+opts.Eps {
			best = r
		}
	}

	return results[best].part, results[best].val, total, timedOut
}

// greedyPartition places individuals in index order, each into the team
// with room and the largest gain against members placed so far (lowest team
// index on ties).
func greedyPartition(g *grid) []int {
	var (
		part = make([]int, g.n)
		size = make([]int, g.t)
		sums = make([]float64, g.n*g.t)
		i, k int
		m    int
	)
	for i = 0; i < g.n; i++ {
		best := -1
		for k = 0; k < g.t; k++ {
			if size[k] >= g.k {
				continue
			}
			if best < 0 || sums[i*g.t+k] > sums[i*g.t+best] {
				best = k
			}
		}
		part[i] = best
		size[best]++
		for m = 0; m < g.n; m++ {
			sums[m*g.t+best] += g.a[m*g.n+i]
		}
	}

	return part
}

// localState is the incremental state of one start.
type localState struct {
	g    *grid
	eps  float64
	part []int
	size []int
	sums []float64 // sums[i·T+k] = Σ_{m∈k} a_im
}

func newLocalState(g *grid, part []int, eps float64) *localState {
	ls := &localState{
		g:    g,
		eps:  eps,
		part: part,
		size: make([]int, g.t),
		sums: make([]float64, g.n*g.t),
	}
	var i, m int
	for i = 0; i < g.n; i++ {
		ls.size[part[i]]++
		for m = 0; m < g.n; m++ {
			ls.sums[m*g.t+part[i]] += g.a[m*g.n+i]
		}
	}

	return ls
}

// relocate moves i to team to, updating sizes and sums.
func (ls *localState) relocate(i, to int) {
	var (
		g    = ls.g
		from = ls.part[i]
		m    int
	)
	for m = 0; m < g.n; m++ {
		ls.sums[m*g.t+from] -= g.a[m*g.n+i]
		ls.sums[m*g.t+to] += g.a[m*g.n+i]
	}
	ls.size[from]--
	ls.size[to]++
	ls.part[i] = to
}

// tryMove applies the first improving move of i, if any.
func (ls *localState) tryMove(i int) bool {
	var (
		g    = ls.g
		from = ls.part[i]
		cur  = ls.sums[i*g.t+from]
		k    int
	)
	for k = 0; k < g.t; k++ {
		if k == from || ls.size[k] >= g.k {
			continue
		}
		if ls.sums[i*g.t+k]-cur > ls.eps {
			ls.relocate(i, k)
			return true
		}
	}

	return false
}

// trySwap applies the first improving swap of i with a member of another
// team, scanning partners in order.
func (ls *localState) trySwap(i int, order []int) bool {
	var (
		g  = ls.g
		ti = ls.part[i]
		tj int
		d  float64
	)
	for _, j := range order {
		tj = ls.part[j]
		if tj == ti {
			continue
		}
		aij := g.a[i*g.n+j]
		d = ls.sums[i*g.t+tj] - aij - ls.sums[i*g.t+ti] +
			ls.sums[j*g.t+ti] - aij - ls.sums[j*g.t+tj]
		if d > ls.eps {
			ls.relocate(i, tj)
			ls.relocate(j, ti)
			return true
		}
	}

	return false
}

// improve runs passes until a pass makes no change, maxPasses is reached,
// or the deadline passes. It returns the number of passes and whether the
// deadline stopped it.
func (ls *localState) improve(rng *rand.Rand, maxPasses int, deadline time.Time, useDeadline bool) (int64, bool) {
	var (
		order  = make([]int, ls.g.n)
		passes int64
		i      int
	)
	for i = range order {
		order[i] = i
	}
	for passes < int64(maxPasses) {
		if useDeadline && time.Now().After(deadline) {
			return passes, true
		}
		passes++
		shuffleInts(order, rng)
		improved := false
		for _, i = range order {
			if ls.tryMove(i) || ls.trySwap(i, order) {
				improved = true
			}
		}
		if !improved {
			break
		}
	}

	return passes, false
}
