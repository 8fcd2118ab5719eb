// Package assign - Branch-and-Bound (exact search with an admissible upper bound).
//
// BranchAndBound assigns individuals one at a time, depth first, and proves
// optimality by exhausting the tree.
//
//  1. Prefetch: the program is recognized into a dense grid of pair weights
//     a_ij = S[i,j] + S[j,i]; the trace of S is a constant added at the end.
//  2. Incumbent: LocalSearch seeds the lower bound (LB) before the search.
//  3. Order: individuals are branched on by decreasing Σ_j |a_ij|, index tiebreak.
//  4. Symmetry: teams are interchangeable, so an individual may join any
//     non-empty team with room or only the lowest-index empty team. Non-empty
//     teams are always a prefix [0, used).
//  5. Upper bound (admissible, ≥ any completion):
//     UB = value + Σ_{i unassigned} ( max_{k with room} sum[i][k] + ½·top_{K−1}(i) )
//     where sum[i][k] is i's weight to the current members of k (0 for an
//     empty team) and top_{K−1}(i) is the sum of the K−1 largest positive
//     a_ij over unassigned j. Prune when UB ≤ LB + Eps.
//  6. Branching order within a node: candidate teams by decreasing gain,
//     index tiebreak, so improving leaves are reached early.
//  7. Soft time limit: deadline checks every 4096 nodes. On timeout the
//     incumbent is returned with StatusTimeLimit.
//
// Complexity: exponential in N in the worst case; per node O(R²·K) for the
// bound (R unassigned individuals) and O(N) for state updates.
package assign

import (
	"math"
	"sort"
	"time"
)

// BranchAndBound is the exact solver for small instances.
type BranchAndBound struct{}

// bbEngine holds all search data and policies.
type bbEngine struct {
	g   *grid
	eps float64

	// Time budget
	useDeadline bool
	deadline    time.Time
	steps       int
	timedOut    bool

	order []int // branching order of individuals

	// Current search state
	team  []int     // team[i], −1 while unassigned
	size  []int     // team sizes
	sums  []float64 // sums[i·T+k] = Σ_{j∈k} a_ij
	used  int       // non-empty teams form [0, used)
	cands [][]int   // per-depth candidate team buffer
	top   []float64 // scratch for the K−1 best partners

	// Incumbent (LB)
	best    []int
	bestVal float64
	nodes   int64
}

// deadlineCheck performs a rare deadline test (every 4096 node events).
func (e *bbEngine) deadlineCheck() bool {
	if e.timedOut {
		return true
	}
	e.steps++
	if !e.useDeadline || (e.steps&4095) != 0 {
		return false
	}
	e.timedOut = time.Now().After(e.deadline)

	return e.timedOut
}

// buildOrder sorts individuals by decreasing total absolute pair weight.
func (e *bbEngine) buildOrder() {
	var (
		n      = e.g.n
		weight = make([]float64, n)
		i, j   int
	)
	e.order = make([]int, n)
	for i = 0; i < n; i++ {
		e.order[i] = i
		for j = 0; j < n; j++ {
			weight[i] += math.Abs(e.g.a[i*n+j])
		}
	}
	sort.SliceStable(e.order, func(x, y int) bool {
		return weight[e.order[x]] > weight[e.order[y]]
	})
}

// place puts i into team k.
func (e *bbEngine) place(i, k int) {
	var (
		g = e.g
		m int
	)
	e.team[i] = k
	e.size[k]++
	for m = 0; m < g.n; m++ {
		e.sums[m*g.t+k] += g.a[m*g.n+i]
	}
}

// unplace undoes place(i, k).
func (e *bbEngine) unplace(i, k int) {
	var (
		g = e.g
		m int
	)
	for m = 0; m < g.n; m++ {
		e.sums[m*g.t+k] -= g.a[m*g.n+i]
	}
	e.size[k]--
	e.team[i] = -1
}

// upperBound implements the admissible bound described in the file header
// for the individuals order[depth:].
func (e *bbEngine) upperBound(depth int, value float64) float64 {
	var (
		g     = e.g
		ub    = value
		cross float64
		k     int
		has   bool
	)
	for _, i := range e.order[depth:] {
		// Best team with room against current members.
		has = false
		for k = 0; k < e.used; k++ {
			if e.size[k] < g.k && (!has || e.sums[i*g.t+k] > cross) {
				cross, has = e.sums[i*g.t+k], true
			}
		}
		if e.used < g.t && (!has || cross < 0) {
			cross, has = 0, true
		}
		ub += cross
		ub += 0.5 * e.topPartners(i, depth)
	}

	return ub
}

// topPartners sums the K−1 largest positive a_ij over unassigned j ≠ i.
func (e *bbEngine) topPartners(i, depth int) float64 {
	var (
		g    = e.g
		keep = g.k - 1
		top  = e.top[:0]
		x    float64
		p    int
	)
	if keep <= 0 {
		return 0
	}
	for _, j := range e.order[depth:] {
		if j == i {
			continue
		}
		if x = g.a[i*g.n+j]; x <= 0 {
			continue
		}
		// Insert into the descending top list, capped at keep entries.
		if len(top) < keep {
			top = append(top, x)
		} else if x <= top[keep-1] {
			continue
		} else {
			top[keep-1] = x
		}
		for p = len(top) - 1; p > 0 && top[p] > top[p-1]; p-- {
			top[p], top[p-1] = top[p-1], top[p]
		}
	}
	var s float64
	for _, x = range top {
		s += x
	}

	return s
}

// candidates fills the per-depth buffer with the teams i may join, best
// gain first.
func (e *bbEngine) candidates(i, depth int) []int {
	var (
		g = e.g
		c = e.cands[depth][:0]
		k int
	)
	for k = 0; k < e.used; k++ {
		if e.size[k] < g.k {
			c = append(c, k)
		}
	}
	if e.used < g.t {
		c = append(c, e.used)
	}
	sort.SliceStable(c, func(x, y int) bool {
		return e.sums[i*g.t+c[x]] > e.sums[i*g.t+c[y]]
	})
	e.cands[depth] = c

	return c
}

// dfs explores assignments of order[depth:] given the current pair value.
func (e *bbEngine) dfs(depth int, value float64) {
	if e.deadlineCheck() {
		return
	}
	e.nodes++

	if depth == e.g.n {
		if value > e.bestVal+e.eps {
			copy(e.best, e.team)
			e.bestVal = value
		}
		return
	}
	if e.upperBound(depth, value) <= e.bestVal+e.eps {
		return
	}

	i := e.order[depth]
	for _, k := range e.candidates(i, depth) {
		gain := e.sums[i*e.g.t+k]
		opened := k == e.used
		e.place(i, k)
		if opened {
			e.used++
		}
		e.dfs(depth+1, value+gain)
		if opened {
			e.used--
		}
		e.unplace(i, k)
		if e.timedOut {
			return
		}
	}
}

// Solve implements Solver. The incumbent is seeded with LocalSearch under
// the same options, so a feasible answer exists even when the budget runs
// out before the first leaf.
func (BranchAndBound) Solve(p *Program, opts Options) (Solution, error) {
	g, err := p.structure()
	if err != nil {
		return Solution{}, err
	}
	if opts, err = opts.normalized(); err != nil {
		return Solution{}, err
	}

	e := bbEngine{
		g:     g,
		eps:   opts.Eps,
		team:  make([]int, g.n),
		size:  make([]int, g.t),
		sums:  make([]float64, g.n*g.t),
		cands: make([][]int, g.n),
		top:   make([]float64, 0, g.k),
		best:  make([]int, g.n),
	}
	if e.deadline, e.useDeadline = opts.deadline(); e.useDeadline {
		// The seed shares the budget with the search.
		opts.TimeLimit = max(time.Until(e.deadline), time.Nanosecond)
	}
	for i := range e.team {
		e.team[i] = -1
		e.cands[i] = make([]int, 0, g.t)
	}
	e.buildOrder()

	seed, seedVal, _, _ := runLocalSearch(g, opts)
	copy(e.best, seed)
	e.bestVal = seedVal

	e.dfs(0, 0)

	x, err := p.Encode(Canonical(e.best))
	if err != nil {
		return Solution{}, err
	}
	status := StatusOptimal
	if e.timedOut {
		status = StatusTimeLimit
	}

	return Solution{X: x, Objective: g.trace + e.bestVal, Status: status, Nodes: e.nodes}, nil
}
