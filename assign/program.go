package assign

import (
	"fmt"
	"math"

	"github.com/katalvlaran/teamform/matrix"
)

// Relation is the comparison of a linear constraint against its right-hand side.
type Relation int

const (
	// Equal is Σ x_v = RHS.
	Equal Relation = iota
	// LessEqual is Σ x_v ≤ RHS.
	LessEqual
)

// String implements fmt.Stringer.
func (r Relation) String() string {
	switch r {
	case Equal:
		return "="
	case LessEqual:
		return "<="
	default:
		return "?"
	}
}

// Var is the binary decision variable x[Individual, Team].
type Var struct {
	Individual int
	Team       int
}

// Constraint is Σ_{v ∈ Vars} x_v (Relation) RHS with unit coefficients.
type Constraint struct {
	Name     string
	Vars     []int
	Relation Relation
	RHS      float64
}

// Term is the quadratic objective term Coef·x_A·x_B.
type Term struct {
	A, B int
	Coef float64
}

// Program is a binary quadratic program with linear constraints, to be
// maximized. Variable v is Vars[v]; Formulate lays them out row-major,
// v = i·Teams + k.
type Program struct {
	Individuals int
	Teams       int
	Capacity    int

	Vars        []Var
	Constraints []Constraint
	Objective   []Term
}

// Formulate builds the team-formation program for scores S (N×N), T teams
// and capacity K:
//   - one equality constraint "assign[i]" per individual (Σ_k x[i,k] = 1);
//   - one inequality "capacity[k]" per team (Σ_i x[i,k] ≤ K);
//   - one term S[i,j]·x[i,k]·x[j,k] per ordered pair and team, zero scores
//     omitted.
//
// Errors: ErrInvalidScores, ErrInvalidTeams, ErrCapacity.
//
// Complexity: O(N²·T) time and space.
func Formulate(scores matrix.Matrix, teams, capacity int) (*Program, error) {
	n, w, err := prefetchScores(scores)
	if err != nil {
		return nil, err
	}
	if err = checkCapacity(n, teams, capacity); err != nil {
		return nil, err
	}

	p := &Program{
		Individuals: n,
		Teams:       teams,
		Capacity:    capacity,
		Vars:        make([]Var, 0, n*teams),
		Constraints: make([]Constraint, 0, n+teams),
	}
	var i, j, k int
	for i = 0; i < n; i++ {
		for k = 0; k < teams; k++ {
			p.Vars = append(p.Vars, Var{Individual: i, Team: k})
		}
	}
	for i = 0; i < n; i++ {
		c := Constraint{Name: fmt.Sprintf("assign[%d]", i), Relation: Equal, RHS: 1, Vars: make([]int, teams)}
		for k = 0; k < teams; k++ {
			c.Vars[k] = i*teams + k
		}
		p.Constraints = append(p.Constraints, c)
	}
	for k = 0; k < teams; k++ {
		c := Constraint{Name: fmt.Sprintf("capacity[%d]", k), Relation: LessEqual, RHS: float64(capacity), Vars: make([]int, n)}
		for i = 0; i < n; i++ {
			c.Vars[i] = i*teams + k
		}
		p.Constraints = append(p.Constraints, c)
	}
	for k = 0; k < teams; k++ {
		for i = 0; i < n; i++ {
			for j = 0; j < n; j++ {
				if s := w[i*n+j]; s != 0 {
					p.Objective = append(p.Objective, Term{A: i*teams + k, B: j*teams + k, Coef: s})
				}
			}
		}
	}

	return p, nil
}

// Evaluate returns the objective value of the binary vector x.
// Errors: ErrInvalidSolution.
func (p *Program) Evaluate(x []int) (float64, error) {
	if err := p.checkBinary(x); err != nil {
		return 0, err
	}
	var total float64
	for _, t := range p.Objective {
		if x[t.A] == 1 && x[t.B] == 1 {
			total += t.Coef
		}
	}

	return total, nil
}

// Feasible reports whether x is binary, of the right length, and satisfies
// every constraint.
func (p *Program) Feasible(x []int) bool {
	if p.checkBinary(x) != nil {
		return false
	}
	for _, c := range p.Constraints {
		var sum float64
		for _, v := range c.Vars {
			if v < 0 || v >= len(x) {
				return false
			}
			sum += float64(x[v])
		}
		switch c.Relation {
		case Equal:
			if sum != c.RHS {
				return false
			}
		case LessEqual:
			if sum > c.RHS {
				return false
			}
		default:
			return false
		}
	}

	return true
}

// Encode maps a partition (team label per individual) to the binary vector.
// Errors: ErrInvalidPartition.
func (p *Program) Encode(partition []int) ([]int, error) {
	if len(partition) != p.Individuals {
		return nil, fmt.Errorf("Encode: length %d, want %d: %w", len(partition), p.Individuals, ErrInvalidPartition)
	}
	x := make([]int, len(p.Vars))
	for i, k := range partition {
		if k < 0 || k >= p.Teams {
			return nil, fmt.Errorf("Encode: individual %d in team %d: %w", i, k, ErrInvalidPartition)
		}
		x[i*p.Teams+k] = 1
	}

	return x, nil
}

// Decode maps a one-hot binary vector back to team labels.
// Errors: ErrInvalidSolution (wrong length, non-binary, or not exactly one
// team per individual).
func (p *Program) Decode(x []int) ([]int, error) {
	if err := p.checkBinary(x); err != nil {
		return nil, err
	}
	if len(x) != p.Individuals*p.Teams {
		return nil, fmt.Errorf("Decode: %w", ErrUnsupportedProgram)
	}
	out := make([]int, p.Individuals)
	for i := range out {
		out[i] = -1
		for k := 0; k < p.Teams; k++ {
			if x[i*p.Teams+k] == 0 {
				continue
			}
			if out[i] >= 0 {
				return nil, fmt.Errorf("Decode: individual %d in two teams: %w", i, ErrInvalidSolution)
			}
			out[i] = k
		}
		if out[i] < 0 {
			return nil, fmt.Errorf("Decode: individual %d unassigned: %w", i, ErrInvalidSolution)
		}
	}

	return out, nil
}

func (p *Program) checkBinary(x []int) error {
	if len(x) != len(p.Vars) {
		return fmt.Errorf("solution length %d, want %d: %w", len(x), len(p.Vars), ErrInvalidSolution)
	}
	for v, b := range x {
		if b != 0 && b != 1 {
			return fmt.Errorf("x[%d] = %d: %w", v, b, ErrInvalidSolution)
		}
	}

	return nil
}

// grid is the dense view a solver works on: N individuals, T teams,
// capacity K, and the pair weights a[i·N+j] = S[i,j] + S[j,i] (a[i·N+i] = 0).
// The trace of S is a constant of every feasible solution.
type grid struct {
	n, t, k int
	a       []float64
	trace   float64
}

func newGrid(n, t, k int, w []float64) *grid {
	g := &grid{n: n, t: t, k: k, a: make([]float64, n*n)}
	var i, j int
	for i = 0; i < n; i++ {
		g.trace += w[i*n+i]
		for j = 0; j < n; j++ {
			if i != j {
				g.a[i*n+j] = w[i*n+j] + w[j*n+i]
			}
		}
	}

	return g
}

// value is the pair part of the objective for a complete partition.
func (g *grid) value(part []int) float64 {
	var (
		v    float64
		i, j int
	)
	for i = 0; i < g.n; i++ {
		for j = i + 1; j < g.n; j++ {
			if part[i] == part[j] {
				v += g.a[i*g.n+j]
			}
		}
	}

	return v
}

// structure recognizes a team-formation program and returns its dense view.
// The layout must be the one Formulate produces: variables row-major, one
// assign[i] equality with RHS 1 per individual, one capacity[k] inequality
// with RHS Capacity per team, and identical within-team terms for every team.
//
// Errors: ErrUnsupportedProgram.
func (p *Program) structure() (*grid, error) {
	if p == nil {
		return nil, fmt.Errorf("nil program: %w", ErrUnsupportedProgram)
	}
	n, t, k := p.Individuals, p.Teams, p.Capacity
	if n <= 0 || t <= 0 || k <= 0 || len(p.Vars) != n*t {
		return nil, fmt.Errorf("dimensions %d×%d/%d: %w", n, t, k, ErrUnsupportedProgram)
	}
	if t*k < n {
		return nil, fmt.Errorf("structure: %w", ErrCapacity)
	}
	for v, x := range p.Vars {
		if x.Individual != v/t || x.Team != v%t {
			return nil, fmt.Errorf("variable %d is x[%d,%d]: %w", v, x.Individual, x.Team, ErrUnsupportedProgram)
		}
	}
	if err := p.checkConstraints(); err != nil {
		return nil, err
	}

	// Within-team weights, one N×N block per team; all blocks must agree.
	blocks := make([]float64, t*n*n)
	for _, term := range p.Objective {
		if term.A < 0 || term.B < 0 || term.A >= len(p.Vars) || term.B >= len(p.Vars) {
			return nil, fmt.Errorf("term (%d,%d): %w", term.A, term.B, ErrUnsupportedProgram)
		}
		if math.IsNaN(term.Coef) || math.IsInf(term.Coef, 0) {
			return nil, fmt.Errorf("term (%d,%d): %w", term.A, term.B, ErrInvalidScores)
		}
		a, b := p.Vars[term.A], p.Vars[term.B]
		if a.Team != b.Team {
			return nil, fmt.Errorf("term couples teams %d and %d: %w", a.Team, b.Team, ErrUnsupportedProgram)
		}
		blocks[a.Team*n*n+a.Individual*n+b.Individual] += term.Coef
	}
	w := blocks[:n*n]
	for team := 1; team < t; team++ {
		other := blocks[team*n*n : (team+1)*n*n]
		for c := range w {
			if w[c] != other[c] {
				return nil, fmt.Errorf("team %d weights differ from team 0: %w", team, ErrUnsupportedProgram)
			}
		}
	}

	return newGrid(n, t, k, w), nil
}

func (p *Program) checkConstraints() error {
	var (
		n, t     = p.Individuals, p.Teams
		rowSeen  = make([]bool, n)
		teamSeen = make([]bool, t)
	)
	if len(p.Constraints) != n+t {
		return fmt.Errorf("%d constraints, want %d: %w", len(p.Constraints), n+t, ErrUnsupportedProgram)
	}
	for _, c := range p.Constraints {
		switch {
		case c.Relation == Equal && c.RHS == 1 && len(c.Vars) == t && len(c.Vars) > 0:
			i := c.Vars[0] / t
			if c.Vars[0] < 0 || i >= n {
				return fmt.Errorf("constraint %q: %w", c.Name, ErrUnsupportedProgram)
			}
			for k, v := range c.Vars {
				if v != i*t+k {
					return fmt.Errorf("constraint %q is not one-hot: %w", c.Name, ErrUnsupportedProgram)
				}
			}
			if rowSeen[i] {
				return fmt.Errorf("constraint %q repeats individual %d: %w", c.Name, i, ErrUnsupportedProgram)
			}
			rowSeen[i] = true
		case c.Relation == LessEqual && c.RHS == float64(p.Capacity) && len(c.Vars) == n && len(c.Vars) > 0:
			k := c.Vars[0]
			if k < 0 || k >= t {
				return fmt.Errorf("constraint %q: %w", c.Name, ErrUnsupportedProgram)
			}
			for i, v := range c.Vars {
				if v != i*t+k {
					return fmt.Errorf("constraint %q is not a team capacity: %w", c.Name, ErrUnsupportedProgram)
				}
			}
			if teamSeen[k] {
				return fmt.Errorf("constraint %q repeats team %d: %w", c.Name, k, ErrUnsupportedProgram)
			}
			teamSeen[k] = true
		default:
			return fmt.Errorf("constraint %q: %w", c.Name, ErrUnsupportedProgram)
		}
	}

	return nil
}
