package sim

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/katalvlaran/teamform/assign"
	"github.com/katalvlaran/teamform/belief"
	"github.com/katalvlaran/teamform/matrix"
)

// Population describes the simulated individuals and their dynamics.
type Population struct {
	Individuals  int     `yaml:"individuals"`
	Teams        int     `yaml:"teams"`
	Capacity     int     `yaml:"max_team_size"`
	SigmaW       float64 `yaml:"sigma_w"`
	SigmaF       float64 `yaml:"sigma_f"`
	SigmaP       float64 `yaml:"sigma_p"`
	Substitution float64 `yaml:"random_substitution"`
}

// Validate checks the population parameters.
func (p Population) Validate() error {
	switch {
	case p.Individuals <= 0:
		return fmt.Errorf("individuals %d: %w", p.Individuals, ErrInvalidPopulation)
	case p.Teams <= 0 || p.Capacity <= 0:
		return fmt.Errorf("teams %d, max team size %d: %w", p.Teams, p.Capacity, ErrInvalidPopulation)
	case p.Teams*p.Capacity < p.Individuals:
		return fmt.Errorf("%d teams × %d < %d individuals: %w", p.Teams, p.Capacity, p.Individuals, ErrInvalidPopulation)
	case !nonNegative(p.SigmaW) || !nonNegative(p.SigmaF) || !nonNegative(p.SigmaP):
		return fmt.Errorf("sigmas must be finite and >= 0: %w", ErrInvalidPopulation)
	case !(p.Substitution >= 0 && p.Substitution <= 1):
		return fmt.Errorf("substitution %v not in [0,1]: %w", p.Substitution, ErrInvalidPopulation)
	}

	return nil
}

func nonNegative(x float64) bool { return x >= 0 && !math.IsInf(x, 0) }

// StepResult is what the environment reveals after one period.
type StepResult struct {
	// Feedback holds truth + noise on interacting pairs and NaN elsewhere.
	Feedback *matrix.Dense
	// Reward is the realized total preference of the chosen teams.
	Reward float64
	// Substituted lists individuals replaced at the end of the period.
	Substituted []int
}

// Environment is the hidden ground truth. Not safe for concurrent use.
type Environment struct {
	pop   Population
	rng   *rand.Rand
	truth *matrix.Dense
}

// NewEnvironment draws the initial preferences from rng (nil ⇒ seed 1).
func NewEnvironment(pop Population, rng *rand.Rand) (*Environment, error) {
	if err := pop.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	truth, err := matrix.NewDense(pop.Individuals, pop.Individuals)
	if err != nil {
		return nil, err
	}
	env := &Environment{pop: pop, rng: rng, truth: truth}
	env.Reset()

	return env, nil
}

// Population returns the parameters the environment was built with.
func (e *Environment) Population() Population { return e.pop }

// Reset redraws every preference from N(0, σp²), diagonal 0.
func (e *Environment) Reset() {
	n := e.pop.Individuals
	for i := 0; i < n; i++ {
		row := e.truth.RawRow(i)
		for j := range row {
			if i == j {
				row[j] = 0
				continue
			}
			row[j] = e.rng.NormFloat64() * e.pop.SigmaP
		}
	}
}

// TruePreferences returns a copy of the hidden preference matrix.
func (e *Environment) TruePreferences() *matrix.Dense { return e.truth.Copy() }

// Step plays one period with the given partition.
//
// Errors: ErrInvalidAction.
func (e *Environment) Step(partition []int) (StepResult, error) {
	n := e.pop.Individuals
	if err := assign.ValidatePartition(partition, n, e.pop.Teams, e.pop.Capacity); err != nil {
		return StepResult{}, fmt.Errorf("%w: %w", ErrInvalidAction, err)
	}
	fb, err := belief.NewFeedback(n)
	if err != nil {
		return StepResult{}, err
	}

	var (
		res  = StepResult{Feedback: fb}
		i, j int
	)
	for i = 0; i < n; i++ {
		truth := e.truth.RawRow(i)
		out := fb.RawRow(i)
		for j = 0; j < n; j++ {
			if i == j || partition[i] != partition[j] {
				continue
			}
			out[j] = truth[j] + e.rng.NormFloat64()*e.pop.SigmaF
			res.Reward += truth[j]
		}
	}
	res.Reward /= 2

	e.drift()
	res.Substituted = e.substitute()

	return res, nil
}

// drift adds N(0, σw²) to every off-diagonal preference.
func (e *Environment) drift() {
	n := e.pop.Individuals
	for i := 0; i < n; i++ {
		row := e.truth.RawRow(i)
		for j := range row {
			if i != j {
				row[j] += e.rng.NormFloat64() * e.pop.SigmaW
			}
		}
	}
}

// substitute replaces each individual with probability Substitution.
func (e *Environment) substitute() []int {
	if e.pop.Substitution <= 0 {
		return nil
	}
	var out []int
	for i := 0; i < e.pop.Individuals; i++ {
		if e.rng.Float64() < e.pop.Substitution {
			e.redraw(i)
			out = append(out, i)
		}
	}

	return out
}

// redraw gives individual i fresh preferences in both directions.
func (e *Environment) redraw(i int) {
	n := e.pop.Individuals
	row := e.truth.RawRow(i)
	for j := 0; j < n; j++ {
		if j == i {
			continue
		}
		row[j] = e.rng.NormFloat64() * e.pop.SigmaP
		e.truth.RawRow(j)[i] = e.rng.NormFloat64() * e.pop.SigmaP
	}
}
