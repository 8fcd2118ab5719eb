package policy

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/katalvlaran/teamform/matrix"
)

// Beliefs is the read-only view of an estimator the policies need.
// Implementations return copies.
type Beliefs interface {
	Means() *matrix.Dense
	Variances() *matrix.Dense
}

// Scorer derives a score matrix from beliefs.
type Scorer interface {
	Score(b Beliefs) (*matrix.Dense, error)
}

// Greedy scores by the means alone (pure exploitation).
type Greedy struct{}

// Score implements Scorer.
func (Greedy) Score(b Beliefs) (*matrix.Dense, error) {
	m, _, err := snapshot(b)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// UCB adds an exploration bonus proportional to the variance.
type UCB struct {
	Beta float64
}

// NewUCB validates β.
func NewUCB(beta float64) (UCB, error) {
	if beta < 0 || math.IsNaN(beta) || math.IsInf(beta, 0) {
		return UCB{}, fmt.Errorf("beta %v: %w", beta, ErrInvalidBeta)
	}

	return UCB{Beta: beta}, nil
}

// Score implements Scorer: S = (M + β·V) / 2.
func (u UCB) Score(b Beliefs) (*matrix.Dense, error) {
	if _, err := NewUCB(u.Beta); err != nil {
		return nil, err
	}
	m, v, err := snapshot(b)
	if err != nil {
		return nil, err
	}
	bonus, err := matrix.Scale(v, u.Beta)
	if err != nil {
		return nil, err
	}
	sum, err := matrix.Add(m, bonus)
	if err != nil {
		return nil, err
	}

	return matrix.Scale(sum, 0.5)
}

// Thompson perturbs the means by variance-scaled standard normal draws.
// The RNG is owned by the scorer; a Thompson must not be shared across
// goroutines.
type Thompson struct {
	rng *rand.Rand
}

// NewThompson returns a Thompson scorer drawing from rng (nil ⇒ seed 1).
func NewThompson(rng *rand.Rand) *Thompson {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	return &Thompson{rng: rng}
}

// Score implements Scorer: S = (M + V∘Z) / 2. Draws are taken row-major,
// diagonal included, so a given seed always produces the same Z.
func (t *Thompson) Score(b Beliefs) (*matrix.Dense, error) {
	m, v, err := snapshot(b)
	if err != nil {
		return nil, err
	}
	noisy, err := matrix.Apply(v, func(_, _ int, x float64) float64 {
		return x * t.rng.NormFloat64()
	})
	if err != nil {
		return nil, err
	}
	sum, err := matrix.Add(m, noisy)
	if err != nil {
		return nil, err
	}

	return matrix.Scale(sum, 0.5)
}

// snapshot fetches M and V once and checks they agree.
func snapshot(b Beliefs) (*matrix.Dense, *matrix.Dense, error) {
	if b == nil {
		return nil, nil, fmt.Errorf("nil beliefs: %w", ErrBeliefShape)
	}
	m, v := b.Means(), b.Variances()
	if err := matrix.ValidateBinarySameShape(m, v); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrBeliefShape, err)
	}

	return m, v, nil
}
