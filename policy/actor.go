package policy

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"github.com/katalvlaran/teamform/assign"
)

// Shape is the team structure every action must respect.
type Shape struct {
	Teams    int
	Capacity int
}

// Actor chooses a partition for the next period.
type Actor interface {
	Name() string
	Act(b Beliefs) ([]int, error)
}

// ScoreActor scores the beliefs and solves the assignment problem on the result.
type ScoreActor struct {
	name   string
	scorer Scorer
	opt    *assign.Optimizer
	shape  Shape
}

// NewScoreActor wires a scorer to an optimizer.
func NewScoreActor(name string, scorer Scorer, opt *assign.Optimizer, shape Shape) *ScoreActor {
	return &ScoreActor{name: name, scorer: scorer, opt: opt, shape: shape}
}

// Name implements Actor.
func (a *ScoreActor) Name() string { return a.name }

// Act implements Actor.
func (a *ScoreActor) Act(b Beliefs) ([]int, error) {
	scores, err := a.scorer.Score(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.name, err)
	}
	part, err := a.opt.Assign(scores, a.shape.Teams, a.shape.Capacity)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.name, err)
	}

	return part, nil
}

// RandomActor is the no-learning baseline.
type RandomActor struct {
	name  string
	shape Shape
	rng   *rand.Rand
}

// NewRandomActor returns a RandomActor drawing from rng (nil ⇒ seed 1).
func NewRandomActor(name string, shape Shape, rng *rand.Rand) *RandomActor {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	return &RandomActor{name: name, shape: shape, rng: rng}
}

// Name implements Actor.
func (a *RandomActor) Name() string { return a.name }

// Act implements Actor. Only the size of the beliefs is used.
func (a *RandomActor) Act(b Beliefs) ([]int, error) {
	m, _, err := snapshot(b)
	if err != nil {
		return nil, err
	}

	return assign.RandomAssignment(m.Rows(), a.shape.Teams, a.shape.Capacity, a.rng)
}

// ParseActor builds an actor from its experiment name (case-insensitive):
//
//	greedy       Greedy scores
//	ucb_<β>      UCB with the given β, e.g. "UCB_0.1"
//	thompson     Thompson sampling
//	random       RandomActor
//
// rng feeds Thompson and Random; opt solves for the scoring actors.
func ParseActor(name string, shape Shape, opt *assign.Optimizer, rng *rand.Rand) (Actor, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch {
	case key == "greedy":
		return NewScoreActor(name, Greedy{}, opt, shape), nil
	case key == "thompson":
		return NewScoreActor(name, NewThompson(rng), opt, shape), nil
	case key == "random":
		return NewRandomActor(name, shape, rng), nil
	case strings.HasPrefix(key, "ucb_"):
		beta, err := strconv.ParseFloat(strings.TrimPrefix(key, "ucb_"), 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", name, ErrUnknownActor)
		}
		ucb, err := NewUCB(beta)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", name, err)
		}
		return NewScoreActor(name, ucb, opt, shape), nil
	default:
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownActor)
	}
}
