package sim

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/katalvlaran/teamform/assign"
	"github.com/katalvlaran/teamform/belief"
	"github.com/katalvlaran/teamform/policy"
)

// RunConfig is everything a Runner needs. Zero Workers means GOMAXPROCS;
// a nil Solver means assign.Auto; a nil NewLearner means belief.New with the
// Estimator options.
type RunConfig struct {
	Actors      []string
	Simulations int
	Periods     int
	Seed        int64
	Workers     int
	Metric      Metric

	Population Population
	Estimator  []belief.Option
	NewLearner func(n int) (belief.Learner, error)
	Solver     assign.Solver
	SolverOpts assign.Options
}

// SimulationResult holds the per-period series of one simulation.
type SimulationResult struct {
	ID              string    `yaml:"id"`
	Seed            int64     `yaml:"seed"`
	Rewards         []float64 `yaml:"rewards"`
	EstimatedReward []float64 `yaml:"estimated_rewards"`
	Distances       []float64 `yaml:"distances"`
	Uncertainty     []float64 `yaml:"uncertainty"`
	Seconds         []float64 `yaml:"seconds"`
	Substitutions   int       `yaml:"substitutions"`

	// FinalMeans is the learner's mean matrix after the last period.
	FinalMeans [][]float64 `yaml:"final_means"`
}

// Series is a per-period mean and population standard deviation across
// simulations.
type Series struct {
	Mean []float64 `yaml:"mean"`
	Std  []float64 `yaml:"std"`
}

// Summary aggregates every recorded series.
type Summary struct {
	Reward          Series `yaml:"reward"`
	EstimatedReward Series `yaml:"estimated_reward"`
	Distance        Series `yaml:"distance"`
	Uncertainty     Series `yaml:"uncertainty"`
	Seconds         Series `yaml:"seconds"`
}

// ActorResult is the outcome of all simulations of one actor.
type ActorResult struct {
	Actor       string             `yaml:"actor"`
	Metric      string             `yaml:"metric"`
	Elapsed     float64            `yaml:"elapsed_seconds"`
	Summary     Summary            `yaml:"summary"`
	Simulations []SimulationResult `yaml:"simulations"`
}

// Runner plays the configured actors against fresh environments.
type Runner struct {
	cfg RunConfig
	log *zap.Logger
}

// NewRunner validates cfg. A nil logger means zap.NewNop().
func NewRunner(cfg RunConfig, log *zap.Logger) (*Runner, error) {
	if log == nil {
		log = zap.NewNop()
	}
	switch {
	case cfg.Simulations <= 0:
		return nil, fmt.Errorf("simulations %d: %w", cfg.Simulations, ErrInvalidRun)
	case cfg.Periods <= 0:
		return nil, fmt.Errorf("periods %d: %w", cfg.Periods, ErrInvalidRun)
	case cfg.Workers < 0:
		return nil, fmt.Errorf("workers %d: %w", cfg.Workers, ErrInvalidRun)
	case cfg.Metric < L2 || cfg.Metric > Linf:
		return nil, fmt.Errorf("metric %d: %w", int(cfg.Metric), ErrUnknownMetric)
	}
	if err := cfg.Population.Validate(); err != nil {
		return nil, err
	}
	shape := cfg.shape()
	for _, name := range cfg.Actors {
		if _, err := policy.ParseActor(name, shape, nil, nil); err != nil {
			return nil, err
		}
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}

	return &Runner{cfg: cfg, log: log}, nil
}

func (c RunConfig) shape() policy.Shape {
	return policy.Shape{Teams: c.Population.Teams, Capacity: c.Population.Capacity}
}

// Run plays every configured actor in order.
func (r *Runner) Run(ctx context.Context) ([]*ActorResult, error) {
	out := make([]*ActorResult, 0, len(r.cfg.Actors))
	for _, name := range r.cfg.Actors {
		res, err := r.RunActor(ctx, name)
		if err != nil {
			return out, err
		}
		out = append(out, res)
	}

	return out, nil
}

// RunActor plays Simulations independent simulations of one actor, at most
// Workers at a time. Simulation s gets the same seed for every actor, so all
// actors face the same initial populations.
func (r *Runner) RunActor(ctx context.Context, name string) (*ActorResult, error) {
	var (
		start   = time.Now()
		seeds   = simulationSeeds(r.cfg.Seed, r.cfg.Simulations)
		results = make([]SimulationResult, r.cfg.Simulations)
		log     = r.log.With(zap.String("actor", name))
	)
	log.Info("actor started",
		zap.Int("simulations", r.cfg.Simulations),
		zap.Int("periods", r.cfg.Periods),
		zap.Int("workers", r.cfg.Workers))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(r.cfg.Workers)
	for s := range seeds {
		s := s // per-iteration copy (go1.21 loop semantics)
		eg.Go(func() error {
			res, err := r.simulate(ctx, name, seeds[s], log)
			if err != nil {
				return fmt.Errorf("%s simulation %d: %w", name, s, err)
			}
			results[s] = res
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		log.Error("actor failed", zap.Error(err))
		return nil, err
	}

	res := &ActorResult{
		Actor:       name,
		Metric:      r.cfg.Metric.String(),
		Elapsed:     time.Since(start).Seconds(),
		Simulations: results,
		Summary:     summarize(results),
	}
	last := r.cfg.Periods - 1
	log.Info("actor finished",
		zap.Float64("final_reward_mean", res.Summary.Reward.Mean[last]),
		zap.Float64("final_distance_mean", res.Summary.Distance.Mean[last]),
		zap.Float64("elapsed_seconds", res.Elapsed))

	return res, nil
}

// simulationSeeds draws one seed per simulation from a generator seeded
// with base.
func simulationSeeds(base int64, n int) []int64 {
	var (
		rng   = rand.New(rand.NewSource(base))
		seeds = make([]int64, n)
	)
	for i := range seeds {
		seeds[i] = rng.Int63()
	}

	return seeds
}

// simulate runs one act → step → learn loop for Periods periods.
func (r *Runner) simulate(ctx context.Context, name string, seed int64, log *zap.Logger) (SimulationResult, error) {
	var (
		rng       = rand.New(rand.NewSource(seed))
		envRNG    = rand.New(rand.NewSource(rng.Int63()))
		actorRNG  = rand.New(rand.NewSource(rng.Int63()))
		solverOpt = r.solverOptions(rng.Int63())
		periods   = r.cfg.Periods
	)

	env, err := NewEnvironment(r.cfg.Population, envRNG)
	if err != nil {
		return SimulationResult{}, err
	}
	learner, err := r.newLearner()
	if err != nil {
		return SimulationResult{}, err
	}
	opt := assign.NewOptimizer(r.cfg.Solver, solverOpt, log.Named("assign"))
	actor, err := policy.ParseActor(name, r.cfg.shape(), opt, actorRNG)
	if err != nil {
		return SimulationResult{}, err
	}

	res := SimulationResult{
		ID:              uuid.NewString(),
		Seed:            seed,
		Rewards:         make([]float64, periods),
		EstimatedReward: make([]float64, periods),
		Distances:       make([]float64, periods),
		Uncertainty:     make([]float64, periods),
		Seconds:         make([]float64, periods),
	}
	for t := 0; t < periods; t++ {
		if err = ctx.Err(); err != nil {
			return SimulationResult{}, err
		}
		began := time.Now()

		part, err := actor.Act(learner)
		if err != nil {
			return SimulationResult{}, err
		}
		step, err := env.Step(part)
		if err != nil {
			return SimulationResult{}, err
		}
		if err = learner.Update(step.Feedback); err != nil {
			return SimulationResult{}, err
		}
		if err = forget(learner, step.Substituted); err != nil {
			return SimulationResult{}, err
		}
		res.Substitutions += len(step.Substituted)

		means := learner.Means()
		if res.EstimatedReward[t], err = EstimatedReward(means, part); err != nil {
			return SimulationResult{}, err
		}
		if res.Distances[t], err = Distance(env.TruePreferences(), means, r.cfg.Metric); err != nil {
			return SimulationResult{}, err
		}
		if res.Uncertainty[t], err = Uncertainty(learner.Variances()); err != nil {
			return SimulationResult{}, err
		}
		res.Rewards[t] = step.Reward
		res.Seconds[t] = time.Since(began).Seconds()
	}
	res.FinalMeans = learner.Means().ToRows()
	log.Debug("simulation finished",
		zap.String("run_id", res.ID),
		zap.Int64("seed", seed),
		zap.Int("substitutions", res.Substitutions))

	return res, nil
}

// solverOptions derives one simulation's solver options. Parallel
// simulations already occupy the workers, so restarts then run inline.
func (r *Runner) solverOptions(seed int64) assign.Options {
	opts := r.cfg.SolverOpts
	opts.Seed ^= seed
	if r.cfg.Workers > 1 {
		opts.Workers = 1
	}

	return opts
}

func (r *Runner) newLearner() (belief.Learner, error) {
	if r.cfg.NewLearner != nil {
		return r.cfg.NewLearner(r.cfg.Population.Individuals)
	}

	return belief.New(r.cfg.Population.Individuals, r.cfg.Estimator...)
}

// forget drops what the learner knows about substituted individuals: row
// and column resets when it supports them, a full Reset otherwise.
func forget(l belief.Learner, substituted []int) error {
	if len(substituted) == 0 {
		return nil
	}
	ir, ok := l.(belief.IndividualResetter)
	if !ok {
		l.Reset()
		return nil
	}
	for _, i := range substituted {
		if err := ir.ResetIndividual(i); err != nil {
			return err
		}
	}

	return nil
}
