package config

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/katalvlaran/teamform/assign"
	"github.com/katalvlaran/teamform/belief"
	"github.com/katalvlaran/teamform/policy"
	"github.com/katalvlaran/teamform/sim"
)

// ValidationError is a single invalid setting.
type ValidationError struct {
	Field   string // dotted key, e.g. "population.max_team_size"
	Value   any
	Message string
}

// Error implements error.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every failure Validate found.
type ValidationErrors []ValidationError

// Error implements error.
func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return ""
	case 1:
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}

	return sb.String()
}

// ValidLogLevels lists the accepted logging.level values.
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Validate returns every invalid setting, in section order.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, c.validateExperiment()...)
	errs = append(errs, c.validatePopulation()...)
	errs = append(errs, c.validateEstimator()...)
	errs = append(errs, c.validateSolver()...)
	if !slices.Contains(ValidLogLevels(), strings.ToLower(c.Logging.Level)) {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of %v", ValidLogLevels()),
		})
	}

	return errs
}

func (c *Config) validateExperiment() []ValidationError {
	var (
		e    = c.Experiment
		errs []ValidationError
	)
	if e.Simulations < 1 {
		errs = append(errs, ValidationError{"experiment.simulations", e.Simulations, "must be at least 1"})
	}
	if e.Periods < 1 {
		errs = append(errs, ValidationError{"experiment.periods", e.Periods, "must be at least 1"})
	}
	if e.Workers < 0 {
		errs = append(errs, ValidationError{"experiment.workers", e.Workers, "must be non-negative"})
	}
	if len(e.Actors) == 0 {
		errs = append(errs, ValidationError{"experiment.actors", e.Actors, "must list at least one actor"})
	}
	shape := policy.Shape{Teams: max(c.Population.Teams, 1), Capacity: max(c.Population.MaxTeamSize, 1)}
	for _, name := range e.Actors {
		if _, err := policy.ParseActor(name, shape, nil, nil); err != nil {
			errs = append(errs, ValidationError{"experiment.actors", name, err.Error()})
		}
	}
	if _, err := sim.ParseMetric(e.Metric); err != nil {
		errs = append(errs, ValidationError{"experiment.metric", e.Metric, "must be l1, l2 or linf"})
	}
	if strings.TrimSpace(e.OutDir) == "" {
		errs = append(errs, ValidationError{"experiment.out_dir", e.OutDir, "must not be empty"})
	}

	return errs
}

func (c *Config) validatePopulation() []ValidationError {
	var (
		p    = c.Population
		errs []ValidationError
	)
	if p.Individuals < 1 {
		errs = append(errs, ValidationError{"population.individuals", p.Individuals, "must be at least 1"})
	}
	if p.Teams < 1 {
		errs = append(errs, ValidationError{"population.teams", p.Teams, "must be at least 1"})
	}
	if p.MaxTeamSize < 1 {
		errs = append(errs, ValidationError{"population.max_team_size", p.MaxTeamSize, "must be at least 1"})
	}
	if p.Teams >= 1 && p.MaxTeamSize >= 1 && p.Teams*p.MaxTeamSize < p.Individuals {
		errs = append(errs, ValidationError{
			Field:   "population.max_team_size",
			Value:   p.MaxTeamSize,
			Message: fmt.Sprintf("teams × max_team_size must cover %d individuals", p.Individuals),
		})
	}
	for field, v := range map[string]float64{
		"population.sigma_w": p.SigmaW,
		"population.sigma_f": p.SigmaF,
		"population.sigma_p": p.SigmaP,
	} {
		if !finiteNonNegative(v) {
			errs = append(errs, ValidationError{field, v, "must be finite and non-negative"})
		}
	}
	if !(p.RandomSubstitution >= 0 && p.RandomSubstitution <= 1) {
		errs = append(errs, ValidationError{"population.random_substitution", p.RandomSubstitution, "must be in [0, 1]"})
	}
	slices.SortStableFunc(errs, func(a, b ValidationError) int { return strings.Compare(a.Field, b.Field) })

	return errs
}

func (c *Config) validateEstimator() []ValidationError {
	var (
		e    = c.Estimator
		errs []ValidationError
	)
	if !finiteNonNegative(e.InitialSigmaW) {
		errs = append(errs, ValidationError{"estimator.initial_sigma_w", e.InitialSigmaW, "must be finite and non-negative"})
	}
	if !(e.InitialSigmaF > 0) || math.IsInf(e.InitialSigmaF, 0) {
		errs = append(errs, ValidationError{"estimator.initial_sigma_f", e.InitialSigmaF, "must be finite and positive"})
	}
	if _, ok := belief.ParseNoiseModel(e.NoiseModel); !ok {
		errs = append(errs, ValidationError{"estimator.noise_model", e.NoiseModel, "must be residual or difference"})
	}
	if !(e.MinObservationVariance > 0) || math.IsInf(e.MinObservationVariance, 0) {
		errs = append(errs, ValidationError{"estimator.min_observation_variance", e.MinObservationVariance, "must be finite and positive"})
	}
	if e.Workers < 0 {
		errs = append(errs, ValidationError{"estimator.workers", e.Workers, "must be non-negative"})
	}

	return errs
}

func (c *Config) validateSolver() []ValidationError {
	var (
		s    = c.Solver
		errs []ValidationError
	)
	if _, err := assign.ParseSolver(s.Algorithm); err != nil {
		errs = append(errs, ValidationError{"solver.algorithm", s.Algorithm, "must be auto, branch_and_bound or local_search"})
	}
	if s.TimeLimit < 0 {
		errs = append(errs, ValidationError{"solver.time_limit", s.TimeLimit, "must be non-negative"})
	}
	if s.Restarts < 0 {
		errs = append(errs, ValidationError{"solver.restarts", s.Restarts, "must be non-negative"})
	}
	if s.MaxIters < 0 {
		errs = append(errs, ValidationError{"solver.max_iters", s.MaxIters, "must be non-negative"})
	}

	return errs
}

func finiteNonNegative(x float64) bool { return x >= 0 && !math.IsInf(x, 0) }
