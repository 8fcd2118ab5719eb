package config_test

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/katalvlaran/teamform/assign"
	"github.com/katalvlaran/teamform/config"
	"github.com/katalvlaran/teamform/sim"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "teamform.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	require.Empty(t, cfg.Validate())
	require.Equal(t, 10, cfg.Population.Individuals)
	require.Equal(t, 4, cfg.Population.Teams)
	require.Equal(t, 3, cfg.Population.MaxTeamSize)
	require.Equal(t, 100, cfg.Experiment.Periods)
	require.Equal(t, []string{"UCB_0", "UCB_0.1", "UCB_0.5", "Random", "Thompson"}, cfg.Experiment.Actors)
}

// TestLoadDefaults: without a file or env the loaded config is Default().
func TestLoadDefaults(t *testing.T) {
	v, err := config.New("")
	require.NoError(t, err)
	cfg, err := config.Load(v)
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeFile(t, `
experiment:
  simulations: 2
  actors: [greedy, ucb_1]
  metric: linf
population:
  individuals: 6
  teams: 2
  max_team_size: 3
estimator:
  noise_model: difference
solver:
  algorithm: local_search
  time_limit: 250ms
  restarts: 3
`)
	v, err := config.New(path)
	require.NoError(t, err)
	cfg, err := config.Load(v)
	require.NoError(t, err)

	require.Equal(t, 2, cfg.Experiment.Simulations)
	require.Equal(t, []string{"greedy", "ucb_1"}, cfg.Experiment.Actors)
	require.Equal(t, 6, cfg.Population.Individuals)
	require.Equal(t, 250*time.Millisecond, cfg.Solver.TimeLimit)
	require.Equal(t, "difference", cfg.Estimator.NoiseModel)
	// untouched keys keep their defaults
	require.Equal(t, 100, cfg.Experiment.Periods)
	require.InDelta(t, 0.1, cfg.Population.SigmaW, 1e-12)

	run, err := cfg.RunConfig(nil)
	require.NoError(t, err)
	require.Equal(t, sim.Linf, run.Metric)
	require.Equal(t, assign.LocalSearch{}, run.Solver)
	require.Equal(t, 3, run.SolverOpts.Restarts)
	require.Equal(t, 3, run.Population.Capacity)
	_, err = sim.NewRunner(run, nil)
	require.NoError(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("TEAMFORM_POPULATION_INDIVIDUALS", "12")
	t.Setenv("TEAMFORM_EXPERIMENT_ACTORS", "greedy,random")
	t.Setenv("TEAMFORM_LOGGING_LEVEL", "debug")

	v, err := config.New("")
	require.NoError(t, err)
	cfg, err := config.Load(v)
	require.NoError(t, err)
	require.Equal(t, 12, cfg.Population.Individuals)
	require.Equal(t, []string{"greedy", "random"}, cfg.Experiment.Actors)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestMissingFile(t *testing.T) {
	_, err := config.New(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

// TestLoadRejectsInvalid: Load reports every problem at once.
func TestLoadRejectsInvalid(t *testing.T) {
	path := writeFile(t, `
population:
  individuals: 20
  sigma_f: -1
solver:
  algorithm: simplex
logging:
  level: loud
`)
	v, err := config.New(path)
	require.NoError(t, err)
	_, err = config.Load(v)

	var verrs config.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	fields := make([]string, 0, len(verrs))
	for _, e := range verrs {
		fields = append(fields, e.Field)
	}
	require.Equal(t, []string{
		"population.max_team_size",
		"population.sigma_f",
		"solver.algorithm",
		"logging.level",
	}, fields)
	require.True(t, strings.HasPrefix(err.Error(), "4 validation errors:"))
}

func TestValidate(t *testing.T) {
	cases := map[string]struct {
		mutate func(c *config.Config)
		field  string
	}{
		"simulations":   {func(c *config.Config) { c.Experiment.Simulations = 0 }, "experiment.simulations"},
		"periods":       {func(c *config.Config) { c.Experiment.Periods = 0 }, "experiment.periods"},
		"workers":       {func(c *config.Config) { c.Experiment.Workers = -1 }, "experiment.workers"},
		"no actors":     {func(c *config.Config) { c.Experiment.Actors = nil }, "experiment.actors"},
		"bad actor":     {func(c *config.Config) { c.Experiment.Actors = []string{"oracle"} }, "experiment.actors"},
		"metric":        {func(c *config.Config) { c.Experiment.Metric = "cosine" }, "experiment.metric"},
		"out dir":       {func(c *config.Config) { c.Experiment.OutDir = " " }, "experiment.out_dir"},
		"individuals":   {func(c *config.Config) { c.Population.Individuals = 0 }, "population.individuals"},
		"teams":         {func(c *config.Config) { c.Population.Teams = 0 }, "population.teams"},
		"substitution":  {func(c *config.Config) { c.Population.RandomSubstitution = 2 }, "population.random_substitution"},
		"sigma p":       {func(c *config.Config) { c.Population.SigmaP = math.Inf(1) }, "population.sigma_p"},
		"initial w":     {func(c *config.Config) { c.Estimator.InitialSigmaW = -1 }, "estimator.initial_sigma_w"},
		"initial f":     {func(c *config.Config) { c.Estimator.InitialSigmaF = 0 }, "estimator.initial_sigma_f"},
		"noise model":   {func(c *config.Config) { c.Estimator.NoiseModel = "kalman" }, "estimator.noise_model"},
		"min variance":  {func(c *config.Config) { c.Estimator.MinObservationVariance = 0 }, "estimator.min_observation_variance"},
		"est workers":   {func(c *config.Config) { c.Estimator.Workers = -3 }, "estimator.workers"},
		"time limit":    {func(c *config.Config) { c.Solver.TimeLimit = -time.Second }, "solver.time_limit"},
		"restarts":      {func(c *config.Config) { c.Solver.Restarts = -1 }, "solver.restarts"},
		"max iters":     {func(c *config.Config) { c.Solver.MaxIters = -1 }, "solver.max_iters"},
		"log level":     {func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
		"capacity":      {func(c *config.Config) { c.Population.MaxTeamSize = 2 }, "population.max_team_size"},
		"solver choice": {func(c *config.Config) { c.Solver.Algorithm = "cplex" }, "solver.algorithm"},
	}
	for name, tc := range cases {
		cfg := config.Default()
		tc.mutate(cfg)
		errs := cfg.Validate()
		require.Len(t, errs, 1, name)
		require.Equal(t, tc.field, errs[0].Field, name)
	}
}

func TestValidationErrorsFormat(t *testing.T) {
	require.Empty(t, config.ValidationErrors(nil).Error())

	one := config.ValidationError{Field: "population.teams", Value: 0, Message: "must be at least 1"}
	require.Equal(t, "population.teams: must be at least 1 (got: 0)", one.Error())
	require.Equal(t, one.Error(), config.ValidationErrors{one}.Error())
}

func TestRunConfigErrors(t *testing.T) {
	cfg := config.Default()
	cfg.Estimator.NoiseModel = "kalman"
	_, err := cfg.RunConfig(nil)
	var verr config.ValidationError
	require.True(t, errors.As(err, &verr))

	cfg = config.Default()
	cfg.Solver.Algorithm = "cplex"
	_, err = cfg.RunConfig(nil)
	require.ErrorIs(t, err, assign.ErrInvalidOptions)

	cfg = config.Default()
	cfg.Experiment.Metric = "cosine"
	_, err = cfg.RunConfig(nil)
	require.ErrorIs(t, err, sim.ErrUnknownMetric)
}
