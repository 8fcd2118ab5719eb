// Package config loads the experiment configuration: a YAML file layered
// over built-in defaults, with TEAMFORM_* environment overrides
// (TEAMFORM_POPULATION_INDIVIDUALS for population.individuals).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/katalvlaran/teamform/assign"
	"github.com/katalvlaran/teamform/belief"
	"github.com/katalvlaran/teamform/sim"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TEAMFORM"

// Config is the full experiment configuration.
type Config struct {
	Experiment ExperimentConfig `mapstructure:"experiment" yaml:"experiment"`
	Population PopulationConfig `mapstructure:"population" yaml:"population"`
	Estimator  EstimatorConfig  `mapstructure:"estimator" yaml:"estimator"`
	Solver     SolverConfig     `mapstructure:"solver" yaml:"solver"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
}

// ExperimentConfig controls the runner.
type ExperimentConfig struct {
	// Simulations is the number of independent runs per actor.
	Simulations int `mapstructure:"simulations" yaml:"simulations"`
	// Actors lists policy names: greedy, ucb_<β>, thompson, random.
	Actors  []string `mapstructure:"actors" yaml:"actors"`
	Periods int      `mapstructure:"periods" yaml:"periods"`
	Seed    int64    `mapstructure:"seed" yaml:"seed"`
	// Workers bounds parallel simulations; 0 means GOMAXPROCS.
	Workers int    `mapstructure:"workers" yaml:"workers"`
	Metric  string `mapstructure:"metric" yaml:"metric"`
	OutDir  string `mapstructure:"out_dir" yaml:"out_dir"`
}

// PopulationConfig describes the simulated individuals.
type PopulationConfig struct {
	Individuals        int     `mapstructure:"individuals" yaml:"individuals"`
	Teams              int     `mapstructure:"teams" yaml:"teams"`
	MaxTeamSize        int     `mapstructure:"max_team_size" yaml:"max_team_size"`
	SigmaW             float64 `mapstructure:"sigma_w" yaml:"sigma_w"`
	SigmaF             float64 `mapstructure:"sigma_f" yaml:"sigma_f"`
	SigmaP             float64 `mapstructure:"sigma_p" yaml:"sigma_p"`
	RandomSubstitution float64 `mapstructure:"random_substitution" yaml:"random_substitution"`
}

// EstimatorConfig configures belief.Estimator.
type EstimatorConfig struct {
	InitialSigmaW          float64 `mapstructure:"initial_sigma_w" yaml:"initial_sigma_w"`
	InitialSigmaF          float64 `mapstructure:"initial_sigma_f" yaml:"initial_sigma_f"`
	NoiseModel             string  `mapstructure:"noise_model" yaml:"noise_model"`
	MinObservationVariance float64 `mapstructure:"min_observation_variance" yaml:"min_observation_variance"`
	Workers                int     `mapstructure:"workers" yaml:"workers"`
}

// SolverConfig configures the assignment optimizer.
type SolverConfig struct {
	// Algorithm is auto, branch_and_bound or local_search.
	Algorithm string `mapstructure:"algorithm" yaml:"algorithm"`
	// TimeLimit of 0 means no limit.
	TimeLimit time.Duration `mapstructure:"time_limit" yaml:"time_limit"`
	Restarts  int           `mapstructure:"restarts" yaml:"restarts"`
	MaxIters  int           `mapstructure:"max_iters" yaml:"max_iters"`
	Seed      int64         `mapstructure:"seed" yaml:"seed"`
}

// LoggingConfig controls the CLI logger.
type LoggingConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Experiment: ExperimentConfig{
			Simulations: 10,
			Actors:      []string{"UCB_0", "UCB_0.1", "UCB_0.5", "Random", "Thompson"},
			Periods:     100,
			Seed:        1,
			Workers:     0,
			Metric:      "l2",
			OutDir:      "results",
		},
		Population: PopulationConfig{
			Individuals:        10,
			Teams:              4,
			MaxTeamSize:        3,
			SigmaW:             0.1,
			SigmaF:             0.1,
			SigmaP:             1,
			RandomSubstitution: 0.1,
		},
		Estimator: EstimatorConfig{
			InitialSigmaW:          belief.DefaultInitialSigma,
			InitialSigmaF:          belief.DefaultInitialSigma,
			NoiseModel:             belief.ResidualMoments.String(),
			MinObservationVariance: belief.DefaultMinObservationVariance,
			Workers:                1,
		},
		Solver: SolverConfig{
			Algorithm: "auto",
			TimeLimit: 10 * time.Second,
			Restarts:  assign.DefaultRestarts,
			MaxIters:  assign.DefaultMaxPasses,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// SetDefaults registers every default on v, so env overrides and Unmarshal
// see the full key set even without a config file.
func SetDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("experiment.simulations", d.Experiment.Simulations)
	v.SetDefault("experiment.actors", d.Experiment.Actors)
	v.SetDefault("experiment.periods", d.Experiment.Periods)
	v.SetDefault("experiment.seed", d.Experiment.Seed)
	v.SetDefault("experiment.workers", d.Experiment.Workers)
	v.SetDefault("experiment.metric", d.Experiment.Metric)
	v.SetDefault("experiment.out_dir", d.Experiment.OutDir)

	v.SetDefault("population.individuals", d.Population.Individuals)
	v.SetDefault("population.teams", d.Population.Teams)
	v.SetDefault("population.max_team_size", d.Population.MaxTeamSize)
	v.SetDefault("population.sigma_w", d.Population.SigmaW)
	v.SetDefault("population.sigma_f", d.Population.SigmaF)
	v.SetDefault("population.sigma_p", d.Population.SigmaP)
	v.SetDefault("population.random_substitution", d.Population.RandomSubstitution)

	v.SetDefault("estimator.initial_sigma_w", d.Estimator.InitialSigmaW)
	v.SetDefault("estimator.initial_sigma_f", d.Estimator.InitialSigmaF)
	v.SetDefault("estimator.noise_model", d.Estimator.NoiseModel)
	v.SetDefault("estimator.min_observation_variance", d.Estimator.MinObservationVariance)
	v.SetDefault("estimator.workers", d.Estimator.Workers)

	v.SetDefault("solver.algorithm", d.Solver.Algorithm)
	v.SetDefault("solver.time_limit", d.Solver.TimeLimit)
	v.SetDefault("solver.restarts", d.Solver.Restarts)
	v.SetDefault("solver.max_iters", d.Solver.MaxIters)
	v.SetDefault("solver.seed", d.Solver.Seed)

	v.SetDefault("logging.level", d.Logging.Level)
}

// New returns a viper instance with defaults and env overrides wired. When
// file is non-empty it is read as YAML; a missing file is an error.
func New(file string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", file, err)
		}
	}

	return v, nil
}

// Load decodes v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// SimPopulation converts the population section.
func (c *Config) SimPopulation() sim.Population {
	p := c.Population
	return sim.Population{
		Individuals:  p.Individuals,
		Teams:        p.Teams,
		Capacity:     p.MaxTeamSize,
		SigmaW:       p.SigmaW,
		SigmaF:       p.SigmaF,
		SigmaP:       p.SigmaP,
		Substitution: p.RandomSubstitution,
	}
}

// EstimatorOptions converts the estimator section.
func (c *Config) EstimatorOptions(log *zap.Logger) ([]belief.Option, error) {
	e := c.Estimator
	model, ok := belief.ParseNoiseModel(e.NoiseModel)
	if !ok {
		return nil, ValidationError{Field: "estimator.noise_model", Value: e.NoiseModel, Message: "unknown noise model"}
	}
	opts := []belief.Option{
		belief.WithInitialSigma(e.InitialSigmaW, e.InitialSigmaF),
		belief.WithNoiseModel(model),
		belief.WithMinObservationVariance(e.MinObservationVariance),
		belief.WithWorkers(e.Workers),
	}
	if log != nil {
		opts = append(opts, belief.WithLogger(log))
	}

	return opts, nil
}

// SolverOptions converts the solver section.
func (c *Config) SolverOptions() (assign.Solver, assign.Options, error) {
	s := c.Solver
	solver, err := assign.ParseSolver(s.Algorithm)
	if err != nil {
		return nil, assign.Options{}, err
	}

	return solver, assign.Options{
		TimeLimit: s.TimeLimit,
		Seed:      s.Seed,
		Restarts:  s.Restarts,
		MaxPasses: s.MaxIters,
	}, nil
}

// RunConfig assembles everything sim.NewRunner needs.
func (c *Config) RunConfig(log *zap.Logger) (sim.RunConfig, error) {
	metric, err := sim.ParseMetric(c.Experiment.Metric)
	if err != nil {
		return sim.RunConfig{}, err
	}
	var estLog *zap.Logger
	if log != nil {
		estLog = log.Named("belief")
	}
	est, err := c.EstimatorOptions(estLog)
	if err != nil {
		return sim.RunConfig{}, err
	}
	solver, opts, err := c.SolverOptions()
	if err != nil {
		return sim.RunConfig{}, err
	}

	return sim.RunConfig{
		Actors:      c.Experiment.Actors,
		Simulations: c.Experiment.Simulations,
		Periods:     c.Experiment.Periods,
		Seed:        c.Experiment.Seed,
		Workers:     c.Experiment.Workers,
		Metric:      metric,
		Population:  c.SimPopulation(),
		Estimator:   est,
		Solver:      solver,
		SolverOpts:  opts,
	}, nil
}
