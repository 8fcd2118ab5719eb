package belief

import (
	"fmt"
	"math"

	"go.uber.org/zap"
)

const (
	// DefaultInitialSigma is the construction-time guess for both σw and σf.
	DefaultInitialSigma = 1.0

	// DefaultMinObservationVariance keeps σf² bounded away from zero so the
	// gain P/(P+σf²) is always defined.
	DefaultMinObservationVariance = 1e-6
)

// config collects Estimator options; see the With* functions.
type config struct {
	sigmaW, sigmaF float64
	model          NoiseModel
	minObsVar      float64
	workers        int
	logger         *zap.Logger
}

func defaultConfig() config {
	return config{
		sigmaW:    DefaultInitialSigma,
		sigmaF:    DefaultInitialSigma,
		model:     ResidualMoments,
		minObsVar: DefaultMinObservationVariance,
		workers:   1,
		logger:    zap.NewNop(),
	}
}

// Option configures an Estimator.
type Option func(*config)

// WithInitialSigma sets the initial σw and σf guesses (standard deviations),
// used until some pair has enough history.
func WithInitialSigma(sigmaW, sigmaF float64) Option {
	return func(c *config) {
		c.sigmaW = sigmaW
		c.sigmaF = sigmaF
	}
}

// WithNoiseModel selects the noise estimator (ResidualMoments by default).
func WithNoiseModel(m NoiseModel) Option {
	return func(c *config) { c.model = m }
}

// WithMinObservationVariance sets the floor applied to σf².
func WithMinObservationVariance(v float64) Option {
	return func(c *config) { c.minObsVar = v }
}

// WithWorkers splits each update row-wise across k goroutines (k ≤ 1: inline).
func WithWorkers(k int) Option {
	return func(c *config) { c.workers = k }
}

// WithLogger sets the logger (zap.NewNop by default).
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// validate checks option ranges.
func (c config) validate() error {
	if c.sigmaW < 0 || math.IsNaN(c.sigmaW) || math.IsInf(c.sigmaW, 0) {
		return fmt.Errorf("initial sigma_w %v: %w", c.sigmaW, ErrInvalidOption)
	}
	if !(c.sigmaF > 0) || math.IsInf(c.sigmaF, 0) {
		return fmt.Errorf("initial sigma_f %v: %w", c.sigmaF, ErrInvalidOption)
	}
	if !(c.minObsVar > 0) || math.IsInf(c.minObsVar, 0) {
		return fmt.Errorf("min observation variance %v: %w", c.minObsVar, ErrInvalidOption)
	}
	if c.model != ResidualMoments && c.model != DifferenceMoments {
		return fmt.Errorf("noise model %d: %w", c.model, ErrInvalidOption)
	}

	return nil
}
