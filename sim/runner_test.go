package sim_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/katalvlaran/teamform/assign"
	"github.com/katalvlaran/teamform/belief"
	"github.com/katalvlaran/teamform/matrix"
	"github.com/katalvlaran/teamform/policy"
	"github.com/katalvlaran/teamform/sim"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"
)

func smallRun(workers int) sim.RunConfig {
	return sim.RunConfig{
		Actors:      []string{"Random", "UCB_0.5", "Thompson"},
		Simulations: 3,
		Periods:     6,
		Seed:        17,
		Workers:     workers,
		Population: sim.Population{
			Individuals: 6, Teams: 3, Capacity: 2,
			SigmaW: 0.1, SigmaF: 0.1, SigmaP: 1, Substitution: 0.1,
		},
		Solver: assign.BranchAndBound{},
	}
}

func TestNewRunnerErrors(t *testing.T) {
	cases := map[string]struct {
		mutate func(c *sim.RunConfig)
		want   error
	}{
		"simulations": {func(c *sim.RunConfig) { c.Simulations = 0 }, sim.ErrInvalidRun},
		"periods":     {func(c *sim.RunConfig) { c.Periods = -1 }, sim.ErrInvalidRun},
		"workers":     {func(c *sim.RunConfig) { c.Workers = -2 }, sim.ErrInvalidRun},
		"metric":      {func(c *sim.RunConfig) { c.Metric = sim.Metric(5) }, sim.ErrUnknownMetric},
		"population":  {func(c *sim.RunConfig) { c.Population.Teams = 1 }, sim.ErrInvalidPopulation},
		"actor":       {func(c *sim.RunConfig) { c.Actors = append(c.Actors, "epsilon_greedy") }, policy.ErrUnknownActor},
		"beta":        {func(c *sim.RunConfig) { c.Actors = []string{"ucb_-1"} }, policy.ErrInvalidBeta},
	}
	for name, tc := range cases {
		cfg := smallRun(1)
		tc.mutate(&cfg)
		_, err := sim.NewRunner(cfg, nil)
		require.ErrorIs(t, err, tc.want, name)
	}
}

// TestRunnerDeterministic: the worker count never changes the series, and
// every actor faces the same initial populations.
func TestRunnerDeterministic(t *testing.T) {
	defer goleak.VerifyNone(t)

	var first []*sim.ActorResult
	for _, workers := range []int{1, 2, 8} {
		r, err := sim.NewRunner(smallRun(workers), zaptest.NewLogger(t))
		require.NoError(t, err)
		got, err := r.Run(context.Background())
		require.NoError(t, err)
		require.Len(t, got, 3)

		for _, res := range got {
			require.Len(t, res.Simulations, 3)
			require.Len(t, res.Summary.Reward.Mean, 6)
			require.Len(t, res.Summary.Distance.Std, 6)
			for _, s := range res.Simulations {
				require.NotEmpty(t, s.ID)
				require.Len(t, s.Rewards, 6)
				require.Len(t, s.FinalMeans, 6)
			}
		}
		for a := 1; a < len(got); a++ {
			for s := range got[a].Simulations {
				require.Equal(t, got[0].Simulations[s].Seed, got[a].Simulations[s].Seed)
			}
		}

		if first == nil {
			first = got
			continue
		}
		for a := range got {
			for s := range got[a].Simulations {
				want, have := first[a].Simulations[s], got[a].Simulations[s]
				require.Equal(t, want.Rewards, have.Rewards, "workers=%d actor=%s", workers, got[a].Actor)
				require.Equal(t, want.Distances, have.Distances)
				require.Equal(t, want.EstimatedReward, have.EstimatedReward)
				require.Equal(t, want.Substitutions, have.Substitutions)
				require.Equal(t, want.FinalMeans, have.FinalMeans)
			}
		}
	}
}

// TestRunnerLearns: a random actor explores every pair, so the estimate
// approaches the truth.
func TestRunnerLearns(t *testing.T) {
	cfg := smallRun(0)
	cfg.Actors = []string{"random"}
	cfg.Periods = 40
	cfg.Simulations = 4
	cfg.Population.Substitution = 0

	r, err := sim.NewRunner(cfg, nil)
	require.NoError(t, err)
	res, err := r.RunActor(context.Background(), "random")
	require.NoError(t, err)

	dist := res.Summary.Distance.Mean
	require.Less(t, dist[len(dist)-1], 0.5*dist[0])
}

func TestRunnerCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	r, err := sim.NewRunner(smallRun(2), nil)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWriteResults(t *testing.T) {
	cfg := smallRun(2)
	r, err := sim.NewRunner(cfg, nil)
	require.NoError(t, err)
	res, err := r.RunActor(context.Background(), "UCB_0.5")
	require.NoError(t, err)

	dir := t.TempDir()
	path, err := sim.WriteResults(dir, res)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "UCB_0.5", sim.ResultsFile), path)

	back, err := sim.ReadResults(path)
	require.NoError(t, err)
	require.Equal(t, res, back)

	path, err = sim.WriteConfig(dir, cfg.Population)
	require.NoError(t, err)
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(raw), "max_team_size: 2")

	_, err = sim.WriteResults(dir, nil)
	require.Error(t, err)
	_, err = sim.ReadResults(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

// TestSolverOptionsPerSimulation: parallel simulations run their restarts
// inline, and every simulation gets its own solver seed.
func TestSolverOptionsPerSimulation(t *testing.T) {
	cfg := smallRun(4)
	cfg.SolverOpts = assign.Options{Seed: 5, Restarts: 3}
	r, err := sim.NewRunner(cfg, nil)
	require.NoError(t, err)
	opts := r.SolverOptions(3)
	require.Equal(t, 1, opts.Workers)
	require.Equal(t, int64(5^3), opts.Seed)
	require.Equal(t, 3, opts.Restarts)

	cfg.Workers = 1
	r, err = sim.NewRunner(cfg, nil)
	require.NoError(t, err)
	require.Zero(t, r.SolverOptions(3).Workers)
}

// plainLearner forwards to an Estimator without exposing ResetIndividual.
type plainLearner struct {
	est    *belief.Estimator
	resets *atomic.Int64
}

func (l plainLearner) Update(fb matrix.Matrix) error { return l.est.Update(fb) }
func (l plainLearner) Means() *matrix.Dense          { return l.est.Means() }
func (l plainLearner) Variances() *matrix.Dense      { return l.est.Variances() }
func (l plainLearner) Reset() {
	l.resets.Add(1)
	l.est.Reset()
}

// TestRunnerCustomLearner: a learner without per-individual resets is reset
// in full whenever someone is substituted.
func TestRunnerCustomLearner(t *testing.T) {
	var (
		resets  atomic.Int64
		created atomic.Int64
	)
	cfg := smallRun(2)
	cfg.Actors = []string{"greedy"}
	cfg.Simulations = 2
	cfg.Periods = 4
	cfg.Population.Substitution = 1
	cfg.NewLearner = func(n int) (belief.Learner, error) {
		created.Add(1)
		est, err := belief.New(n)
		if err != nil {
			return nil, err
		}
		return plainLearner{est: est, resets: &resets}, nil
	}

	r, err := sim.NewRunner(cfg, nil)
	require.NoError(t, err)
	res, err := r.RunActor(context.Background(), "greedy")
	require.NoError(t, err)
	require.Equal(t, int64(2), created.Load())
	require.Equal(t, int64(2*4), resets.Load())
	for _, s := range res.Simulations {
		require.Equal(t, 4*6, s.Substitutions)
	}

	cfg.NewLearner = func(int) (belief.Learner, error) { return nil, belief.ErrInvalidSize }
	r, err = sim.NewRunner(cfg, nil)
	require.NoError(t, err)
	_, err = r.RunActor(context.Background(), "greedy")
	require.ErrorIs(t, err, belief.ErrInvalidSize)
}
