package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/katalvlaran/teamform/sim"
)

func newRunCmd(a *app) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the configured experiment and write results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if outDir != "" {
				a.cfg.Experiment.OutDir = outDir
			}
			return a.run(cmd)
		},
	}
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "output directory (overrides experiment.out_dir)")

	return cmd
}

func (a *app) run(cmd *cobra.Command) error {
	rc, err := a.cfg.RunConfig(a.log)
	if err != nil {
		return err
	}
	runner, err := sim.NewRunner(rc, a.log.Named("sim"))
	if err != nil {
		return err
	}
	out := a.cfg.Experiment.OutDir
	if _, err = sim.WriteConfig(out, a.cfg); err != nil {
		return err
	}

	for _, actor := range rc.Actors {
		res, err := runner.RunActor(cmd.Context(), actor)
		if err != nil {
			return err
		}
		path, err := sim.WriteResults(out, res)
		if err != nil {
			return err
		}
		last := len(res.Summary.Reward.Mean) - 1
		a.log.Info("results written",
			zap.String("actor", actor),
			zap.String("path", path),
			zap.Float64("final_reward_mean", res.Summary.Reward.Mean[last]),
			zap.Float64("final_reward_std", res.Summary.Reward.Std[last]))
	}

	return nil
}
