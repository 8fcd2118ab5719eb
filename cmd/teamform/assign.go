package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/katalvlaran/teamform/assign"
	"github.com/katalvlaran/teamform/matrix"
)

// assignment is the YAML printed by the assign command.
type assignment struct {
	Partition []int   `yaml:"partition,flow"`
	Objective float64 `yaml:"objective"`
	Status    string  `yaml:"status"`
	Nodes     int64   `yaml:"nodes"`
}

func newAssignCmd(a *app) *cobra.Command {
	var (
		scoresFile      string
		teams, capacity int
	)
	cmd := &cobra.Command{
		Use:   "assign",
		Short: "Solve one team assignment from a YAML score matrix",
		Long: `assign reads a square score matrix (a YAML list of rows), maximizes the
total within-team score with every individual in exactly one team and at
most --capacity per team, and prints the partition as YAML. The solver is
taken from the solver section of the configuration.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			scores, err := readScores(scoresFile)
			if err != nil {
				return err
			}
			solver, opts, err := a.cfg.SolverOptions()
			if err != nil {
				return err
			}
			res, err := assign.NewOptimizer(solver, opts, a.log.Named("assign")).Solve(scores, teams, capacity)
			if err != nil {
				return err
			}

			return yaml.NewEncoder(cmd.OutOrStdout()).Encode(assignment{
				Partition: res.Partition,
				Objective: res.Objective,
				Status:    res.Status.String(),
				Nodes:     res.Nodes,
			})
		},
	}
	cmd.Flags().StringVarP(&scoresFile, "scores", "s", "", "YAML file holding the score matrix")
	cmd.Flags().IntVarP(&teams, "teams", "t", 0, "number of teams")
	cmd.Flags().IntVarP(&capacity, "capacity", "k", 0, "maximum team size")
	_ = cmd.MarkFlagRequired("scores")
	_ = cmd.MarkFlagRequired("teams")
	_ = cmd.MarkFlagRequired("capacity")

	return cmd
}

// readScores decodes a YAML list of rows into a strict Dense.
func readScores(path string) (*matrix.Dense, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows [][]float64
	if err = yaml.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m, err := matrix.NewDenseFromRows(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return m, nil
}
