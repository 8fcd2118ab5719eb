// Package teamform learns who works well with whom and forms teams from
// what it has learned.
//
// 🚀 What is teamform?
//
//	A small library plus a CLI that brings together:
//		• Beliefs: an adaptive Kalman filter over an N×N asymmetric preference
//		  matrix, fed by partially observed, noisy feedback
//		• Assignment: capacity-constrained team formation as a binary
//		  quadratic program, solved exactly (branch-and-bound) or by
//		  multi-start local search
//		• Policies: greedy, UCB and Thompson scoring on top of the beliefs
//		• Simulation: a drifting, noisy population with random substitution,
//		  a parallel experiment runner and YAML results
//
// Under the hood:
//
//	matrix/       — dense float64 matrices, element-wise ops, validators
//	belief/       — the estimator: means, variances, noise estimation
//	assign/       — program formulation, solvers, partition checks
//	policy/       — scorers and actors
//	sim/          — environment, metrics, runner, result files
//	config/       — viper-backed configuration with validation
//	cmd/teamform/ — the CLI (run, assign, config)
//
// Quick example: four people, two teams of two.
//
//	S = ┌ 0 5 1 0 ┐      partition [0 0 1 1]
//	    │ 4 0 0 1 │      objective 5+4+3+6 = 18
//	    │ 1 0 0 3 │
//	    └ 0 1 6 0 ┘
//
//	go install github.com/katalvlaran/teamform/cmd/teamform@latest
package teamform
