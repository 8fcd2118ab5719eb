// Package sim is the experiment harness around the estimator and the
// policies: a simulated population with hidden, drifting pairwise
// preferences, per-period metrics, and a Runner that plays many independent
// simulations per actor in parallel and aggregates their series.
//
// Environment.Step(partition) is one period:
//
//  1. members of the same team interact; every ordered pair of distinct
//     interacting individuals reports truth + N(0, σf²), all other cells are
//     missing (NaN);
//  2. the reward is Σ_{i,j interacting} truth[i,j] / 2;
//  3. every off-diagonal preference drifts by N(0, σw²);
//  4. each individual leaves with probability Substitution and is replaced
//     by a newcomer whose row and column are redrawn from N(0, σp²).
//
// The ground truth is only exposed through TruePreferences, for offline
// evaluation.
package sim
