// Package belief maintains per-pair Gaussian beliefs about asymmetric
// affinities between N individuals, learned from sparse noisy feedback.
//
// Three pieces cooperate on every period:
//
//   - ObservedMask (the feedback filter) turns an N×N feedback matrix whose
//     missing cells hold the NaN sentinel into a boolean mask, with the
//     diagonal always unobserved.
//   - The noise estimator keeps per-pair sufficient statistics (no raw
//     history) and reports pooled scalar estimates of the process variance
//     σw² and the observation variance σf².
//   - Estimator is a moment-matching (Kalman-style) filter over the mean
//     matrix M and variance matrix V: variance grows by σw² only on the cells
//     observed this period, gains are P/(P+σf²), and unobserved cells keep
//     both mean and variance unchanged.
//
// State is owned exclusively by the Estimator. Means, Variances and Counts
// return deep copies, so callers can never observe a half-applied update.
// Update must be called at most once per period and never concurrently;
// inside a single call the N² arithmetic may be split across row workers
// (WithWorkers), and results are identical for any worker count.
//
// The pooled noise estimate is a method-of-moments approximation: it averages
// per-pair sample variances and therefore reflects the population rather than
// any pair's own noise level.
package belief
