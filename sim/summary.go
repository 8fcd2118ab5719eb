package sim

import "math"

// summarize aggregates the series of all simulations period by period.
func summarize(results []SimulationResult) Summary {
	pick := func(f func(SimulationResult) []float64) [][]float64 {
		out := make([][]float64, len(results))
		for i := range results {
			out[i] = f(results[i])
		}
		return out
	}

	return Summary{
		Reward:          meanStd(pick(func(r SimulationResult) []float64 { return r.Rewards })),
		EstimatedReward: meanStd(pick(func(r SimulationResult) []float64 { return r.EstimatedReward })),
		Distance:        meanStd(pick(func(r SimulationResult) []float64 { return r.Distances })),
		Uncertainty:     meanStd(pick(func(r SimulationResult) []float64 { return r.Uncertainty })),
		Seconds:         meanStd(pick(func(r SimulationResult) []float64 { return r.Seconds })),
	}
}

// meanStd returns the per-index mean and population standard deviation of
// equally long series.
func meanStd(series [][]float64) Series {
	if len(series) == 0 {
		return Series{}
	}
	var (
		n    = float64(len(series))
		T    = len(series[0])
		out  = Series{Mean: make([]float64, T), Std: make([]float64, T)}
		t, s int
	)
	for t = 0; t < T; t++ {
		var sum float64
		for s = range series {
			sum += series[s][t]
		}
		mean := sum / n
		var ss float64
		for s = range series {
			d := series[s][t] - mean
			ss += d * d
		}
		out.Mean[t] = mean
		out.Std[t] = math.Sqrt(ss / n)
	}

	return out
}
