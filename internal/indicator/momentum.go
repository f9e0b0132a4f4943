package indicator

import "math"

// Momentum returns the net change over the trailing period steps, which is
// the sum of the last period successive deltas. NaN when fewer than
// period+1 values are available.
func Momentum(vals []float64, period int) float64 {
	if period <= 0 || len(vals) < period+1 {
		return math.NaN()
	}
	return vals[len(vals)-1] - vals[len(vals)-1-period]
}
