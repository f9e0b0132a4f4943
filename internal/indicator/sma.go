package indicator

import "math"

// SMA returns the simple moving average of the last period values.
// NaN when fewer than period values are available.
func SMA(vals []float64, period int) float64 {
	if period <= 0 || len(vals) < period {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range vals[len(vals)-period:] {
		sum += v
	}
	return sum / float64(period)
}
