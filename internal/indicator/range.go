package indicator

import "math"

// RollingHigh returns the maximum of the last period values.
// NaN when fewer than period values are available.
func RollingHigh(vals []float64, period int) float64 {
	if period <= 0 || len(vals) < period {
		return math.NaN()
	}
	high := vals[len(vals)-period]
	for _, v := range vals[len(vals)-period:] {
		if v > high {
			high = v
		}
	}
	return high
}

// RollingLow returns the minimum of the last period values.
// NaN when fewer than period values are available.
func RollingLow(vals []float64, period int) float64 {
	if period <= 0 || len(vals) < period {
		return math.NaN()
	}
	low := vals[len(vals)-period]
	for _, v := range vals[len(vals)-period:] {
		if v < low {
			low = v
		}
	}
	return low
}
