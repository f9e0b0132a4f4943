package indicator

import "math"

// VWAP returns the volume-weighted average close over the last period bars.
// A window with zero traded volume degrades to the plain mean of the
// closes. NaN when fewer than period bars are available or the slices
// differ in length.
func VWAP(closes, volumes []float64, period int) float64 {
	if period <= 0 || len(closes) < period || len(volumes) != len(closes) {
		return math.NaN()
	}
	var pv, vol float64
	start := len(closes) - period
	for i := start; i < len(closes); i++ {
		pv += closes[i] * volumes[i]
		vol += volumes[i]
	}
	if vol == 0 {
		return Mean(closes[start:])
	}
	return pv / vol
}
