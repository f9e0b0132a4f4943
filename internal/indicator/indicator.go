// Package indicator provides the window math shared by all strategies.
//
// Every function is a pure computation over a slice of values: no state,
// no I/O. Windows that cannot be computed yet return NaN so callers can
// gate on readiness without a separate flag.
package indicator

import (
	"math"

	"tradevault-engine/internal/model"
)

// Closes extracts close prices from a candle history, oldest first.
func Closes(candles []model.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Close
	}
	return out
}

// Highs extracts high prices from a candle history, oldest first.
func Highs(candles []model.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.High
	}
	return out
}

// Lows extracts low prices from a candle history, oldest first.
func Lows(candles []model.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Low
	}
	return out
}

// Volumes extracts traded volumes from a candle history, oldest first.
func Volumes(candles []model.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, c := range candles {
		out[i] = c.Volume
	}
	return out
}

// Mean returns the arithmetic mean of vals, or NaN for an empty slice.
func Mean(vals []float64) float64 {
	if len(vals) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}
