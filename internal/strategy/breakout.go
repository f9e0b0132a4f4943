package strategy

import (
	"fmt"

	"tradevault-engine/internal/indicator"
	"tradevault-engine/internal/model"
)

const (
	breakoutWindow  = 20
	breakoutMinBars = 21
)

// Breakout compares the latest close against the high/low of the 20 bars
// preceding it. Only a strict break beyond the range emits; a close exactly
// on the boundary holds. Strength scales with the overshoot relative to the
// range width.
type Breakout struct{}

func (Breakout) Name() string { return "breakout" }

func (Breakout) Evaluate(candles []model.Candle) *Signal {
	if len(candles) < breakoutMinBars {
		return nil
	}

	window := candles[len(candles)-1-breakoutWindow : len(candles)-1]
	rangeHigh := indicator.RollingHigh(indicator.Highs(window), breakoutWindow)
	rangeLow := indicator.RollingLow(indicator.Lows(window), breakoutWindow)
	width := rangeHigh - rangeLow
	lastClose := candles[len(candles)-1].Close

	meta := map[string]float64{"rangeHigh": rangeHigh, "rangeLow": rangeLow}

	if lastClose > rangeHigh {
		return &Signal{
			Action:   ActionBuy,
			Reason:   fmt.Sprintf("close %.4f broke above 20-bar high %.4f", lastClose, rangeHigh),
			Strength: breakoutStrength(lastClose-rangeHigh, width),
			Meta:     meta,
		}
	}
	if lastClose < rangeLow {
		return &Signal{
			Action:   ActionSell,
			Reason:   fmt.Sprintf("close %.4f broke below 20-bar low %.4f", lastClose, rangeLow),
			Strength: breakoutStrength(rangeLow-lastClose, width),
			Meta:     meta,
		}
	}
	return &Signal{
		Action:   ActionHold,
		Reason:   fmt.Sprintf("close %.4f inside 20-bar range [%.4f, %.4f]", lastClose, rangeLow, rangeHigh),
		Strength: 50,
		Meta:     meta,
	}
}

// breakoutStrength scales with the overshoot relative to the range width.
// A degenerate flat range counts as a maximal break.
func breakoutStrength(overshoot, width float64) float64 {
	if width <= 0 {
		return 100
	}
	return clampStrength(60 + 100*overshoot/width)
}
