package strategy

import (
	"fmt"

	"tradevault-engine/internal/indicator"
	"tradevault-engine/internal/model"
)

const (
	regShortWindow = 20
	regLongWindow  = 50
	regMinBars     = 50
	regR2Gate      = 0.6
)

// Regression fits OLS trendlines over 20- and 50-bar windows, normalizing
// both slopes to %/bar against the long-window mean price. Agreeing slopes
// behind a tight short-window fit ride the trend at r²-scaled strength; a
// sharp short-term counter-move against a persistent long trend fades
// contrarian at reduced strength.
type Regression struct{}

func (Regression) Name() string { return "regression" }

func (Regression) Evaluate(candles []model.Candle) *Signal {
	if len(candles) < regMinBars {
		return nil
	}

	closes := indicator.Closes(candles)
	long := closes[len(closes)-regLongWindow:]
	short := closes[len(closes)-regShortWindow:]

	shortSlope, _, r2 := indicator.LinReg(short)
	longSlope, _, _ := indicator.LinReg(long)

	meanPrice := indicator.Mean(long)
	shortNorm := shortSlope / meanPrice * 100
	longNorm := longSlope / meanPrice * 100

	meta := map[string]float64{
		"shortSlopePct": shortNorm,
		"longSlopePct":  longNorm,
		"rSquared":      r2,
	}

	if r2 > regR2Gate {
		if shortNorm > 0 && longNorm > 0 {
			return &Signal{
				Action:   ActionBuy,
				Reason:   fmt.Sprintf("aligned uptrend %.3f%%/bar (r2 %.2f)", shortNorm, r2),
				Strength: clampStrength(r2 * 100),
				Meta:     meta,
			}
		}
		if shortNorm < 0 && longNorm < 0 {
			return &Signal{
				Action:   ActionSell,
				Reason:   fmt.Sprintf("aligned downtrend %.3f%%/bar (r2 %.2f)", shortNorm, r2),
				Strength: clampStrength(r2 * 100),
				Meta:     meta,
			}
		}
	}

	// Sharp counter-move against a persistent longer trend fades contrarian.
	if shortNorm < -0.1 && longNorm > 0.02 {
		return &Signal{
			Action:   ActionBuy,
			Reason:   fmt.Sprintf("pullback %.3f%%/bar inside %.3f%%/bar uptrend", shortNorm, longNorm),
			Strength: 65,
			Meta:     meta,
		}
	}
	if shortNorm > 0.1 && longNorm < -0.02 {
		return &Signal{
			Action:   ActionSell,
			Reason:   fmt.Sprintf("bounce %.3f%%/bar inside %.3f%%/bar downtrend", shortNorm, longNorm),
			Strength: 65,
			Meta:     meta,
		}
	}

	return &Signal{
		Action:   ActionHold,
		Reason:   fmt.Sprintf("no reliable trend (r2 %.2f)", r2),
		Strength: 50,
		Meta:     meta,
	}
}
