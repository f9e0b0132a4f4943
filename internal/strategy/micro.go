package strategy

import (
	"fmt"
	"math"

	"tradevault-engine/internal/indicator"
	"tradevault-engine/internal/model"
)

const (
	microVWAPWindow   = 30
	microMomentumBars = 10
	microMinBars      = 30
	microDevPct       = 0.15
	microVolSurge     = 1.3
)

// Microstructure looks for price dislocation versus VWAP confirmed by tick
// momentum and a volume surge. Price stretched below VWAP while short-term
// momentum turns up on elevated volume reads as absorption (BUY); the SELL
// side mirrors it above VWAP.
type Microstructure struct{}

func (Microstructure) Name() string { return "microstructure" }

func (Microstructure) Evaluate(candles []model.Candle) *Signal {
	if len(candles) < microMinBars {
		return nil
	}

	closes := indicator.Closes(candles)
	volumes := indicator.Volumes(candles)

	vwap := indicator.VWAP(closes, volumes, microVWAPWindow)
	lastClose := closes[len(closes)-1]
	devPct := (lastClose - vwap) / vwap * 100
	mom := indicator.Momentum(closes, microMomentumBars)

	// Trailing average volume excludes the current bar so a surge on the
	// latest candle cannot dilute its own baseline.
	volWindow := volumes[len(volumes)-microVWAPWindow : len(volumes)-1]
	avgVol := indicator.Mean(volWindow)
	volRatio := 0.0
	if avgVol > 0 {
		volRatio = volumes[len(volumes)-1] / avgVol
	}

	meta := map[string]float64{
		"vwap":         vwap,
		"deviationPct": devPct,
		"momentum":     mom,
		"volumeRatio":  volRatio,
	}

	if devPct < -microDevPct && mom > 0 && volRatio >= microVolSurge {
		return &Signal{
			Action:   ActionBuy,
			Reason:   fmt.Sprintf("price %.2f%% below VWAP, rising ticks on %.1fx volume", -devPct, volRatio),
			Strength: clampStrength(55 + 150*math.Abs(devPct)),
			Meta:     meta,
		}
	}
	if devPct > microDevPct && mom < 0 && volRatio >= microVolSurge {
		return &Signal{
			Action:   ActionSell,
			Reason:   fmt.Sprintf("price %.2f%% above VWAP, falling ticks on %.1fx volume", devPct, volRatio),
			Strength: clampStrength(55 + 150*math.Abs(devPct)),
			Meta:     meta,
		}
	}
	return &Signal{
		Action:   ActionHold,
		Reason:   fmt.Sprintf("VWAP deviation %.2f%% unconfirmed", devPct),
		Strength: 50,
		Meta:     meta,
	}
}
