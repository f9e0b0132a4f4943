package strategy

import (
	"fmt"
	"math"

	"tradevault-engine/internal/indicator"
	"tradevault-engine/internal/model"
)

const (
	trendFastPeriod = 10
	trendSlowPeriod = 30
	trendMinBars    = 30
	trendLeadPct    = 0.2
)

// TrendCross compares a fast and a slow SMA of closes.
//
// A fresh crossover against the prior bar emits at full strength. Absent a
// cross, the fast SMA leading the slow by more than 0.2% still emits a
// directional lean at reduced strength, otherwise HOLD.
type TrendCross struct{}

func (TrendCross) Name() string { return "trend-cross" }

func (TrendCross) Evaluate(candles []model.Candle) *Signal {
	if len(candles) < trendMinBars {
		return nil
	}

	closes := indicator.Closes(candles)
	fast := indicator.SMA(closes, trendFastPeriod)
	slow := indicator.SMA(closes, trendSlowPeriod)

	prev := closes[:len(closes)-1]
	prevFast := indicator.SMA(prev, trendFastPeriod)
	prevSlow := indicator.SMA(prev, trendSlowPeriod)

	meta := map[string]float64{"fastSMA": fast, "slowSMA": slow}

	// Cross detection needs the prior bar's slow SMA as well; at exactly
	// the minimum history it is not computable and only the lean applies.
	if !math.IsNaN(prevSlow) {
		if prevFast <= prevSlow && fast > slow {
			return &Signal{
				Action:   ActionBuy,
				Reason:   fmt.Sprintf("golden cross: SMA%d crossed above SMA%d", trendFastPeriod, trendSlowPeriod),
				Strength: 85,
				Meta:     meta,
			}
		}
		if prevFast >= prevSlow && fast < slow {
			return &Signal{
				Action:   ActionSell,
				Reason:   fmt.Sprintf("death cross: SMA%d crossed below SMA%d", trendFastPeriod, trendSlowPeriod),
				Strength: 85,
				Meta:     meta,
			}
		}
	}

	lead := (fast - slow) / slow * 100
	meta["leadPct"] = lead
	if lead > trendLeadPct {
		return &Signal{
			Action:   ActionBuy,
			Reason:   fmt.Sprintf("SMA%d leads SMA%d by %.2f%%", trendFastPeriod, trendSlowPeriod, lead),
			Strength: 60,
			Meta:     meta,
		}
	}
	if lead < -trendLeadPct {
		return &Signal{
			Action:   ActionSell,
			Reason:   fmt.Sprintf("SMA%d trails SMA%d by %.2f%%", trendFastPeriod, trendSlowPeriod, -lead),
			Strength: 60,
			Meta:     meta,
		}
	}
	return &Signal{
		Action:   ActionHold,
		Reason:   fmt.Sprintf("SMA%d and SMA%d within %.1f%%", trendFastPeriod, trendSlowPeriod, trendLeadPct),
		Strength: 50,
		Meta:     meta,
	}
}
