package strategy

import (
	"fmt"

	"tradevault-engine/internal/indicator"
	"tradevault-engine/internal/model"
)

const (
	meanRevPeriod  = 14
	meanRevMinBars = 15
)

// MeanReversion fades RSI extremes: deep oversold is a strong BUY, deep
// overbought a strong SELL, with softer tiers at the 30/70 bands.
type MeanReversion struct{}

func (MeanReversion) Name() string { return "mean-reversion" }

func (MeanReversion) Evaluate(candles []model.Candle) *Signal {
	if len(candles) < meanRevMinBars {
		return nil
	}

	rsi := indicator.RSI(indicator.Closes(candles), meanRevPeriod)
	meta := map[string]float64{"rsi": rsi}

	switch {
	case rsi <= 25:
		return &Signal{
			Action:   ActionBuy,
			Reason:   fmt.Sprintf("RSI %.1f deeply oversold", rsi),
			Strength: 90,
			Meta:     meta,
		}
	case rsi <= 30:
		return &Signal{
			Action:   ActionBuy,
			Reason:   fmt.Sprintf("RSI %.1f oversold", rsi),
			Strength: 70,
			Meta:     meta,
		}
	case rsi >= 75:
		return &Signal{
			Action:   ActionSell,
			Reason:   fmt.Sprintf("RSI %.1f deeply overbought", rsi),
			Strength: 90,
			Meta:     meta,
		}
	case rsi >= 70:
		return &Signal{
			Action:   ActionSell,
			Reason:   fmt.Sprintf("RSI %.1f overbought", rsi),
			Strength: 70,
			Meta:     meta,
		}
	}
	return &Signal{
		Action:   ActionHold,
		Reason:   fmt.Sprintf("RSI %.1f neutral", rsi),
		Strength: 50,
		Meta:     meta,
	}
}
