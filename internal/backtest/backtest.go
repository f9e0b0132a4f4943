// Package backtest replays a candle window through the strategy
// evaluators and pairs the emitted signals into naive long-only round
// trips, one ledger per strategy.
package backtest

import (
	"tradevault-engine/internal/model"
	"tradevault-engine/internal/strategy"
)

// minBars mirrors the live evaluation gate: no verdicts until this much
// history has accumulated.
const minBars = 50

// StrategyReport aggregates one strategy's run over the window.
type StrategyReport struct {
	Strategy string         `json:"strategy"`
	Signals  map[string]int `json:"signals"` // emitted signals by action, after dedup
	Trades   int            `json:"trades"`  // completed BUY to SELL round trips
	Wins     int            `json:"wins"`
	WinRate  float64        `json:"winRate"`   // percent of completed trades
	Return   float64        `json:"returnPct"` // compounded long-only return
	Open     bool           `json:"openPosition"`
}

// Report is one full backtest run.
type Report struct {
	Symbol     string           `json:"symbol"`
	Bars       int              `json:"bars"`
	From       int64            `json:"from"`
	To         int64            `json:"to"`
	Strategies []StrategyReport `json:"strategies"`
}

// Run replays candles (oldest first) through evals the way the live
// engine does: each closed-bar prefix of at least minBars is evaluated,
// with the same consecutive-action dedup. An emitted BUY opens a long
// at the bar close, an emitted SELL flattens it; a win is an exit above
// its entry.
func Run(symbol string, candles []model.Candle, evals []strategy.Evaluator) Report {
	rep := Report{Symbol: symbol, Bars: len(candles)}
	if len(candles) > 0 {
		rep.From = candles[0].OpenTime
		rep.To = candles[len(candles)-1].OpenTime
	}

	type position struct {
		open  bool
		entry float64
	}

	dedup := strategy.NewDedup()
	stats := make([]StrategyReport, len(evals))
	pos := make([]position, len(evals))
	growth := make([]float64, len(evals))
	for i, ev := range evals {
		stats[i] = StrategyReport{Strategy: ev.Name(), Signals: make(map[string]int)}
		growth[i] = 1
	}

	for n := minBars; n <= len(candles); n++ {
		window := candles[:n]
		price := window[n-1].Close

		for i, ev := range evals {
			sig := ev.Evaluate(window)
			if sig == nil || !dedup.ShouldEmit(ev.Name(), sig.Action) {
				continue
			}
			st := &stats[i]
			st.Signals[string(sig.Action)]++

			switch sig.Action {
			case strategy.ActionBuy:
				if !pos[i].open {
					pos[i] = position{open: true, entry: price}
				}
			case strategy.ActionSell:
				if pos[i].open && pos[i].entry > 0 {
					st.Trades++
					if price > pos[i].entry {
						st.Wins++
					}
					growth[i] *= price / pos[i].entry
					pos[i].open = false
				}
			}
		}
	}

	for i := range stats {
		st := &stats[i]
		st.Open = pos[i].open
		st.Return = (growth[i] - 1) * 100
		if st.Trades > 0 {
			st.WinRate = float64(st.Wins) / float64(st.Trades) * 100
		}
	}
	rep.Strategies = stats
	return rep
}
