// Package strategy holds the five signal evaluators and the consecutive-
// signal deduplicator.
//
// An Evaluator is a pure function of candle history: given the same bars it
// always renders the same verdict. Below its minimum bar count it renders
// no verdict at all (nil), which is distinct from an explicit HOLD.
package strategy

import "tradevault-engine/internal/model"

// Action classifies a signal.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// Signal is one evaluator verdict for one symbol on one closed candle.
type Signal struct {
	Action   Action
	Reason   string
	Strength float64

	// Meta carries strategy-specific readings (rsi, vwap, slopes) that the
	// gateway folds into the broadcast payload.
	Meta map[string]float64
}

// Evaluator inspects a candle history and renders a verdict.
type Evaluator interface {
	// Name returns the wire identifier of the strategy.
	Name() string

	// Evaluate returns the verdict for the given history, oldest candle
	// first, or nil while the history is shorter than the strategy minimum.
	Evaluate(candles []model.Candle) *Signal
}

// registry lists every evaluator in canonical order.
var registry = []Evaluator{
	TrendCross{},
	MeanReversion{},
	Breakout{},
	Microstructure{},
	Regression{},
}

// All returns every evaluator in canonical order.
func All() []Evaluator {
	out := make([]Evaluator, len(registry))
	copy(out, registry)
	return out
}

// Names returns the wire identifiers of every evaluator in canonical order.
func Names() []string {
	out := make([]string, len(registry))
	for i, ev := range registry {
		out[i] = ev.Name()
	}
	return out
}

// ForNames resolves wire identifiers to evaluators, preserving canonical
// order and silently dropping unknown names. Empty input selects all.
func ForNames(names []string) []Evaluator {
	if len(names) == 0 {
		return All()
	}
	want := make(map[string]bool, len(names))
	for _, n := range names {
		want[n] = true
	}
	var out []Evaluator
	for _, ev := range registry {
		if want[ev.Name()] {
			out = append(out, ev)
		}
	}
	return out
}

// clampStrength bounds a signal strength to [0, 100].
func clampStrength(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
