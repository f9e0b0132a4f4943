package strategy

import (
	"testing"
)

// ─────────────────────────── trend-cross ───────────────────────────

func TestTrendCross_GoldenCross(t *testing.T) {
	// 39 flat bars then a spike. On the prior bar both averages sit at
	// 100; the spike lifts the fast SMA to 101.0 while the slow only
	// reaches 100.33, a fresh upward cross.
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	closes[39] = 110

	sig := TrendCross{}.Evaluate(histFrom(closes...))
	if sig == nil {
		t.Fatal("want a signal")
	}
	if sig.Action != ActionBuy {
		t.Fatalf("action = %s, want BUY", sig.Action)
	}
	if sig.Strength != 85 {
		t.Errorf("strength = %v, want 85", sig.Strength)
	}
	if sig.Meta["fastSMA"] <= sig.Meta["slowSMA"] {
		t.Errorf("fastSMA %.4f not above slowSMA %.4f", sig.Meta["fastSMA"], sig.Meta["slowSMA"])
	}
}

func TestTrendCross_DeathCross(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100
	}
	closes[39] = 90

	sig := TrendCross{}.Evaluate(histFrom(closes...))
	if sig == nil {
		t.Fatal("want a signal")
	}
	if sig.Action != ActionSell {
		t.Fatalf("action = %s, want SELL", sig.Action)
	}
	if sig.Strength != 85 {
		t.Errorf("strength = %v, want 85", sig.Strength)
	}
}

func TestTrendCross_SteadyLean(t *testing.T) {
	// A steady climb keeps the fast SMA well above the slow one on both
	// bars, so there is no fresh cross and only the lean fires.
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + 0.5*float64(i)
	}

	sig := TrendCross{}.Evaluate(histFrom(closes...))
	if sig == nil {
		t.Fatal("want a signal")
	}
	if sig.Action != ActionBuy {
		t.Fatalf("action = %s, want BUY", sig.Action)
	}
	if sig.Strength != 60 {
		t.Errorf("strength = %v, want 60 (lean, not cross)", sig.Strength)
	}

	for i := range closes {
		closes[i] = 200 - 0.5*float64(i)
	}
	sig = TrendCross{}.Evaluate(histFrom(closes...))
	if sig == nil || sig.Action != ActionSell || sig.Strength != 60 {
		t.Fatalf("falling series: got %+v, want SELL 60", sig)
	}
}

func TestTrendCross_FlatHolds(t *testing.T) {
	sig := TrendCross{}.Evaluate(flatHist(45, 100))
	if sig == nil {
		t.Fatal("want a signal")
	}
	if sig.Action != ActionHold {
		t.Fatalf("action = %s, want HOLD", sig.Action)
	}
	if sig.Strength != 50 {
		t.Errorf("strength = %v, want 50", sig.Strength)
	}
}
