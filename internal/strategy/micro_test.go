package strategy

import (
	"testing"

	"tradevault-engine/internal/model"
)

// ─────────────────────────── microstructure ───────────────────────────

func microBars(closes, volumes []float64) []model.Candle {
	out := make([]model.Candle, len(closes))
	for i := range out {
		out[i] = model.Candle{
			OpenTime: int64(i) * 60_000,
			Open:     closes[i],
			High:     closes[i] + 0.2,
			Low:      closes[i] - 0.2,
			Close:    closes[i],
			Volume:   volumes[i],
			Closed:   true,
		}
	}
	return out
}

func constVolumes(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestMicrostructure_AccumulationBuy(t *testing.T) {
	// Price sits below a VWAP dominated by the earlier 101 prints while
	// the last ten bars tick upward on doubled volume.
	closes := make([]float64, 0, 30)
	for i := 0; i < 15; i++ {
		closes = append(closes, 101)
	}
	for i := 0; i < 5; i++ {
		closes = append(closes, 98)
	}
	for i := 1; i <= 10; i++ {
		closes = append(closes, 98+0.1*float64(i))
	}
	vols := constVolumes(30, 10)
	vols[29] = 20

	sig := Microstructure{}.Evaluate(microBars(closes, vols))
	if sig == nil {
		t.Fatal("want a signal")
	}
	if sig.Action != ActionBuy {
		t.Fatalf("action = %s, want BUY", sig.Action)
	}
	if sig.Strength < 55 || sig.Strength > 100 {
		t.Errorf("strength = %v, want within [55, 100]", sig.Strength)
	}
	if ratio := sig.Meta["volumeRatio"]; ratio < 1.9 || ratio > 2.1 {
		t.Errorf("volumeRatio = %v, want ~2", ratio)
	}
}

func TestMicrostructure_DistributionSell(t *testing.T) {
	// Mirror image: price above VWAP, falling momentum, volume surge.
	closes := make([]float64, 0, 30)
	for i := 0; i < 15; i++ {
		closes = append(closes, 97)
	}
	for i := 0; i < 5; i++ {
		closes = append(closes, 100)
	}
	for i := 1; i <= 10; i++ {
		closes = append(closes, 100-0.1*float64(i))
	}
	vols := constVolumes(30, 10)
	vols[29] = 20

	sig := Microstructure{}.Evaluate(microBars(closes, vols))
	if sig == nil {
		t.Fatal("want a signal")
	}
	if sig.Action != ActionSell {
		t.Fatalf("action = %s, want SELL", sig.Action)
	}
}

func TestMicrostructure_NoVolumeSurgeHolds(t *testing.T) {
	// Same price shape as the BUY case but flat volume: the surge gate
	// fails and the evaluator stays out.
	closes := make([]float64, 0, 30)
	for i := 0; i < 15; i++ {
		closes = append(closes, 101)
	}
	for i := 0; i < 5; i++ {
		closes = append(closes, 98)
	}
	for i := 1; i <= 10; i++ {
		closes = append(closes, 98+0.1*float64(i))
	}

	sig := Microstructure{}.Evaluate(microBars(closes, constVolumes(30, 10)))
	if sig == nil {
		t.Fatal("want a signal")
	}
	if sig.Action != ActionHold || sig.Strength != 50 {
		t.Fatalf("got %s/%v, want HOLD/50", sig.Action, sig.Strength)
	}
}

func TestMicrostructure_FlatHolds(t *testing.T) {
	sig := Microstructure{}.Evaluate(microBars(constVolumes(30, 100), constVolumes(30, 10)))
	if sig == nil {
		t.Fatal("want a signal")
	}
	if sig.Action != ActionHold {
		t.Fatalf("action = %s, want HOLD", sig.Action)
	}
}
