package feed

import (
	"testing"

	"tradevault-engine/internal/model"
)

func bar(openTime int64, close float64, closed bool) model.Candle {
	return model.Candle{
		OpenTime: openTime,
		Open:     close,
		High:     close,
		Low:      close,
		Close:    close,
		Volume:   1,
		Closed:   closed,
	}
}

func seededHistory(n int) *History {
	h := NewHistory()
	candles := make([]model.Candle, n)
	for i := range candles {
		candles[i] = bar(int64(i)*60_000, 100, true)
	}
	h.Seed(candles)
	return h
}

// ─────────────────────────── transitions ───────────────────────────

func TestHistory_SameBucketReplacesInPlace(t *testing.T) {
	h := NewHistory()

	stored, closing, size := h.Apply(bar(60_000, 100, false))
	if !stored || closing || size != 1 {
		t.Fatalf("first tick: stored=%v closing=%v size=%d, want true/false/1", stored, closing, size)
	}

	stored, closing, size = h.Apply(bar(60_000, 101, false))
	if !stored || closing || size != 1 {
		t.Fatalf("update tick: stored=%v closing=%v size=%d, want true/false/1", stored, closing, size)
	}
	if got := h.Snapshot(0)[0].Close; got != 101 {
		t.Errorf("close after update = %v, want 101", got)
	}

	stored, closing, size = h.Apply(bar(60_000, 102, true))
	if !stored || !closing || size != 1 {
		t.Fatalf("closing tick: stored=%v closing=%v size=%d, want true/true/1", stored, closing, size)
	}
	if snap := h.Snapshot(0); !snap[0].Closed || snap[0].Close != 102 {
		t.Errorf("final bar = %+v, want closed at 102", snap[0])
	}
}

func TestHistory_NewBucketNeedsCloseOrEmpty(t *testing.T) {
	h := NewHistory()
	h.Apply(bar(60_000, 100, true))

	// In-progress tick for an unseen bucket is dropped.
	stored, closing, size := h.Apply(bar(120_000, 101, false))
	if stored || closing || size != 1 {
		t.Fatalf("forming tick for new bucket: stored=%v closing=%v size=%d, want false/false/1", stored, closing, size)
	}

	// Its closing tick appends.
	stored, closing, size = h.Apply(bar(120_000, 101, true))
	if !stored || !closing || size != 2 {
		t.Fatalf("closing tick for new bucket: stored=%v closing=%v size=%d, want true/true/2", stored, closing, size)
	}

	snap := h.Snapshot(0)
	for i := 1; i < len(snap); i++ {
		if snap[i].OpenTime <= snap[i-1].OpenTime {
			t.Fatalf("open times not strictly increasing: %d then %d", snap[i-1].OpenTime, snap[i].OpenTime)
		}
	}
}

func TestHistory_EvictsOldestBeyondCap(t *testing.T) {
	h := seededHistory(MaxCandles)

	_, _, size := h.Apply(bar(int64(MaxCandles)*60_000, 101, true))
	if size != MaxCandles {
		t.Fatalf("size after overflow append = %d, want %d", size, MaxCandles)
	}

	snap := h.Snapshot(0)
	if snap[0].OpenTime != 60_000 {
		t.Errorf("oldest open time = %d, want 60000 (first bar evicted)", snap[0].OpenTime)
	}
	if snap[len(snap)-1].OpenTime != int64(MaxCandles)*60_000 {
		t.Errorf("newest open time = %d, want %d", snap[len(snap)-1].OpenTime, int64(MaxCandles)*60_000)
	}
}

func TestHistory_SeedKeepsNewest(t *testing.T) {
	h := NewHistory()
	candles := make([]model.Candle, MaxCandles+100)
	for i := range candles {
		candles[i] = bar(int64(i)*60_000, 100, true)
	}
	h.Seed(candles)

	if h.Len() != MaxCandles {
		t.Fatalf("len = %d, want %d", h.Len(), MaxCandles)
	}
	if got := h.Snapshot(0)[0].OpenTime; got != 100*60_000 {
		t.Errorf("oldest open time = %d, want %d", got, 100*60_000)
	}
}

func TestHistory_SnapshotLimit(t *testing.T) {
	h := seededHistory(10)

	if got := h.Snapshot(3); len(got) != 3 || got[0].OpenTime != 7*60_000 {
		t.Errorf("Snapshot(3) = %d bars starting %d, want 3 starting %d", len(got), got[0].OpenTime, 7*60_000)
	}
	if got := h.Snapshot(0); len(got) != 10 {
		t.Errorf("Snapshot(0) = %d bars, want all 10", len(got))
	}
	if got := h.Snapshot(99); len(got) != 10 {
		t.Errorf("Snapshot(99) = %d bars, want all 10", len(got))
	}
}
