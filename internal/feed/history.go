// Package feed manages live candle feeds: one goroutine per subscribed
// symbol that seeds a rolling history over REST, follows the upstream
// kline stream, and runs the strategy evaluators on every bar close.
package feed

import (
	"sync"

	"tradevault-engine/internal/model"
)

// MaxCandles is the rolling history cap per symbol. Older bars are
// evicted FIFO once the buffer is full.
const MaxCandles = 500

// History is the rolling candle buffer for one symbol. The feed
// goroutine is the only writer; snapshot readers (REST handlers,
// subscribe acks) arrive from other goroutines, hence the lock.
type History struct {
	mu      sync.RWMutex
	candles []model.Candle
}

// NewHistory creates an empty history.
func NewHistory() *History {
	return &History{candles: make([]model.Candle, 0, MaxCandles)}
}

// Seed replaces the buffer with a freshly fetched window, keeping only
// the newest MaxCandles bars.
func (h *History) Seed(candles []model.Candle) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(candles) > MaxCandles {
		candles = candles[len(candles)-MaxCandles:]
	}
	h.candles = h.candles[:0]
	h.candles = append(h.candles, candles...)
}

// Apply merges one live tick into the buffer and reports what happened:
// stored is false when the tick was discarded, closing is true when the
// tick finalized the bar at the tail, size is the buffer length after.
//
// A tick for the bucket already at the tail updates that bar in place.
// A tick for an unseen bucket is appended only once it is closed (or
// when the buffer is empty); in-progress ticks for an unseen bucket are
// discarded so the buffer never holds two bars with one open time.
func (h *History) Apply(c model.Candle) (stored, closing bool, size int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	n := len(h.candles)
	switch {
	case n > 0 && h.candles[n-1].OpenTime == c.OpenTime:
		h.candles[n-1] = c
		stored = true
	case c.Closed || n == 0:
		h.candles = append(h.candles, c)
		if len(h.candles) > MaxCandles {
			h.candles = h.candles[1:]
		}
		stored = true
	}
	return stored, stored && c.Closed, len(h.candles)
}

// Snapshot copies the newest candles, oldest first. limit <= 0 or
// beyond the buffer length returns everything.
func (h *History) Snapshot(limit int) []model.Candle {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := len(h.candles)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]model.Candle, limit)
	copy(out, h.candles[n-limit:])
	return out
}

// Len returns the number of buffered candles.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.candles)
}
