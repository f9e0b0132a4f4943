package feed

import (
	"context"
	"hash/fnv"
	"math/rand"
	"time"

	"tradevault-engine/internal/model"
)

// SimSource synthesizes a deterministic per-symbol random walk so the
// whole pipeline can run without upstream network access (provider:
// sim). Buckets are compressed: BucketSeconds of wall time stands in
// for one bar, with a forming tick every TickMillis.
type SimSource struct {
	BucketSeconds int
	TickMillis    int
}

// NewSimSource creates a sim source with sane compressed defaults.
func NewSimSource(bucketSeconds, tickMillis int) *SimSource {
	if bucketSeconds <= 0 {
		bucketSeconds = 5
	}
	if tickMillis <= 0 {
		tickMillis = 500
	}
	return &SimSource{BucketSeconds: bucketSeconds, TickMillis: tickMillis}
}

// walk derives the symbol's starting point. Identical symbols give
// identical walks, keeping sim runs reproducible.
func (s *SimSource) walk(symbol string) (*rand.Rand, float64) {
	h := fnv.New64a()
	h.Write([]byte(symbol))
	seed := h.Sum64()
	return rand.New(rand.NewSource(int64(seed))), 50 + float64(seed%10_000)/10
}

// RecentKlines synthesizes limit closed bars ending at the last
// completed bucket boundary.
func (s *SimSource) RecentKlines(ctx context.Context, symbol string, limit int) ([]model.Kline, error) {
	rng, price := s.walk(symbol)

	bucketMs := int64(s.BucketSeconds) * 1000
	now := time.Now().UnixMilli()
	openTime := now - now%bucketMs - int64(limit)*bucketMs

	out := make([]model.Kline, 0, limit)
	for i := 0; i < limit; i++ {
		k := model.Kline{
			Symbol:   symbol,
			OpenTime: openTime,
			Open:     price,
			High:     price,
			Low:      price,
			Closed:   true,
		}
		for step := 0; step < 6; step++ {
			price *= 1 + (rng.Float64()-0.5)*0.004
			if price > k.High {
				k.High = price
			}
			if price < k.Low {
				k.Low = price
			}
			k.Volume += 1 + rng.Float64()*4
		}
		k.Close = price
		out = append(out, k)
		openTime += bucketMs
	}
	return out, nil
}

// StreamKlines ticks a forming bar every TickMillis and closes it at
// each bucket boundary, mirroring the upstream kline stream shape.
func (s *SimSource) StreamKlines(ctx context.Context, symbol string, fn func(model.Kline)) error {
	rng, price := s.walk(symbol)
	bucketMs := int64(s.BucketSeconds) * 1000

	ticker := time.NewTicker(time.Duration(s.TickMillis) * time.Millisecond)
	defer ticker.Stop()

	var cur *model.Kline
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			ms := now.UnixMilli()
			bucket := ms - ms%bucketMs

			if cur != nil && cur.OpenTime != bucket {
				cur.Closed = true
				fn(*cur)
				cur = nil
			}
			if cur == nil {
				cur = &model.Kline{
					Symbol:   symbol,
					OpenTime: bucket,
					Open:     price,
					High:     price,
					Low:      price,
					Close:    price,
				}
			}

			price *= 1 + (rng.Float64()-0.5)*0.004
			cur.Close = price
			if price > cur.High {
				cur.High = price
			}
			if price < cur.Low {
				cur.Low = price
			}
			cur.Volume += 1 + rng.Float64()*4
			fn(*cur)
		}
	}
}
