package model

// Candle represents a single 1-minute OHLCV bar for one symbol.
// OpenTime is the bucket start in Unix milliseconds, matching the upstream
// kline timestamps. Closed marks a finalized bucket; at most one open bar
// per symbol exists at a time.
type Candle struct {
	OpenTime int64   `json:"time"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
	Closed   bool    `json:"closed"`
}
