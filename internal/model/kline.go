package model

// Kline is one upstream kline event: a snapshot of a symbol's current
// 1-minute bucket, closed or still forming. The same bucket is delivered
// repeatedly with updated OHLCV until its closing update (Closed=true).
type Kline struct {
	Symbol   string  `json:"symbol"`
	OpenTime int64   `json:"time"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
	Closed   bool    `json:"closed"`
}

// Candle converts the kline snapshot into its candle representation.
func (k *Kline) Candle() Candle {
	return Candle{
		OpenTime: k.OpenTime,
		Open:     k.Open,
		High:     k.High,
		Low:      k.Low,
		Close:    k.Close,
		Volume:   k.Volume,
		Closed:   k.Closed,
	}
}
