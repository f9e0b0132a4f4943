package gateway

import (
	"tradevault-engine/internal/model"
	"tradevault-engine/internal/strategy"
)

// Outbound event payloads. One JSON object per WebSocket text frame.

// ConnectedEvent is sent to a newly connected viewer only, listing the
// symbols that already have live feeds.
type ConnectedEvent struct {
	Type    string   `json:"type"`
	Symbols []string `json:"symbols"`
}

func NewConnectedEvent(symbols []string) ConnectedEvent {
	if symbols == nil {
		symbols = []string{}
	}
	return ConnectedEvent{Type: "connected", Symbols: symbols}
}

// SubscribedEvent acknowledges a subscribe to every viewer. The candle
// count reflects the history right after seeding.
type SubscribedEvent struct {
	Type        string `json:"type"`
	Symbol      string `json:"symbol"`
	CandleCount int    `json:"candleCount"`
}

func NewSubscribedEvent(symbol string, candleCount int) SubscribedEvent {
	return SubscribedEvent{Type: "subscribed", Symbol: symbol, CandleCount: candleCount}
}

// UnsubscribedEvent acknowledges a feed teardown to every viewer.
type UnsubscribedEvent struct {
	Type   string `json:"type"`
	Symbol string `json:"symbol"`
}

func NewUnsubscribedEvent(symbol string) UnsubscribedEvent {
	return UnsubscribedEvent{Type: "unsubscribed", Symbol: symbol}
}

// PriceEvent carries one live tick. Time is the bar's open time in
// epoch milliseconds.
type PriceEvent struct {
	Type   string  `json:"type"`
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Volume float64 `json:"volume"`
	Time   int64   `json:"time"`
}

func NewPriceEvent(symbol string, c model.Candle) PriceEvent {
	return PriceEvent{
		Type:   "price",
		Symbol: symbol,
		Price:  c.Close,
		High:   c.High,
		Low:    c.Low,
		Volume: c.Volume,
		Time:   c.OpenTime,
	}
}

// NewSignalEvent builds a signal payload with the evaluator's meta
// fields flattened into the top level next to the fixed ones.
func NewSignalEvent(symbol, strategyName string, sig *strategy.Signal, openTime int64) map[string]any {
	ev := map[string]any{
		"type":     "signal",
		"symbol":   symbol,
		"strategy": strategyName,
		"action":   string(sig.Action),
		"reason":   sig.Reason,
		"strength": sig.Strength,
		"time":     openTime,
	}
	for k, v := range sig.Meta {
		ev[k] = v
	}
	return ev
}
