// Package gateway hosts the viewer-facing surface: the WebSocket hub
// and client pumps, the wire protocol DTOs, and the read-only REST
// snapshot handlers. Every broadcast goes to every connected viewer;
// there is no per-viewer routing.
package gateway

import (
	"context"

	"tradevault-engine/internal/model"
)

// clientMsg is the single inbound message shape. Type selects the
// action; unknown types and unparseable payloads are ignored.
type clientMsg struct {
	Type       string   `json:"type"`
	Symbol     string   `json:"symbol"`
	Strategies []string `json:"strategies"`
}

// FeedController is the slice of the feed manager the gateway drives.
type FeedController interface {
	Subscribe(ctx context.Context, symbol string, strategies []string) (int, error)
	Unsubscribe(symbol string)
	ActiveSymbols() []string
	Status() []SymbolStatus
	SnapshotCandles(symbol string, limit int) ([]model.Candle, bool)
}

// SymbolStatus describes one active feed for /api/symbols.
type SymbolStatus struct {
	Symbol     string   `json:"symbol"`
	Candles    int      `json:"candles"`
	Strategies []string `json:"strategies"`
}
