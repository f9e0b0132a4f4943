package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tradevault-engine/internal/model"
)

// wsKlineEvent mirrors the upstream kline stream payload; only the
// fields the engine consumes are mapped.
type wsKlineEvent struct {
	Event  string  `json:"e"`
	Symbol string  `json:"s"`
	Kline  wsKline `json:"k"`
}

type wsKline struct {
	OpenTime int64  `json:"t"`
	Open     string `json:"o"`
	High     string `json:"h"`
	Low      string `json:"l"`
	Close    string `json:"c"`
	Volume   string `json:"v"`
	Closed   bool   `json:"x"`
}

func (w wsKline) toKline(symbol string) (model.Kline, error) {
	var vals [5]float64
	for i, s := range [5]string{w.Open, w.High, w.Low, w.Close, w.Volume} {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return model.Kline{}, fmt.Errorf("field %d: %w", i, err)
		}
		vals[i] = f
	}
	return model.Kline{
		Symbol:   symbol,
		OpenTime: w.OpenTime,
		Open:     vals[0],
		High:     vals[1],
		Low:      vals[2],
		Close:    vals[3],
		Volume:   vals[4],
		Closed:   w.Closed,
	}, nil
}

// StreamKlines dials the symbol's kline stream and invokes fn for every
// tick until the connection dies or ctx is cancelled. No retry in here;
// the feed manager owns the reconnect policy.
func (c *Client) StreamKlines(ctx context.Context, symbol string, fn func(model.Kline)) error {
	endpoint := fmt.Sprintf("%s/%s@kline_%s", c.wsURL, strings.ToLower(symbol), c.interval)

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return fmt.Errorf("binance: dial %s: %w", endpoint, err)
	}
	defer conn.Close()
	conn.SetReadLimit(1 << 20)

	c.log.Info("kline stream connected", zap.String("symbol", symbol))

	// Watcher closes the socket on unsubscribe, unblocking the read
	// loop; done keeps it from outliving this connection.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "unsubscribed"))
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("binance: read %s: %w", symbol, err)
		}

		var ev wsKlineEvent
		if err := json.Unmarshal(raw, &ev); err != nil || ev.Event != "kline" {
			continue
		}
		k, err := ev.Kline.toKline(ev.Symbol)
		if err != nil {
			c.log.Debug("skipping malformed kline", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		fn(k)
	}
}
