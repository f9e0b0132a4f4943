package gateway

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	maxMsgSize = 4096
)

// Client is one websocket viewer. The hub writes to send; writePump
// drains it onto the wire.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// enqueue marshals v and queues it for this viewer only.
func (c *Client) enqueue(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.hub.log.Error("enqueue marshal failed", zap.Error(err))
		return
	}
	select {
	case c.send <- data:
	default:
		c.hub.metrics.BroadcastDropped.Inc()
	}
}

// writePump moves queued events onto the connection and keeps it alive
// with pings. Exits when the send channel closes or a write fails.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump consumes viewer requests until the connection drops, then
// unregisters the client.
func (c *Client) readPump() {
	defer func() {
		c.hub.removeClient(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMsgSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.log.Warn("viewer read failed", zap.Error(err))
			}
			return
		}

		var msg clientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			c.hub.log.Debug("bad viewer message", zap.Error(err))
			continue
		}
		c.dispatch(msg)
	}
}

// dispatch routes one viewer request. Subscribe runs async because the
// initial seed can take seconds; unsubscribe is immediate.
func (c *Client) dispatch(msg clientMsg) {
	symbol := strings.ToUpper(strings.TrimSpace(msg.Symbol))
	if symbol == "" {
		return
	}

	switch msg.Type {
	case "subscribe":
		strategies := msg.Strategies
		go func() {
			count, err := c.hub.feeds.Subscribe(context.Background(), symbol, strategies)
			if err != nil {
				c.hub.log.Warn("subscribe failed", zap.String("symbol", symbol), zap.Error(err))
				return
			}
			c.hub.Broadcast(NewSubscribedEvent(symbol, count))
		}()
	case "unsubscribe":
		c.hub.feeds.Unsubscribe(symbol)
		c.hub.Broadcast(NewUnsubscribedEvent(symbol))
	default:
		c.hub.log.Debug("unknown viewer request", zap.String("type", msg.Type))
	}
}
