package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"

	"tradevault-engine/internal/metrics"
	"tradevault-engine/internal/model"
)

// fakeFeeds records gateway calls and serves canned snapshots.
type fakeFeeds struct {
	mu           sync.Mutex
	subscribes   []string
	strategies   [][]string
	unsubscribes []string

	count   int
	err     error
	active  []string
	status  []SymbolStatus
	candles map[string][]model.Candle
}

func (f *fakeFeeds) Subscribe(_ context.Context, symbol string, strategies []string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subscribes = append(f.subscribes, symbol)
	f.strategies = append(f.strategies, strategies)
	return f.count, f.err
}

func (f *fakeFeeds) Unsubscribe(symbol string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unsubscribes = append(f.unsubscribes, symbol)
}

func (f *fakeFeeds) ActiveSymbols() []string { return f.active }

func (f *fakeFeeds) Status() []SymbolStatus { return f.status }

func (f *fakeFeeds) SnapshotCandles(symbol string, limit int) ([]model.Candle, bool) {
	c, ok := f.candles[symbol]
	if !ok {
		return nil, false
	}
	if limit > 0 && len(c) > limit {
		c = c[len(c)-limit:]
	}
	return c, true
}

func (f *fakeFeeds) calls() (subs []string, unsubs []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.subscribes...), append([]string(nil), f.unsubscribes...)
}

func newTestHub(feeds *fakeFeeds) *Hub {
	return NewHub(feeds, metrics.New(prometheus.NewRegistry()), metrics.NewHealthStatus(), zap.NewNop())
}

func dialTestHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(hub.HandleWS))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var ev map[string]any
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("unmarshal %s: %v", data, err)
	}
	return ev
}

// ─────────────────────────── connection lifecycle ───────────────────────────

func TestHub_ConnectedSnapshotOnJoin(t *testing.T) {
	hub := newTestHub(&fakeFeeds{active: []string{"BTCUSDT", "ETHUSDT"}})
	conn := dialTestHub(t, hub)

	ev := readEvent(t, conn)
	if ev["type"] != "connected" {
		t.Fatalf("first event = %#v, want connected", ev)
	}
	syms, _ := ev["symbols"].([]any)
	if len(syms) != 2 || syms[0] != "BTCUSDT" || syms[1] != "ETHUSDT" {
		t.Errorf("symbols = %v", ev["symbols"])
	}
	if n := hub.ClientCount(); n != 1 {
		t.Errorf("ClientCount = %d, want 1", n)
	}
}

func TestHub_RemoveClientOnDisconnect(t *testing.T) {
	hub := newTestHub(&fakeFeeds{})
	conn := dialTestHub(t, hub)
	readEvent(t, conn)

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.ClientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount = %d after disconnect, want 0", hub.ClientCount())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHub_CloseDisconnectsViewers(t *testing.T) {
	hub := newTestHub(&fakeFeeds{})
	conn := dialTestHub(t, hub)
	readEvent(t, conn)

	hub.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("expected the connection to close")
	}
	if n := hub.ClientCount(); n != 0 {
		t.Errorf("ClientCount after Close = %d, want 0", n)
	}
}

// ─────────────────────────── request dispatch ───────────────────────────

func TestHub_SubscribeAckBroadcast(t *testing.T) {
	feeds := &fakeFeeds{count: 42}
	hub := newTestHub(feeds)
	conn := dialTestHub(t, hub)
	readEvent(t, conn)

	err := conn.WriteJSON(map[string]any{
		"type":       "subscribe",
		"symbol":     " ethusdt ",
		"strategies": []string{"breakout", "regression"},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	ev := readEvent(t, conn)
	if ev["type"] != "subscribed" || ev["symbol"] != "ETHUSDT" || ev["candleCount"] != 42.0 {
		t.Fatalf("ack = %#v, want subscribed ETHUSDT with 42 candles", ev)
	}

	subs, _ := feeds.calls()
	if len(subs) != 1 || subs[0] != "ETHUSDT" {
		t.Errorf("subscribe calls = %v, want normalized ETHUSDT", subs)
	}
	feeds.mu.Lock()
	strategies := feeds.strategies[0]
	feeds.mu.Unlock()
	if len(strategies) != 2 || strategies[0] != "breakout" {
		t.Errorf("strategies passed through = %v", strategies)
	}
}

func TestHub_UnsubscribeAckedForUnknownSymbol(t *testing.T) {
	feeds := &fakeFeeds{}
	hub := newTestHub(feeds)
	conn := dialTestHub(t, hub)
	readEvent(t, conn)

	if err := conn.WriteJSON(map[string]string{"type": "unsubscribe", "symbol": "dogeusdt"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	ev := readEvent(t, conn)
	if ev["type"] != "unsubscribed" || ev["symbol"] != "DOGEUSDT" {
		t.Fatalf("ack = %#v, want unconditional unsubscribed DOGEUSDT", ev)
	}
	if _, unsubs := feeds.calls(); len(unsubs) != 1 || unsubs[0] != "DOGEUSDT" {
		t.Errorf("unsubscribe calls = %v", unsubs)
	}
}

func TestHub_SubscribeFailureSendsNoAck(t *testing.T) {
	feeds := &fakeFeeds{err: errors.New("empty symbol")}
	hub := newTestHub(feeds)
	conn := dialTestHub(t, hub)
	readEvent(t, conn)

	if err := conn.WriteJSON(map[string]string{"type": "subscribe", "symbol": "BTCUSDT"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	if _, data, err := conn.ReadMessage(); err == nil {
		t.Fatalf("unexpected event %s after failed subscribe", data)
	}
}

func TestHub_IgnoresMalformedRequests(t *testing.T) {
	feeds := &fakeFeeds{count: 7}
	hub := newTestHub(feeds)
	conn := dialTestHub(t, hub)
	readEvent(t, conn)

	// Junk, an unknown type, and a blank symbol are all dropped silently;
	// the connection stays usable.
	conn.WriteMessage(websocket.TextMessage, []byte("not json"))
	conn.WriteJSON(map[string]string{"type": "replay", "symbol": "BTCUSDT"})
	conn.WriteJSON(map[string]string{"type": "subscribe", "symbol": "  "})
	conn.WriteJSON(map[string]string{"type": "subscribe", "symbol": "btcusdt"})

	ev := readEvent(t, conn)
	if ev["type"] != "subscribed" || ev["symbol"] != "BTCUSDT" {
		t.Fatalf("ack = %#v, want the valid subscribe to survive the junk", ev)
	}
	if subs, _ := feeds.calls(); len(subs) != 1 {
		t.Errorf("subscribe calls = %v, want exactly one", subs)
	}
}

// ─────────────────────────── broadcast ───────────────────────────

func TestHub_BroadcastReachesAllViewers(t *testing.T) {
	hub := newTestHub(&fakeFeeds{})
	conn1 := dialTestHub(t, hub)
	readEvent(t, conn1)
	conn2 := dialTestHub(t, hub)
	readEvent(t, conn2)

	hub.Broadcast(NewPriceEvent("BTCUSDT", model.Candle{OpenTime: 60_000, Close: 101}))

	for _, conn := range []*websocket.Conn{conn1, conn2} {
		ev := readEvent(t, conn)
		if ev["type"] != "price" || ev["price"] != 101.0 {
			t.Errorf("event = %#v, want the price broadcast", ev)
		}
	}
}

func TestHub_BroadcastSkipsFullQueues(t *testing.T) {
	hub := newTestHub(&fakeFeeds{})

	// A stuck viewer: queue of one, nobody draining it.
	stuck := &Client{hub: hub, send: make(chan []byte, 1)}
	hub.mu.Lock()
	hub.clients[stuck] = true
	hub.mu.Unlock()

	hub.Broadcast(NewPriceEvent("BTCUSDT", model.Candle{Close: 1}))
	hub.Broadcast(NewPriceEvent("BTCUSDT", model.Candle{Close: 2}))

	if got := testutil.ToFloat64(hub.metrics.BroadcastDropped); got != 1 {
		t.Errorf("dropped broadcasts = %v, want 1", got)
	}
	if len(stuck.send) != 1 {
		t.Errorf("stuck queue depth = %d, want the first event only", len(stuck.send))
	}
}
