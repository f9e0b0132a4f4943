// Command sigtap is a debugging client for a running engine: it
// subscribes the given symbols and prints every broadcast event as one
// JSON line.
//
//	sigtap -addr ws://localhost:8080/ws BTCUSDT ETHUSDT
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	addr := flag.String("addr", "ws://localhost:8080/ws", "engine WebSocket endpoint")
	strategies := flag.String("strategies", "", "comma-separated strategy subset (default all)")
	flag.Parse()

	symbols := flag.Args()
	if len(symbols) == 0 {
		fmt.Fprintln(os.Stderr, "usage: sigtap [-addr ws://host:port/ws] [-strategies a,b] SYMBOL...")
		os.Exit(2)
	}

	conn, _, err := websocket.DefaultDialer.Dial(*addr, nil)
	if err != nil {
		log.Fatalf("dial %s: %v", *addr, err)
	}
	defer conn.Close()

	var strats []string
	if *strategies != "" {
		strats = strings.Split(*strategies, ",")
	}
	for _, sym := range symbols {
		req := map[string]any{"type": "subscribe", "symbol": sym}
		if len(strats) > 0 {
			req["strategies"] = strats
		}
		if err := conn.WriteJSON(req); err != nil {
			log.Fatalf("subscribe %s: %v", sym, err)
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			fmt.Println(string(data))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-done:
	case <-sigCh:
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}
