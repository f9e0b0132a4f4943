// Package binance is the upstream market-data client: REST kline
// windows for seeding plus the per-symbol kline WebSocket stream. It
// carries no credentials; klines are public endpoints.
package binance

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	defaultRESTURL  = "https://api.binance.com"
	defaultWSURL    = "wss://stream.binance.com:9443/ws"
	defaultInterval = "1m"
)

// Client talks to the exchange's public market-data API.
type Client struct {
	restURL  string
	wsURL    string
	interval string
	http     *http.Client
	log      *zap.Logger
}

// NewClient creates a client; empty arguments fall back to the public
// production endpoints and the 1m interval.
func NewClient(restURL, wsURL, interval string, log *zap.Logger) *Client {
	if restURL == "" {
		restURL = defaultRESTURL
	}
	if wsURL == "" {
		wsURL = defaultWSURL
	}
	if interval == "" {
		interval = defaultInterval
	}
	return &Client{
		restURL:  strings.TrimRight(restURL, "/"),
		wsURL:    strings.TrimRight(wsURL, "/"),
		interval: interval,
		http:     &http.Client{Timeout: 15 * time.Second},
		log:      log,
	}
}
